// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/antflydb/topicseg"
	"github.com/antflydb/topicseg/lib/config"
)

var (
	outputPath  string
	forceRemote bool
)

var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Segment a text file into topic chunks",
	Long: `Read a text file, split it into sentences, detect topic boundaries
and write the chunks as JSON lines.

Examples:
  # Segment with the default config
  topicseg run article.txt

  # Segment with an explicit config and output path
  topicseg run --config conf/gpu.yaml --output out.jsonl article.txt

  # Force the remote LLM backend for boundary review
  topicseg run --force-remote article.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&outputPath, "output", "", "output path (defaults to <input>.chunks.jsonl)")
	runCmd.Flags().BoolVar(&forceRemote, "force-remote", false, "force the remote LLM backend for boundary review")
}

func runSegment(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if forceRemote {
		cfg.LLM.Provider = config.ProviderRemote
	}

	pipeline, err := topicseg.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()

	outPath, err := pipeline.Run(ctx, args[0], outputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote chunks to %s\n", outPath)
	return nil
}
