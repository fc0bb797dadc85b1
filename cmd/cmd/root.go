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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set by main from build metadata.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "topicseg",
	Short: "Topic-aware sentence segmenter",
	Long: `Topicseg splits text files into topically coherent chunks by scoring
adjacent-sentence coherence from dense embeddings, with optional LLM review
of ambiguous boundaries.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "conf/default.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	mustBindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// newLogger builds the process logger from the configured level.
func newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
