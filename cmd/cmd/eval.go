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

	"github.com/spf13/cobra"

	"github.com/antflydb/topicseg/lib/evaluation"
)

var evalCmd = &cobra.Command{
	Use:   "eval <gold-dir> <pred-dir>",
	Short: "Score predicted chunk files against a gold set",
	Long: `Compare predicted chunk JSONL files against gold chunk files of the
same names and report the topic-boundary F1 score.

Examples:
  topicseg eval testdata/gold out/`,
	Args: cobra.ExactArgs(2),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	score, err := evaluation.Evaluate(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Topic-Boundary F1: %.4f\n", score)
	return nil
}
