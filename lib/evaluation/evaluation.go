// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package evaluation scores predicted chunk files against a gold set.
//
// A chunk file implies a set of boundary indices: the cumulative sentence
// count after each chunk. Precision/recall compare predicted indices against
// gold indices over the union of both sets, per matching file name.
package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/antflydb/topicseg/lib/writer"
)

// BoundaryIndices returns the boundary index set implied by a chunk file.
func BoundaryIndices(path string) (map[int]bool, error) {
	records, err := writer.ReadFile(path)
	if err != nil {
		return nil, err
	}
	indices := make(map[int]bool)
	idx := 0
	for _, rec := range records {
		idx += len(rec.Sentences)
		indices[idx] = true
	}
	return indices, nil
}

// Evaluate computes the boundary F1 score of predDir against goldDir.
// Every *.jsonl file in goldDir must have a counterpart of the same name in
// predDir.
func Evaluate(goldDir, predDir string) (float64, error) {
	goldFiles, err := filepath.Glob(filepath.Join(goldDir, "*.jsonl"))
	if err != nil {
		return 0, fmt.Errorf("listing gold files: %w", err)
	}
	if len(goldFiles) == 0 {
		return 0, fmt.Errorf("no gold files in %s", goldDir)
	}
	sort.Strings(goldFiles)

	var tp, fp, fn int
	for _, goldPath := range goldFiles {
		predPath := filepath.Join(predDir, filepath.Base(goldPath))
		if _, err := os.Stat(predPath); err != nil {
			return 0, fmt.Errorf("missing prediction for %s: %w", filepath.Base(goldPath), err)
		}

		goldSet, err := BoundaryIndices(goldPath)
		if err != nil {
			return 0, err
		}
		predSet, err := BoundaryIndices(predPath)
		if err != nil {
			return 0, err
		}

		for idx := range union(goldSet, predSet) {
			switch {
			case goldSet[idx] && predSet[idx]:
				tp++
			case predSet[idx]:
				fp++
			default:
				fn++
			}
		}
	}

	return f1(tp, fp, fn), nil
}

func union(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func f1(tp, fp, fn int) float64 {
	if tp == 0 {
		return 0
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	return 2 * precision * recall / (precision + recall)
}
