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

// Package builder assembles boundary-flagged sentences into topic chunks.
package builder

import (
	"fmt"
	"strings"
)

// Chunk is a contiguous, non-empty run of sentences belonging to one topic.
type Chunk struct {
	Sentences []string `json:"sentences"`
}

// Text returns the chunk's sentences joined without a separator.
func (c Chunk) Text() string {
	return strings.Join(c.Sentences, "")
}

// Build groups sentences into chunks according to the boundary flags.
// A true flag at position i closes the chunk ending at sentence i inclusive.
// Any trailing sentences after the last true flag form a final chunk.
//
// The concatenation of all returned chunks reproduces the input sentence
// sequence exactly; no chunk is ever empty.
func Build(sentences []string, boundaries []bool) ([]Chunk, error) {
	if len(sentences) != len(boundaries) {
		return nil, fmt.Errorf("sentence/boundary length mismatch: %d != %d", len(sentences), len(boundaries))
	}

	var chunks []Chunk
	var current []string
	for i, sent := range sentences {
		current = append(current, sent)
		if boundaries[i] && len(current) > 0 {
			chunks = append(chunks, Chunk{Sentences: current})
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{Sentences: current})
	}
	return chunks, nil
}
