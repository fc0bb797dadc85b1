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

// Package embeddings consumes sentence embeddings from an external model
// service. The segmenter never computes vectors itself; it sends ordered
// sentence batches out and receives fixed-dimension L2-normalized vectors
// back, one per sentence, in input order.
package embeddings

import "context"

// Embedder produces one embedding per input text, preserving order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// EmbedBatched runs texts through embedder in batches of batchSize and
// concatenates the results in input order. Embedding failures are fatal to
// the run; there is no partial output.
func EmbedBatched(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
