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

// Package detector finds topic boundaries in an ordered sentence sequence
// from dense sentence embeddings.
//
// Detection is a staged pipeline: an adjacency-similarity threshold and a
// windowed anomaly score each propose boundaries, the union is optionally
// refined by majority-vote LLM review, and a final filter drops boundaries
// that would split on degenerate sentences. A flag at position i means a
// topic boundary begins immediately before sentence i; position 0 is never
// flagged by the scoring stages.
package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/antflydb/topicseg/lib/config"
	"github.com/antflydb/topicseg/lib/llm"
)

// ErrShapeMismatch reports a fatal precondition violation: the embedding
// sequence does not line up one-to-one with the sentence sequence.
var ErrShapeMismatch = errors.New("embedding count does not match sentence count")

// Detector runs the boundary pipeline with fixed numeric parameters.
type Detector struct {
	cfg    config.DetectorConfig
	router *llm.Router
	// maxInFlight bounds concurrent review positions in Stage C.
	maxInFlight int64
	logger      *zap.Logger
}

// Option customizes a Detector.
type Option func(*Detector)

// WithRouter enables LLM review through the given provider router.
// Without a router, review is skipped even when the config requests it.
func WithRouter(router *llm.Router) Option {
	return func(d *Detector) { d.router = router }
}

// WithReviewConcurrency bounds how many flagged positions may have review
// queries in flight at once.
func WithReviewConcurrency(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxInFlight = int64(n)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector from the numeric config.
func New(cfg config.DetectorConfig, opts ...Option) *Detector {
	d := &Detector{
		cfg:         cfg,
		maxInFlight: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns one boundary flag per sentence. Embeddings and sentences
// must be index-aligned; a length mismatch is fatal. Ordering of the output
// always matches the input, and no position is ever dropped.
//
// LLM review failures never surface here. A vote that cannot be obtained
// counts as "no", so turbulence in the review backend only ever suppresses
// boundaries.
func (d *Detector) Detect(ctx context.Context, embeddings [][]float32, sentences []string) ([]bool, error) {
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("%w: %d embeddings, %d sentences", ErrShapeMismatch, len(embeddings), len(sentences))
	}

	aFlags := stageAdjacency(embeddings, d.cfg.ThetaLow)
	bFlags := stageWindowAnomaly(embeddings, d.cfg.K, d.cfg.Tau)
	flags := combine(aFlags, bFlags)

	provisional := countTrue(flags)
	d.logger.Debug("scored boundary candidates",
		zap.Int("sentences", len(sentences)),
		zap.Int("adjacency_flags", countTrue(aFlags)),
		zap.Int("anomaly_flags", countTrue(bFlags)),
		zap.Int("combined", provisional))

	if d.cfg.UseLLMReview && d.router != nil {
		flags = d.reviewBoundaries(ctx, sentences, flags)
		d.logger.Debug("review refined candidates",
			zap.Int("before", provisional),
			zap.Int("after", countTrue(flags)))
	}

	flags = suppressDegenerate(sentences, flags)
	return flags, nil
}

// stageAdjacency flags position i when the cosine similarity between
// embeddings i-1 and i falls below thetaLow. Position 0 is never flagged.
func stageAdjacency(embeddings [][]float32, thetaLow float64) []bool {
	flags := make([]bool, len(embeddings))
	for i := 1; i < len(embeddings); i++ {
		flags[i] = CosineSimilarity(embeddings[i-1], embeddings[i]) < thetaLow
	}
	return flags
}

// stageWindowAnomaly flags positions where adjacent similarity deviates from
// its trailing moving average by more than tau standard deviations. The
// similarity series gets a synthetic leading 1.0 so it aligns with sentence
// positions; sigma is the population deviation of the whole residual series,
// so with fewer than two sentences the stage never fires.
func stageWindowAnomaly(embeddings [][]float32, k int, tau float64) []bool {
	n := len(embeddings)
	flags := make([]bool, n)
	if n <= 1 {
		return flags
	}

	sims := make([]float64, n)
	sims[0] = 1.0
	for i := 1; i < n; i++ {
		sims[i] = CosineSimilarity(embeddings[i-1], embeddings[i])
	}

	avg := movingAverage(sims, k)
	resid := make([]float64, n)
	for i := range sims {
		resid[i] = math.Abs(sims[i] - avg[i])
	}

	sigma := populationStdDev(resid)
	for i := range resid {
		flags[i] = resid[i] > tau*sigma
	}
	return flags
}

// combine unions the adjacency and anomaly flags positionally.
func combine(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] || b[i]
	}
	return out
}

// suppressDegenerate clears flags on near-empty sentences. Splitter artifacts
// of one stripped character or less must not start a chunk.
func suppressDegenerate(sentences []string, flags []bool) []bool {
	out := make([]bool, len(flags))
	copy(out, flags)
	for i, flag := range flags {
		if flag && len([]rune(strings.TrimSpace(sentences[i]))) <= 1 {
			out[i] = false
		}
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero-norm vector yields 0, which the adjacency stage treats as a
// maximally dissimilar pair.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// movingAverage computes the causal simple moving average of data with a
// window of up to k most recent values ending at each index.
func movingAverage(data []float64, k int) []float64 {
	out := make([]float64, len(data))
	var sum float64
	for i, v := range data {
		sum += v
		if i >= k {
			sum -= data[i-k]
		}
		width := min(i+1, k)
		out[i] = sum / float64(width)
	}
	return out
}

// populationStdDev returns the population standard deviation of data,
// 0 for fewer than two points.
func populationStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	var variance float64
	for _, v := range data {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(data))
	return math.Sqrt(variance)
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
