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

// Package topicseg segments text files into topically coherent chunks.
//
// The pipeline reads a file, splits it into sentences, embeds each sentence
// through an external embedding service, detects topic boundaries, and
// writes the resulting chunks as JSON lines. Boundary detection is the only
// stage with real algorithmic weight; see lib/detector.
package topicseg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/topicseg/lib/builder"
	"github.com/antflydb/topicseg/lib/config"
	"github.com/antflydb/topicseg/lib/detector"
	"github.com/antflydb/topicseg/lib/embeddings"
	"github.com/antflydb/topicseg/lib/llm"
	"github.com/antflydb/topicseg/lib/textproc"
	"github.com/antflydb/topicseg/lib/writer"
)

// Pipeline wires the segmentation stages for repeated runs under one config.
type Pipeline struct {
	cfg      config.Config
	registry *embeddings.Registry
	router   *llm.Router
	logger   *zap.Logger
}

// NewPipeline builds a pipeline from cfg. The embedding registry is owned by
// the pipeline and torn down by Close. The LLM router is only constructed
// when the detector config asks for review, so runs without review never
// require LLM settings.
func NewPipeline(cfg config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := embeddings.NewRegistry(func(device string) (embeddings.Embedder, error) {
		service := embeddings.NewServiceEmbedder(embeddings.ServiceConfig{
			Endpoint: cfg.Embedding.Endpoint,
			Model:    cfg.Embedding.Model,
			Device:   device,
		}, logger)
		return embeddings.NewCachedEmbedder(service, cfg.Embedding.Model, logger), nil
	}, logger)

	p := &Pipeline{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}

	if cfg.Detector.UseLLMReview {
		router, err := llm.NewRouter(cfg.LLM, logger)
		if err != nil {
			registry.Close()
			return nil, fmt.Errorf("configuring llm review: %w", err)
		}
		p.router = router
	}

	return p, nil
}

// Run segments the text file at inputPath and writes chunks to outputPath.
// An empty outputPath derives "<input>.chunks.jsonl". Returns the path
// written.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (string, error) {
	start := time.Now()

	sentences, err := textproc.ReadSentencesFile(inputPath)
	if err != nil {
		return "", err
	}
	RecordSentences(len(sentences))

	chunks, err := p.Segment(ctx, sentences)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = deriveOutputPath(inputPath)
	}
	if err := writer.WriteFile(outputPath, chunks); err != nil {
		return "", err
	}

	p.logger.Info("segmentation complete",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("sentences", len(sentences)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)))
	return outputPath, nil
}

// Segment detects boundaries for sentences and groups them into chunks.
func (p *Pipeline) Segment(ctx context.Context, sentences []string) ([]builder.Chunk, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	embedder, err := p.registry.Get(p.cfg.Runtime.Device)
	if err != nil {
		return nil, err
	}

	embedStart := time.Now()
	vectors, err := embeddings.EmbedBatched(ctx, embedder, sentences, p.cfg.Runtime.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("embedding sentences: %w", err)
	}
	RecordStageDuration("embed", time.Since(embedStart).Seconds())
	if cached, ok := embedder.(*embeddings.CachedEmbedder); ok {
		RecordCacheStats(cached.Stats())
	}

	opts := []detector.Option{
		detector.WithLogger(p.logger),
		detector.WithReviewConcurrency(p.cfg.Runtime.LLMConcurrency),
	}
	if p.router != nil {
		opts = append(opts, detector.WithRouter(p.router))
	}

	detectStart := time.Now()
	boundaries, err := detector.New(p.cfg.Detector, opts...).Detect(ctx, vectors, sentences)
	if err != nil {
		return nil, fmt.Errorf("detecting boundaries: %w", err)
	}
	RecordStageDuration("detect", time.Since(detectStart).Seconds())

	for _, b := range boundaries {
		if b {
			RecordBoundary()
		}
	}

	chunks, err := builder.Build(sentences, closingFlags(boundaries))
	if err != nil {
		return nil, fmt.Errorf("building chunks: %w", err)
	}
	RecordChunks(len(chunks))
	return chunks, nil
}

// closingFlags converts detector flags into builder flags. The detector
// marks position i when a boundary begins immediately before sentence i; the
// builder closes the chunk ending at the flagged sentence inclusive. A
// boundary before sentence i therefore closes the chunk at sentence i-1.
func closingFlags(boundaries []bool) []bool {
	closes := make([]bool, len(boundaries))
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] {
			closes[i-1] = true
		}
	}
	return closes
}

// Close releases the embedding handles.
func (p *Pipeline) Close() error {
	return p.registry.Close()
}

func deriveOutputPath(inputPath string) string {
	if idx := strings.LastIndex(inputPath, "."); idx > strings.LastIndexByte(inputPath, '/') {
		return inputPath[:idx] + ".chunks.jsonl"
	}
	return inputPath + ".chunks.jsonl"
}
