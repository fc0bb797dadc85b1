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

package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ServiceTimeout bounds each embedding request.
const ServiceTimeout = 120 * time.Second

// ServiceEmbedder calls an OpenAI-style /v1/embeddings endpoint.
type ServiceEmbedder struct {
	client   *resty.Client
	endpoint string
	model    string
	device   string
	logger   *zap.Logger
}

// ServiceConfig configures a ServiceEmbedder.
type ServiceConfig struct {
	// Endpoint is the full embeddings URL.
	Endpoint string
	// Model identifies the embedding model hosted by the service.
	Model string
	// Device is the device hint forwarded to the service, also used as the
	// registry key.
	Device string
}

// NewServiceEmbedder builds a client for the configured embedding service.
func NewServiceEmbedder(cfg ServiceConfig, logger *zap.Logger) *ServiceEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceEmbedder{
		client: resty.New().
			SetTimeout(ServiceTimeout).
			SetHeader("Content-Type", "application/json").
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil ||
					r.StatusCode() == http.StatusTooManyRequests ||
					r.StatusCode() >= http.StatusInternalServerError
			}),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		device:   cfg.Device,
		logger:   logger.Named("embeddings"),
	}
}

type embedRequest struct {
	Model  string   `json:"model"`
	Input  []string `json:"input"`
	Device string   `json:"device,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Embedder. The response must carry exactly one vector per
// input text; anything else is an error, never repaired.
func (e *ServiceEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	var parsed embedResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: e.model, Input: texts, Device: e.device}).
		SetResult(&parsed).
		Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode())
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding service returned out-of-range index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	e.logger.Debug("embedded batch",
		zap.String("model", e.model),
		zap.Int("texts", len(texts)),
		zap.Duration("duration", time.Since(start)))
	return vectors, nil
}

// Close implements Embedder. The HTTP client holds no pinned resources.
func (e *ServiceEmbedder) Close() error { return nil }
