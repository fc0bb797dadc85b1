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

package llm

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/antflydb/topicseg/lib/config"
)

// LocalClient queries a locally hosted OpenAI-compatible inference server
// (llama.cpp, vLLM and similar all expose this shape).
type LocalClient struct {
	client   *resty.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewLocalClient builds a client for the configured local server.
func NewLocalClient(cfg *config.LocalLLMConfig, logger *zap.Logger) *LocalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimRight(cfg.ServerURL, "/") + "/v1/chat/completions"
	return &LocalClient{
		client:   newHTTPClient(),
		endpoint: endpoint,
		model:    cfg.ModelPath,
		logger:   logger.Named("llm-local"),
	}
}

// Complete implements Client.
func (c *LocalClient) Complete(ctx context.Context, prompt string) string {
	return completeWithRetry(ctx, c.client, c.endpoint, newChatRequest(c.model, prompt), c.logger)
}
