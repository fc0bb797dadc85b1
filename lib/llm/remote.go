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

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/antflydb/topicseg/lib/config"
)

// RemoteClient queries a hosted chat-completions API (OpenAI and compatible).
type RemoteClient struct {
	client   *resty.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewRemoteClient builds a client for the configured remote endpoint.
func NewRemoteClient(cfg *config.RemoteLLMConfig, logger *zap.Logger) *RemoteClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := newHTTPClient()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &RemoteClient{
		client:   client,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm-remote"),
	}
}

// Complete implements Client.
func (c *RemoteClient) Complete(ctx context.Context, prompt string) string {
	return completeWithRetry(ctx, c.client, c.endpoint, newChatRequest(c.model, prompt), c.logger)
}
