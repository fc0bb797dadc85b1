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

	"go.uber.org/zap"

	"github.com/antflydb/topicseg/lib/config"
)

// Router dispatches review queries to the configured backend. Construction
// resolves the provider selection once; dispatch afterwards is stateless and
// safe for concurrent use.
type Router struct {
	client Client
}

// NewRouter builds a router from the LLM section of the run configuration.
// The selection is validated here so a misconfigured provider fails the run
// before any review query is issued.
func NewRouter(cfg config.LLMConfig, logger *zap.Logger) (*Router, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if resolved.Remote != nil {
		return &Router{client: NewRemoteClient(resolved.Remote, logger)}, nil
	}
	return &Router{client: NewLocalClient(resolved.Local, logger)}, nil
}

// NewRouterWithClient wires an explicit client, used by tests and embedders.
func NewRouterWithClient(client Client) *Router {
	return &Router{client: client}
}

// Call answers one review prompt through the selected backend.
func (r *Router) Call(ctx context.Context, prompt string) string {
	return r.client.Complete(ctx, prompt)
}
