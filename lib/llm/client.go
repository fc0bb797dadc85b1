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

// Package llm provides chat-completion clients for boundary review queries
// and the provider routing between them.
//
// Every client follows the same degradation contract: a query that cannot be
// answered after retries yields the sentinel answer "no" instead of an error,
// so vote counting upstream never has to distinguish failure from dissent.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FallbackAnswer is returned when a backend cannot produce a response.
// It counts as a dissenting vote, biasing review toward fewer boundaries.
const FallbackAnswer = "no"

const (
	// RequestTimeout bounds each individual completion call end to end.
	RequestTimeout = 120 * time.Second

	// maxAttempts caps tries per query, first try included.
	maxAttempts = 3

	// retryBaseWait grows linearly with the attempt number.
	retryBaseWait = 500 * time.Millisecond

	// maxAnswerTokens keeps completions short; reviews are yes/no answers.
	maxAnswerTokens = 64
)

// Client answers a single review prompt.
type Client interface {
	// Complete returns the model's answer text for prompt. Implementations
	// never return an error for transport or protocol failures; they retry
	// and then fall back to FallbackAnswer.
	Complete(ctx context.Context, prompt string) string
}

// chatRequest is the chat-completions request body shared by both backends.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r chatResponse) content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

func newChatRequest(model, prompt string) chatRequest {
	return chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxAnswerTokens,
		Temperature: 0,
	}
}

// completeWithRetry posts body to endpoint through client, retrying transient
// failures with linear backoff. Authentication failures short-circuit: a bad
// credential cannot be fixed by retrying. All failure paths end in
// FallbackAnswer rather than an error.
func completeWithRetry(
	ctx context.Context,
	client *resty.Client,
	endpoint string,
	body chatRequest,
	logger *zap.Logger,
) string {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var parsed chatResponse
		resp, err := client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&parsed).
			Post(endpoint)

		switch {
		case err != nil:
			logger.Warn("completion request failed",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))

		case resp.StatusCode() == http.StatusUnauthorized:
			logger.Warn("completion request rejected: bad credentials",
				zap.String("endpoint", endpoint))
			return FallbackAnswer

		case resp.StatusCode() == http.StatusTooManyRequests:
			logger.Warn("completion request rate limited",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt))

		case resp.StatusCode() != http.StatusOK:
			logger.Warn("completion request returned non-OK status",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode()))

		case parsed.content() == "":
			logger.Warn("completion response missing content",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt))

		default:
			return parsed.content()
		}

		if attempt < maxAttempts {
			wait := time.Duration(attempt) * retryBaseWait
			select {
			case <-ctx.Done():
				logger.Warn("completion canceled while backing off",
					zap.String("endpoint", endpoint))
				return FallbackAnswer
			case <-time.After(wait):
			}
		}
	}

	logger.Warn("completion attempts exhausted, falling back",
		zap.String("endpoint", endpoint),
		zap.Int("attempts", maxAttempts))
	return FallbackAnswer
}

func newHTTPClient() *resty.Client {
	return resty.New().
		SetTimeout(RequestTimeout).
		SetHeader("Content-Type", "application/json")
}
