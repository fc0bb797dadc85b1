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
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEmbedder returns a deterministic two-dimensional vector per text.
type fakeEmbedder struct {
	calls  atomic.Int32
	failed bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.failed {
		return nil, fmt.Errorf("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Close() error { return nil }

func TestEmbedBatchedPreservesOrder(t *testing.T) {
	fake := &fakeEmbedder{}
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vectors, err := EmbedBatched(context.Background(), fake, texts, 2)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		require.Equal(t, float32(len(text)), vectors[i][0])
	}
	require.Equal(t, int32(3), fake.calls.Load(), "five texts in batches of two")
}

func TestEmbedBatchedPropagatesFailure(t *testing.T) {
	_, err := EmbedBatched(context.Background(), &fakeEmbedder{failed: true}, []string{"x"}, 8)
	require.Error(t, err)
}

func TestServiceEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)

		resp := embedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{1, 0, 0}})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, sonic.ConfigDefault.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	embedder := NewServiceEmbedder(ServiceConfig{
		Endpoint: srv.URL + "/v1/embeddings",
		Model:    "test-model",
		Device:   "cpu",
	}, zap.NewNop())

	vectors, err := embedder.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Equal(t, []float32{1, 0, 0}, vectors[0])
}

func TestServiceEmbedderShapeMismatchIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1,0]}]}`)
	}))
	defer srv.Close()

	embedder := NewServiceEmbedder(ServiceConfig{Endpoint: srv.URL, Model: "m"}, zap.NewNop())
	_, err := embedder.Embed(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestServiceEmbedderNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	embedder := NewServiceEmbedder(ServiceConfig{Endpoint: srv.URL, Model: "m"}, zap.NewNop())
	_, err := embedder.Embed(context.Background(), []string{"one"})
	require.Error(t, err)
}

func TestCachedEmbedderDeduplicates(t *testing.T) {
	fake := &fakeEmbedder{}
	cached := NewCachedEmbedder(fake, "test-model", zap.NewNop())
	defer func() { _ = cached.Close() }()

	texts := []string{"same", "batch"}
	first, err := cached.Embed(context.Background(), texts)
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int32(1), fake.calls.Load(), "second identical batch must hit the cache")

	hits, misses := cached.Stats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(1), misses)
}

func TestCachedEmbedderDistinctBatches(t *testing.T) {
	fake := &fakeEmbedder{}
	cached := NewCachedEmbedder(fake, "test-model", zap.NewNop())
	defer func() { _ = cached.Close() }()

	_, err := cached.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), []string{"ab"})
	require.NoError(t, err)
	require.Equal(t, int32(2), fake.calls.Load(), "delimited keys must not collide across batch shapes")
}

func TestRegistrySharesHandlePerDevice(t *testing.T) {
	var created atomic.Int32
	registry := NewRegistry(func(device string) (Embedder, error) {
		created.Add(1)
		return &fakeEmbedder{}, nil
	}, zap.NewNop())
	defer func() { _ = registry.Close() }()

	first, err := registry.Get("cpu")
	require.NoError(t, err)
	again, err := registry.Get("cpu")
	require.NoError(t, err)
	require.Same(t, first, again)

	_, err = registry.Get("cuda")
	require.NoError(t, err)
	require.Equal(t, int32(2), created.Load())
	require.Equal(t, []string{"cpu", "cuda"}, registry.Devices())
}

func TestRegistryFactoryFailure(t *testing.T) {
	registry := NewRegistry(func(device string) (Embedder, error) {
		return nil, fmt.Errorf("no such device")
	}, zap.NewNop())
	defer func() { _ = registry.Close() }()

	_, err := registry.Get("tpu")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "tpu"))
}
