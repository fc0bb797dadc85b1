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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
runtime:
  device: cpu
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.Runtime.BatchSize)
	require.Equal(t, 0.55, cfg.Detector.ThetaLow)
	require.Equal(t, 5, cfg.Detector.K)
	require.Equal(t, 3.5, cfg.Detector.Tau)
	require.Equal(t, 3, cfg.Detector.NVote)
	require.False(t, cfg.Detector.UseLLMReview)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
runtime:
  device: cuda
  batch_size: 16
  llm_concurrency: 4
llm:
  provider: remote
  remote:
    endpoint: https://api.example.com/v1/chat/completions
    model: gpt-4o-mini
embedding:
  endpoint: http://127.0.0.1:8080/v1/embeddings
  model: all-MiniLM-L6-v2
detector:
  theta_low: 0.6
  k: 7
  tau: 2.0
  n_vote: 5
  use_llm_review: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "cuda", cfg.Runtime.Device)
	require.Equal(t, 4, cfg.Runtime.LLMConcurrency)
	require.Equal(t, ProviderRemote, cfg.LLM.Provider)
	require.Equal(t, 0.6, cfg.Detector.ThetaLow)
	require.Equal(t, 5, cfg.Detector.NVote)
	require.True(t, cfg.Detector.UseLLMReview)

	resolved, err := cfg.LLM.Resolve()
	require.NoError(t, err)
	require.NotNil(t, resolved.Remote)
	require.Nil(t, resolved.Local)
	require.Equal(t, "gpt-4o-mini", resolved.Remote.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadNumerics(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.Detector.K = 0 }},
		{"negative tau", func(c *Config) { c.Detector.Tau = -1 }},
		{"zero votes", func(c *Config) { c.Detector.NVote = 0 }},
		{"zero batch", func(c *Config) { c.Runtime.BatchSize = 0 }},
		{"zero concurrency", func(c *Config) { c.Runtime.LLMConcurrency = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestResolveProvider(t *testing.T) {
	local := &LocalLLMConfig{ServerURL: "http://127.0.0.1:8000"}
	remote := &RemoteLLMConfig{Endpoint: "https://api.example.com", Model: "m"}

	t.Run("local", func(t *testing.T) {
		resolved, err := LLMConfig{Provider: ProviderLocal, Local: local}.Resolve()
		require.NoError(t, err)
		require.NotNil(t, resolved.Local)
	})

	t.Run("auto defaults to local", func(t *testing.T) {
		resolved, err := LLMConfig{Provider: ProviderAuto, Local: local}.Resolve()
		require.NoError(t, err)
		require.NotNil(t, resolved.Local)
		require.Nil(t, resolved.Remote)
	})

	t.Run("remote", func(t *testing.T) {
		resolved, err := LLMConfig{Provider: ProviderRemote, Remote: remote}.Resolve()
		require.NoError(t, err)
		require.NotNil(t, resolved.Remote)
	})

	t.Run("remote selected without settings", func(t *testing.T) {
		_, err := LLMConfig{Provider: ProviderRemote}.Resolve()
		require.Error(t, err)
	})

	t.Run("local selected without settings", func(t *testing.T) {
		_, err := LLMConfig{Provider: ProviderLocal}.Resolve()
		require.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := LLMConfig{Provider: "cloudy", Local: local}.Resolve()
		require.Error(t, err)
	})
}
