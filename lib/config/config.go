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

// Package config loads and validates the segmenter's YAML configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Provider selects which LLM backend answers boundary review queries.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderRemote Provider = "remote"
	// ProviderAuto resolves to the local backend. There is no health-based
	// switching; auto exists so configs can opt into it later without a
	// schema change.
	ProviderAuto Provider = "auto"
)

// RuntimeConfig holds execution parameters shared across the pipeline.
type RuntimeConfig struct {
	Device         string `mapstructure:"device"`
	BatchSize      int    `mapstructure:"batch_size"`
	LLMConcurrency int    `mapstructure:"llm_concurrency"`
}

// LocalLLMConfig configures the locally hosted inference server.
type LocalLLMConfig struct {
	ModelPath string `mapstructure:"model_path"`
	ServerURL string `mapstructure:"server_url"`
}

// RemoteLLMConfig configures a remote chat-completions API.
type RemoteLLMConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// LLMConfig selects a provider and carries per-backend settings.
// Only the branch matching the selected provider needs to be present;
// Resolve enforces that.
type LLMConfig struct {
	Provider Provider         `mapstructure:"provider"`
	Local    *LocalLLMConfig  `mapstructure:"local"`
	Remote   *RemoteLLMConfig `mapstructure:"remote"`
}

// ResolvedProvider is the validated, tagged form of an LLM provider
// selection. Exactly one of Local/Remote is non-nil.
type ResolvedProvider struct {
	Local  *LocalLLMConfig
	Remote *RemoteLLMConfig
}

// Resolve validates the provider selection and returns a tagged variant
// carrying only the settings for the chosen backend. Auto resolves to local.
func (c LLMConfig) Resolve() (ResolvedProvider, error) {
	switch c.Provider {
	case ProviderRemote:
		if c.Remote == nil {
			return ResolvedProvider{}, errors.New("provider is remote but llm.remote is not configured")
		}
		if c.Remote.Endpoint == "" || c.Remote.Model == "" {
			return ResolvedProvider{}, errors.New("llm.remote requires endpoint and model")
		}
		return ResolvedProvider{Remote: c.Remote}, nil
	case ProviderLocal, ProviderAuto, "":
		if c.Local == nil {
			return ResolvedProvider{}, errors.New("provider is local but llm.local is not configured")
		}
		if c.Local.ServerURL == "" {
			return ResolvedProvider{}, errors.New("llm.local requires server_url")
		}
		return ResolvedProvider{Local: c.Local}, nil
	default:
		return ResolvedProvider{}, fmt.Errorf("unknown llm provider: %q", c.Provider)
	}
}

// DetectorConfig holds the numeric parameters of the boundary detector.
type DetectorConfig struct {
	// ThetaHigh is reserved; only ThetaLow drives the adjacency stage.
	ThetaHigh    float64 `mapstructure:"theta_high"`
	ThetaLow     float64 `mapstructure:"theta_low"`
	K            int     `mapstructure:"k"`
	Tau          float64 `mapstructure:"tau"`
	NVote        int     `mapstructure:"n_vote"`
	UseLLMReview bool    `mapstructure:"use_llm_review"`
}

// EmbeddingConfig configures the external sentence-embedding service.
type EmbeddingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// FailoverConfig holds evaluation-driven failover thresholds.
type FailoverConfig struct {
	F1DropThreshold float64 `mapstructure:"f1_drop_threshold"`
}

// Config is the full, immutable run configuration.
type Config struct {
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Failover  FailoverConfig  `mapstructure:"failover"`
	Detector  DetectorConfig  `mapstructure:"detector"`
}

// Default returns the configuration defaults applied before file values.
func Default() Config {
	return Config{
		Runtime: RuntimeConfig{
			Device:         "cpu",
			BatchSize:      32,
			LLMConcurrency: 1,
		},
		Detector: DetectorConfig{
			ThetaHigh: 0.85,
			ThetaLow:  0.55,
			K:         5,
			Tau:       3.5,
			NVote:     3,
		},
		Failover: FailoverConfig{
			F1DropThreshold: 0.03,
		},
	}
}

// Load reads the YAML config at path on top of the defaults and validates it.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks numeric invariants. Provider selection is validated
// separately via LLMConfig.Resolve so runs without LLM review never require
// backend settings.
func (c Config) Validate() error {
	if c.Detector.K < 1 {
		return fmt.Errorf("detector.k must be >= 1, got %d", c.Detector.K)
	}
	if c.Detector.Tau < 0 {
		return fmt.Errorf("detector.tau must be >= 0, got %g", c.Detector.Tau)
	}
	if c.Detector.NVote < 1 {
		return fmt.Errorf("detector.n_vote must be >= 1, got %d", c.Detector.NVote)
	}
	if c.Runtime.BatchSize < 1 {
		return fmt.Errorf("runtime.batch_size must be >= 1, got %d", c.Runtime.BatchSize)
	}
	if c.Runtime.LLMConcurrency < 1 {
		return fmt.Errorf("runtime.llm_concurrency must be >= 1, got %d", c.Runtime.LLMConcurrency)
	}
	return nil
}
