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
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Factory creates an embedder handle for a device identifier.
type Factory func(device string) (Embedder, error)

// Registry owns one lazily-initialized, shared embedder handle per device
// identifier. It is an explicit resource: construct it, pass it to whatever
// needs embedders, and Close it when the run ends. Handles are created at
// most once per device and shared by all callers.
type Registry struct {
	factory Factory
	logger  *zap.Logger

	mu      sync.Mutex
	handles map[string]Embedder
}

// NewRegistry creates an empty registry backed by factory.
func NewRegistry(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		logger:  logger,
		handles: make(map[string]Embedder),
	}
}

// Get returns the shared embedder for device, creating it on first use.
func (r *Registry) Get(device string) (Embedder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle, ok := r.handles[device]; ok {
		return handle, nil
	}

	r.logger.Info("initializing embedder handle", zap.String("device", device))
	handle, err := r.factory(device)
	if err != nil {
		return nil, fmt.Errorf("creating embedder for device %s: %w", device, err)
	}
	r.handles[device] = handle
	return handle, nil
}

// Devices lists devices with initialized handles, sorted.
func (r *Registry) Devices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]string, 0, len(r.handles))
	for device := range r.handles {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices
}

// Close tears down every handle. The registry is unusable afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for device, handle := range r.handles {
		if err := handle.Close(); err != nil {
			r.logger.Warn("closing embedder handle",
				zap.String("device", device),
				zap.Error(err))
			lastErr = err
		}
	}
	r.handles = make(map[string]Embedder)
	return lastErr
}
