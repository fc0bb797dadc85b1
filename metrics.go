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

package topicseg

import "github.com/prometheus/client_golang/prometheus"

var (
	sentenceOps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "sentences_processed_total",
			Help:      "The total number of sentences processed.",
		},
	)
	chunkCreationOps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "chunk_creation_ops_total",
			Help:      "The total number of chunks created.",
		},
	)
	boundaryOps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "boundaries_detected_total",
			Help:      "The total number of topic boundaries detected.",
		},
	)

	cacheHits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "embedding_cache_hits",
			Help:      "Embedding cache hits over the embedder's lifetime.",
		},
	)
	cacheMisses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "embedding_cache_misses",
			Help:      "Embedding cache misses over the embedder's lifetime.",
		},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "antfly",
			Subsystem: "topicseg",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(sentenceOps)
	prometheus.MustRegister(chunkCreationOps)
	prometheus.MustRegister(boundaryOps)
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(stageDuration)
}

// RecordSentences adds to the processed-sentence counter.
func RecordSentences(count int) {
	sentenceOps.Add(float64(count))
}

// RecordChunks adds to the created-chunk counter.
func RecordChunks(count int) {
	chunkCreationOps.Add(float64(count))
}

// RecordBoundary increments the detected-boundary counter.
func RecordBoundary() {
	boundaryOps.Inc()
}

// RecordCacheStats publishes lifetime embedding cache counters.
func RecordCacheStats(hits, misses uint64) {
	cacheHits.Set(float64(hits))
	cacheMisses.Set(float64(misses))
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, seconds float64) {
	stageDuration.WithLabelValues(stage).Observe(seconds)
}
