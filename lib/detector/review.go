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

package detector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// reviewBoundaries asks the LLM to confirm each provisionally flagged
// position, keeping a flag only when a strict majority of n_vote independent
// answers says the adjacent sentences belong to different topics.
// Unflagged positions pass through untouched, so review only ever removes
// boundaries.
//
// Flagged positions are reviewed concurrently behind a semaphore; the votes
// for one position are issued sequentially. Vote completion order is
// irrelevant to the tally, so no ordering is enforced across positions.
func (d *Detector) reviewBoundaries(ctx context.Context, sentences []string, flags []bool) []bool {
	refined := make([]bool, len(flags))
	copy(refined, flags)

	sem := semaphore.NewWeighted(d.maxInFlight)
	var wg sync.WaitGroup

	for idx, flagged := range flags {
		if !flagged {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone: leave the remaining flags as scored.
			d.logger.Warn("boundary review interrupted", zap.Error(err))
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			refined[idx] = d.reviewPosition(ctx, sentences, idx)
		}(idx)
	}

	wg.Wait()
	return refined
}

// reviewPosition tallies n_vote answers for the boundary candidate at idx.
func (d *Detector) reviewPosition(ctx context.Context, sentences []string, idx int) bool {
	prompt := reviewPrompt(sentences, idx)

	votes := 0
	for v := 0; v < d.cfg.NVote; v++ {
		answer := d.router.Call(ctx, prompt)
		if strings.Contains(strings.ToLower(answer), "yes") {
			votes++
		}
	}

	keep := votes > d.cfg.NVote/2
	d.logger.Debug("boundary review vote",
		zap.Int("position", idx),
		zap.Int("yes_votes", votes),
		zap.Int("n_vote", d.cfg.NVote),
		zap.Bool("keep", keep))
	return keep
}

// reviewPrompt pairs the sentences straddling the candidate boundary at idx.
// A missing side (start or end of the sequence) becomes an empty string.
func reviewPrompt(sentences []string, idx int) string {
	var before, after string
	if idx-1 >= 0 && idx-1 < len(sentences) {
		before = sentences[idx-1]
	}
	if idx >= 0 && idx < len(sentences) {
		after = sentences[idx]
	}
	return fmt.Sprintf(
		"Are the following two sentences about different topics? Answer yes or no.\n-----\n%s\n-----\n%s",
		before, after)
}
