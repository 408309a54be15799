package scrape

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run carries everything scoped to a single scrape: configuration, the
// shared fetcher, the dedup sets and the counters. Nothing in the pipeline
// lives at package level, so two runs never share state.
type Run struct {
	ID      string
	Source  *SourceConfig
	Fetcher Fetcher
	Now     time.Time

	mu       sync.Mutex
	seenURLs map[string]struct{}
	seenIDs  map[string]struct{}
	Stats    RunStats
}

// RunStats counts what a run did, for the summary file and for the exit
// code decision.
type RunStats struct {
	PagesFetched    int            `json:"pages_fetched"`
	PagesByCategory map[string]int `json:"pages_by_category"`
	Discovered      int            `json:"discovered"`
	Assembled       int            `json:"assembled"`
	Duplicates      int            `json:"duplicates"`
	Failed          int            `json:"failed"`
	Failures        []RunFailure   `json:"failures,omitempty"`
}

// RunFailure records one dropped grant and why.
type RunFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// NewRun builds a run around a source config, defaulting the fetcher from
// the source's fetch policy.
func NewRun(source *SourceConfig, now time.Time) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Source:   source,
		Fetcher:  NewRateLimitedFetcher(source.Fetch),
		Now:      now,
		seenURLs: make(map[string]struct{}),
		seenIDs:  make(map[string]struct{}),
		Stats: RunStats{
			PagesByCategory: make(map[string]int),
		},
	}
}

// MarkURLSeen records a discovered URL, reporting false when an earlier
// category already claimed it. First occurrence wins.
func (r *Run) MarkURLSeen(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seenURLs[url]; ok {
		return false
	}
	r.seenURLs[url] = struct{}{}
	return true
}

// MarkIDSeen records an assembled grant id, reporting false on a collision.
// Safe under concurrent assembly completions.
func (r *Run) MarkIDSeen(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seenIDs[id]; ok {
		return false
	}
	r.seenIDs[id] = struct{}{}
	return true
}

// RecordFailure appends a per-item failure under the stats lock.
func (r *Run) RecordFailure(url, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stats.Failed++
	r.Stats.Failures = append(r.Stats.Failures, RunFailure{URL: url, Reason: reason})
}

// Workers returns the detail-fetch pool size for this run.
func (r *Run) Workers() int {
	if r.Source.Workers > 0 {
		return r.Source.Workers
	}
	return 6
}
