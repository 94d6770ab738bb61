// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
)

// Default configuration values.
const (
	DefaultMaxFileSize = 1 << 20 // 1MB
)

// Config holds run configuration.
//
// # Fields
//
//   - Workers: Worker pool size. Must be > 0.
//   - MaxFileSize: Files larger than this many bytes become failures.
//   - Languages: Enabled language tags. Empty enables all.
//   - StrictLanguages: Files with no profile become failures instead of
//     opaque File nodes.
//   - TimeBudget: Stop dispatching after this long. Zero means no limit.
//   - MaxFiles: Stop dispatching after this many files. Zero means no limit.
//   - ResolverCacheSize: Import memo size. Zero disables memoization.
type Config struct {
	Workers           int
	MaxFileSize       int64
	Languages         []string
	StrictLanguages   bool
	TimeBudget        time.Duration
	MaxFiles          int
	ResolverCacheSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           runtime.GOMAXPROCS(0),
		MaxFileSize:       DefaultMaxFileSize,
		ResolverCacheSize: resolve.DefaultCacheSize,
	}
}

// Validate checks that the Config has valid field values.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}
	if c.TimeBudget < 0 || c.MaxFiles < 0 || c.ResolverCacheSize < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// StopReason explains why dispatch ended before the file list did.
type StopReason string

const (
	StopNone       StopReason = ""
	StopCancelled  StopReason = "cancelled"
	StopTimeBudget StopReason = "time_budget"
	StopMaxFiles   StopReason = "max_files"
)

// Progress is reported by the coordinator after each file is accounted for.
type Progress struct {
	FilesDone  int
	FilesTotal int
	Current    string
}

// ProgressCallback receives progress updates. It is called from the
// coordinating goroutine only, never concurrently.
type ProgressCallback func(Progress)

// Stats summarizes a run.
type Stats struct {
	FilesDispatched   int           `json:"files_dispatched"`
	FilesIngested     int           `json:"files_ingested"`
	FilesFailed       int           `json:"files_failed"`
	FilesSkipped      int           `json:"files_skipped"`
	SymbolsFound      int           `json:"symbols_found"`
	ImportsResolved   int           `json:"imports_resolved"`
	ImportsUnresolved int           `json:"imports_unresolved"`
	Duration          time.Duration `json:"duration_ns"`
}

// Result is the outcome of a run.
//
// Graph is always non-nil and frozen, and covers every file that was
// dispatched and did not fail.
type Result struct {
	Graph *graph.Graph

	// Failures lists failed files in discovery order.
	Failures []FileFailure

	// Skipped lists files never dispatched because a stop signal fired.
	Skipped []string

	// Incomplete is set when Skipped is non-empty.
	Incomplete bool

	// StopReason is set when Incomplete is.
	StopReason StopReason

	Stats Stats
}

// FailureCounts returns the number of failures per reason.
func (r *Result) FailureCounts() map[FailureReason]int {
	counts := make(map[FailureReason]int)
	for _, f := range r.Failures {
		counts[f.Reason]++
	}
	return counts
}

// FailureSummary renders failures as "N files skipped, reasons: ...".
// Returns "" when nothing failed.
func (r *Result) FailureSummary() string {
	if len(r.Failures) == 0 {
		return ""
	}
	counts := r.FailureCounts()
	reasons := make([]string, 0, len(counts))
	for reason, n := range counts {
		reasons = append(reasons, fmt.Sprintf("%s (%d)", reason, n))
	}
	sort.Strings(reasons)

	noun := "files"
	if len(r.Failures) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s skipped, reasons: %s", len(r.Failures), noun, strings.Join(reasons, ", "))
}
