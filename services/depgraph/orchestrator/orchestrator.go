// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator drives extraction and resolution over a file list
// with a bounded worker pool and builds the dependency graph.
//
// # Architecture
//
//	┌────────────┐     ┌──────────────┐     ┌──────────────────┐
//	│ Dispatcher │────▶│ tasks (buf)  │────▶│ Worker Pool (N)  │
//	└────────────┘     └──────────────┘     └──────────────────┘
//	                                                 │
//	                                                 ▼
//	┌────────────┐     ┌──────────────┐     ┌──────────────────┐
//	│ Coordinator│◀────│ results (buf)│◀────│ extract+resolve  │
//	└────────────┘     └──────────────┘     └──────────────────┘
//
// The coordinator is the only goroutine that touches the graph. It holds
// early results in a reorder buffer and ingests them in discovery order,
// so the graph's insertion order does not depend on scheduling.
package orchestrator

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/depgraph/services/depgraph/discovery"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

// progressLogInterval throttles the periodic Info progress line.
const progressLogInterval = 2 * time.Second

// Orchestrator runs analyses over one file system.
//
// # Thread Safety
//
// Orchestrator is safe for concurrent use; each Run owns its own pool,
// resolver and graph.
type Orchestrator struct {
	fsys     fs.FS
	cfg      Config
	registry *lang.Registry
	root     string
	logger   *slog.Logger
	progress ProgressCallback
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry sets the base profile registry before Config.Languages is
// applied. Default: lang.Default().
func WithRegistry(r *lang.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressCallback) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithRoot records the analysis root on produced graphs.
func WithRoot(root string) Option {
	return func(o *Orchestrator) { o.root = root }
}

// New creates an Orchestrator reading files from fsys.
//
// # Inputs
//
//   - fsys: File system rooted at the analysis root. Must not be nil.
//   - cfg: Run configuration. Must be valid.
//   - opts: Optional settings.
//
// # Outputs
//
//   - *Orchestrator: Ready to Run.
//   - error: ErrNilFS, a Config validation error, or lang.ErrUnknownLanguage.
func New(fsys fs.FS, cfg Config, opts ...Option) (*Orchestrator, error) {
	if fsys == nil {
		return nil, ErrNilFS
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		fsys:     fsys,
		cfg:      cfg,
		registry: lang.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	restricted, err := o.registry.Restrict(cfg.Languages)
	if err != nil {
		return nil, err
	}
	o.registry = restricted
	return o, nil
}

// Registry returns the effective registry after language restriction.
func (o *Orchestrator) Registry() *lang.Registry {
	return o.registry
}

type task struct {
	seq  int
	file discovery.File
}

type outcome struct {
	seq     int
	path    string
	result  *graph.FileResult
	failure *FileFailure
}

// Run analyzes files and returns the frozen graph with per-file failures.
//
// # Description
//
// A dispatcher feeds files into a bounded task channel in discovery
// order. Before each dispatch it checks ctx, the time budget and the
// max-files cap; once any fires, the remaining files are listed in
// Result.Skipped. In-flight files always finish. Workers read, extract
// and resolve; the calling goroutine ingests results in discovery order.
//
// Duplicate paths in files are analyzed once.
//
// # Inputs
//
//   - ctx: Cancellation is honored between dispatches. Must not be nil.
//   - files: Discovered files, in discovery order.
//
// # Outputs
//
//   - *Result: Never nil when error is nil.
//   - error: ErrNilContext only. Per-file problems are Result.Failures.
func (o *Orchestrator) Run(ctx context.Context, files []discovery.File) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	start := time.Now()

	files = o.dedupe(files)
	ctx, span := startRunSpan(ctx, len(files), o.cfg.Workers)
	defer span.End()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	resolver, err := resolve.New(resolve.NewIndex(paths),
		resolve.WithCacheSize(o.cfg.ResolverCacheSize),
		resolve.WithRegistry(o.registry),
		resolve.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}

	builder := graph.NewBuilder(graph.NewGraph(o.root), graph.WithBuilderLogger(o.logger))
	result := &Result{
		Failures: make([]FileFailure, 0),
		Skipped:  make([]string, 0),
	}

	workers := o.cfg.Workers
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 0 {
		workers = 1
	}

	tasks := make(chan task, workers)
	results := make(chan outcome, workers)

	var (
		eg         errgroup.Group
		dispatched int
		stop       StopReason
	)

	eg.Go(func() error {
		defer close(tasks)
		dispatched, stop = o.dispatch(ctx, start, files, tasks)
		return nil
	})
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for t := range tasks {
				results <- o.process(ctx, resolver, t)
			}
			return nil
		})
	}
	go func() {
		_ = eg.Wait()
		close(results)
	}()

	o.collect(ctx, results, builder, result, len(files))

	// dispatched and stop are final: results is closed only after eg.Wait.
	for _, f := range files[dispatched:] {
		result.Skipped = append(result.Skipped, f.Path)
	}
	result.Incomplete = len(result.Skipped) > 0
	if result.Incomplete {
		result.StopReason = stop
	}

	result.Graph = builder.Finish(ctx)
	bs := builder.Stats()
	result.Stats.FilesDispatched = dispatched
	result.Stats.FilesIngested = bs.FilesIngested
	result.Stats.FilesFailed = len(result.Failures)
	result.Stats.FilesSkipped = len(result.Skipped)
	result.Stats.ImportsResolved = bs.ImportsResolved
	result.Stats.ImportsUnresolved = bs.ImportsUnresolved
	result.Stats.Duration = time.Since(start)

	setRunSpanResult(span, result)
	recordRun(ctx, result.Stats.Duration, result.Incomplete)

	telemetry.LoggerWithTrace(ctx, o.logger).Info("analysis complete",
		slog.Int("files", len(files)),
		slog.Int("ingested", result.Stats.FilesIngested),
		slog.Int("failed", result.Stats.FilesFailed),
		slog.Int("skipped", result.Stats.FilesSkipped),
		slog.Int("nodes", result.Graph.NodeCount()),
		slog.Int("edges", result.Graph.EdgeCount()),
		slog.Duration("duration", result.Stats.Duration),
	)
	return result, nil
}

// dispatch sends files to workers until the list ends or a stop signal
// fires. It returns the number dispatched and why it stopped early.
func (o *Orchestrator) dispatch(ctx context.Context, start time.Time, files []discovery.File, tasks chan<- task) (int, StopReason) {
	for i, f := range files {
		if reason := o.stopReason(ctx, start, i); reason != StopNone {
			o.logger.Warn("dispatch stopped",
				slog.String("reason", string(reason)),
				slog.Int("dispatched", i),
				slog.Int("remaining", len(files)-i),
			)
			return i, reason
		}
		select {
		case tasks <- task{seq: i, file: f}:
		case <-ctx.Done():
			return i, StopCancelled
		}
	}
	return len(files), StopNone
}

func (o *Orchestrator) stopReason(ctx context.Context, start time.Time, dispatched int) StopReason {
	if ctx.Err() != nil {
		return StopCancelled
	}
	if o.cfg.TimeBudget > 0 && time.Since(start) >= o.cfg.TimeBudget {
		return StopTimeBudget
	}
	if o.cfg.MaxFiles > 0 && dispatched >= o.cfg.MaxFiles {
		return StopMaxFiles
	}
	return StopNone
}

// collect drains results, ingesting in sequence order.
func (o *Orchestrator) collect(ctx context.Context, results <-chan outcome, builder *graph.Builder, result *Result, total int) {
	pending := make(map[int]outcome)
	next := 0
	done := 0
	sometimes := rate.Sometimes{Interval: progressLogInterval}

	for out := range results {
		pending[out.seq] = out
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			done++

			o.account(ctx, builder, result, ready)

			if o.progress != nil {
				o.progress(Progress{FilesDone: done, FilesTotal: total, Current: ready.path})
			}
			sometimes.Do(func() {
				o.logger.Info("analysis progress",
					slog.Int("done", done),
					slog.Int("total", total),
				)
			})
		}
	}
}

func (o *Orchestrator) account(ctx context.Context, builder *graph.Builder, result *Result, out outcome) {
	if out.failure != nil {
		result.Failures = append(result.Failures, *out.failure)
		recordFile(ctx, string(out.failure.Reason))
		o.logger.Warn("file skipped",
			slog.String("path", out.failure.Path),
			slog.String("reason", string(out.failure.Reason)),
			slog.Any("error", out.failure.Err),
		)
		return
	}

	if err := builder.Ingest(*out.result); err != nil {
		result.Failures = append(result.Failures, FileFailure{Path: out.path, Reason: ReasonInternal, Err: err})
		recordFile(ctx, string(ReasonInternal))
		o.logger.Error("ingest failed",
			slog.String("path", out.path),
			slog.String("error", err.Error()),
		)
		return
	}
	result.Stats.SymbolsFound += len(out.result.Symbols)
	recordFile(ctx, "ingested")
}

func (o *Orchestrator) dedupe(files []discovery.File) []discovery.File {
	seen := make(map[string]struct{}, len(files))
	out := make([]discovery.File, 0, len(files))
	for _, f := range files {
		f.Path = resolve.CleanPath(f.Path)
		if _, dup := seen[f.Path]; dup {
			o.logger.Debug("duplicate path ignored", slog.String("path", f.Path))
			continue
		}
		seen[f.Path] = struct{}{}
		out = append(out, f)
	}
	return out
}
