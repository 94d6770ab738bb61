// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/depgraph/pkg/logging"
	"github.com/AleutianAI/depgraph/services/depgraph/config"
	"github.com/AleutianAI/depgraph/services/depgraph/discovery"
	"github.com/AleutianAI/depgraph/services/depgraph/export"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/orchestrator"
	"github.com/AleutianAI/depgraph/services/depgraph/store"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type analyzeOptions struct {
	workers        int
	maxFileSize    int64
	languages      []string
	strict         bool
	includeUnknown bool
	ignore         []string
	noGitignore    bool
	timeBudget     time.Duration
	maxFiles       int

	jsonOutput  bool
	out         string
	save        bool
	topN        int
	metricsAddr string
}

// apply overlays flags the user actually set onto cfg.
func (o *analyzeOptions) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = o.maxFileSize
	}
	if flags.Changed("languages") {
		cfg.Languages = o.languages
	}
	if flags.Changed("strict") {
		cfg.StrictLanguages = o.strict
	}
	if flags.Changed("include-unknown") {
		cfg.IncludeUnknown = o.includeUnknown
	}
	if flags.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, o.ignore...)
	}
	if flags.Changed("no-gitignore") {
		cfg.NoGitignore = o.noGitignore
	}
	if flags.Changed("time-budget") {
		cfg.TimeBudget = o.timeBudget
	}
	if flags.Changed("max-files") {
		cfg.MaxFiles = o.maxFiles
	}
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

func newAnalyzeCmd(c *cli) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a source tree and report its dependency graph",
		Long: `Analyze walks the tree rooted at path (default: the configured root),
extracts symbols and imports from every recognized file in parallel, and
builds the dependency graph.

Files that cannot be analyzed are reported and skipped; the graph of the
remaining files is still produced and the command exits with code 1.

Examples:
  depgraph analyze
  depgraph analyze ./service --languages go,python
  depgraph analyze . --json --out graph.json
  depgraph analyze . --time-budget 30s --max-files 5000 --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.workers, "workers", "w", 0,
		"Worker goroutines (0 = GOMAXPROCS)")
	f.Int64Var(&opts.maxFileSize, "max-file-size", orchestrator.DefaultMaxFileSize,
		"Files larger than this many bytes are skipped")
	f.StringSliceVarP(&opts.languages, "languages", "l", nil,
		"Comma-separated languages to analyze (default all)")
	f.BoolVar(&opts.strict, "strict", false,
		"Report files with no enabled language as failures")
	f.BoolVar(&opts.includeUnknown, "include-unknown", false,
		"Include files with no language profile as opaque nodes")
	f.StringSliceVar(&opts.ignore, "ignore", nil,
		"Additional gitignore-style patterns to skip")
	f.BoolVar(&opts.noGitignore, "no-gitignore", false,
		"Do not honor .gitignore files")
	f.DurationVar(&opts.timeBudget, "time-budget", 0,
		"Stop dispatching files after this long (0 = no limit)")
	f.IntVar(&opts.maxFiles, "max-files", 0,
		"Stop dispatching after this many files (0 = no limit)")

	f.BoolVar(&opts.jsonOutput, "json", false,
		"Write the full graph document as JSON to stdout")
	f.StringVarP(&opts.out, "out", "o", "",
		"Also write the JSON document to this file")
	f.BoolVar(&opts.save, "save", false,
		"Save the run to the history store")
	f.IntVar(&opts.topN, "top", summary.DefaultTopN,
		"Entries per insight ranking")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address during the run (e.g. :9464)")

	return cmd
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func (c *cli) runAnalyze(cmd *cobra.Command, args []string, opts *analyzeOptions) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return fail(err)
	}
	if len(args) == 1 {
		cfg.Root = args[0]
	}
	opts.apply(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	if opts.topN < 0 {
		return fail(fmt.Errorf("--top must not be negative"))
	}

	logger := c.newLogger(cfg)
	defer logger.Close()

	tcfg := cfg.ToTelemetry()
	tcfg.Writer = c.stderr
	if opts.metricsAddr != "" && tcfg.MetricExporter == telemetry.ExporterNone {
		tcfg.MetricExporter = telemetry.ExporterPrometheus
	}
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fail(err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if opts.metricsAddr != "" {
		stop, err := serveMetrics(opts.metricsAddr, logger)
		if err != nil {
			return fail(err)
		}
		defer stop()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fail(fmt.Errorf("resolve root: %w", err))
	}

	orch, err := orchestrator.New(os.DirFS(root), cfg.ToOrchestrator(),
		orchestrator.WithRegistry(lang.Default()),
		orchestrator.WithLogger(logger.Slog()),
		orchestrator.WithRoot(root),
		orchestrator.WithProgress(func(p orchestrator.Progress) {
			c.printer.Progress(p.FilesDone, p.FilesTotal, p.Current)
		}),
	)
	if err != nil {
		return fail(err)
	}

	dopts := cfg.ToDiscovery(orch.Registry())
	dopts.Logger = logger.Slog()
	files, err := discovery.Discover(ctx, root, dopts)
	if err != nil {
		return fail(err)
	}
	logger.Debug("discovery complete", slog.String("root", root), slog.Int("files", len(files)))

	res, err := orch.Run(ctx, files)
	c.printer.EndProgress()
	if err != nil {
		return fail(err)
	}

	doc := export.FromResult(res, opts.topN)

	var saved *store.RunMeta
	if opts.save {
		meta, err := c.saveRun(ctx, cfg, logger, doc)
		if err != nil {
			return fail(err)
		}
		saved = &meta
	}

	if opts.out != "" {
		if err := writeDocument(opts.out, doc); err != nil {
			return fail(err)
		}
	}

	if opts.jsonOutput {
		if err := export.Encode(c.stdout, doc, true); err != nil {
			return fail(err)
		}
	} else {
		c.renderAnalysis(doc, res, saved)
	}

	if len(res.Failures) > 0 || res.Incomplete {
		if opts.jsonOutput {
			if s := res.FailureSummary(); s != "" {
				c.printer.Warning(s)
			}
		}
		return &exitError{code: ExitPartial}
	}
	return nil
}

func (c *cli) saveRun(ctx context.Context, cfg config.Config, logger *logging.Logger, doc export.Document) (store.RunMeta, error) {
	scfg := store.DefaultConfig(cfg.Store.Path)
	scfg.Logger = logger.Slog()
	s, err := store.Open(scfg)
	if err != nil {
		return store.RunMeta{}, err
	}
	defer s.Close()

	meta, err := s.Save(ctx, doc)
	if err != nil {
		return store.RunMeta{}, err
	}
	logger.Info("run saved", slog.String("id", meta.ID), slog.String("store", cfg.Store.Path))
	return meta, nil
}

func writeDocument(path string, doc export.Document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return export.Encode(f, doc, true)
}

// serveMetrics exposes /metrics until the returned stop func is called.
func serveMetrics(addr string, logger *logging.Logger) (func(), error) {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		handler = promhttp.Handler()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("serving metrics", slog.String("address", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
