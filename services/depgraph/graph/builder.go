// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/depgraph/services/depgraph/extract"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
)

// ResolvedImport is one import of a file together with its resolution.
type ResolvedImport struct {
	// Raw is the reference exactly as extracted.
	Raw string

	// Line is the 1-based line of the import statement.
	Line int

	// Outcome is the resolver's answer for Raw.
	Outcome resolve.Outcome
}

// FileResult is everything a worker learned about one file.
type FileResult struct {
	// Path is the slash path relative to the analysis root.
	Path string

	// Language is the profile tag, empty for opaque files.
	Language string

	// Size is the file size in bytes.
	Size int64

	// Symbols is the extractor output, imports included.
	Symbols []extract.Symbol

	// Imports holds one entry per import symbol, in extraction order.
	Imports []ResolvedImport
}

// BuildStats counts what a Builder has ingested.
type BuildStats struct {
	FilesIngested     int
	SymbolNodes       int
	ImportsResolved   int
	ImportsUnresolved int
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger sets the logger. Default: slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder ingests per-file results into a Graph.
//
// Thread Safety:
//
//	Builder is NOT safe for concurrent use. It is owned by the single
//	coordinating goroutine that drains worker results.
type Builder struct {
	graph   *Graph
	logger  *slog.Logger
	stats   BuildStats
	started time.Time
}

// NewBuilder creates a Builder writing into g.
//
// Example:
//
//	b := NewBuilder(NewGraph(root))
//	for _, r := range results {
//	    if err := b.Ingest(r); err != nil { ... }
//	}
//	g := b.Finish(ctx)
func NewBuilder(g *Graph, opts ...BuilderOption) *Builder {
	b := &Builder{
		graph:   g,
		logger:  slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// Stats returns the ingest counters so far.
func (b *Builder) Stats() BuildStats {
	return b.stats
}

// Ingest adds one file's results to the graph.
//
// Description:
//
//	Inserts or updates the File node, adds a Symbol node and a Defines
//	edge for every non-import symbol, an Imports edge for every resolved
//	import (creating a bare target File node if needed) and an Unresolved
//	edge to an External node for every unresolved import.
//
//	Node creation is idempotent and edges are appended, so ingesting the
//	same set of files in any order yields the same node set and edge
//	multiset.
//
//	The File node's metadata is written and the node marked Ingested only
//	after every edge was added. A failed Ingest leaves a bare File node
//	(Ingested=false) plus whatever Symbol nodes and edges were added
//	before the error.
//
// Inputs:
//
//	r - The file result. r.Path must not be empty.
//
// Outputs:
//
//	error - Non-nil if the graph is frozen, at capacity, or r is invalid.
func (b *Builder) Ingest(r FileResult) error {
	file, err := b.graph.EnsureFile(r.Path)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", r.Path, err)
	}

	for _, s := range r.Symbols {
		if s.IsImport() {
			continue
		}
		sym, err := b.graph.AddSymbol(r.Path, s.Kind, s.Name, s.Line)
		if err != nil {
			return fmt.Errorf("ingest %s: symbol %s: %w", r.Path, s.Name, err)
		}
		if err := b.graph.AddEdge(file.ID, sym.ID, EdgeTypeDefines, s.Line); err != nil {
			return fmt.Errorf("ingest %s: %w", r.Path, err)
		}
		b.stats.SymbolNodes++
	}

	for _, imp := range r.Imports {
		if err := b.addImport(file, imp); err != nil {
			return fmt.Errorf("ingest %s: import %q: %w", r.Path, imp.Raw, err)
		}
	}

	if _, err := b.graph.UpsertFile(r.Path, r.Language, r.Size, r.Symbols); err != nil {
		return fmt.Errorf("ingest %s: %w", r.Path, err)
	}
	b.stats.FilesIngested++
	b.logger.Debug("file ingested",
		slog.String("path", r.Path),
		slog.String("language", r.Language),
		slog.Int("symbols", len(r.Symbols)),
		slog.Int("imports", len(r.Imports)),
	)
	return nil
}

func (b *Builder) addImport(file *Node, imp ResolvedImport) error {
	if imp.Outcome.IsResolved() {
		target, err := b.graph.EnsureFile(imp.Outcome.Target)
		if err != nil {
			return err
		}
		b.stats.ImportsResolved++
		return b.graph.AddEdge(file.ID, target.ID, EdgeTypeImports, imp.Line)
	}

	ext, err := b.graph.EnsureExternal(imp.Raw)
	if err != nil {
		return err
	}
	b.stats.ImportsUnresolved++
	return b.graph.AddEdge(file.ID, ext.ID, EdgeTypeUnresolved, imp.Line)
}

// Finish freezes the graph and records build telemetry.
func (b *Builder) Finish(ctx context.Context) *Graph {
	_, span := startFreezeSpan(ctx, b.stats.FilesIngested)
	defer span.End()

	b.graph.Freeze()
	setFreezeSpanResult(span, b.graph.NodeCount(), b.graph.EdgeCount())
	recordBuildMetrics(ctx, time.Since(b.started), b.graph.NodeCount(), b.graph.EdgeCount())
	return b.graph
}
