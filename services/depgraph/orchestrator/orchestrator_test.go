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
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/discovery"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
)

func project() fstest.MapFS {
	return fstest.MapFS{
		"src/app.ts":         {Data: []byte("import { util } from './util';\nimport React from 'react';\nexport function main() {}\n")},
		"src/util.ts":        {Data: []byte("export const util = 1;\nimport './app';\n")},
		"src/util.js":        {Data: []byte("module.exports = {};\n")},
		"src/lib/index.ts":   {Data: []byte("export class Lib {}\n")},
		"src/entry.ts":       {Data: []byte("import { Lib } from './lib';\n")},
		"py/pkg/__init__.py": {Data: []byte("from .mod import f\n")},
		"py/pkg/mod.py":      {Data: []byte("def f():\n    pass\n")},
		"rs/a/index.rs":      {Data: []byte("use self::util::Parser;\nfn main() {}\n")},
		"rs/a/util.rs":       {Data: []byte("pub struct Parser;\n")},
		"c/main.c":           {Data: []byte("#include \"local.h\"\n#include <stdio.h>\nint main(void) {\n}\n")},
		"c/local.h":          {Data: []byte("int helper(int x);\n")},
		"README.md":          {Data: []byte("# project\n")},
	}
}

func discover(t *testing.T, fsys fstest.MapFS) []discovery.File {
	t.Helper()
	files, err := discovery.DiscoverFS(context.Background(), fsys, discovery.Options{IncludeUnknown: true})
	require.NoError(t, err)
	return files
}

func run(t *testing.T, fsys fstest.MapFS, cfg Config, files []discovery.File, opts ...Option) *Result {
	t.Helper()
	o, err := New(fsys, cfg, opts...)
	require.NoError(t, err)
	res, err := o.Run(context.Background(), files)
	require.NoError(t, err)
	require.NotNil(t, res.Graph)
	require.True(t, res.Graph.IsFrozen())
	return res
}

func hasEdge(g *graph.Graph, from, to string, et graph.EdgeType) bool {
	for _, e := range g.Edges() {
		if e.FromID == from && e.ToID == to && e.Type == et {
			return true
		}
	}
	return false
}

func TestRun_ResolvesAcrossLanguages(t *testing.T) {
	fsys := project()
	res := run(t, fsys, DefaultConfig(), discover(t, fsys))
	g := res.Graph

	assert.Empty(t, res.Failures)
	assert.False(t, res.Incomplete)
	assert.Equal(t, 12, g.FileCount())

	tests := []struct {
		from, to string
	}{
		{"src/app.ts", "src/util.ts"},
		{"src/util.ts", "src/app.ts"},
		{"src/entry.ts", "src/lib/index.ts"},
		{"py/pkg/__init__.py", "py/pkg/mod.py"},
		{"rs/a/index.rs", "rs/a/util.rs"},
		{"c/main.c", "c/local.h"},
	}
	for _, tt := range tests {
		assert.True(t, hasEdge(g, graph.FileID(tt.from), graph.FileID(tt.to), graph.EdgeTypeImports),
			"%s -> %s", tt.from, tt.to)
	}

	assert.True(t, hasEdge(g, graph.FileID("src/app.ts"), graph.ExternalID("react"), graph.EdgeTypeUnresolved))
	assert.True(t, hasEdge(g, graph.FileID("c/main.c"), graph.ExternalID("stdio.h"), graph.EdgeTypeUnresolved))

	readme, ok := g.GetNode(graph.FileID("README.md"))
	require.True(t, ok)
	assert.Empty(t, readme.Language, "opaque file")
	assert.True(t, readme.Ingested)

	assert.Equal(t, 6, res.Stats.ImportsResolved)
	assert.Equal(t, 2, res.Stats.ImportsUnresolved)
	assert.Equal(t, 12, res.Stats.FilesIngested)
}

func TestRun_PartialFailureTolerance(t *testing.T) {
	fsys := fstest.MapFS{}
	for i := 0; i < 9; i++ {
		fsys[fmt.Sprintf("f%d.js", i)] = &fstest.MapFile{Data: []byte(fmt.Sprintf("export function f%d() {}\n", i))}
	}
	fsys["blob.js"] = &fstest.MapFile{Data: []byte{0x7f, 'E', 'L', 'F', 0xff, 0xfe, 0x00, 0x01}}

	files := discover(t, fsys)
	require.Len(t, files, 10)

	res := run(t, fsys, DefaultConfig(), files)

	assert.Equal(t, 9, res.Graph.FileCount())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "blob.js", res.Failures[0].Path)
	assert.Equal(t, ReasonNotText, res.Failures[0].Reason)
	assert.Equal(t, "1 file skipped, reasons: not_text (1)", res.FailureSummary())

	_, ok := res.Graph.GetNode(graph.FileID("blob.js"))
	assert.False(t, ok)
}

func TestRun_OrderIndependence(t *testing.T) {
	fsys := project()
	files := discover(t, fsys)
	cfg := DefaultConfig()
	cfg.Workers = 4

	want := run(t, fsys, cfg, files)
	wantSummary := summary.Summarize(want.Graph)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]discovery.File(nil), files...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := run(t, fsys, cfg, shuffled)
		assert.Equal(t, want.Graph.Fingerprint(), got.Graph.Fingerprint(), "shuffle %d", i)
		assert.Equal(t, wantSummary, summary.Summarize(got.Graph), "shuffle %d", i)
	}
}

func TestRun_RerunIsStable(t *testing.T) {
	fsys := project()
	files := discover(t, fsys)

	first := run(t, fsys, DefaultConfig(), files)
	second := run(t, fsys, DefaultConfig(), files)

	assert.Equal(t, first.Graph.Fingerprint(), second.Graph.Fingerprint())
	assert.Equal(t, summary.Summarize(first.Graph), summary.Summarize(second.Graph))
}

func TestRun_InsertionOrderFollowsDiscovery(t *testing.T) {
	fsys := fstest.MapFS{
		"a.go": {Data: []byte("package a\n")},
		"b.go": {Data: []byte("package b\n")},
		"c.go": {Data: []byte("package c\n")},
	}
	cfg := DefaultConfig()
	cfg.Workers = 3

	res := run(t, fsys, cfg, discover(t, fsys))
	var paths []string
	for _, n := range res.Graph.FileNodes() {
		paths = append(paths, n.Path)
	}
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, paths)
}

func TestRun_MaxFiles(t *testing.T) {
	fsys := project()
	files := discover(t, fsys)
	cfg := DefaultConfig()
	cfg.MaxFiles = 2

	res := run(t, fsys, cfg, files)

	assert.True(t, res.Incomplete)
	assert.Equal(t, StopMaxFiles, res.StopReason)
	assert.Equal(t, 2, res.Stats.FilesDispatched)
	assert.Len(t, res.Skipped, len(files)-2)
	assert.Equal(t, files[2].Path, res.Skipped[0])
}

func TestRun_TimeBudget(t *testing.T) {
	fsys := project()
	cfg := DefaultConfig()
	cfg.TimeBudget = time.Nanosecond

	res := run(t, fsys, cfg, discover(t, fsys))
	assert.True(t, res.Incomplete)
	assert.Equal(t, StopTimeBudget, res.StopReason)
}

func TestRun_Cancelled(t *testing.T) {
	fsys := project()
	files := discover(t, fsys)
	o, err := New(fsys, DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Run(ctx, files)
	require.NoError(t, err, "cancellation is not an invocation error")

	assert.Equal(t, StopCancelled, res.StopReason)
	assert.Len(t, res.Skipped, len(files))
	assert.Equal(t, 0, res.Graph.FileCount())
}

func TestRun_Oversized(t *testing.T) {
	fsys := fstest.MapFS{
		"big.py":   {Data: []byte("def a():\n    pass\n")},
		"liar.py":  {Data: []byte("def b():\n    pass\n")},
		"small.py": {Data: []byte("x = 1\n")},
	}
	cfg := DefaultConfig()
	cfg.MaxFileSize = 10

	files := []discovery.File{
		{Path: "big.py", Size: 100},
		{Path: "liar.py", Size: 1},
		{Path: "small.py", Size: 6},
	}
	res := run(t, fsys, cfg, files)

	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.Equal(t, ReasonOversized, f.Reason)
		assert.ErrorIs(t, &f, ErrOversized)
	}
	assert.Equal(t, 1, res.Graph.FileCount())
}

func TestRun_Unreadable(t *testing.T) {
	res := run(t, fstest.MapFS{}, DefaultConfig(), []discovery.File{{Path: "gone.rs", Size: 3}})
	require.Len(t, res.Failures, 1)
	assert.Equal(t, ReasonUnreadable, res.Failures[0].Reason)
}

func TestRun_StrictLanguages(t *testing.T) {
	fsys := project()
	cfg := DefaultConfig()
	cfg.StrictLanguages = true

	res := run(t, fsys, cfg, discover(t, fsys))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "README.md", res.Failures[0].Path)
	assert.Equal(t, ReasonNoProfile, res.Failures[0].Reason)
}

func TestRun_LanguageRestriction(t *testing.T) {
	fsys := project()
	cfg := DefaultConfig()
	cfg.Languages = []string{"python"}

	res := run(t, fsys, cfg, discover(t, fsys))
	assert.Empty(t, res.Failures)

	app, ok := res.Graph.GetNode(graph.FileID("src/app.ts"))
	require.True(t, ok)
	assert.Empty(t, app.Language, "disabled languages are opaque")
	assert.Empty(t, app.Outgoing)

	assert.True(t, hasEdge(res.Graph, graph.FileID("py/pkg/__init__.py"), graph.FileID("py/pkg/mod.py"), graph.EdgeTypeImports))
}

func TestRun_DuplicatePaths(t *testing.T) {
	fsys := fstest.MapFS{"a.lua": {Data: []byte("function f() end\n")}}
	files := []discovery.File{{Path: "a.lua", Size: 17}, {Path: "./a.lua", Size: 17}}

	res := run(t, fsys, DefaultConfig(), files)
	assert.Equal(t, 1, res.Stats.FilesIngested)
	assert.Equal(t, 1, res.Stats.FilesDispatched)
}

func TestRun_Progress(t *testing.T) {
	fsys := project()
	files := discover(t, fsys)

	var seen []Progress
	run(t, fsys, DefaultConfig(), files, WithProgress(func(p Progress) { seen = append(seen, p) }))

	require.Len(t, seen, len(files))
	for i, p := range seen {
		assert.Equal(t, i+1, p.FilesDone)
		assert.Equal(t, len(files), p.FilesTotal)
		assert.Equal(t, files[i].Path, p.Current)
	}
}

func TestRun_InvalidInvocation(t *testing.T) {
	o, err := New(fstest.MapFS{}, DefaultConfig())
	require.NoError(t, err)

	//nolint:staticcheck // nil context is the case under test
	_, err = o.Run(nil, nil)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilFS)

	bad := DefaultConfig()
	bad.Workers = 0
	_, err = New(fstest.MapFS{}, bad)
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	bad = DefaultConfig()
	bad.MaxFileSize = 0
	_, err = New(fstest.MapFS{}, bad)
	assert.ErrorIs(t, err, ErrInvalidMaxFileSize)

	bad = DefaultConfig()
	bad.MaxFiles = -1
	_, err = New(fstest.MapFS{}, bad)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	bad = DefaultConfig()
	bad.Languages = []string{"cobol"}
	_, err = New(fstest.MapFS{}, bad)
	assert.True(t, errors.Is(err, lang.ErrUnknownLanguage))
}

func TestRun_EmptyInput(t *testing.T) {
	res := run(t, fstest.MapFS{}, DefaultConfig(), nil)
	assert.Equal(t, 0, res.Graph.NodeCount())
	assert.False(t, res.Incomplete)
	assert.Empty(t, res.FailureSummary())
}

func TestFileFailure_Error(t *testing.T) {
	f := &FileFailure{Path: "x.js", Reason: ReasonNotText, Err: errors.New("boom")}
	assert.Equal(t, "x.js: not_text: boom", f.Error())
	assert.Equal(t, "y.js: oversized", (&FileFailure{Path: "y.js", Reason: ReasonOversized}).Error())
}
