// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/export"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
)

func sampleDoc(t *testing.T, root string, files ...string) export.Document {
	t.Helper()
	b := graph.NewBuilder(graph.NewGraph(root))
	for i, f := range files {
		r := graph.FileResult{Path: f, Language: "go"}
		if i > 0 {
			r.Imports = []graph.ResolvedImport{{Raw: "./" + files[0], Line: 1, Outcome: resolve.Resolved(files[0])}}
		}
		require.NoError(t, b.Ingest(r))
	}
	return export.FromGraph(b.Finish(context.Background()))
}

// sequence returns deterministic IDs and a clock that ticks one second per call.
func sequence() (func() string, func() time.Time) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ids, ticks := 0, 0
	nextID := func() string {
		ids++
		return fmt.Sprintf("run-%02d", ids)
	}
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	return nextID, clock
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	ids, clock := sequence()
	s, err := Open(InMemoryConfig(), WithIDGenerator(ids), WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	doc := sampleDoc(t, "/repo", "a.go", "b.go")

	meta, err := s.Save(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "run-01", meta.ID)
	assert.Equal(t, doc.Fingerprint, meta.Fingerprint)
	assert.Equal(t, 2, meta.Summary.TotalFiles)

	run, err := s.Load(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "/repo", run.Root)
	assert.True(t, meta.CreatedAt.Equal(run.CreatedAt))
	assert.Equal(t, doc, run.Document)

	g, err := export.ToGraph(run.Document)
	require.NoError(t, err)
	assert.Equal(t, doc.Fingerprint, g.Fingerprint())
}

func TestLoad_Prefix(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := s.Save(ctx, sampleDoc(t, "/repo", "a.go"))
		require.NoError(t, err)
	}

	_, err := s.Load(ctx, "run-")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	run, err := s.Load(ctx, "run-02")
	require.NoError(t, err)
	assert.Equal(t, "run-02", run.ID)

	_, err = s.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "load", storeErr.Op)
	assert.Equal(t, "nope", storeErr.ID)
}

func TestListAndLatest(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	for _, root := range []string{"/one", "/two", "/three"} {
		_, err := s.Save(ctx, sampleDoc(t, root, "a.go"))
		require.NoError(t, err)
	}

	runs, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"/three", "/two", "/one"}, []string{runs[0].Root, runs[1].Root, runs[2].Root})

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/three", latest.Root)
}

func TestPrune(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := s.Save(ctx, sampleDoc(t, "/repo", "a.go"))
		require.NoError(t, err)
	}

	removed, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	runs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-04", runs[0].ID)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-04", latest.ID)

	removed, err = s.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	doc := sampleDoc(t, "/repo", "a.go", "b.go")

	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	meta, err := s.Save(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	reopened, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, run.ID)
	assert.Equal(t, doc.Fingerprint, run.Fingerprint)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestCancelledContext(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, sampleDoc(t, "/repo", "a.go"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
