// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/extract"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
)

func imports(targets ...string) []graph.ResolvedImport {
	out := make([]graph.ResolvedImport, 0, len(targets))
	for i, t := range targets {
		o := resolve.Unresolved()
		raw := t
		if t != "" && t[0] != '@' {
			o = resolve.Resolved(t)
			raw = "./" + t
		} else {
			raw = t[1:]
		}
		out = append(out, graph.ResolvedImport{Raw: raw, Line: i + 1, Outcome: o})
	}
	return out
}

func build(t *testing.T, results ...graph.FileResult) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(graph.NewGraph(""))
	for _, r := range results {
		require.NoError(t, b.Ingest(r))
	}
	return b.Finish(context.Background())
}

func TestSummarize_TwoFileCycle(t *testing.T) {
	g := build(t,
		graph.FileResult{Path: "a.ts", Language: "typescript", Imports: imports("b.ts")},
		graph.FileResult{Path: "b.ts", Language: "typescript", Imports: imports("a.ts")},
	)

	s := Summarize(g)
	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 2, s.TotalNodes)
	assert.Equal(t, 2, s.TotalEdges)
	assert.InDelta(t, 2.0, s.AverageDegree, 1e-9)
	assert.Equal(t, 1, s.Components)
	assert.Equal(t, 2, s.LargestComponent)
	assert.Equal(t, []LanguageCount{{Language: "typescript", Files: 2}}, s.Languages)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(build(t))
	assert.Equal(t, Summary{Languages: []LanguageCount{}}, s)
}

func TestSummarize_ComponentsIgnoreNonImportEdges(t *testing.T) {
	g := build(t,
		graph.FileResult{
			Path:     "a.py",
			Language: "python",
			Symbols:  []extract.Symbol{{Kind: lang.KindFunction, Name: "f", Line: 1}},
			Imports:  imports("@os"),
		},
		graph.FileResult{Path: "b.py", Language: "python", Imports: imports("@os", "c.py")},
		graph.FileResult{Path: "c.py", Language: "python"},
		graph.FileResult{Path: "notes.txt"},
		graph.FileResult{Path: "self.py", Language: "python", Imports: imports("self.py")},
	)

	s := Summarize(g)
	assert.Equal(t, 5, s.TotalFiles)
	// a.py, {b.py c.py}, notes.txt, self.py: the shared external does not join a and b.
	assert.Equal(t, 4, s.Components)
	assert.Equal(t, 2, s.LargestComponent)
	assert.Equal(t, []LanguageCount{
		{Language: "python", Files: 4},
		{Language: UnknownLanguage, Files: 1},
	}, s.Languages)

	// Degrees: a=2 (defines, unresolved), b=2, c=1, notes=0, self=2.
	assert.InDelta(t, 7.0/5.0, s.AverageDegree, 1e-9)
}

func TestSummarize_Deterministic(t *testing.T) {
	results := []graph.FileResult{
		{Path: "x.rs", Language: "rust", Imports: imports("y.rs", "@std")},
		{Path: "y.rs", Language: "rust", Imports: imports("z.rs")},
		{Path: "z.rs", Language: "rust"},
	}
	first := Summarize(build(t, results...))
	second := Summarize(build(t, results[2], results[0], results[1]))
	assert.Equal(t, first, second)
	assert.True(t, Compare(first, second).IsZero())
}

func TestCompare(t *testing.T) {
	a := Summary{TotalFiles: 2, TotalEdges: 3, AverageDegree: 1.5}
	b := Summary{TotalFiles: 3, TotalEdges: 3, AverageDegree: 2}
	d := Compare(a, b)
	assert.Equal(t, 1, d.Files)
	assert.Equal(t, 0, d.Edges)
	assert.InDelta(t, 0.5, d.AverageDegree, 1e-9)
	assert.False(t, d.IsZero())
}
