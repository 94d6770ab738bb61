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
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

// DefaultTopN is the default length of ranked insight lists.
const DefaultTopN = 10

// FileCount pairs a file with a count.
type FileCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ReferenceCount pairs an unresolved reference with a count.
type ReferenceCount struct {
	Reference string `json:"reference"`
	Count     int    `json:"count"`
}

// Insights are the structural findings reported alongside a Summary.
type Insights struct {
	// Cycles lists groups of files that import each other, directly or
	// transitively. A file importing itself is a cycle of one.
	Cycles [][]string `json:"cycles"`

	// Orphans lists files with no Imports edge in either direction.
	Orphans []string `json:"orphans"`

	// MostImported ranks files by the number of distinct importers.
	MostImported []FileCount `json:"most_imported"`

	// TopUnresolved ranks unresolved references by occurrence.
	TopUnresolved []ReferenceCount `json:"top_unresolved"`

	// LanguageSizes breaks ingested files down by language and size.
	LanguageSizes []LanguageStats `json:"language_sizes"`

	// LargestFiles ranks ingested files by size.
	LargestFiles []FileStats `json:"largest_files"`

	// Complexity buckets ingested files by functions + 2*classes.
	Complexity []ComplexityBucket `json:"complexity"`
}

// Inspect computes Insights for g. topN <= 0 uses DefaultTopN.
//
// Description:
//
//	Cycles are the strongly connected components of the directed
//	File-to-File Imports graph with more than one file, plus self-imports.
//	Each cycle is sorted by path and the list is sorted by first path.
//	Orphans keep graph insertion order.
//
//	Size and complexity figures cover ingested files only; bare import
//	targets have no size or symbols.
func Inspect(g *graph.Graph, topN int) Insights {
	if topN <= 0 {
		topN = DefaultTopN
	}
	files := g.FileNodes()
	ingested := ingestedFiles(files)
	return Insights{
		Cycles:        cycles(g, files),
		Orphans:       orphans(files),
		MostImported:  mostImported(files, topN),
		TopUnresolved: topUnresolved(g, topN),
		LanguageSizes: languageStats(ingested),
		LargestFiles:  largestFiles(ingested, topN),
		Complexity:    complexityDistribution(ingested),
	}
}

func cycles(g *graph.Graph, files []*graph.Node) [][]string {
	idx := fileIndex(files)
	dg := simple.NewDirectedGraph()
	for i := range files {
		dg.AddNode(simple.Node(int64(i)))
	}

	selfImport := make(map[int64]bool)
	for _, e := range g.Edges() {
		if e.Type != graph.EdgeTypeImports {
			continue
		}
		from, okFrom := idx[e.FromID]
		to, okTo := idx[e.ToID]
		if !okFrom || !okTo {
			continue
		}
		if from == to {
			selfImport[from] = true
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
	}

	out := make([][]string, 0)
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) == 1 && !selfImport[scc[0].ID()] {
			continue
		}
		group := make([]string, 0, len(scc))
		for _, n := range scc {
			group = append(group, files[n.ID()].Path)
		}
		sort.Strings(group)
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func orphans(files []*graph.Node) []string {
	out := make([]string, 0)
	for _, f := range files {
		if !hasImportEdge(f.Incoming) && !hasImportEdge(f.Outgoing) {
			out = append(out, f.Path)
		}
	}
	return out
}

func hasImportEdge(edges []*graph.Edge) bool {
	for _, e := range edges {
		if e.Type == graph.EdgeTypeImports {
			return true
		}
	}
	return false
}

func mostImported(files []*graph.Node, topN int) []FileCount {
	ranked := make([]FileCount, 0)
	for _, f := range files {
		importers := make(map[string]struct{})
		for _, e := range f.Incoming {
			if e.Type == graph.EdgeTypeImports && e.FromID != f.ID {
				importers[e.FromID] = struct{}{}
			}
		}
		if len(importers) > 0 {
			ranked = append(ranked, FileCount{Path: f.Path, Count: len(importers)})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Path < ranked[j].Path
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func topUnresolved(g *graph.Graph, topN int) []ReferenceCount {
	ranked := make([]ReferenceCount, 0)
	for _, n := range g.Nodes() {
		if n.Kind != graph.NodeKindExternal {
			continue
		}
		ranked = append(ranked, ReferenceCount{Reference: n.Raw, Count: len(n.Incoming)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Reference < ranked[j].Reference
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
