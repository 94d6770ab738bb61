// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package summary computes read-only metrics over a dependency graph.
//
// All functions are pure and deterministic for a given graph. Nodes are
// visited in insertion order so floating-point sums do not depend on map
// iteration.
package summary

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

// UnknownLanguage is the bucket for File nodes without a language tag.
const UnknownLanguage = "unknown"

// LanguageCount is the number of files of one language.
type LanguageCount struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
}

// Summary holds the headline metrics of a graph.
type Summary struct {
	TotalFiles       int             `json:"total_files"`
	TotalNodes       int             `json:"total_nodes"`
	TotalEdges       int             `json:"total_edges"`
	AverageDegree    float64         `json:"average_degree"`
	Languages        []LanguageCount `json:"languages"`
	Components       int             `json:"components"`
	LargestComponent int             `json:"largest_component"`
}

// Summarize computes the Summary of g.
//
// # Description
//
// Degree is in-degree plus out-degree over every edge type, averaged over
// File nodes only. Connected components are computed on the undirected
// File-to-File Imports graph; a file with no imports in either direction
// is its own component. Languages are sorted by descending file count,
// then name.
//
// # Thread Safety
//
// Safe to call concurrently on a frozen graph.
func Summarize(g *graph.Graph) Summary {
	files := g.FileNodes()
	s := Summary{
		TotalFiles: len(files),
		TotalNodes: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
		Languages:  make([]LanguageCount, 0),
	}
	if len(files) == 0 {
		return s
	}

	var degreeSum float64
	byLanguage := make(map[string]int)
	for _, f := range files {
		degreeSum += float64(f.Degree())
		language := f.Language
		if language == "" {
			language = UnknownLanguage
		}
		byLanguage[language]++
	}
	s.AverageDegree = degreeSum / float64(len(files))

	for language, n := range byLanguage {
		s.Languages = append(s.Languages, LanguageCount{Language: language, Files: n})
	}
	sort.Slice(s.Languages, func(i, j int) bool {
		if s.Languages[i].Files != s.Languages[j].Files {
			return s.Languages[i].Files > s.Languages[j].Files
		}
		return s.Languages[i].Language < s.Languages[j].Language
	})

	components := topo.ConnectedComponents(importGraph(g, files))
	s.Components = len(components)
	for _, c := range components {
		if len(c) > s.LargestComponent {
			s.LargestComponent = len(c)
		}
	}
	return s
}

// fileIndex assigns each File node a dense gonum node ID.
func fileIndex(files []*graph.Node) map[string]int64 {
	idx := make(map[string]int64, len(files))
	for i, f := range files {
		idx[f.ID] = int64(i)
	}
	return idx
}

// importGraph projects File-to-File Imports edges onto an undirected
// simple graph. Self-imports are dropped; they cannot change components.
func importGraph(g *graph.Graph, files []*graph.Node) *simple.UndirectedGraph {
	idx := fileIndex(files)
	ug := simple.NewUndirectedGraph()
	for i := range files {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		if e.Type != graph.EdgeTypeImports {
			continue
		}
		from, okFrom := idx[e.FromID]
		to, okTo := idx[e.ToID]
		if !okFrom || !okTo || from == to {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(from), simple.Node(to)))
	}
	return ug
}

// Diff describes how two summaries differ.
type Diff struct {
	Files            int     `json:"files"`
	Nodes            int     `json:"nodes"`
	Edges            int     `json:"edges"`
	AverageDegree    float64 `json:"average_degree"`
	Components       int     `json:"components"`
	LargestComponent int     `json:"largest_component"`
}

// Compare returns b minus a, field by field.
func Compare(a, b Summary) Diff {
	return Diff{
		Files:            b.TotalFiles - a.TotalFiles,
		Nodes:            b.TotalNodes - a.TotalNodes,
		Edges:            b.TotalEdges - a.TotalEdges,
		AverageDegree:    b.AverageDegree - a.AverageDegree,
		Components:       b.Components - a.Components,
		LargestComponent: b.LargestComponent - a.LargestComponent,
	}
}

// IsZero reports whether no field changed.
func (d Diff) IsZero() bool {
	return d == Diff{}
}
