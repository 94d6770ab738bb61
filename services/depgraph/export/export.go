// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export projects a dependency graph to and from JSON.
//
// The projection is lossless: ToGraph(FromGraph(g)) has the same
// fingerprint as g, the same nodes in the same order, and the same edges
// in the same order.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/AleutianAI/depgraph/services/depgraph/extract"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/orchestrator"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
)

// Version is the document format version written by this package.
const Version = 1

var (
	// ErrUnsupportedVersion is returned when decoding a document written
	// by an incompatible format version.
	ErrUnsupportedVersion = errors.New("unsupported document version")

	// ErrInvalidDocument is returned when a document cannot be turned
	// back into a graph.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrFingerprintMismatch is returned when a rebuilt graph does not
	// match the fingerprint recorded in the document.
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
)

// Node is the JSON form of graph.Node. Fields not meaningful for the
// node's kind are omitted.
type Node struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	Path     string           `json:"path,omitempty"`
	Language string           `json:"language,omitempty"`
	Size     int64            `json:"size,omitempty"`
	Ingested bool             `json:"ingested,omitempty"`
	Symbols  []extract.Symbol `json:"symbols,omitempty"`

	SymbolKind string `json:"symbol_kind,omitempty"`
	Name       string `json:"name,omitempty"`
	Line       int    `json:"line,omitempty"`

	Raw string `json:"raw,omitempty"`
}

// Edge is the JSON form of graph.Edge.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
	Line int    `json:"line,omitempty"`
}

// Failure is the JSON form of orchestrator.FileFailure.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Document is a complete, self-describing analysis result.
type Document struct {
	Version      int    `json:"version"`
	Root         string `json:"root"`
	BuiltAtMilli int64  `json:"built_at_milli"`
	Fingerprint  string `json:"fingerprint"`

	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	Summary  summary.Summary   `json:"summary"`
	Insights *summary.Insights `json:"insights,omitempty"`

	Failures   []Failure           `json:"failures"`
	Skipped    []string            `json:"skipped,omitempty"`
	StopReason string              `json:"stop_reason,omitempty"`
	Stats      *orchestrator.Stats `json:"stats,omitempty"`
}

// FromGraph projects g into a Document with its summary and fingerprint.
// Failures is empty; use FromResult to carry run diagnostics.
func FromGraph(g *graph.Graph) Document {
	doc := Document{
		Version:      Version,
		Root:         g.Root,
		BuiltAtMilli: g.BuiltAtMilli,
		Fingerprint:  g.Fingerprint(),
		Nodes:        make([]Node, 0, g.NodeCount()),
		Edges:        make([]Edge, 0, g.EdgeCount()),
		Summary:      summary.Summarize(g),
		Failures:     make([]Failure, 0),
	}

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, fromNode(n))
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{
			From: e.FromID,
			To:   e.ToID,
			Type: e.Type.String(),
			Line: e.Line,
		})
	}
	return doc
}

// FromResult projects a run result, including failures, skipped files,
// stats and insights. topN bounds the insight rankings.
func FromResult(res *orchestrator.Result, topN int) Document {
	doc := FromGraph(res.Graph)
	insights := summary.Inspect(res.Graph, topN)
	doc.Insights = &insights

	for _, f := range res.Failures {
		failure := Failure{Path: f.Path, Reason: string(f.Reason)}
		if f.Err != nil {
			failure.Error = f.Err.Error()
		}
		doc.Failures = append(doc.Failures, failure)
	}
	if len(res.Skipped) > 0 {
		doc.Skipped = append([]string(nil), res.Skipped...)
	}
	doc.StopReason = string(res.StopReason)
	stats := res.Stats
	doc.Stats = &stats
	return doc
}

func fromNode(n *graph.Node) Node {
	out := Node{ID: n.ID, Kind: n.Kind.String()}
	switch n.Kind {
	case graph.NodeKindFile:
		out.Path = n.Path
		out.Language = n.Language
		out.Size = n.Size
		out.Ingested = n.Ingested
		if len(n.Symbols) > 0 {
			out.Symbols = append([]extract.Symbol(nil), n.Symbols...)
		}
	case graph.NodeKindSymbol:
		out.Path = n.Path
		out.SymbolKind = n.SymbolKind.String()
		out.Name = n.Name
		out.Line = n.Line
	case graph.NodeKindExternal:
		out.Raw = n.Raw
	}
	return out
}

// ToGraph rebuilds a frozen graph from doc.
//
// # Description
//
// Nodes are recreated in document order, then edges. Each node's stored ID
// must equal the ID its fields produce, so a hand-edited document cannot
// smuggle in a node under the wrong key. When doc.Fingerprint is set the
// rebuilt graph must match it.
//
// # Outputs
//
//   - *graph.Graph: Frozen graph with BuiltAtMilli taken from doc.
//   - error: ErrUnsupportedVersion, ErrInvalidDocument or
//     ErrFingerprintMismatch, wrapped with context.
func ToGraph(doc Document) (*graph.Graph, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	g := graph.NewGraph(doc.Root)
	seen := make(map[string]struct{}, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: node %d: duplicate id %q", ErrInvalidDocument, i, n.ID)
		}
		seen[n.ID] = struct{}{}

		built, err := toNode(g, n)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidDocument, i, err)
		}
		if built.ID != n.ID {
			return nil, fmt.Errorf("%w: node %d: id %q does not match fields (%q)",
				ErrInvalidDocument, i, n.ID, built.ID)
		}
	}

	for i, e := range doc.Edges {
		edgeType, err := graph.ParseEdgeType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrInvalidDocument, i, err)
		}
		if err := g.AddEdge(e.From, e.To, edgeType, e.Line); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrInvalidDocument, i, err)
		}
	}

	g.Freeze()
	g.BuiltAtMilli = doc.BuiltAtMilli

	if doc.Fingerprint != "" {
		if got := g.Fingerprint(); got != doc.Fingerprint {
			return nil, fmt.Errorf("%w: document %s, rebuilt %s", ErrFingerprintMismatch, doc.Fingerprint, got)
		}
	}
	return g, nil
}

func toNode(g *graph.Graph, n Node) (*graph.Node, error) {
	kind, err := graph.ParseNodeKind(n.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case graph.NodeKindFile:
		if !n.Ingested {
			return g.EnsureFile(n.Path)
		}
		return g.UpsertFile(n.Path, n.Language, n.Size, n.Symbols)
	case graph.NodeKindSymbol:
		symbolKind, err := lang.ParseSymbolKind(n.SymbolKind)
		if err != nil {
			return nil, err
		}
		return g.AddSymbol(n.Path, symbolKind, n.Name, n.Line)
	default:
		return g.EnsureExternal(n.Raw)
	}
}

// Encode writes doc as JSON. indent selects two-space indentation.
func Encode(w io.Writer, doc Document, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Decode reads a Document written by Encode.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}
