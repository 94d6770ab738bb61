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
	"errors"
	"testing"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

func TestGraphState_String(t *testing.T) {
	tests := []struct {
		state    GraphState
		expected string
	}{
		{GraphStateBuilding, "building"},
		{GraphStateReadOnly, "readonly"},
		{GraphState(99), "unknown"},
	}

	for _, tc := range tests {
		got := tc.state.String()
		if got != tc.expected {
			t.Errorf("GraphState(%d).String() = %q, expected %q", tc.state, got, tc.expected)
		}
	}
}

func TestEdgeType_RoundTrip(t *testing.T) {
	for _, et := range []EdgeType{EdgeTypeImports, EdgeTypeDefines, EdgeTypeReferences, EdgeTypeUnresolved} {
		got, err := ParseEdgeType(et.String())
		if err != nil {
			t.Fatalf("ParseEdgeType(%q) error: %v", et.String(), err)
		}
		if got != et {
			t.Errorf("ParseEdgeType(%q) = %v, expected %v", et.String(), got, et)
		}
	}
	if _, err := ParseEdgeType("unknown"); err == nil {
		t.Error("expected error for unknown edge type")
	}
	if EdgeType(99).String() != "unknown" {
		t.Errorf("EdgeType(99).String() = %q", EdgeType(99).String())
	}
}

func TestNodeKind_RoundTrip(t *testing.T) {
	for _, k := range []NodeKind{NodeKindFile, NodeKindSymbol, NodeKindExternal} {
		got, err := ParseNodeKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseNodeKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseNodeKind("widget"); err == nil {
		t.Error("expected error for unknown node kind")
	}
}

func TestIDs_AreDisjoint(t *testing.T) {
	file := FileID("a.rs")
	sym := SymbolID("a.rs", lang.KindFunction, "a.rs", 1)
	ext := ExternalID("a.rs")
	if file == sym || file == ext || sym == ext {
		t.Errorf("IDs collide: %q %q %q", file, sym, ext)
	}
	if SymbolID("a.rs", lang.KindFunction, "f", 1) == SymbolID("a.rs", lang.KindFunction, "f", 2) {
		t.Error("duplicate names on different lines must be distinct")
	}
}

func TestGraph_EnsureFileKeepsMetadata(t *testing.T) {
	g := NewGraph("/repo")

	if _, err := g.UpsertFile("a.ts", "typescript", 42, nil); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	node, err := g.EnsureFile("a.ts")
	if err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	if node.Language != "typescript" || node.Size != 42 || !node.Ingested {
		t.Errorf("EnsureFile overwrote metadata: %+v", node)
	}

	bare, err := g.EnsureFile("b.ts")
	if err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	if bare.Ingested {
		t.Error("bare file node must not be marked ingested")
	}
	if g.FileCount() != 2 || g.NodeCount() != 2 {
		t.Errorf("FileCount=%d NodeCount=%d, expected 2/2", g.FileCount(), g.NodeCount())
	}
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph("")
	a, _ := g.EnsureFile("a")
	b, _ := g.EnsureFile("b")

	if err := g.AddEdge(a.ID, b.ID, EdgeTypeImports, 1); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge(a.ID, b.ID, EdgeTypeImports, 2); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("multigraph must keep both edges, got %d", g.EdgeCount())
	}
	if a.Degree() != 2 || b.Degree() != 2 {
		t.Errorf("degrees = %d/%d, expected 2/2", a.Degree(), b.Degree())
	}

	err := g.AddEdge(a.ID, "file:missing", EdgeTypeImports, 0)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestGraph_SelfLoopCountsTwice(t *testing.T) {
	g := NewGraph("")
	a, _ := g.EnsureFile("a")
	if err := g.AddEdge(a.ID, a.ID, EdgeTypeImports, 1); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if a.Degree() != 2 {
		t.Errorf("self-loop degree = %d, expected 2", a.Degree())
	}
}

func TestGraph_Frozen(t *testing.T) {
	g := NewGraph("")
	a, _ := g.EnsureFile("a")
	g.Freeze()
	first := g.BuiltAtMilli
	g.Freeze()

	if !g.IsFrozen() {
		t.Fatal("expected frozen graph")
	}
	if g.BuiltAtMilli != first {
		t.Error("second Freeze changed the timestamp")
	}
	if _, err := g.EnsureFile("b"); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("EnsureFile on frozen graph: %v", err)
	}
	if _, err := g.EnsureFile("a"); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("EnsureFile of existing node on frozen graph: %v", err)
	}
	if err := g.AddEdge(a.ID, a.ID, EdgeTypeImports, 0); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("AddEdge on frozen graph: %v", err)
	}
}

func TestGraph_Limits(t *testing.T) {
	g := NewGraph("", WithMaxNodes(1), WithMaxEdges(1))
	a, err := g.EnsureFile("a")
	if err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	if _, err := g.EnsureFile("b"); !errors.Is(err, ErrMaxNodesExceeded) {
		t.Errorf("expected ErrMaxNodesExceeded, got %v", err)
	}
	if err := g.AddEdge(a.ID, a.ID, EdgeTypeImports, 0); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge(a.ID, a.ID, EdgeTypeImports, 0); !errors.Is(err, ErrMaxEdgesExceeded) {
		t.Errorf("expected ErrMaxEdgesExceeded, got %v", err)
	}
}

func TestGraph_InvalidNodes(t *testing.T) {
	g := NewGraph("")
	if _, err := g.EnsureFile(""); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("empty path: %v", err)
	}
	if _, err := g.EnsureExternal(""); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("empty reference: %v", err)
	}
}
