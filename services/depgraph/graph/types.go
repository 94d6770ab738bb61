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
	"fmt"
	"strconv"
	"time"

	"github.com/AleutianAI/depgraph/services/depgraph/extract"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 5_000_000

	// DefaultMaxEdges is the default maximum number of edges a graph can hold.
	DefaultMaxEdges = 20_000_000
)

// ID prefixes keep the three node kinds in disjoint key spaces.
const (
	filePrefix     = "file:"
	symbolPrefix   = "sym:"
	externalPrefix = "ext:"
)

// GraphState represents the lifecycle state of the graph.
type GraphState int

const (
	// GraphStateBuilding indicates the graph is accepting mutations.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly indicates the graph is frozen and read-only.
	GraphStateReadOnly
)

// String returns the string representation of the GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// NodeKind tags the variant a Node holds.
type NodeKind int

const (
	// NodeKindFile is a discovered source file.
	NodeKindFile NodeKind = iota

	// NodeKindSymbol is a declaration inside a file.
	NodeKindSymbol

	// NodeKindExternal is the target of an unresolved import.
	NodeKindExternal
)

var nodeKindNames = map[NodeKind]string{
	NodeKindFile:     "file",
	NodeKindSymbol:   "symbol",
	NodeKindExternal: "external",
}

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseNodeKind is the inverse of NodeKind.String.
func ParseNodeKind(s string) (NodeKind, error) {
	for k, name := range nodeKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// EdgeType defines the type of relationship between two nodes.
type EdgeType int

const (
	// EdgeTypeUnknown indicates an unrecognized relationship type.
	EdgeTypeUnknown EdgeType = iota

	// EdgeTypeImports links a file to a file it imports.
	EdgeTypeImports

	// EdgeTypeDefines links a file to a symbol it declares.
	EdgeTypeDefines

	// EdgeTypeReferences links a symbol to a symbol it uses. The lexical
	// extractor never produces these; the type exists for richer producers.
	EdgeTypeReferences

	// EdgeTypeUnresolved links a file to an external pseudo-node for an
	// import no discovered file satisfied.
	EdgeTypeUnresolved

	// NumEdgeTypes is the total number of edge types (for array sizing).
	NumEdgeTypes
)

var edgeTypeNames = map[EdgeType]string{
	EdgeTypeUnknown:    "unknown",
	EdgeTypeImports:    "imports",
	EdgeTypeDefines:    "defines",
	EdgeTypeReferences: "references",
	EdgeTypeUnresolved: "unresolved",
}

// String returns the string representation of the EdgeType.
func (t EdgeType) String() string {
	if name, ok := edgeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseEdgeType is the inverse of EdgeType.String.
func ParseEdgeType(s string) (EdgeType, error) {
	for t, name := range edgeTypeNames {
		if name == s && t != EdgeTypeUnknown {
			return t, nil
		}
	}
	return EdgeTypeUnknown, fmt.Errorf("unknown edge type %q", s)
}

// Edge represents a directed relationship between two nodes.
//
// Multiple edges of the same type between the same nodes are allowed.
// A file importing the same module on two lines yields two Imports edges.
type Edge struct {
	// FromID is the ID of the source node.
	FromID string

	// ToID is the ID of the target node.
	ToID string

	// Type is the relationship type.
	Type EdgeType

	// Line is the 1-based source line that produced the edge, 0 if unknown.
	Line int
}

// Node is one vertex of the dependency graph.
//
// Which fields are meaningful depends on Kind:
//
//	File:     Path, Language, Size, Symbols, Ingested
//	Symbol:   Path, SymbolKind, Name, Line
//	External: Raw
type Node struct {
	// ID is the unique key; see FileID, SymbolID and ExternalID.
	ID string

	// Kind selects the variant.
	Kind NodeKind

	// Path is the slash path of the file, relative to the analysis root.
	Path string

	// Language is the file's language tag. Empty for opaque files.
	Language string

	// Size is the file size in bytes.
	Size int64

	// Symbols is the file's full symbol inventory, imports included.
	Symbols []extract.Symbol

	// Ingested is false for a File node that only exists as an import
	// target and whose own contents were never ingested.
	Ingested bool

	// SymbolKind is the declaration kind of a Symbol node.
	SymbolKind lang.SymbolKind

	// Name is the declared name of a Symbol node. May be empty.
	Name string

	// Line is the 1-based declaration line of a Symbol node.
	Line int

	// Raw is the unresolved reference text of an External node.
	Raw string

	// Outgoing contains edges where this node is the source.
	Outgoing []*Edge

	// Incoming contains edges where this node is the target.
	Incoming []*Edge
}

// Degree returns in-degree plus out-degree. A self-loop counts twice.
func (n *Node) Degree() int {
	return len(n.Outgoing) + len(n.Incoming)
}

// FileID returns the node ID of the file at path.
func FileID(path string) string {
	return filePrefix + path
}

// SymbolID returns the node ID of a declaration. Duplicate names in one
// file stay distinct because the line is part of the key.
func SymbolID(path string, kind lang.SymbolKind, name string, line int) string {
	return symbolPrefix + path + "#" + kind.String() + ":" + name + "@" + strconv.Itoa(line)
}

// ExternalID returns the node ID of an unresolved reference.
func ExternalID(raw string) string {
	return externalPrefix + raw
}

// GraphOptions configures Graph limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 5,000,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	// Default: 20,000,000
	MaxEdges int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// GraphOption is a functional option for configuring Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxEdges = n
	}
}

// Graph is the dependency graph for one analysis run.
//
// Nodes and edges are kept in insertion order so that traversals and
// summations are deterministic for a deterministic ingest order.
type Graph struct {
	// Root is the analysis root the node paths are relative to.
	Root string

	nodes    map[string]*Node
	order    []*Node
	edges    []*Edge
	state    GraphState
	options  GraphOptions
	files    int
	external int

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze() was called.
	BuiltAtMilli int64
}

// NewGraph creates an empty graph in the Building state.
func NewGraph(root string, opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		Root:    root,
		nodes:   make(map[string]*Node),
		order:   make([]*Node, 0),
		edges:   make([]*Edge, 0),
		state:   GraphStateBuilding,
		options: options,
	}
}

// State returns the current lifecycle state of the graph.
func (g *Graph) State() GraphState {
	return g.state
}

// IsFrozen returns true if the graph is in read-only mode.
func (g *Graph) IsFrozen() bool {
	return g.state == GraphStateReadOnly
}

// Freeze transitions the graph to read-only mode. Further mutations return
// ErrGraphFrozen. Calling Freeze twice keeps the first timestamp.
func (g *Graph) Freeze() {
	if g.state == GraphStateReadOnly {
		return
	}
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// FileCount returns the number of File nodes.
func (g *Graph) FileCount() int {
	return g.files
}

// GetNode retrieves a node by its ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns all nodes in insertion order. Callers must not modify the
// returned slice.
func (g *Graph) Nodes() []*Node {
	return g.order
}

// Edges returns all edges in insertion order. Callers must not modify the
// returned slice.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// FileNodes returns the File nodes in insertion order.
func (g *Graph) FileNodes() []*Node {
	out := make([]*Node, 0, g.files)
	for _, n := range g.order {
		if n.Kind == NodeKindFile {
			out = append(out, n)
		}
	}
	return out
}

// UpsertFile inserts the File node for path or overwrites its metadata.
//
// # Description
//
// Metadata is last-write-wins. Edges already attached to the node are kept.
// The node is marked Ingested.
//
// # Outputs
//
//   - *Node: The File node.
//   - error: ErrGraphFrozen, ErrInvalidNode or ErrMaxNodesExceeded.
func (g *Graph) UpsertFile(path, language string, size int64, symbols []extract.Symbol) (*Node, error) {
	node, err := g.EnsureFile(path)
	if err != nil {
		return nil, err
	}
	node.Language = language
	node.Size = size
	node.Symbols = symbols
	node.Ingested = true
	return node, nil
}

// EnsureFile returns the File node for path, creating a bare one if absent.
// Existing metadata is never overwritten.
func (g *Graph) EnsureFile(path string) (*Node, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidNode)
	}
	return g.ensure(FileID(path), func() *Node {
		return &Node{Kind: NodeKindFile, Path: path}
	})
}

// AddSymbol returns the Symbol node for a declaration, creating it if absent.
func (g *Graph) AddSymbol(path string, kind lang.SymbolKind, name string, line int) (*Node, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: symbol without file", ErrInvalidNode)
	}
	return g.ensure(SymbolID(path, kind, name, line), func() *Node {
		return &Node{Kind: NodeKindSymbol, Path: path, SymbolKind: kind, Name: name, Line: line}
	})
}

// EnsureExternal returns the External node for raw, creating it if absent.
func (g *Graph) EnsureExternal(raw string) (*Node, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidNode)
	}
	return g.ensure(ExternalID(raw), func() *Node {
		return &Node{Kind: NodeKindExternal, Raw: raw}
	})
}

func (g *Graph) ensure(id string, create func() *Node) (*Node, error) {
	if g.state == GraphStateReadOnly {
		return nil, ErrGraphFrozen
	}
	if node, ok := g.nodes[id]; ok {
		return node, nil
	}
	if len(g.order) >= g.options.MaxNodes {
		return nil, ErrMaxNodesExceeded
	}

	node := create()
	node.ID = id
	node.Outgoing = make([]*Edge, 0)
	node.Incoming = make([]*Edge, 0)

	g.nodes[id] = node
	g.order = append(g.order, node)
	switch node.Kind {
	case NodeKindFile:
		g.files++
	case NodeKindExternal:
		g.external++
	}
	return node, nil
}

// AddEdge creates a directed edge between two existing nodes.
//
// # Errors
//
//   - ErrGraphFrozen: Graph has been frozen
//   - ErrNodeNotFound: Source or target node doesn't exist
//   - ErrMaxEdgesExceeded: Graph is at edge capacity
func (g *Graph) AddEdge(fromID, toID string, edgeType EdgeType, line int) error {
	if g.state == GraphStateReadOnly {
		return ErrGraphFrozen
	}
	if len(g.edges) >= g.options.MaxEdges {
		return ErrMaxEdgesExceeded
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("%w: source %s", ErrNodeNotFound, fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("%w: target %s", ErrNodeNotFound, toID)
	}

	edge := &Edge{FromID: fromID, ToID: toID, Type: edgeType, Line: line}
	g.edges = append(g.edges, edge)
	fromNode.Outgoing = append(fromNode.Outgoing, edge)
	toNode.Incoming = append(toNode.Incoming, edge)
	return nil
}

// GraphStats contains counts about the graph.
type GraphStats struct {
	NodeCount     int
	EdgeCount     int
	FileCount     int
	ExternalCount int
	EdgesByType   map[EdgeType]int
	State         GraphState
	BuiltAtMilli  int64
}

// Stats returns node and edge counts.
func (g *Graph) Stats() GraphStats {
	byType := make(map[EdgeType]int)
	for _, e := range g.edges {
		byType[e.Type]++
	}
	return GraphStats{
		NodeCount:     len(g.order),
		EdgeCount:     len(g.edges),
		FileCount:     g.files,
		ExternalCount: g.external,
		EdgesByType:   byType,
		State:         g.state,
		BuiltAtMilli:  g.BuiltAtMilli,
	}
}
