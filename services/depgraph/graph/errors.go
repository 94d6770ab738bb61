// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph holds the cross-file dependency graph.
//
// Nodes are a tagged union over NodeKind: File nodes keyed by path, Symbol
// nodes keyed by (path, kind, name, line) and External pseudo-nodes keyed
// by the raw unresolved reference. Edges are directed, typed and never
// deduplicated.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use during building. It is designed for:
//   - Single-writer access while files are ingested
//   - Read-only access after Freeze() is called
//
// After Freeze(), the graph can be safely read from multiple goroutines.
//
// # Lifecycle
//
//  1. Create with NewGraph(root)
//  2. Ingest file results through a Builder
//  3. Call Freeze() to finalize
//  4. Summarize, export or fingerprint
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when an edge references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrMaxNodesExceeded is returned when the graph has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph has reached its
	// configured maximum edge capacity.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrInvalidNode is returned for an empty path or reference.
	ErrInvalidNode = errors.New("invalid node")
)
