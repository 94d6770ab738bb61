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
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint returns a canonical digest of the graph's structure.
//
// # Description
//
// Every node (with its metadata) and every edge is rendered to a line, the
// lines are sorted, and the result is hashed with SHA-256. Two graphs have
// the same fingerprint exactly when they have the same node set and the
// same edge multiset, regardless of insertion order.
//
// # Outputs
//
//   - string: Lowercase hex digest, 64 characters.
func (g *Graph) Fingerprint() string {
	nodeLines := make([]string, 0, len(g.order))
	for _, n := range g.order {
		nodeLines = append(nodeLines, nodeLine(n))
	}
	edgeLines := make([]string, 0, len(g.edges))
	for _, e := range g.edges {
		edgeLines = append(edgeLines, edgeLine(e))
	}
	sort.Strings(nodeLines)
	sort.Strings(edgeLines)

	h := sha256.New()
	for _, l := range nodeLines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte{0})
	for _, l := range edgeLines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func nodeLine(n *Node) string {
	var b strings.Builder
	b.WriteString(n.ID)
	if n.Kind != NodeKindFile {
		return b.String()
	}
	b.WriteByte('\t')
	b.WriteString(n.Language)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(n.Size, 10))
	b.WriteByte('\t')
	b.WriteString(strconv.FormatBool(n.Ingested))
	for _, s := range n.Symbols {
		b.WriteByte('\t')
		b.WriteString(s.Kind.String())
		b.WriteByte(':')
		b.WriteString(s.Name)
		b.WriteByte(':')
		b.WriteString(s.Raw)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.Line))
	}
	return b.String()
}

func edgeLine(e *Edge) string {
	return e.Type.String() + "\t" + e.FromID + "\t" + e.ToID + "\t" + strconv.Itoa(e.Line)
}
