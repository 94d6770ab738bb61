// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"path"
	"path/filepath"
)

// Index is the immutable set of discovered file paths.
//
// Paths are stored cleaned and slash-separated. Index is safe for
// unsynchronized concurrent reads once built.
type Index struct {
	files map[string]struct{}
}

// NewIndex builds an index over the given paths.
func NewIndex(paths []string) *Index {
	idx := &Index{files: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		idx.files[CleanPath(p)] = struct{}{}
	}
	return idx
}

// Has reports whether p is a known file.
func (i *Index) Has(p string) bool {
	_, ok := i.files[p]
	return ok
}

// Len returns the number of known files.
func (i *Index) Len() int {
	return len(i.files)
}

// CleanPath normalizes a path to the slash form used as graph keys.
func CleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
