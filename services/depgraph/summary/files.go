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

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// LanguageStats is the size breakdown of one language.
type LanguageStats struct {
	Language    string  `json:"language"`
	Files       int     `json:"files"`
	TotalSize   int64   `json:"total_size"`
	AverageSize float64 `json:"average_size"`

	// Percentage is the share of ingested files, 0 to 100.
	Percentage float64 `json:"percentage"`
}

// FileStats describes one ingested file.
type FileStats struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	Size      int64  `json:"size"`
	Functions int    `json:"functions"`
	Classes   int    `json:"classes"`

	// Complexity is Functions + 2*Classes.
	Complexity int `json:"complexity"`
}

// ComplexityBucket counts files whose complexity falls in Range.
type ComplexityBucket struct {
	Range      string  `json:"range"`
	Files      int     `json:"files"`
	Percentage float64 `json:"percentage"`
}

// complexityBounds are the inclusive upper bounds of every bucket but the
// last.
var complexityBounds = []struct {
	label string
	max   int
}{
	{"0-5", 5},
	{"6-15", 15},
	{"16-30", 30},
}

const complexityOverflow = "31+"

// ingestedFiles returns the File nodes whose contents were analyzed.
// Bare import targets carry no size or symbols and are left out.
func ingestedFiles(files []*graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(files))
	for _, f := range files {
		if f.Ingested {
			out = append(out, f)
		}
	}
	return out
}

func fileStats(f *graph.Node) FileStats {
	fs := FileStats{Path: f.Path, Language: f.Language, Size: f.Size}
	if fs.Language == "" {
		fs.Language = UnknownLanguage
	}
	for _, s := range f.Symbols {
		switch s.Kind {
		case lang.KindFunction:
			fs.Functions++
		case lang.KindClass:
			fs.Classes++
		}
	}
	fs.Complexity = fs.Functions + 2*fs.Classes
	return fs
}

// languageStats groups ingested files by language, sorted by descending
// file count, then name.
func languageStats(files []*graph.Node) []LanguageStats {
	out := make([]LanguageStats, 0)
	if len(files) == 0 {
		return out
	}

	byLanguage := make(map[string]*LanguageStats)
	for _, f := range files {
		language := f.Language
		if language == "" {
			language = UnknownLanguage
		}
		ls, ok := byLanguage[language]
		if !ok {
			ls = &LanguageStats{Language: language}
			byLanguage[language] = ls
		}
		ls.Files++
		ls.TotalSize += f.Size
	}

	for _, ls := range byLanguage {
		ls.AverageSize = float64(ls.TotalSize) / float64(ls.Files)
		ls.Percentage = float64(ls.Files) / float64(len(files)) * 100
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// largestFiles returns the topN ingested files by size, ties broken by path.
func largestFiles(files []*graph.Node, topN int) []FileStats {
	out := make([]FileStats, 0, len(files))
	for _, f := range files {
		out = append(out, fileStats(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// complexityDistribution always returns the four buckets in ascending
// order. Percentages are zero when there are no files.
func complexityDistribution(files []*graph.Node) []ComplexityBucket {
	out := make([]ComplexityBucket, 0, len(complexityBounds)+1)
	for _, b := range complexityBounds {
		out = append(out, ComplexityBucket{Range: b.label})
	}
	out = append(out, ComplexityBucket{Range: complexityOverflow})

	for _, f := range files {
		c := fileStats(f).Complexity
		i := len(complexityBounds)
		for j, b := range complexityBounds {
			if c <= b.max {
				i = j
				break
			}
		}
		out[i].Files++
	}

	if len(files) > 0 {
		for i := range out {
			out[i].Percentage = float64(out[i].Files) / float64(len(files)) * 100
		}
	}
	return out
}
