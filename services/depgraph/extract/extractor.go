// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract implements the line-oriented symbol extractor.
//
// The extractor is a heuristic pass, not a parser: it blanks comments,
// then runs the profile's declaration and import matchers over each line.
// Ambiguous constructs are never rejected; a missed symbol is acceptable,
// a failure on odd input is not.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// Symbol is one declaration or import found in a file.
//
// Name may be empty for anonymous default exports. Raw holds the import
// reference exactly as written and is empty for declarations.
type Symbol struct {
	Kind lang.SymbolKind `json:"kind"`
	Name string          `json:"name,omitempty"`
	Raw  string          `json:"raw,omitempty"`
	Line int             `json:"line"`

	// FileRelative is set when the import syntax makes the reference
	// relative to the importing file regardless of prefix.
	FileRelative bool `json:"file_relative,omitempty"`
}

// IsImport reports whether the symbol is an import record.
func (s Symbol) IsImport() bool {
	return s.Kind == lang.KindImport
}

// Extract returns the symbols declared and imported by text.
//
// # Description
//
// Comment spans are blanked first. Each declaration matcher is then run
// over every line in priority order, followed by each import matcher.
// Output order is matcher priority, then line, then position in line.
//
// # Inputs
//
//   - text: Raw file bytes.
//   - profile: Language rules. Must not be nil.
//
// # Outputs
//
//   - []Symbol: Extracted symbols. Empty, not nil, when nothing matched.
//   - error: *ExtractError wrapping ErrNotText for invalid UTF-8, or
//     ErrNilProfile.
//
// # Thread Safety
//
// Safe for concurrent use; profiles are read-only.
func Extract(text []byte, profile *lang.Profile) ([]Symbol, error) {
	if profile == nil {
		return nil, ErrNilProfile
	}
	if !utf8.Valid(text) {
		return nil, &ExtractError{Language: profile.Language, Err: ErrNotText}
	}

	lines := splitLines(string(text))
	stripper := newCommentStripper(profile)
	for i, line := range lines {
		lines[i] = stripper.strip(line)
	}

	symbols := make([]Symbol, 0)
	for _, m := range profile.Declarations {
		symbols = appendMatches(symbols, lines, m, profile)
	}
	for _, m := range profile.Imports {
		symbols = appendMatches(symbols, lines, m, profile)
	}
	return symbols, nil
}

// splitLines splits on \n and drops a trailing \r from each line.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func appendMatches(dst []Symbol, lines []string, m lang.Matcher, profile *lang.Profile) []Symbol {
	nameIdx := m.Pattern.SubexpIndex(lang.GroupName)
	refIdx := m.Pattern.SubexpIndex(lang.GroupRef)
	listIdx := m.Pattern.SubexpIndex(lang.GroupNames)

	for lineNo, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, match := range m.Pattern.FindAllStringSubmatchIndex(line, -1) {
			lineNum := lineNo + 1
			if listIdx >= 0 {
				list := group(line, match, listIdx)
				for _, entry := range splitList(list) {
					dst = appendEntry(dst, m, profile, entry, lineNum)
				}
				continue
			}

			sym := Symbol{Kind: m.Kind, Line: lineNum, FileRelative: m.FileRelative}
			if refIdx >= 0 {
				sym.Raw = strings.TrimSpace(group(line, match, refIdx))
				if sym.Raw == "" {
					continue
				}
			}
			if nameIdx >= 0 {
				sym.Name = group(line, match, nameIdx)
				if sym.Name != "" && profile.IsReserved(sym.Name) {
					continue
				}
			}
			dst = append(dst, sym)
		}
	}
	return dst
}

// appendEntry adds one record for an entry of a list capture such as
// "a as b" from `export { a as b }` or "os.path as p" from `import os.path as p`.
func appendEntry(dst []Symbol, m lang.Matcher, profile *lang.Profile, entry string, line int) []Symbol {
	target, alias := splitAlias(entry)
	target = trimQuotes(target)
	if target == "" {
		return dst
	}
	sym := Symbol{Kind: m.Kind, Line: line, FileRelative: m.FileRelative}
	if m.Kind == lang.KindImport {
		sym.Raw = target
		sym.Name = alias
	} else {
		sym.Name = target
		if alias != "" {
			sym.Name = alias
		}
		if profile.IsReserved(sym.Name) {
			return dst
		}
	}
	return append(dst, sym)
}

func group(line string, match []int, idx int) string {
	start, end := match[2*idx], match[2*idx+1]
	if start < 0 || end < 0 {
		return ""
	}
	return line[start:end]
}

var aliasPattern = regexp.MustCompile(`^\s*(\S+)\s+as\s+(\S+)\s*$`)

func splitAlias(entry string) (target, alias string) {
	if m := aliasPattern.FindStringSubmatch(entry); m != nil {
		return m[1], m[2]
	}
	return strings.TrimSpace(entry), ""
}

func splitList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
