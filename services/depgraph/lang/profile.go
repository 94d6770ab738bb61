// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// SymbolKind classifies a declaration found by a matcher.
type SymbolKind uint8

const (
	// KindFunction is a function, method or procedure.
	KindFunction SymbolKind = iota

	// KindClass is a class, struct, interface, trait, enum or similar type.
	KindClass

	// KindImport is an import, include, use or require statement.
	KindImport

	// KindExport is an exported or public declaration.
	KindExport

	// KindModule is a module, package or namespace declaration.
	KindModule
)

// String returns the lowercase name of the kind.
func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindImport:
		return "import"
	case KindExport:
		return "export"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// ParseSymbolKind is the inverse of SymbolKind.String.
func ParseSymbolKind(s string) (SymbolKind, error) {
	switch s {
	case "function":
		return KindFunction, nil
	case "class":
		return KindClass, nil
	case "import":
		return KindImport, nil
	case "export":
		return KindExport, nil
	case "module":
		return KindModule, nil
	default:
		return 0, fmt.Errorf("unknown symbol kind %q", s)
	}
}

// MarshalText encodes the kind by name.
func (k SymbolKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *SymbolKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSymbolKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Capture group names recognized in matcher patterns.
const (
	GroupName  = "name"  // declared identifier
	GroupRef   = "ref"   // raw import reference
	GroupNames = "names" // comma-separated list, one record per entry
)

// Matcher is one rule in a profile's ordered rule list.
//
// Pattern is applied to a single comment-stripped line. Declaration
// matchers capture GroupName (optional: a match without it yields an
// anonymous record). Import matchers capture GroupRef. Either kind may
// instead capture GroupNames, in which case each comma-separated entry
// produces its own record.
type Matcher struct {
	Kind    SymbolKind
	Pattern *regexp.Regexp

	// FileRelative marks references that are always relative to the
	// importing file even without a ./ prefix (C quoted includes, Ruby
	// require_relative, shell source).
	FileRelative bool
}

// Delimiters is an opening/closing pair for block comments.
type Delimiters struct {
	Open  string
	Close string
}

// Profile is the immutable rule set for one language.
//
// Profiles are shared by pointer between goroutines and must not be
// modified after they are handed to NewRegistry.
type Profile struct {
	// Language is the tag identifying the profile, e.g. "rust".
	Language string

	// Extensions are the file extensions owned by this profile,
	// lowercase with leading dot. No two profiles share an extension.
	Extensions []string

	// ResolveExtensions is the preference order used when resolving an
	// extension-less reference. It may name extensions owned by other
	// profiles (TypeScript resolves .js files). Defaults to Extensions.
	ResolveExtensions []string

	// IndexStems are the directory-index file stems tried, in order, when a
	// reference names a directory. Empty means directory imports never
	// resolve for this language.
	IndexStems []string

	LineComments  []string
	BlockComments []Delimiters

	// Quotes are the string delimiters that suppress comment detection.
	Quotes string

	// CommentNeedsSpace requires a line comment marker to be at the start
	// of the line or preceded by whitespace (shell's ${#var}).
	CommentNeedsSpace bool

	Declarations []Matcher
	Imports      []Matcher

	// Reserved names are dropped from declaration matches. Keeps keyword
	// constructs like "else if (x)" out of C function results.
	Reserved map[string]struct{}

	// Convention rewrites a language-specific relative reference (Python
	// leading dots, Rust self::/super::) into a slash path starting with
	// ./ or ../. Returns false when the reference is not relative under
	// the language's rules. Nil means only ./ and ../ prefixes count.
	Convention func(raw string) (string, bool)

	// TrimItem allows the resolver to drop trailing path segments when a
	// reference names an item inside a module file (Rust use paths).
	TrimItem bool
}

// PreferredExtensions returns the resolution preference order.
func (p *Profile) PreferredExtensions() []string {
	if len(p.ResolveExtensions) > 0 {
		return p.ResolveExtensions
	}
	return p.Extensions
}

// IsReserved reports whether name is a keyword for this language.
func (p *Profile) IsReserved(name string) bool {
	_, ok := p.Reserved[name]
	return ok
}

// RelativeForm returns raw as a ./ or ../ slash path if it is a relative
// reference under the profile's conventions.
func (p *Profile) RelativeForm(raw string) (string, bool) {
	if IsDotRelative(raw) {
		return raw, true
	}
	if p != nil && p.Convention != nil {
		return p.Convention(raw)
	}
	return "", false
}

// IsDotRelative reports whether raw starts with ./ or ../ or is . or ..
func IsDotRelative(raw string) bool {
	return raw == "." || raw == ".." ||
		strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../")
}

func (p *Profile) validate() error {
	if p.Language == "" {
		return fmt.Errorf("%w: empty language tag", ErrInvalidProfile)
	}
	if len(p.Extensions) == 0 {
		return fmt.Errorf("%w: %s has no extensions", ErrInvalidProfile, p.Language)
	}
	for _, m := range append(append([]Matcher(nil), p.Declarations...), p.Imports...) {
		if m.Pattern == nil {
			return fmt.Errorf("%w: %s has a matcher without a pattern", ErrInvalidProfile, p.Language)
		}
	}
	for _, m := range p.Imports {
		if m.Pattern.SubexpIndex(GroupRef) < 0 && m.Pattern.SubexpIndex(GroupNames) < 0 {
			return fmt.Errorf("%w: %s import pattern %q captures no reference",
				ErrInvalidProfile, p.Language, m.Pattern.String())
		}
	}
	return nil
}

func reserved(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
