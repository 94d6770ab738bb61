// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve maps raw import references onto discovered files.
//
// Resolution is a pure function of (reference, importing file, known
// files). Only relative references are ever resolved; bare package names
// and absolute module paths are reported as unresolved without any
// network or registry lookup.
//
// # Thread Safety
//
// Resolver is safe for concurrent use. The file index is read-only and
// the memo cache is internally synchronized.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// DefaultCacheSize is the default number of memoized resolutions.
const DefaultCacheSize = 16384

// ErrNilIndex is returned by New when no file index is supplied.
var ErrNilIndex = errors.New("file index must not be nil")

// Status is the result class of a resolution.
type Status uint8

const (
	// StatusUnresolved means no discovered file matched.
	StatusUnresolved Status = iota

	// StatusResolved means Target names a discovered file.
	StatusResolved
)

// String returns "resolved" or "unresolved".
func (s Status) String() string {
	if s == StatusResolved {
		return "resolved"
	}
	return "unresolved"
}

// Outcome is the result of resolving one reference.
type Outcome struct {
	Status Status
	Target string
}

// Resolved returns a resolved outcome for target.
func Resolved(target string) Outcome {
	return Outcome{Status: StatusResolved, Target: target}
}

// Unresolved returns an unresolved outcome.
func Unresolved() Outcome {
	return Outcome{Status: StatusUnresolved}
}

// IsResolved reports whether the outcome names a target file.
func (o Outcome) IsResolved() bool {
	return o.Status == StatusResolved
}

// cacheKey identifies a memoized resolution. The mapping is stable within
// one run because the index never changes.
type cacheKey struct {
	language     string
	raw          string
	dir          string
	fileRelative bool
}

// Resolver resolves references against a fixed file index.
type Resolver struct {
	index    *Index
	registry *lang.Registry
	cache    *lru.Cache[cacheKey, Outcome]
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	cacheSize int
	registry  *lang.Registry
	logger    *slog.Logger
}

// WithCacheSize sets the memo size. Zero or negative disables memoization.
func WithCacheSize(n int) Option {
	return func(o *resolverOptions) { o.cacheSize = n }
}

// WithRegistry sets the profile registry. Default: lang.Default().
func WithRegistry(r *lang.Registry) Option {
	return func(o *resolverOptions) { o.registry = r }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = l }
}

// New creates a Resolver over index.
func New(index *Index, opts ...Option) (*Resolver, error) {
	if index == nil {
		return nil, ErrNilIndex
	}
	o := resolverOptions{
		cacheSize: DefaultCacheSize,
		registry:  lang.Default(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resolver{index: index, registry: o.registry, logger: o.logger}
	if o.cacheSize > 0 {
		cache, err := lru.New[cacheKey, Outcome](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create resolve cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve maps raw, as written in importer, to a discovered file.
//
// # Description
//
// In order, first match wins:
//  1. Relative reference: join with the importer's directory; try the
//     path verbatim if it has an extension, then each extension in the
//     importer profile's preference order.
//  2. Directory import: <joined>/<stem><ext> for each of the profile's
//     index stems (__init__ for Python, index for JS/TS, index, mod and
//     lib for Rust).
//  3. Anything else is unresolved.
//
// # Inputs
//
//   - raw: Reference text exactly as extracted.
//   - importer: Slash path of the importing file, as used in the index.
//
// # Outputs
//
//   - Outcome: Resolved with the target path, or Unresolved.
func (r *Resolver) Resolve(raw, importer string) Outcome {
	return r.resolve(raw, importer, false)
}

// ResolveFileRelative resolves a reference whose syntax makes it relative
// to the importing file even without a ./ prefix, such as a C quoted
// include or Ruby require_relative.
func (r *Resolver) ResolveFileRelative(raw, importer string) Outcome {
	return r.resolve(raw, importer, true)
}

func (r *Resolver) resolve(raw, importer string, fileRelative bool) Outcome {
	profile, _ := r.registry.ProfileForPath(importer)
	language := ""
	if profile != nil {
		language = profile.Language
	}

	key := cacheKey{language: language, raw: raw, dir: path.Dir(importer), fileRelative: fileRelative}
	if r.cache != nil {
		if o, ok := r.cache.Get(key); ok {
			resolveCacheHits.Inc()
			recordOutcome(o, language)
			return o
		}
	}

	o := r.compute(raw, key.dir, profile, fileRelative)
	if r.cache != nil {
		r.cache.Add(key, o)
	}
	recordOutcome(o, language)
	return o
}

func (r *Resolver) compute(raw, dir string, profile *lang.Profile, fileRelative bool) Outcome {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unresolved()
	}

	rel, ok := profile.RelativeForm(raw)
	if !ok {
		if !fileRelative || strings.Contains(raw, "://") {
			return Unresolved()
		}
		rel = "./" + strings.TrimPrefix(raw, "/")
	}

	joined := path.Join(dir, rel)
	floor := path.Join(dir, dotPrefix(rel))
	for {
		if escapesRoot(joined) {
			return Unresolved()
		}
		dirOnly := rel == "." || rel == ".." || strings.HasSuffix(rel, "/")
		if target, found := r.firstKnown(candidates(joined, profile, dirOnly)); found {
			return Resolved(target)
		}
		// Rust-style item paths: self::util::Parser names an item in util.rs.
		if profile == nil || !profile.TrimItem {
			break
		}
		parent := path.Dir(joined)
		if parent == joined || len(parent) <= len(floor) {
			break
		}
		joined = parent
	}
	return Unresolved()
}

func (r *Resolver) firstKnown(paths []string) (string, bool) {
	for _, p := range paths {
		if r.index.Has(p) {
			return p, true
		}
	}
	return "", false
}

// candidates lists the paths to probe for joined, in preference order.
func candidates(joined string, profile *lang.Profile, dirOnly bool) []string {
	var exts, stems []string
	if profile != nil {
		exts = profile.PreferredExtensions()
		stems = profile.IndexStems
	}

	out := make([]string, 0, 1+len(exts)*(1+len(stems)))
	if !dirOnly {
		if path.Ext(joined) != "" {
			out = append(out, joined)
		}
		for _, ext := range exts {
			out = append(out, joined+ext)
		}
	}
	for _, stem := range stems {
		for _, ext := range exts {
			out = append(out, path.Join(joined, stem+ext))
		}
	}
	return out
}

// escapesRoot reports whether a joined path climbs above the analysis root.
func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

// dotPrefix returns the leading ./ and ../ segments of a relative path.
func dotPrefix(rel string) string {
	var parts []string
	for _, seg := range strings.Split(rel, "/") {
		if seg != "." && seg != ".." {
			break
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}
