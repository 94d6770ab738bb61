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
	"path"
	"sort"
	"strings"
	"sync"
)

// Registry maps file extensions and language tags to profiles.
//
// Description:
//
//	Registry is the strategy table consulted by the extractor and the
//	resolver. Lookup is by exact extension only; glob matching belongs to
//	file discovery.
//
// Thread Safety:
//
//	Registry is immutable after construction. All methods are safe for
//	concurrent use without locking.
type Registry struct {
	// byLanguage maps language tags to profiles.
	byLanguage map[string]*Profile

	// byExtension maps lowercase extensions (with dot) to profiles.
	byExtension map[string]*Profile

	// order preserves registration order for Languages and Profiles.
	order []string
}

// NewRegistry builds a registry from the given profiles.
//
// Inputs:
//
//	profiles - Profiles to register. Language tags and extensions must be unique.
//
// Outputs:
//
//	*Registry - The registry.
//	error - ErrInvalidProfile, ErrDuplicateLanguage or ErrDuplicateExtension.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{
		byLanguage:  make(map[string]*Profile, len(profiles)),
		byExtension: make(map[string]*Profile),
		order:       make([]string, 0, len(profiles)),
	}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byLanguage[p.Language]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLanguage, p.Language)
		}
		for _, ext := range p.Extensions {
			key := strings.ToLower(ext)
			if owner, dup := r.byExtension[key]; dup {
				return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateExtension, key, owner.Language, p.Language)
			}
			r.byExtension[key] = p
		}
		r.byLanguage[p.Language] = p
		r.order = append(r.order, p.Language)
	}
	return r, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry holding every built-in profile.
//
// The built-in table is validated by tests, so construction failure is a
// programming error and panics.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(builtinProfiles()...)
		if err != nil {
			panic(fmt.Sprintf("lang: built-in profiles: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// ProfileFor returns the profile owning the given extension.
//
// The extension includes the leading dot. Unknown extensions return
// (nil, false), which callers treat as an opaque file.
func (r *Registry) ProfileFor(ext string) (*Profile, bool) {
	if ext == "" {
		return nil, false
	}
	p, ok := r.byExtension[strings.ToLower(ext)]
	return p, ok
}

// ProfileForPath returns the profile for the extension of p.
func (r *Registry) ProfileForPath(p string) (*Profile, bool) {
	return r.ProfileFor(path.Ext(p))
}

// Lookup returns the profile for a language tag.
func (r *Registry) Lookup(language string) (*Profile, bool) {
	p, ok := r.byLanguage[language]
	return p, ok
}

// Languages returns the registered language tags in registration order.
func (r *Registry) Languages() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Profiles returns the registered profiles in registration order.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, l := range r.order {
		out = append(out, r.byLanguage[l])
	}
	return out
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Restrict returns a registry holding only the named languages.
//
// An empty list returns r unchanged. Files whose language is not enabled
// resolve to no profile and become opaque.
func (r *Registry) Restrict(languages []string) (*Registry, error) {
	if len(languages) == 0 {
		return r, nil
	}
	profiles := make([]*Profile, 0, len(languages))
	seen := make(map[string]bool, len(languages))
	for _, l := range languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		p, ok := r.byLanguage[l]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, l)
		}
		seen[l] = true
		profiles = append(profiles, p)
	}
	return NewRegistry(profiles...)
}
