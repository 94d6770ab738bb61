// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lang holds the per-language rule tables used by the extractor
// and the import resolver.
//
// Each supported language is one Profile row: comment syntax, ordered
// declaration matchers, ordered import matchers, owned file extensions and
// the resolution conventions for relative references. Adding a language
// means adding a row to builtinProfiles, not a new type.
//
// # Thread Safety
//
// Profiles and Registries are immutable after construction and safe for
// concurrent reads from any number of goroutines.
package lang

import "errors"

// Sentinel errors for registry construction.
var (
	// ErrDuplicateLanguage is returned when two profiles share a language tag.
	ErrDuplicateLanguage = errors.New("duplicate language tag")

	// ErrDuplicateExtension is returned when two profiles claim the same extension.
	ErrDuplicateExtension = errors.New("extension claimed by more than one profile")

	// ErrUnknownLanguage is returned when restricting to a language with no profile.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrInvalidProfile is returned when a profile is missing required fields.
	ErrInvalidProfile = errors.New("invalid language profile")
)
