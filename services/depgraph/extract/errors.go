// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for extraction.
var (
	// ErrNotText indicates the content failed UTF-8 validation.
	ErrNotText = errors.New("content is not valid UTF-8 text")

	// ErrNilProfile indicates Extract was called without a profile.
	ErrNilProfile = errors.New("language profile must not be nil")
)

// ExtractError is a recoverable, per-file extraction failure.
type ExtractError struct {
	Language string
	Err      error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("extract: %v", e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Language, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}
