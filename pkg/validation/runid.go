// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided identifiers before they reach
// storage lookups.
//
// Run IDs are used as key prefixes in the run store. Rejecting anything
// outside the UUID alphabet keeps arbitrary bytes out of key scans.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRunID is wrapped by every run ID validation failure.
var ErrInvalidRunID = errors.New("invalid run id")

// runIDPattern matches a full lowercase UUID or any prefix of one.
// Max length: 36 characters (8-4-4-4-12 with hyphens).
var runIDPattern = regexp.MustCompile(`^[0-9a-f][0-9a-f-]{0,35}$`)

// ValidateRunID validates a run ID or ID prefix.
//
// Valid IDs:
//   - 1-36 characters
//   - Lowercase hex digits and hyphens
//   - Starting with a hex digit
//
// Example:
//
//	if err := validation.ValidateRunID(id); err != nil {
//	    return nil, err
//	}
//	// Safe to use as a store key prefix
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidRunID)
	}
	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be up to 36 lowercase hex digits or hyphens)", ErrInvalidRunID, id)
	}
	return nil
}

// SanitizeRunID trims, lowercases and validates a run ID.
//
//	id, err := validation.SanitizeRunID(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeRunID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateRunID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
