// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid invocation. These are the only errors Run
// returns; everything that goes wrong with an individual file is a
// FileFailure.
var (
	ErrNilContext         = errors.New("ctx must not be nil")
	ErrNilFS              = errors.New("file system must not be nil")
	ErrInvalidWorkers     = errors.New("workers must be greater than 0")
	ErrInvalidMaxFileSize = errors.New("max file size must be greater than 0")
	ErrInvalidLimit       = errors.New("limits must not be negative")
)

// Per-file failure causes, wrapped by FileFailure.Err.
var (
	ErrOversized = errors.New("file exceeds size limit")
	ErrNoProfile = errors.New("no language profile for file")
	ErrPanic     = errors.New("worker panic")
)

// FailureReason classifies a FileFailure.
type FailureReason string

const (
	// ReasonUnreadable means the bytes could not be read.
	ReasonUnreadable FailureReason = "unreadable"

	// ReasonNotText means the content is not valid UTF-8.
	ReasonNotText FailureReason = "not_text"

	// ReasonOversized means the file exceeds Config.MaxFileSize.
	ReasonOversized FailureReason = "oversized"

	// ReasonNoProfile means no profile matched while StrictLanguages is set.
	ReasonNoProfile FailureReason = "no_profile"

	// ReasonInternal means processing the file panicked or the graph
	// rejected it.
	ReasonInternal FailureReason = "internal"
)

// FileFailure records one file that did not make it into the graph.
//
// A ReasonInternal failure raised by the graph can leave Symbol nodes and
// edges the file added before the error. Its File node stays bare
// (Ingested=false, no language or size).
type FileFailure struct {
	Path   string        `json:"path"`
	Reason FailureReason `json:"reason"`
	Err    error         `json:"-"`
}

// Error implements the error interface.
func (f *FileFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Path, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Path, f.Reason, f.Err)
}

// Unwrap returns the underlying error.
func (f *FileFailure) Unwrap() error {
	return f.Err
}
