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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/AleutianAI/depgraph/services/depgraph/extract"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
)

// process turns one task into an outcome. It never panics.
func (o *Orchestrator) process(ctx context.Context, resolver *resolve.Resolver, t task) (out outcome) {
	path := t.file.Path
	out = outcome{seq: t.seq, path: path}

	defer func() {
		if r := recover(); r != nil {
			out.result = nil
			out.failure = &FileFailure{Path: path, Reason: ReasonInternal, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	fail := func(reason FailureReason, err error) outcome {
		out.failure = &FileFailure{Path: path, Reason: reason, Err: err}
		return out
	}

	profile, ok := o.registry.ProfileForPath(path)
	if !ok && o.cfg.StrictLanguages {
		return fail(ReasonNoProfile, ErrNoProfile)
	}
	if t.file.Size > o.cfg.MaxFileSize {
		return fail(ReasonOversized, fmt.Errorf("%w: %d > %d bytes", ErrOversized, t.file.Size, o.cfg.MaxFileSize))
	}
	if !ok {
		// Opaque files are listed in the graph but never read.
		out.result = &graph.FileResult{Path: path, Size: t.file.Size}
		return out
	}

	data, err := fs.ReadFile(o.fsys, path)
	if err != nil {
		return fail(ReasonUnreadable, err)
	}
	recordBytes(ctx, len(data))
	if int64(len(data)) > o.cfg.MaxFileSize {
		return fail(ReasonOversized, fmt.Errorf("%w: %d > %d bytes", ErrOversized, len(data), o.cfg.MaxFileSize))
	}

	symbols, err := extract.Extract(data, profile)
	if err != nil {
		if errors.Is(err, extract.ErrNotText) {
			return fail(ReasonNotText, err)
		}
		return fail(ReasonInternal, err)
	}

	imports := make([]graph.ResolvedImport, 0)
	for _, s := range symbols {
		if !s.IsImport() {
			continue
		}
		var res resolve.Outcome
		if s.FileRelative {
			res = resolver.ResolveFileRelative(s.Raw, path)
		} else {
			res = resolver.Resolve(s.Raw, path)
		}
		imports = append(imports, graph.ResolvedImport{Raw: s.Raw, Line: s.Line, Outcome: res})
	}

	o.logger.Debug("file analyzed",
		slog.String("path", path),
		slog.String("language", profile.Language),
		slog.Int("symbols", len(symbols)),
	)

	out.result = &graph.FileResult{
		Path:     path,
		Language: profile.Language,
		Size:     int64(len(data)),
		Symbols:  symbols,
		Imports:  imports,
	}
	return out
}
