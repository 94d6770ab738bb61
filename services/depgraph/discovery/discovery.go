// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery walks an analysis root and lists the files to analyze.
//
// Discovery owns every traversal concern: default ignored directories,
// .gitignore files at any depth, configured ignore patterns and the
// extension filter. Size limits are NOT applied here so that the
// orchestrator can report oversized files as failures.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// GitignoreName is the per-directory ignore file honored during the walk.
const GitignoreName = ".gitignore"

// DefaultIgnoredDirs are skipped at any depth.
var DefaultIgnoredDirs = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"target",
	"build",
	"dist",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".venv",
}

// Sentinel errors for discovery.
var (
	// ErrRootNotExist is returned when the analysis root does not exist.
	ErrRootNotExist = errors.New("analysis root does not exist")

	// ErrRootNotDirectory is returned when the analysis root is a file.
	ErrRootNotDirectory = errors.New("analysis root is not a directory")
)

// File is one discovered file.
type File struct {
	// Path is slash-separated and relative to the analysis root.
	Path string `json:"path"`

	// Size is the size in bytes reported by the walk.
	Size int64 `json:"size"`
}

// Options configures a walk.
type Options struct {
	// Registry decides which extensions are analyzable. Default: lang.Default().
	Registry *lang.Registry

	// IncludeUnknown lists files with no matching profile as opaque files.
	IncludeUnknown bool

	// Ignore holds extra gitignore-syntax patterns applied from the root.
	Ignore []string

	// NoGitignore disables .gitignore handling.
	NoGitignore bool

	// NoDefaultIgnores disables DefaultIgnoredDirs.
	NoDefaultIgnores bool

	// Logger receives per-directory warnings. Default: slog.Default().
	Logger *slog.Logger
}

// scopedMatcher applies ignore rules relative to the directory they came from.
type scopedMatcher struct {
	base    string
	matcher *ignore.GitIgnore
}

func (m scopedMatcher) matches(p string, isDir bool) bool {
	rel := p
	if m.base != "." {
		if !strings.HasPrefix(p, m.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(p, m.base+"/")
	}
	if m.matcher.MatchesPath(rel) {
		return true
	}
	return isDir && m.matcher.MatchesPath(rel+"/")
}

// Discover walks root on the local filesystem.
//
// # Inputs
//
//   - ctx: Checked between directory entries.
//   - root: Directory to analyze.
//   - opts: Walk options.
//
// # Outputs
//
//   - []File: Sorted by path.
//   - error: ErrRootNotExist, ErrRootNotDirectory, or ctx.Err().
func Discover(ctx context.Context, root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotExist, root)
	}
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}
	return DiscoverFS(ctx, os.DirFS(root), opts)
}

// DiscoverFS walks fsys from its root. See Discover.
func DiscoverFS(ctx context.Context, fsys fs.FS, opts Options) ([]File, error) {
	registry := opts.Registry
	if registry == nil {
		registry = lang.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	skipDirs := make(map[string]struct{})
	if !opts.NoDefaultIgnores {
		for _, d := range DefaultIgnoredDirs {
			skipDirs[d] = struct{}{}
		}
	}

	var matchers []scopedMatcher
	if len(opts.Ignore) > 0 {
		matchers = append(matchers, scopedMatcher{base: ".", matcher: ignore.CompileIgnoreLines(opts.Ignore...)})
	}

	files := make([]File, 0)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == "." {
				return walkErr
			}
			logger.Warn("skipping unreadable path",
				slog.String("path", p),
				slog.String("error", walkErr.Error()),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p == "." {
				if !opts.NoGitignore {
					matchers = appendGitignore(fsys, p, matchers, logger)
				}
				return nil
			}
			if _, skip := skipDirs[d.Name()]; skip || ignored(matchers, p, true) {
				return fs.SkipDir
			}
			if !opts.NoGitignore {
				matchers = appendGitignore(fsys, p, matchers, logger)
			}
			return nil
		}

		if !d.Type().IsRegular() || ignored(matchers, p, false) {
			return nil
		}
		if _, ok := registry.ProfileForPath(p); !ok && !opts.IncludeUnknown {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping file without stat",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
			return nil
		}
		files = append(files, File{Path: p, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func ignored(matchers []scopedMatcher, p string, isDir bool) bool {
	for _, m := range matchers {
		if m.matches(p, isDir) {
			return true
		}
	}
	return false
}

func appendGitignore(fsys fs.FS, dir string, matchers []scopedMatcher, logger *slog.Logger) []scopedMatcher {
	data, err := fs.ReadFile(fsys, path.Join(dir, GitignoreName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("gitignore unreadable", slog.String("dir", dir), slog.String("error", err.Error()))
		}
		return matchers
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return append(matchers, scopedMatcher{base: dir, matcher: ignore.CompileIgnoreLines(lines...)})
}

// Paths returns the paths of files in order.
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
