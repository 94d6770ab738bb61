// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/pkg/validation"
	"github.com/AleutianAI/depgraph/services/depgraph/export"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/store"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

func newRunsCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	runs := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved analysis runs",
		Long: `Commands for the run history written by 'depgraph analyze --save'.

Run IDs may be abbreviated to any unique prefix.

Examples:
  depgraph runs list
  depgraph runs show 3f2a
  depgraph runs diff 3f2a 9bc1
  depgraph runs prune --keep 20`,
	}
	runs.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				metas, err := s.List(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return c.writeJSON(metas)
				}
				c.renderRunList(metas)
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a saved run (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := sanitizeIDs(args)
			if err != nil {
				return fail(err)
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				var (
					run *store.Run
					err error
				)
				if len(ids) == 1 {
					run, err = s.Load(ctx, ids[0])
				} else {
					run, err = s.Latest(ctx)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return c.writeJSON(run)
				}
				c.renderAnalysis(run.Document, nil, &run.RunMeta)
				return nil
			})
		},
	}

	diff := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two saved runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := sanitizeIDs(args)
			if err != nil {
				return fail(err)
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				a, err := s.Load(ctx, ids[0])
				if err != nil {
					return err
				}
				b, err := s.Load(ctx, ids[1])
				if err != nil {
					return err
				}
				d := diffRuns(a, b)
				if jsonOutput {
					return c.writeJSON(d)
				}
				c.renderRunDiff(d)
				return nil
			})
		},
	}

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				n, err := s.Prune(ctx, keep)
				if err != nil {
					return err
				}
				c.printer.Success(fmt.Sprintf("removed %d runs", n))
				return nil
			})
		},
	}
	prune.Flags().IntVar(&keep, "keep", 10, "Number of newest runs to keep")

	runs.AddCommand(list, show, diff, prune)
	return runs
}

// withStore opens the configured run store for the duration of fn.
func (c *cli) withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fail(err)
	}
	logger := c.newLogger(cfg)
	defer logger.Close()

	scfg := store.DefaultConfig(cfg.Store.Path)
	scfg.Logger = logger.Slog()
	s, err := store.Open(scfg)
	if err != nil {
		return fail(err)
	}
	defer s.Close()

	if err := fn(ctx, s); err != nil {
		return fail(err)
	}
	return nil
}

// sanitizeIDs normalizes run ID arguments before they are used as store
// key prefixes.
func sanitizeIDs(args []string) ([]string, error) {
	ids := make([]string, len(args))
	for i, arg := range args {
		id, err := validation.SanitizeRunID(arg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (c *cli) writeJSON(v interface{}) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// RUN DIFF
// =============================================================================

// runDiff describes how a newer run differs from an older one.
type runDiff struct {
	Old string `json:"old"`
	New string `json:"new"`

	// SameGraph is true when both graphs have the same fingerprint.
	SameGraph bool         `json:"same_graph"`
	Summary   summary.Diff `json:"summary"`

	AddedFiles   []string `json:"added_files"`
	RemovedFiles []string `json:"removed_files"`
	AddedEdges   int      `json:"added_edges"`
	RemovedEdges int      `json:"removed_edges"`
}

func diffRuns(a, b *store.Run) runDiff {
	d := runDiff{
		Old:       a.ID,
		New:       b.ID,
		SameGraph: a.Fingerprint == b.Fingerprint,
		Summary:   summary.Compare(a.Summary, b.Summary),
	}
	oldFiles, newFiles := filePaths(a.Document), filePaths(b.Document)
	d.AddedFiles = setMinus(newFiles, oldFiles)
	d.RemovedFiles = setMinus(oldFiles, newFiles)

	oldEdges, newEdges := edgeKeys(a.Document), edgeKeys(b.Document)
	d.AddedEdges = len(setMinus(newEdges, oldEdges))
	d.RemovedEdges = len(setMinus(oldEdges, newEdges))
	return d
}

func filePaths(doc export.Document) map[string]struct{} {
	out := make(map[string]struct{})
	for _, n := range doc.Nodes {
		if n.Kind == graph.NodeKindFile.String() {
			out[n.Path] = struct{}{}
		}
	}
	return out
}

func edgeKeys(doc export.Document) map[string]struct{} {
	out := make(map[string]struct{}, len(doc.Edges))
	for _, e := range doc.Edges {
		out[e.Type+"|"+e.From+"|"+e.To+"|"+strconv.Itoa(e.Line)] = struct{}{}
	}
	return out
}

// setMinus returns the sorted keys of a that are not in b.
func setMinus(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// RENDERING
// =============================================================================

func (c *cli) renderRunList(metas []store.RunMeta) {
	p := c.printer
	if len(metas) == 0 {
		p.Info("no saved runs")
		return
	}
	p.Title(fmt.Sprintf("Saved runs (%d)", len(metas)))
	for _, m := range metas {
		status := ""
		if m.Failures > 0 {
			status = fmt.Sprintf(", %d failed", m.Failures)
		}
		if m.Incomplete {
			status += ", incomplete"
		}
		p.Bullet(fmt.Sprintf("%s  %s  %s  %d files%s",
			shortID(m.ID), m.CreatedAt.Local().Format(time.DateTime), m.Root, m.Summary.TotalFiles, status))
	}
}

func (c *cli) renderRunDiff(d runDiff) {
	p := c.printer
	p.Title(fmt.Sprintf("%s → %s", shortID(d.Old), shortID(d.New)))
	if d.SameGraph {
		p.Success("graphs are identical")
		return
	}

	p.Section("Summary delta")
	p.KeyValues(
		"files", signed(d.Summary.Files),
		"nodes", signed(d.Summary.Nodes),
		"edges", signed(d.Summary.Edges),
		"avg degree", strconv.FormatFloat(d.Summary.AverageDegree, 'f', 2, 64),
		"components", signed(d.Summary.Components),
		"largest", signed(d.Summary.LargestComponent),
	)
	p.KeyValues("edges added", strconv.Itoa(d.AddedEdges), "edges removed", strconv.Itoa(d.RemovedEdges))

	if len(d.AddedFiles) > 0 {
		p.Section(fmt.Sprintf("Added files (%d)", len(d.AddedFiles)))
		for _, f := range d.AddedFiles {
			p.Bullet(f)
		}
	}
	if len(d.RemovedFiles) > 0 {
		p.Section(fmt.Sprintf("Removed files (%d)", len(d.RemovedFiles)))
		for _, f := range d.RemovedFiles {
			p.Bullet(f)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
