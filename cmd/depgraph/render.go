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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/depgraph/services/depgraph/export"
	"github.com/AleutianAI/depgraph/services/depgraph/orchestrator"
	"github.com/AleutianAI/depgraph/services/depgraph/store"
	"github.com/AleutianAI/depgraph/services/depgraph/summary"
)

// renderAnalysis prints the human-readable report of one run.
func (c *cli) renderAnalysis(doc export.Document, res *orchestrator.Result, saved *store.RunMeta) {
	p := c.printer

	p.Title("Dependency graph: " + doc.Root)
	c.renderSummary(doc.Summary)

	if res != nil {
		p.Section("Run")
		p.KeyValues(
			"ingested", strconv.Itoa(res.Stats.FilesIngested),
			"failed", strconv.Itoa(res.Stats.FilesFailed),
			"skipped", strconv.Itoa(res.Stats.FilesSkipped),
			"resolved", strconv.Itoa(res.Stats.ImportsResolved),
			"unresolved", strconv.Itoa(res.Stats.ImportsUnresolved),
			"duration", res.Stats.Duration.Round(time.Millisecond).String(),
		)
	}

	if doc.Insights != nil {
		c.renderInsights(*doc.Insights)
	}

	if saved != nil {
		p.Section("History")
		p.KeyValues("run", saved.ID)
	}

	fmt.Fprintln(p.Out())
	if res != nil {
		if s := res.FailureSummary(); s != "" {
			p.Warning(s)
		}
		if res.Incomplete {
			p.Warning(fmt.Sprintf("stopped early (%s): %d files not analyzed", res.StopReason, len(res.Skipped)))
		}
		if len(res.Failures) == 0 && !res.Incomplete {
			p.Success("all files analyzed")
		}
	}
}

func (c *cli) renderSummary(s summary.Summary) {
	p := c.printer
	p.Section("Summary")
	p.KeyValues(
		"files", strconv.Itoa(s.TotalFiles),
		"nodes", strconv.Itoa(s.TotalNodes),
		"edges", strconv.Itoa(s.TotalEdges),
		"avg degree", strconv.FormatFloat(s.AverageDegree, 'f', 2, 64),
		"components", strconv.Itoa(s.Components),
		"largest", strconv.Itoa(s.LargestComponent),
	)
	if len(s.Languages) > 0 {
		langs := make([]string, 0, len(s.Languages))
		for _, l := range s.Languages {
			langs = append(langs, fmt.Sprintf("%s (%d)", l.Language, l.Files))
		}
		p.KeyValues("languages", strings.Join(langs, ", "))
	}
}

func (c *cli) renderInsights(in summary.Insights) {
	p := c.printer

	if len(in.MostImported) > 0 {
		p.Section("Most imported")
		for _, fc := range in.MostImported {
			p.Bullet(fmt.Sprintf("%s (%d)", fc.Path, fc.Count))
		}
	}
	if len(in.Cycles) > 0 {
		p.Section(fmt.Sprintf("Circular dependencies (%d)", len(in.Cycles)))
		for _, cycle := range in.Cycles {
			p.Bullet(strings.Join(cycle, " → "))
		}
	}
	if len(in.TopUnresolved) > 0 {
		p.Section("Top unresolved imports")
		for _, rc := range in.TopUnresolved {
			p.Bullet(fmt.Sprintf("%s (%d)", rc.Reference, rc.Count))
		}
	}
	if len(in.Orphans) > 0 {
		p.Section(fmt.Sprintf("Orphaned files (%d)", len(in.Orphans)))
		for _, o := range in.Orphans {
			p.Bullet(o)
		}
	}
	c.renderFileStats(in)
}

func (c *cli) renderFileStats(in summary.Insights) {
	p := c.printer

	if len(in.LanguageSizes) > 0 {
		p.Section("Language sizes")
		pairs := make([]string, 0, 2*len(in.LanguageSizes))
		for _, ls := range in.LanguageSizes {
			pairs = append(pairs, ls.Language, fmt.Sprintf("%d files, %d bytes, avg %.0f bytes, %.1f%%",
				ls.Files, ls.TotalSize, ls.AverageSize, ls.Percentage))
		}
		p.KeyValues(pairs...)
	}
	if len(in.LargestFiles) > 0 {
		p.Section("Largest files")
		for _, f := range in.LargestFiles {
			p.Bullet(fmt.Sprintf("%s (%d bytes, %d functions, %d classes)", f.Path, f.Size, f.Functions, f.Classes))
		}
	}
	if len(in.LargestFiles) > 0 && len(in.Complexity) > 0 {
		p.Section("Complexity")
		pairs := make([]string, 0, 2*len(in.Complexity))
		for _, b := range in.Complexity {
			pairs = append(pairs, b.Range, fmt.Sprintf("%d files (%.1f%%)", b.Files, b.Percentage))
		}
		p.KeyValues(pairs...)
	}
}
