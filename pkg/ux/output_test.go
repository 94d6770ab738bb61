// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut), &out, &errOut
}

func TestNewPrinter_BufferIsPlain(t *testing.T) {
	p, _, _ := newTestPrinter()
	if p.Styled() {
		t.Error("Styled() = true for a bytes.Buffer")
	}
	if p.Live() {
		t.Error("Live() = true for a bytes.Buffer")
	}
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(bytes.Buffer) = true")
	}
}

func TestPrinter_PlainOutput(t *testing.T) {
	p, out, errOut := newTestPrinter()

	p.Title("Dependency graph")
	p.Success("analysis complete")
	p.Info("3 files")
	p.Bullet("src/a.rs")
	p.Warning("2 files failed")
	p.Error("boom")

	want := "Dependency graph\n✓ analysis complete\n│ 3 files\n  • src/a.rs\n"
	if out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
	wantErr := "⚠ 2 files failed\n✗ boom\n"
	if errOut.String() != wantErr {
		t.Errorf("stderr = %q, want %q", errOut.String(), wantErr)
	}
	if strings.Contains(out.String()+errOut.String(), "\x1b[") {
		t.Error("plain output contains ANSI escapes")
	}
}

func TestPrinter_KeyValuesAligned(t *testing.T) {
	p, out, _ := newTestPrinter()

	p.KeyValues("files", "12", "unresolved", "3", "dangling")

	want := "  files       12\n  unresolved  3\n"
	if out.String() != want {
		t.Errorf("KeyValues output = %q, want %q", out.String(), want)
	}
}

func TestPrinter_BoxPlain(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.Box("Run", "abc123")
	if out.String() != "Run: abc123\n" {
		t.Errorf("Box plain = %q", out.String())
	}
}

func TestPrinter_ProgressSilentWhenNotLive(t *testing.T) {
	p, _, errOut := newTestPrinter()
	p.Progress(1, 2, "a.rs")
	p.EndProgress()
	if errOut.Len() != 0 {
		t.Errorf("Progress wrote to a non-terminal: %q", errOut.String())
	}
}

func TestProgressBar(t *testing.T) {
	p, _, _ := newTestPrinter()

	tests := []struct {
		current, total int
		want           string
	}{
		{0, 4, "░░░░ 0%"},
		{2, 4, "██░░ 50%"},
		{4, 4, "████ 100%"},
		{9, 4, "████ 100%"},
		{0, 0, "████ 100%"},
	}
	for _, tt := range tests {
		got := strings.Join(strings.Fields(p.ProgressBar(tt.current, tt.total, 4)), " ")
		if got != tt.want {
			t.Errorf("ProgressBar(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestPrinter_StyledKeepsText(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.SetStyled(true)
	p.Success("done")
	if !strings.Contains(out.String(), "done") {
		t.Errorf("styled output lost text: %q", out.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	got := truncate("a/very/long/path.rs", 8)
	if len([]rune(got)) != 8 || !strings.HasSuffix(got, "path.rs") {
		t.Errorf("truncate long = %q", got)
	}
}
