// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the depgraph CLI.
//
// Styling is applied only when the destination is a terminal and NO_COLOR
// is unset; redirected output is plain text with the same layout.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette: deep ocean teals plus the usual semantic colors.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

func (i Icon) style() lipgloss.Style {
	switch i {
	case IconSuccess:
		return Styles.Success
	case IconWarning:
		return Styles.Warning
	case IconError:
		return Styles.Error
	default:
		return Styles.Muted
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes human-oriented output. Messages go to out; warnings,
// errors and progress go to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	styled bool
	live   bool
}

// NewPrinter creates a Printer. Styling follows terminal detection on out,
// and live progress follows terminal detection on errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	noColor := os.Getenv("NO_COLOR") != ""
	return &Printer{
		out:    out,
		errOut: errOut,
		styled: IsTerminal(out) && !noColor,
		live:   IsTerminal(errOut),
	}
}

// SetStyled forces styling on or off.
func (p *Printer) SetStyled(styled bool) {
	p.styled = styled
}

// Styled reports whether styling is applied.
func (p *Printer) Styled() bool {
	return p.styled
}

// Live reports whether progress lines may be redrawn in place.
func (p *Printer) Live() bool {
	return p.live
}

// Out returns the primary writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *Printer) icon(i Icon) string {
	return p.render(i.style(), string(i))
}

// Title prints a heading.
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.out, p.render(Styles.Title, text))
}

// Section prints a subheading preceded by a blank line.
func (p *Printer) Section(text string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.render(Styles.Subtitle, text))
}

// Success prints a message with a check mark.
func (p *Printer) Success(text string) {
	fmt.Fprintf(p.out, "%s %s\n", p.icon(IconSuccess), p.render(Styles.Success, text))
}

// Warning prints a warning to errOut.
func (p *Printer) Warning(text string) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.icon(IconWarning), p.render(Styles.Warning, text))
}

// Error prints an error to errOut.
func (p *Printer) Error(text string) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.icon(IconError), p.render(Styles.Error, text))
}

// Info prints an indented informational line.
func (p *Printer) Info(text string) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(Styles.Muted, "│"), text)
}

// Bullet prints a list item.
func (p *Printer) Bullet(text string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.icon(IconBullet), text)
}

// KeyValues prints aligned "key  value" rows. pairs alternates keys and
// values; a trailing key without value is ignored.
func (p *Printer) KeyValues(pairs ...string) {
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		if len(pairs[i]) > width {
			width = len(pairs[i])
		}
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i] + strings.Repeat(" ", width-len(pairs[i]))
		fmt.Fprintf(p.out, "  %s  %s\n", p.render(Styles.Muted, key), p.render(Styles.Bold, pairs[i+1]))
	}
}

// Box prints content in a rounded box when styled, or as "title: content"
// otherwise.
func (p *Printer) Box(title, content string) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.out, Styles.Box.Width(60).Render(Styles.Title.Render(title)+"\n"+content))
}

// Progress redraws a single progress line on errOut. It does nothing when
// errOut is not a terminal.
func (p *Printer) Progress(done, total int, current string) {
	if !p.live {
		return
	}
	fmt.Fprintf(p.errOut, "\r\033[K%s %s", p.ProgressBar(done, total, 24), truncate(current, 48))
}

// EndProgress terminates a progress line.
func (p *Printer) EndProgress() {
	if p.live {
		fmt.Fprint(p.errOut, "\r\033[K")
	}
}

// ProgressBar renders a bar with a percentage. A zero total renders as
// complete.
func (p *Printer) ProgressBar(current, total, width int) string {
	pct := 1.0
	if total > 0 {
		pct = float64(current) / float64(total)
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	bar := p.render(Styles.Success, strings.Repeat("█", filled)) +
		p.render(Styles.Muted, strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
