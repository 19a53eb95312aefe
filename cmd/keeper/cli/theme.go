// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of human-readable command output. All
// colors are ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Header     lipgloss.Color

	// Severity colors for verdicts and supervisor states.
	Good    lipgloss.Color
	Warning lipgloss.Color
	Bad     lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Header:     lipgloss.Color("255"),

	Good:    lipgloss.Color("114"), // green
	Warning: lipgloss.Color("220"), // amber
	Bad:     lipgloss.Color("196"), // red
}

// Severity ranks a value for coloring.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityGood
	SeverityWarning
	SeverityBad
)

// Styles renders text for one output writer. Color is dropped
// automatically when w is not a terminal or NO_COLOR is set.
type Styles struct {
	theme    Theme
	renderer *lipgloss.Renderer
}

// NewStyles creates Styles for w using theme.
func NewStyles(w io.Writer, theme Theme) *Styles {
	return &Styles{theme: theme, renderer: lipgloss.NewRenderer(w)}
}

// Header renders a section heading.
func (s *Styles) Header(text string) string {
	return s.renderer.NewStyle().Bold(true).Foreground(s.theme.Header).Render(text)
}

// Label renders a field label, padded to width.
func (s *Styles) Label(text string, width int) string {
	return s.renderer.NewStyle().Foreground(s.theme.FaintText).Width(width).Render(text)
}

// Value renders text in the color for severity.
func (s *Styles) Value(text string, severity Severity) string {
	style := s.renderer.NewStyle()
	switch severity {
	case SeverityGood:
		style = style.Foreground(s.theme.Good).Bold(true)
	case SeverityWarning:
		style = style.Foreground(s.theme.Warning).Bold(true)
	case SeverityBad:
		style = style.Foreground(s.theme.Bad).Bold(true)
	default:
		style = style.Foreground(s.theme.NormalText)
	}
	return style.Render(text)
}
