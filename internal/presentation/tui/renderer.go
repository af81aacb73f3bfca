package tui

import (
	"github.com/charmbracelet/glamour"
)

// MarkdownFunc renders markdown into terminal text.
type MarkdownFunc func(string) (string, error)

// NewMarkdownRenderer returns a function that renders markdown using glamour.
// An empty style detects light or dark backgrounds; "notty" produces plain text.
func NewMarkdownRenderer(style string, width int) (MarkdownFunc, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
