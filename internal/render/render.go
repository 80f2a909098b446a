// Package render turns message text (markdown) into formatted markup.
package render

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown text to markup.
type Renderer interface {
	Render(text string) (string, error)
}

// HTML renders markdown to HTML. Raw HTML in messages is kept, links are
// detected and single newlines become line breaks.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML returns an HTML renderer.
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
	}
}

func (r *HTML) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return buf.String(), nil
}

// Terminal renders markdown with ANSI styling.
type Terminal struct {
	tr *glamour.TermRenderer
}

// NewTerminal returns a terminal renderer. style is a glamour standard style
// ("dark", "light", "notty", ...) or "auto"; width is the word-wrap column.
func NewTerminal(style string, width int) (*Terminal, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating terminal renderer")
	}
	return &Terminal{tr: tr}, nil
}

func (r *Terminal) Render(text string) (string, error) {
	return r.tr.Render(text)
}

// Plain returns text unchanged.
type Plain struct{}

func (Plain) Render(text string) (string, error) { return text, nil }

// New picks a renderer by kind: "html", "terminal" or "plain".
func New(kind, style string, width int) (Renderer, error) {
	switch kind {
	case "html":
		return NewHTML(), nil
	case "terminal", "":
		return NewTerminal(style, width)
	case "plain":
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer: %s", kind)
	}
}
