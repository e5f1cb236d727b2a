package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns a markdown body into HTML.
type Renderer interface {
	Render(src string) (string, error)
}

// Builtin renders with ToHTML.
type Builtin struct{}

// Render satisfies Renderer.
func (Builtin) Render(src string) (string, error) {
	return ToHTML(src), nil
}

// Goldmark renders CommonMark plus the configured extensions.
type Goldmark struct {
	engine goldmark.Markdown
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
}

// NewGoldmark builds a goldmark backed renderer. Unknown extension names are
// ignored; no names selects GFM.
func NewGoldmark(extensions ...string) *Goldmark {
	var exts []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range extensions {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []goldmark.Extender{extension.GFM}
	}

	return &Goldmark{
		engine: goldmark.New(
			goldmark.WithExtensions(exts...),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render satisfies Renderer.
func (g *Goldmark) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.engine.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// NewRenderer resolves a renderer by name: "builtin" (or empty) and "goldmark".
func NewRenderer(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "builtin":
		return Builtin{}, nil
	case "goldmark", "gfm":
		return NewGoldmark(), nil
	}
	return nil, fmt.Errorf("unknown markdown renderer %q", name)
}

// RenderPost returns html when it is already provided and otherwise renders
// src with r, falling back to the builtin converter when r is nil.
func RenderPost(r Renderer, src, html string) (string, error) {
	if strings.TrimSpace(html) != "" {
		return html, nil
	}
	if r == nil {
		r = Builtin{}
	}
	return r.Render(src)
}
