// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown for a terminal, caching one glamour
// renderer per wrap width. A disabled renderer returns text unchanged.
type MarkdownRenderer struct {
	mu        sync.Mutex
	enabled   bool
	style     string
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdownRenderer creates an enabled renderer that picks a light or
// dark style from the terminal background.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		enabled:   true,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// NewPlainRenderer creates a renderer that returns text unchanged.
func NewPlainRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{renderers: make(map[int]*glamour.TermRenderer)}
}

// WithStyle fixes the glamour style ("dark", "light", "notty", ...).
func (r *MarkdownRenderer) WithStyle(style string) *MarkdownRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.style = style
	r.renderers = make(map[int]*glamour.TermRenderer)
	return r
}

// Enabled reports whether markdown rendering is on.
func (r *MarkdownRenderer) Enabled() bool {
	return r.enabled
}

// Render renders content wrapped to width. If rendering fails the content
// is returned as is.
func (r *MarkdownRenderer) Render(content string, width int) string {
	if !r.enabled || strings.TrimSpace(content) == "" {
		return content
	}
	if width < 20 {
		width = 20
	}

	tr, err := r.renderer(width)
	if err != nil {
		return content
	}

	r.mu.Lock()
	out, err := tr.Render(content)
	r.mu.Unlock()
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (r *MarkdownRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.renderers[width]; ok {
		return tr, nil
	}

	styleOpt := glamour.WithAutoStyle()
	if r.style != "" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	r.renderers[width] = tr
	return tr, nil
}
