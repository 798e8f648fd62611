// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	assert.NotNil(t, theme)

	// Styles render their text
	assert.Contains(t, theme.HeaderTitle.Render("Greeting"), "Greeting")
	assert.Contains(t, theme.ModelBadge.Render("gpt-4o"), "gpt-4o")
	assert.Contains(t, theme.SidebarSelected.Render("New Chat"), "New Chat")
}

func TestLayoutMode(t *testing.T) {
	tests := []struct {
		width       int
		want        LayoutMode
		showSidebar bool
	}{
		{40, LayoutNarrow, false},
		{59, LayoutNarrow, false},
		{60, LayoutMedium, true},
		{99, LayoutMedium, true},
		{100, LayoutWide, true},
		{200, LayoutWide, true},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
		assert.Equal(t, tt.showSidebar, theme.ShowSidebar(), "width %d", tt.width)
	}
}

func TestRenderHelpers(t *testing.T) {
	assert.True(t, strings.Contains(RenderError("boom"), StatusIndicators.Error))
	assert.True(t, strings.Contains(RenderError("boom"), "boom"))
	assert.True(t, strings.Contains(RenderInfo("note"), StatusIndicators.Info))
}

func TestThinkingSpinner(t *testing.T) {
	assert.NotEmpty(t, ThinkingSpinner.Frames)
	assert.Greater(t, ThinkingSpinner.FPS.Milliseconds(), int64(0))
}

func TestMarkdownRendererPlain(t *testing.T) {
	r := NewPlainRenderer()
	assert.False(t, r.Enabled())
	assert.Equal(t, "# Title\n*x*", r.Render("# Title\n*x*", 80))
}

func TestMarkdownRendererRenders(t *testing.T) {
	r := NewMarkdownRenderer().WithStyle("dark")
	assert.True(t, r.Enabled())

	out := r.Render("Hello **world**", 40)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "world")
	assert.NotContains(t, out, "**")
	assert.False(t, strings.HasPrefix(out, "\n"))

	// Blank content passes through
	assert.Equal(t, "  ", r.Render("  ", 40))

	// Renderers are cached per width
	r.Render("a", 40)
	r.Render("a", 60)
	assert.Len(t, r.renderers, 2)
}
