package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/flux/pkg/domain"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable renderer it falls back to the raw markdown.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns markdown unchanged.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// StateMarkdown renders a tree as one JSON block per slice, in slice order.
// When diff is non-nil, changed slices are flagged.
func StateMarkdown(state *domain.State, diff *domain.StateDiff) (string, error) {
	var b strings.Builder
	b.WriteString("# State\n")
	for _, key := range state.Keys() {
		raw, _ := state.Get(key)
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render slice %q: %w", key, err)
		}

		b.WriteString("\n## " + key)
		if diff != nil {
			if _, changed := diff.Changed[key]; changed {
				b.WriteString(" *(changed)*")
			}
		}
		b.WriteString("\n\n```json\n")
		b.Write(data)
		b.WriteString("\n```\n")
	}
	return b.String(), nil
}

// RenderState renders a tree through r.
func RenderState(r Renderer, state *domain.State, diff *domain.StateDiff) (string, error) {
	md, err := StateMarkdown(state, diff)
	if err != nil {
		return "", err
	}
	return r(md)
}
