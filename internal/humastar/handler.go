// Package humastar lets Huma operations answer with Datastar server-sent
// events: signal parsing on the way in, element patches, signal patches,
// custom DOM events and redirects on the way out, plus hypermedia Link
// headers for the JSON endpoints.
package humastar

import (
	"bytes"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-door/internal/templates"
)

// Handler is embedded by Huma handlers that stream Datastar responses.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a StreamResponse that hands fn a ready SSE writer.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// RenderList renders each item with tmpl, or the empty state when there are
// none.
func (h *Handler) RenderList(tmpl string, items []any, empty Empty) string {
	return RenderList(h.Renderer, tmpl, items, empty)
}

// RenderSelect renders <option> elements.
func (h *Handler) RenderSelect(placeholder string, options []SelectOptionData) string {
	return RenderSelect(h.Renderer, placeholder, options)
}

// Empty is the "empty-state" fragment's data. A zero Empty renders nothing.
type Empty struct {
	Title   string
	Message string
}

// SelectOptionData feeds the "select-option" fragment.
type SelectOptionData struct {
	Value    string
	Label    string
	Selected bool
}

// RenderList renders items with tmpl, or empty when there are none.
// Fragments that fail to render are left out.
func RenderList(r *templates.Renderer, tmpl string, items []any, empty Empty) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		if empty != (Empty{}) {
			r.RenderToBuffer(&buf, "empty-state", empty)
		}
		return buf.String()
	}
	for _, item := range items {
		r.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// RenderSelect renders one option per entry, preceded by a value-less
// placeholder unless placeholder is empty.
func RenderSelect(r *templates.Renderer, placeholder string, options []SelectOptionData) string {
	var buf bytes.Buffer
	if placeholder != "" {
		r.RenderToBuffer(&buf, "select-option", SelectOptionData{Label: placeholder})
	}
	for _, opt := range options {
		r.RenderToBuffer(&buf, "select-option", opt)
	}
	return buf.String()
}
