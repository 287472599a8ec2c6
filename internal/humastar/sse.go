package humastar

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SSE is a Datastar event writer with the patches the picker uses.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts an event stream on a humago context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch swaps the inner HTML of selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Error shows msg in the page's alert and clears any success banner.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg, "success": ""})
}

// Success shows msg in the success banner and clears the alert.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Signals merges signals into the page's store.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Emit dispatches a CustomEvent named event on document.
func (s SSE) Emit(event string, detail any) {
	s.DispatchCustomEvent(event, detail)
}

// Go navigates the browser to url.
func (s SSE) Go(url string) {
	s.Redirect(url)
}
