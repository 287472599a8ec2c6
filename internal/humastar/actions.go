package humastar

import (
	"fmt"
	"strings"
)

// Action is a link to something the client can do next. JSON responses
// carry actions as Link headers; pages render them as buttons.
//
//	</door>; rel="create-form"; method="POST"; title="Pin another building"
type Action struct {
	Rel    string
	Href   string
	Method string // empty means GET
	Title  string
	Schema string // JSON Schema of the request body, if any
}

// Actor is implemented by response bodies whose next steps depend on their
// content.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats a as an RFC 8288 Link value with method, title and
// schema target attributes.
func (a Action) LinkHeader() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s>; rel="%s"`, a.Href, a.Rel)
	for _, attr := range [][2]string{{"method", a.Method}, {"title", a.Title}, {"schema", a.Schema}} {
		if attr[1] != "" {
			fmt.Fprintf(&b, `; %s="%s"`, attr[0], attr[1])
		}
	}
	return b.String()
}

// Expr is the Datastar action expression, e.g.
// "@post('/api/v1/picker/accept')".
func (a Action) Expr() string {
	m := strings.ToLower(a.Method)
	if m == "" {
		m = "get"
	}
	return fmt.Sprintf("@%s('%s')", m, a.Href)
}

// ActionDef is an Action whose Pattern may hold one %s for an id.
type ActionDef struct {
	Rel     string
	Pattern string
	Method  string
	Title   string
	Schema  string
}

// ActionsFor resolves defs against id.
func ActionsFor(id string, defs []ActionDef) []Action {
	actions := make([]Action, len(defs))
	for i, d := range defs {
		href := d.Pattern
		if strings.Contains(href, "%s") {
			href = fmt.Sprintf(href, id)
		}
		actions[i] = Action{Rel: d.Rel, Href: href, Method: d.Method, Title: d.Title, Schema: d.Schema}
	}
	return actions
}
