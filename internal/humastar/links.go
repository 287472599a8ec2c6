package humastar

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Links maps operation paths to RFC 8288 Link header values.
type Links map[string][]string

// Add links the operation at path from to target to. Duplicates are
// ignored.
func (l Links) Add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l[from], val) {
		l[from] = append(l[from], val)
	}
}

// DiscoveryLinks adds the entry-point rels for the OpenAPI document and the
// docs UI to the given path.
func (l Links) DiscoveryLinks(entry string) {
	l.Add(entry, "/openapi.json", "describedby")
	l.Add(entry, "/openapi.json", "service-desc")
	l.Add(entry, "/docs", "service-doc")
}

// LinkTransformer returns a Huma Transformer that injects Link headers:
// the static links for the operation, a self link on item paths, and the
// state-dependent actions of bodies implementing [Actor].
func LinkTransformer(links Links) huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}
