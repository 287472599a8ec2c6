package humastar

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-door/internal/templates"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"gps":"13.08, 80.27","doors":"3","lat":13.5,"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, "13.08, 80.27", s.String("gps"))
	assert.Equal(t, 3, s.Int("doors"))
	assert.InDelta(t, 13.5, s.Float("lat"), 1e-9)
	assert.True(t, s.Bool("ok"))
	assert.True(t, s.Has("gps"))
	assert.False(t, s.Has("missing"))
	assert.Equal(t, "", s.String("lat"))
}

func TestParseSignalsEmptyBody(t *testing.T) {
	s, err := ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ParseSignals([]byte("{"))
	assert.Error(t, err)

	in := SignalsInput{RawBody: []byte("nope")}
	_, err = in.MustParse()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}

func TestActions(t *testing.T) {
	actions := ActionsFor("abc", []ActionDef{
		{Rel: "next", Pattern: "/api/v1/picker/accept?sid=%s", Method: "POST", Title: "Accept"},
		{Rel: "up", Pattern: "/?sid=%s"},
	})
	require.Len(t, actions, 2)

	assert.Equal(t, `</api/v1/picker/accept?sid=abc>; rel="next"; method="POST"; title="Accept"`, actions[0].LinkHeader())
	assert.Equal(t, "@post('/api/v1/picker/accept?sid=abc')", actions[0].Expr())
	assert.Equal(t, "@get('/?sid=abc')", actions[1].Expr())
}

type thingBody struct {
	Name string `json:"name"`
}

func (thingBody) Actions() []Action {
	return []Action{{Rel: "edit", Href: "/things/1", Method: "PUT"}}
}

func TestLinkTransformer(t *testing.T) {
	links := Links{}
	links.Add("/things/{id}", "/things", "collection")
	links.Add("/things/{id}", "/things", "collection")
	links.DiscoveryLinks("/things/{id}")

	cfg := huma.DefaultConfig("Test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer(links))
	_, api := humatest.New(t, cfg)

	huma.Get(api, "/things/{id}", func(ctx context.Context, in *struct {
		ID string `path:"id"`
	}) (*struct{ Body thingBody }, error) {
		return &struct{ Body thingBody }{Body: thingBody{Name: in.ID}}, nil
	})

	resp := api.Get("/things/1")
	require.Equal(t, http.StatusOK, resp.Code)

	got := strings.Join(resp.Result().Header.Values("Link"), "\n")
	assert.Equal(t, 1, strings.Count(got, `rel="collection"`))
	assert.Contains(t, got, `</openapi.json>; rel="service-desc"`)
	assert.Contains(t, got, `</things/1>; rel="self"`)
	assert.Contains(t, got, `</things/1>; rel="edit"; method="PUT"`)
}

func TestRenderListAndSelect(t *testing.T) {
	r, err := templates.New(fstest.MapFS{
		"templates/page.html": {Data: []byte(`{{define "page"}}{{end}}`)},
		"templates/fragments/f.html": {Data: []byte(
			`{{define "item"}}<li>{{.}}</li>{{end}}` +
				`{{define "empty-state"}}<p>{{.Title}}: {{.Message}}</p>{{end}}` +
				`{{define "select-option"}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}`)},
	})
	require.NoError(t, err)
	h := Handler{Renderer: r}

	assert.Equal(t, "<li>a</li><li>b</li>", h.RenderList("item", []any{"a", "b"}, Empty{Title: "None"}))
	assert.Equal(t, "<p>None: add one</p>", h.RenderList("item", nil, Empty{Title: "None", Message: "add one"}))
	assert.Equal(t, "", h.RenderList("item", nil, Empty{}))

	opts := []SelectOptionData{{Value: "en", Label: "English"}, {Value: "ta", Label: "Tamil", Selected: true}}
	assert.Equal(t, `<option value="en">English</option><option value="ta" selected>Tamil</option>`, h.RenderSelect("", opts))
	assert.True(t, strings.HasPrefix(h.RenderSelect("Pick one", opts), `<option value="">Pick one</option>`))
}
