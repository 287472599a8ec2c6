package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS(greeting string) fstest.MapFS {
	return fstest.MapFS{
		"templates/page.html": {Data: []byte(`{{define "page"}}<h1>` + greeting + ` {{.Name}}</h1>{{template "item" dict "N" 2}}{{end}}`)},
		"templates/fragments/item.html": {Data: []byte(
			`{{define "item"}}{{range seq .N}}<i>{{add . 1}}</i>{{end}}{{end}}` +
				`{{define "cfg"}}<div data-config='{{json .}}'></div>{{end}}` +
				`{{define "coord"}}{{fixed 6 .}}{{end}}`)},
	}
}

func TestRender(t *testing.T) {
	r, err := New(testFS("Hello"))
	require.NoError(t, err)

	out, err := r.Render("page", map[string]string{"Name": "door"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello door</h1><i>1</i><i>2</i>", out)

	assert.Equal(t, "13.082700", r.MustRender("coord", 13.0827))
	assert.Contains(t, r.MustRender("cfg", map[string]int{"zoom": 16}), `{&#34;zoom&#34;:16}`)

	_, err = r.Render("missing", nil)
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	r, err := New(testFS("Hello"))
	require.NoError(t, err)
	require.NoError(t, r.Reload(testFS("Bye")))
	assert.Contains(t, r.MustRender("page", map[string]string{"Name": "x"}), "Bye x")
}
