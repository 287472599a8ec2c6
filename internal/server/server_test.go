package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-door/internal/config"
	"github.com/joeblew999/plat-door/internal/db"
	"github.com/joeblew999/plat-door/internal/logging"
	"github.com/joeblew999/plat-door/pkg/doorclient"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerFrom(t, "")
}

func newTestServerFrom(t *testing.T, webDir string) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := New(Config{
		Host:     "127.0.0.1",
		Port:     "0",
		DB:       db.Config{Driver: db.SQLite, DSN: "file::memory:?_pragma=foreign_keys(1)"},
		Settings: config.Defaults(),
		WebDir:   webDir,
		Log:      logging.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	require.NoError(t, srv.Start(ctx))

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestDoorRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	client := doorclient.New(ts.URL)
	ctx := context.Background()

	_, err := client.Latest(ctx)
	assert.ErrorIs(t, err, doorclient.ErrNotFound)

	resp, err := client.Create(ctx, doorclient.CreateRequest{Lat: 13.08, Long: 80.27, Info: "Tower A", Language: "Tamil", NumberOfDoors: 3})
	require.NoError(t, err)
	assert.Equal(t, "Saved successfully", resp.Message)

	b, err := client.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, b.DoorCount)
	assert.Equal(t, "Tamil", b.Language)
}

func TestPreflightAnsweredWithNoContent(t *testing.T) {
	_, ts := newTestServer(t)

	for _, header := range []string{"Content-Type", "content-type", "Content-Type, X-Requested-With"} {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/door", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", header)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, header)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), header)
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"), header)
	}
}

func TestPagesAndAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	for path, want := range map[string]string{
		"/":              "Recent buildings",
		"/map/add":       "Drag the pin",
		"/static/map.js": "map-update",
		"/health":        `"status"`,
	} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenAPIListsRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	spec := srv.OpenAPI()

	var paths []string
	for p := range spec.Paths {
		paths = append(paths, p)
	}
	joined := strings.Join(paths, " ")
	for _, p := range []string{"/door", "/health", "/api/v1/buildings/pins", "/api/v1/picker/save", "/api/v1/picker/events"} {
		assert.Contains(t, joined, p)
	}
}

func TestServesFromWebDir(t *testing.T) {
	srv, _ := newTestServerFrom(t, "../../web")

	for _, path := range []string{"/", "/static/app.css"} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
