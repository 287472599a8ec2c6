package picker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-door/internal/config"
	"github.com/joeblew999/plat-door/internal/db"
	"github.com/joeblew999/plat-door/internal/flow"
	"github.com/joeblew999/plat-door/internal/logging"
	"github.com/joeblew999/plat-door/internal/service"
	"github.com/joeblew999/plat-door/internal/store"
	"github.com/joeblew999/plat-door/internal/templates"
	"github.com/joeblew999/plat-door/pkg/doorclient"
	"github.com/joeblew999/plat-door/web"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	reqs []doorclient.CreateRequest
	err  error
}

func (f *fakeSubmitter) Create(ctx context.Context, req doorclient.CreateRequest) (*doorclient.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &doorclient.CreateResponse{Message: "Saved successfully"}, nil
}

type fixture struct {
	mux    *http.ServeMux
	h      *Handler
	submit *fakeSubmitter
	doors  *service.DoorService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	d, err := db.Open(db.Config{Driver: db.SQLite, DSN: "file::memory:?_pragma=foreign_keys(1)"})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate(context.Background()))

	renderer, err := templates.New(web.FS)
	require.NoError(t, err)

	log := logging.Discard()
	bus := service.NewEventBus()
	doors := service.NewDoorService(store.NewBuildingStore(d), service.Settings{TerritoryID: 1, CongregationAppID: 1, CongregationLangID: 1}, bus, log)
	submit := &fakeSubmitter{}

	h := NewHandler(Deps{
		Sessions:  service.NewSessionService(time.Minute, log),
		Buildings: doors,
		Bus:       bus,
		Submit:    submit,
		Settings:  config.Defaults(),
		Renderer:  renderer,
		Log:       log,
	})
	h.redirectDelay = 0

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Test", "1.0.0"))
	h.RegisterRoutes(api)
	h.RegisterPages(mux)
	return &fixture{mux: mux, h: h, submit: submit, doors: doors}
}

var sidPattern = regexp.MustCompile(`events\?sid=([0-9a-f-]{36})`)

func (f *fixture) page(t *testing.T, url string) (string, string) {
	t.Helper()
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := sidPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2, "page has no session id")
	return w.Body.String(), m[1]
}

func (f *fixture) post(t *testing.T, url string, signals map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func (f *fixture) snapshot(t *testing.T, sid string) service.Snapshot {
	t.Helper()
	sess, ok := f.h.Sessions.Get(sid)
	require.True(t, ok)
	return sess.Snapshot()
}

func TestHomePage(t *testing.T) {
	f := setup(t)

	body, sid := f.page(t, "/")
	assert.Contains(t, body, "Step 1 / 5")
	assert.Contains(t, body, "No buildings yet")
	assert.Contains(t, body, `href="/map/add?sid=`+sid+`"`)
	assert.Contains(t, body, "data-locate")
	assert.Equal(t, 1, f.h.Sessions.Len())

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocateFallsBackToDefault(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/")

	w := f.post(t, "/api/v1/picker/locate", map[string]any{"sid": sid, "geoCode": 1, "geoMessage": "User denied"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "map-update")
	assert.Contains(t, w.Body.String(), `"gps":"13.082700, 80.270700"`)

	w = f.post(t, "/api/v1/picker/locate", map[string]any{"sid": sid, "geoLat": 12.97, "geoLng": 77.59})
	assert.Contains(t, w.Body.String(), `"gps":"12.970000, 77.590000"`)
	assert.Equal(t, 12.97, f.snapshot(t, sid).Map.Center.Lat)
}

func TestHappyPathSubmits(t *testing.T) {
	f := setup(t)

	_, sid := f.page(t, "/map/add?lat=13.08&lng=80.27")
	assert.Equal(t, flow.PickingPin, f.snapshot(t, sid).State)

	w := f.post(t, "/api/v1/picker/map/dragend", map[string]any{"sid": sid, "lat": 13.1, "lng": 80.3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "datastar-patch-signals")
	assert.Contains(t, w.Body.String(), `"gps":"13.100000, 80.300000"`)

	w = f.post(t, "/api/v1/picker/confirm", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "/map/confirm?")

	body, again := f.page(t, "/map/confirm?sid="+sid)
	assert.Equal(t, sid, again)
	assert.Contains(t, body, "13.10000000000000, 80.30000000000000")
	assert.Contains(t, body, "Step 3 / 5")

	w = f.post(t, "/api/v1/picker/accept", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "/building/new?")

	body, _ = f.page(t, "/building/new?sid="+sid)
	assert.Contains(t, body, "Step 4 / 5")
	assert.Contains(t, body, `<option value="Tamil">Tamil</option>`)

	w = f.post(t, "/api/v1/picker/doors", map[string]any{"sid": sid, "doors": 2})
	assert.Contains(t, w.Body.String(), "#addresses")
	assert.Contains(t, w.Body.String(), "addr2")

	f.post(t, "/api/v1/picker/address?i=2", map[string]any{"sid": sid, "addr2": "B-2"})
	f.post(t, "/api/v1/picker/address?i=0", map[string]any{"sid": sid, "address": "Block B"})
	w = f.post(t, "/api/v1/picker/language", map[string]any{"sid": sid, "language": "Tamil"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.post(t, "/api/v1/picker/save", map[string]any{"sid": sid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Saved successfully")

	require.Len(t, f.submit.reqs, 1)
	req := f.submit.reqs[0]
	assert.Equal(t, 13.1, req.Lat)
	assert.Equal(t, 80.3, req.Long)
	assert.Equal(t, "Tamil", req.Language)
	assert.Equal(t, "Block B", req.Info)
	assert.Equal(t, 2, req.NumberOfDoors)
	assert.Equal(t, []string{"", "B-2"}, req.Addresses)

	_, ok := f.h.Sessions.Get(sid)
	assert.False(t, ok)
}

func TestAddPageWithoutPinStartsAtDefault(t *testing.T) {
	f := setup(t)

	body, sid := f.page(t, "/map/add")
	assert.Contains(t, body, "data-locate")
	assert.Contains(t, body, "13.082700, 80.270700")
	snap := f.snapshot(t, sid)
	require.NotNil(t, snap.Draft.Position)
	assert.Equal(t, 13.0827, snap.Draft.Position.Lat)

	w := f.post(t, "/api/v1/picker/confirm", map[string]any{"sid": sid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/map/confirm?")
	assert.Equal(t, flow.ConfirmingPin, f.snapshot(t, sid).State)

	body, _ = f.page(t, "/map/add?lat=13.08&lng=80.27")
	assert.NotContains(t, body, "data-locate")
}

func TestDoorCountBounded(t *testing.T) {
	f := setup(t)

	body, sid := f.page(t, "/building/new?lat=13.08&lng=80.27&doors=40000")
	assert.Regexp(t, `Math\.min\(\s*200\s*,`, body)
	assert.Equal(t, flow.MaxDoors, f.snapshot(t, sid).Draft.Doors)

	w := f.post(t, "/api/v1/picker/doors", map[string]any{"sid": sid, "doors": flow.MaxDoors + 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "/api/v1/picker/doors", map[string]any{"sid": sid, "doors": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, f.snapshot(t, sid).Draft.Doors)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	f := setup(t)
	f.submit.err = &doorclient.APIError{Status: 500, Message: "Internal Server Error"}

	_, sid := f.page(t, "/building/new?lat=13.08&lng=80.27&language=Hindi&doors=1")
	w := f.post(t, "/api/v1/picker/save", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "Could not save: Internal Server Error")

	snap := f.snapshot(t, sid)
	assert.Equal(t, flow.EditingDetails, snap.State)
	assert.Equal(t, "Hindi", snap.Draft.Language)
	assert.Equal(t, 1, snap.Draft.Doors)
}

func TestSaveWithoutPin(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/building/new")

	w := f.post(t, "/api/v1/picker/save", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "Drop the pin on the building first")
	assert.Empty(t, f.submit.reqs)
}

func TestCancelStepsBack(t *testing.T) {
	f := setup(t)

	_, sid := f.page(t, "/map/add?lat=13.08&lng=80.27")
	w := f.post(t, "/api/v1/picker/cancel", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "/?sid="+sid)

	f.post(t, "/api/v1/picker/confirm", map[string]any{"sid": sid})
	w = f.post(t, "/api/v1/picker/cancel", map[string]any{"sid": sid})
	assert.Contains(t, w.Body.String(), "/map/add?")
	assert.Equal(t, flow.PickingPin, f.snapshot(t, sid).State)
	assert.Empty(t, f.submit.reqs)
}

func TestGPSField(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/building/new?lat=13.08&lng=80.27")

	w := f.post(t, "/api/v1/picker/gps", map[string]any{"sid": sid, "gps": "abc"})
	assert.Contains(t, w.Body.String(), "Enter as: latitude, longitude")
	assert.Equal(t, 13.08, f.snapshot(t, sid).Draft.Position.Lat)

	w = f.post(t, "/api/v1/picker/gps", map[string]any{"sid": sid, "gps": "12.5, 79.5"})
	assert.Contains(t, w.Body.String(), "map-update")
	snap := f.snapshot(t, sid)
	assert.Equal(t, 12.5, snap.Draft.Position.Lat)
	assert.Equal(t, 12.5, snap.Map.Center.Lat)
}

func TestLayerToggle(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/")

	w := f.post(t, "/api/v1/picker/layer", map[string]any{"sid": sid, "layer": "satellite"})
	assert.Contains(t, w.Body.String(), `"layer":"satellite"`)
	assert.Equal(t, "Tiles © Esri", f.snapshot(t, sid).Map.Tile.Attribution)

	w = f.post(t, "/api/v1/picker/layer", map[string]any{"sid": sid, "layer": "terrain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapStatus(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/")

	f.post(t, "/api/v1/picker/map/failed", map[string]any{"sid": sid, "mapError": "Leaflet did not load"})
	assert.Equal(t, "loading", f.snapshot(t, sid).Map.Status)

	f.post(t, "/api/v1/picker/map/ready", map[string]any{"sid": sid})
	assert.Equal(t, "ready", f.snapshot(t, sid).Map.Status)
}

func TestRejectsBadInput(t *testing.T) {
	f := setup(t)
	_, sid := f.page(t, "/building/new")

	w := f.post(t, "/api/v1/picker/language", map[string]any{"sid": sid, "language": "Klingon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "/api/v1/picker/doors", map[string]any{"sid": "missing", "doors": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.post(t, "/api/v1/picker/map/dragend", map[string]any{"sid": sid, "lat": 123.0, "lng": 80.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsStreamsPinChanges(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.mux)
	defer srv.Close()

	_, sid := f.page(t, "/map/add?lat=13.08&lng=80.27")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/picker/events?sid="+sid, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	sess, ok := f.h.Sessions.Get(sid)
	require.True(t, ok)
	// the stream subscribes asynchronously, so keep typing until it sees one
	n := 0
	require.Eventually(t, func() bool {
		n++
		sess.TypeGPS(fmt.Sprintf("13.2, 80.%d", n))
		timeout := time.After(50 * time.Millisecond)
		for {
			select {
			case l := <-lines:
				if strings.Contains(l, `"gps":"13.2, 80.`) {
					return true
				}
			case <-timeout:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.doors.Create(context.Background(), service.CreateRequest{Lat: 13.2, Long: 80.4, Language: "Tamil"})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case l, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if strings.Contains(l, "pins-update") {
				return
			}
		case <-deadline:
			t.Fatal("no pins-update event")
		}
	}
}

func TestEventsUnknownSession(t *testing.T) {
	f := setup(t)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/picker/events?sid=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
