package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/engine"
	"github.com/handiism/mp3order/internal/io/memfs"
	"github.com/handiism/mp3order/internal/player"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPlayer struct {
	player.Nop
	source string
}

func (p *recordingPlayer) SetSource(path string) error {
	p.source = path
	return nil
}

func newTestServer(t *testing.T, files ...string) (*Server, *memfs.FS, *recordingPlayer) {
	t.Helper()

	fsys := memfs.New()
	for _, f := range files {
		require.NoError(t, fsys.AddFile("/usb/"+f, []byte(f)))
	}

	s := config.DefaultSettings()
	s.WorkDir = "/usb"
	s.MirrorRoot = ""
	s.MirrorDir = "/backup"

	p := &recordingPlayer{}
	return New(s, engine.WithFS(fsys), engine.WithPlayer(p)), fsys, p
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w, body := do(t, srv.Router(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestListTracks(t *testing.T) {
	srv, _, _ := newTestServer(t, "b.mp3", "a.mp3", "cover.jpg")
	w, body := do(t, srv.Router(), http.MethodGet, "/api/tracks", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, "/backup", body["mirror_dir"])

	tracks := body["tracks"].([]any)
	assert.Equal(t, "a", tracks[0].(map[string]any)["name"])
}

func TestApplyOrder(t *testing.T) {
	srv, fsys, _ := newTestServer(t, "b.mp3", "c.mp3", "a.mp3")
	router := srv.Router()

	w, body := do(t, router, http.MethodPut, "/api/order", OrderRequest{
		Order:  []string{"c", "a", "b"},
		Labels: map[string]string{"b": "Bee"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "success", body["outcome"])
	assert.Equal(t, []string{"01 - c.mp3", "02 - a.mp3", "03 - Bee.mp3"}, fsys.Order("/usb"))
	assert.ElementsMatch(t, fsys.Order("/usb"), fsys.Order("/backup"))

	tracks := body["tracks"].([]any)
	assert.Equal(t, "01 - c", tracks[0].(map[string]any)["name"])
}

func TestApplyOrder_BadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t, "a.mp3", "b.mp3")
	router := srv.Router()

	w, _ := do(t, router, http.MethodPut, "/api/order", OrderRequest{Order: []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPut, "/api/order", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPut, "/api/order", OrderRequest{
		Order:  []string{"a", "b"},
		Labels: map[string]string{"zzz": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyOrder_SanitizesLabels(t *testing.T) {
	srv, fsys, _ := newTestServer(t, "a.mp3", "b.mp3")

	w, body := do(t, srv.Router(), http.MethodPut, "/api/order", OrderRequest{
		Order:  []string{"a", "b"},
		Labels: map[string]string{"a": "../../x", "b": "b: part?"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "success", body["outcome"])
	assert.Equal(t, []string{"01 - _.._.._x.mp3", "02 - _ part_.mp3"}, fsys.Order("/usb"))
	assert.ElementsMatch(t, fsys.Order("/usb"), fsys.Order("/backup"))
}

func TestApplyOrder_Collision(t *testing.T) {
	srv, _, _ := newTestServer(t, "a.mp3", "01 - a.mp3")

	w, body := do(t, srv.Router(), http.MethodPut, "/api/order", OrderRequest{Order: []string{"a", "01 - a"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["error"], "already exists")
}

func TestRenameTrack(t *testing.T) {
	srv, fsys, _ := newTestServer(t, "a.mp3", "b.mp3")
	router := srv.Router()

	w, _ := do(t, router, http.MethodPatch, "/api/tracks/a", RenameRequest{Label: "Alpha"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"Alpha.mp3", "b.mp3"}, fsys.Order("/usb"))

	w, _ = do(t, router, http.MethodPatch, "/api/tracks/b", RenameRequest{Label: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPatch, "/api/tracks/b", RenameRequest{Label: "Alpha"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, router, http.MethodPatch, "/api/tracks/nope", RenameRequest{Label: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncMirror(t *testing.T) {
	srv, fsys, _ := newTestServer(t, "a.mp3")

	w, body := do(t, srv.Router(), http.MethodPost, "/api/mirror", nil)
	require.Equal(t, http.StatusOK, w.Code)

	report := body["report"].(map[string]any)
	assert.Equal(t, []any{"a.mp3"}, report["copied"])
	assert.Equal(t, []string{"a.mp3"}, fsys.Order("/backup"))
}

func TestPlayer(t *testing.T) {
	srv, _, p := newTestServer(t, "a.mp3")
	router := srv.Router()

	w, _ := do(t, router, http.MethodPost, "/api/player/play", PlayRequest{Name: "a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/usb/a.mp3", p.source)

	w, _ = do(t, router, http.MethodPost, "/api/player/play", PlayRequest{Name: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/player/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tracks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventsWebsocket(t *testing.T) {
	srv, _, _ := newTestServer(t, "a.mp3")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Hub().Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/mirror", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "info", msg.Level)
	assert.Contains(t, msg.Message, "Mirroring to /backup")
}
