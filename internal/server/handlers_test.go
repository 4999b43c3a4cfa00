package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mapsketch/mapsketch/internal/config"
	"github.com/mapsketch/mapsketch/internal/search"
	"github.com/mapsketch/mapsketch/internal/server"
)

func newTestContext(searchEndpoint string) *server.ServerContext {
	cfg := &config.Config{}
	cfg.Normalize()
	if searchEndpoint != "" {
		cfg.Search.Endpoint = searchEndpoint
	}

	return &server.ServerContext{
		Config:    cfg,
		IndexHTML: []byte("<!doctype html><title>test</title>"),
		Sessions:  server.NewRegistry(cfg),
		Searcher:  search.New(cfg.Search),
	}
}

func createSession(t *testing.T, ctx *server.ServerContext) string {
	t.Helper()

	rec := httptest.NewRecorder()
	ctx.HandleSessions(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.ID)

	return body.ID
}

func postOp(ctx *server.ServerContext, id, op string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/"+op, body)
	ctx.HandleSessionOp(rec, req)
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := httptest.NewRecorder()
	ctx.HandleSessionOp(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Mode        string          `json:"mode"`
		Measurement string          `json:"measurement"`
		Simplify    string          `json:"simplify"`
		Collection  json.RawMessage `json:"collection"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, "none", state.Mode)
	require.Equal(t, "–", state.Measurement)
	require.Equal(t, "t=off", state.Simplify)
	require.Contains(t, string(state.Collection), "FeatureCollection")

	rec = httptest.NewRecorder()
	ctx.HandleSessionOp(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	ctx.HandleSessionOp(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/state", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionOpUnknownSession(t *testing.T) {
	ctx := newTestContext("")

	rec := postOp(ctx, "no-such-session", "mode", map[string]string{"mode": "point"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModeOp(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := postOp(ctx, id, "mode", map[string]string{"mode": "freehand-polygon"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"mode":"freehand-polygon"`)

	rec = postOp(ctx, id, "mode", map[string]string{"mode": "scribble"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown mode")
}

func TestExportHeaders(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := httptest.NewRecorder()
	ctx.HandleSessionOp(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="sketch.geojson"`, rec.Header().Get("Content-Disposition"))
	require.Contains(t, rec.Body.String(), "FeatureCollection")
}

func TestBufferWithoutSelection(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := postOp(ctx, id, "buffer", map[string]float64{"distance_m": 200})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no selection")
}

func TestSelectUnknownLayer(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := postOp(ctx, id, "select", map[string]string{"layer_id": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimplifyOp(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := postOp(ctx, id, "simplify", map[string]any{"level": 4, "high_quality": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"simplify":"t=0.0004"`)
}

func TestUndoRedoOps(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	// a fresh session has nothing to undo, the op is still a clean 200
	rec := postOp(ctx, id, "undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postOp(ctx, id, "redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	ctx := newTestContext("")
	id := createSession(t, ctx)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/mode", strings.NewReader("{"))
	ctx.HandleSessionOp(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "malformed request body")
}

func TestSearchHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "berlin", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name": "Berlin, Deutschland", "lat": "52.5170365", "lon": "13.3888599",
			 "boundingbox": ["52.33", "52.67", "13.08", "13.77"]},
			{"display_name": "broken", "lat": "not-a-number", "lon": "0"}
		]`))
	}))
	defer upstream.Close()

	ctx := newTestContext(upstream.URL)

	rec := httptest.NewRecorder()
	ctx.HandleSearch(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=berlin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var places []search.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &places))
	require.Len(t, places, 1, "results with unparseable coordinates are skipped")
	require.Equal(t, "Berlin, Deutschland", places[0].Name)
	require.InDelta(t, 52.517, places[0].Lat, 0.001)
	require.NotNil(t, places[0].BoundingBox)
	require.InDelta(t, 52.33, places[0].BoundingBox[0], 0.001)
}

func TestSearchHandlerEmptyQuery(t *testing.T) {
	ctx := newTestContext("")

	rec := httptest.NewRecorder()
	ctx.HandleSearch(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandlerUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	ctx := newTestContext(upstream.URL)

	rec := httptest.NewRecorder()
	ctx.HandleSearch(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=berlin", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "search unavailable")
}

func TestIndexETag(t *testing.T) {
	ctx := newTestContext("")

	rec := httptest.NewRecorder()
	ctx.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	ctx.HandleIndex(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}
