package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/oraclebot/internal/catalog"
	"github.com/arcanaland/oraclebot/internal/journal"
	"github.com/arcanaland/oraclebot/internal/render"
	"github.com/arcanaland/oraclebot/internal/session"
)

// memorySource serves every key as a tiny solid image.
type memorySource struct{}

func (memorySource) Fetch(context.Context, string) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{120, 60, 200, 255})
		}
	}
	return img, nil
}

// memoryRemote is an in-memory journal backend.
type memoryRemote struct {
	mu      sync.Mutex
	data    []byte
	version int
	exists  bool
}

func (m *memoryRemote) Load(context.Context) ([]byte, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return nil, "", false, nil
	}
	return append([]byte(nil), m.data...), fmt.Sprintf("v%d", m.version), true, nil
}

func (m *memoryRemote) Store(_ context.Context, data []byte, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists && token != fmt.Sprintf("v%d", m.version) {
		return "", journal.ErrStaleVersion
	}
	m.data = append([]byte(nil), data...)
	m.exists = true
	m.version++
	return fmt.Sprintf("v%d", m.version), nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := session.NewManager(session.NewStore(), catalog.Default(), nil)
	cache, err := render.NewImageCache(memorySource{}, 0)
	require.NoError(t, err)
	renderer := render.NewRenderer(cache, render.DefaultOptions(), nil)
	store := journal.NewStore(&memoryRemote{}, nil)

	return New(manager, renderer, store, nil).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestDrawAndRevealFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/guild-1/draw", gin.H{
		"owner_id": "user-1",
		"spread":   "past_present_future",
		"question": "what now?",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	readingID := created["id"].(string)
	require.NotEmpty(t, readingID)
	assert.Len(t, created["slots"], 3)

	// Reveal each position in turn.
	for i := 0; i < 3; i++ {
		w = doJSON(t, router, http.MethodPost, "/v1/readings/"+readingID+"/reveal", gin.H{"index": i})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		out := decode(t, w)
		assert.NotEmpty(t, out["card"])
		assert.NotEmpty(t, out["meaning"])
		assert.Equal(t, i == 2, out["completed"])
	}

	// Second reveal of a spent index is a quiet conflict.
	w = doJSON(t, router, http.MethodPost, "/v1/readings/"+readingID+"/reveal", gin.H{"index": 0})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDrawValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{
		"owner_id": "u", "count": 9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{
		"owner_id": "u", "spread": "celtic_cross",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{"count": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "owner_id is required")
}

func TestUndoRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/g/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{"owner_id": "u", "count": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Len(t, out["restored"], 2)
}

func TestDeckInfoAndShuffle(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{"owner_id": "u", "count": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/sessions/g/deck", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode(t, w)
	assert.Equal(t, float64(21), info["total"])
	assert.Equal(t, float64(16), info["remaining"])
	assert.Equal(t, float64(5), info["drawn"])

	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/shuffle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(21), decode(t, w)["remaining"])
}

func TestClarifierRoute(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/g/clarifier", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.NotEmpty(t, out["card"])
	assert.NotEmpty(t, out["meaning"])
}

func TestReadingImage(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{"owner_id": "u", "count": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	readingID := decode(t, w)["id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/v1/readings/"+readingID+"/image", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/readings/nope/image", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournalFlow(t *testing.T) {
	router := newTestRouter(t)

	// Saving before any completed reading is a 404.
	w := doJSON(t, router, http.MethodPost, "/v1/journal/user-1", gin.H{"name": "moon"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Complete a one-card reading.
	w = doJSON(t, router, http.MethodPost, "/v1/sessions/g/draw", gin.H{"owner_id": "user-1", "count": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	readingID := decode(t, w)["id"].(string)
	w = doJSON(t, router, http.MethodPost, "/v1/readings/"+readingID+"/reveal", gin.H{"index": 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["completed"])

	w = doJSON(t, router, http.MethodPost, "/v1/journal/user-1", gin.H{"name": "moon", "notes": "bright"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Duplicate name for the same owner conflicts.
	w = doJSON(t, router, http.MethodPost, "/v1/journal/user-1", gin.H{"name": "moon"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/journal/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "moon", entries[0].Name)
	assert.Equal(t, "bright", entries[0].Notes)
	require.Len(t, entries[0].Cards, 1)

	w = doJSON(t, router, http.MethodDelete, "/v1/journal/user-1/moon", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/journal/user-1/moon", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
