package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exchange-backoffice-api/internal/cache"
	"exchange-backoffice-api/internal/models"
	"exchange-backoffice-api/internal/realtime"
	"exchange-backoffice-api/internal/service"
	"exchange-backoffice-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cache  *cache.Cache
	hub    *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	c := cache.New(cache.Options{MaxEntries: 50})
	hub := realtime.NewHub(nil)
	h := New(service.NewBackoffice(service.NewGormStore(db), c, hub, time.Minute, nil), nil)
	ch := NewCacheHandler(c, hub, nil)

	r := gin.New()
	r.GET("/api/clients", h.GetClients)
	r.GET("/api/clients/:id", h.GetClientByID)
	r.POST("/api/clients", h.CreateClient)
	r.GET("/api/movements", h.GetMovements)
	r.POST("/api/movements", h.CreateMovement)
	r.GET("/api/cache/stats", ch.GetStats)
	r.POST("/api/cache/clear", ch.Clear)
	r.POST("/api/cache/clear-expired", ch.ClearExpired)
	r.GET("/ws", WebSocketHandler(hub, nil))

	return &testEnv{router: r, db: db, cache: c, hub: hub}
}

func (e *testEnv) do(method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateClient_Success(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/clients", map[string]string{"name": "Ana Pérez", "phone": "555-0101"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Client
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "Ana Pérez", created.Name)
	require.True(t, strings.HasPrefix(created.ID, "cli-"))

	w = env.do(http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Clients []models.Client `json:"clients"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)

	w = env.do(http.MethodGet, "/api/clients/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateClient_MissingName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/clients", map[string]string{"phone": "555"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClientByID_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/clients/cli-missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// An id equal to the list key suffix must not resolve to the cached list.
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/clients", nil).Code)
	w = env.do(http.MethodGet, "/api/clients/all", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetClients_ServedFromCache(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Create(&models.Client{ID: "cli-1", Name: "Ana"}).Error)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/clients", nil).Code)

	// Written behind the service's back, so the memoized list must not see it.
	require.NoError(t, env.db.Create(&models.Client{ID: "cli-2", Name: "Bruno"}).Error)
	w := env.do(http.MethodGet, "/api/clients", nil)
	require.Contains(t, w.Body.String(), `"count":1`)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/cache/clear", nil).Code)
	w = env.do(http.MethodGet, "/api/clients", nil)
	require.Contains(t, w.Body.String(), `"count":2`)
}

func TestMovements_CreateAndFilter(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Client{ID: "cli-1", Name: "Ana"}).Error)

	for _, p := range []map[string]any{
		{"clientId": "cli-1", "type": "purchase", "currency": "usd", "amount": 100, "rate": 1.1, "occurredAt": "2025-03-01"},
		{"clientId": "cli-1", "type": "sale", "currency": "EUR", "amount": 50, "rate": 1.07, "occurredAt": "2025-03-02"},
		{"clientId": "cli-1", "type": "sale", "currency": "USD", "amount": 75, "rate": 1.12, "occurredAt": "2025-03-05"},
	} {
		w := env.do(http.MethodPost, "/api/movements", p)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var resp struct {
		Movements []models.Movement `json:"movements"`
		Count     int               `json:"count"`
	}

	w := env.do(http.MethodGet, "/api/movements?type=sale", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	w = env.do(http.MethodGet, "/api/movements?clientId=cli-1&currency=usd&from=2025-03-01&to=2025-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "USD", resp.Movements[0].Currency)
}

func TestCreateMovement_Invalid(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/movements", map[string]any{
		"clientId": "cli-unknown", "type": "purchase", "currency": "USD", "amount": 10, "rate": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unknown client")

	w = env.do(http.MethodPost, "/api/movements", map[string]any{"clientId": "cli-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMovements_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/movements?type=swap", nil).Code)
	require.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/movements?from=yesterday", nil).Code)
}

func TestCacheAdmin(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.cache.Set("short", 1, 0))
	require.NoError(t, env.cache.Set("long", 2, time.Hour))

	w := env.do(http.MethodPost, "/api/cache/clear-expired", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"removed":1}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.Entries)
	require.Equal(t, 50, stats.MaxEntries)

	w = env.do(http.MethodPost, "/api/cache/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"removed":1`)
	require.Equal(t, 0, env.cache.Len())
}

func TestWebSocket_ReceivesEvents(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	w := env.do(http.MethodPost, "/api/clients", map[string]string{"name": "Ana"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt realtime.Event
	require.NoError(t, json.Unmarshal(msg, &evt))
	require.Equal(t, realtime.EventClientCreated, evt.Type)
}

func TestParseDateFlexible(t *testing.T) {
	start, ok := parseDateFlexible("2025-10-30", false)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC), start)

	end, ok := parseDateFlexible("30 Oct 2025", true)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 10, 30, 23, 59, 59, 999999999, time.UTC), end)

	exact, ok := parseDateFlexible("2025-10-30T15:04:05Z", true)
	require.True(t, ok)
	require.Equal(t, 15, exact.Hour())

	_, ok = parseDateFlexible("someday", false)
	require.False(t, ok)
}
