package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func keyedRequest(path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestIdempotencyIgnoresUnlistedRoutesAndMissingKeys(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/notifications/read-all", "k", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/notifications/read-all", "k", `{}`))

	require.Equal(t, 4, calls)
	require.Empty(t, store.data)
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"lot":"L1"}}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, keyedRequest("/api/v1/inventory/items", "abc", `{"lot":"L1"}`))
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	h.ServeHTTP(replay, keyedRequest("/api/v1/inventory/items", "abc", `{"lot":"L1"}`))
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.JSONEq(t, `{"data":{"lot":"L1"}}`, replay.Body.String())
	require.Equal(t, 1, calls)
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newMemoryStore()
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "xyz", `{"title":"a"}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, keyedRequest("/api/v1/alerts", "xyz", `{"title":"b"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec))
}

func TestIdempotencyRejectsRequestRacingPendingOne(t *testing.T) {
	store := newMemoryStore()
	var inner http.Handler
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A duplicate arrives while this request is still running.
		rec := httptest.NewRecorder()
		inner.ServeHTTP(rec, keyedRequest("/api/v1/alerts", "dup", `{"title":"a"}`))
		w.Header().Set("X-Inner-Status", http.StatusText(rec.Code))
		w.WriteHeader(http.StatusCreated)
	}))
	inner = h

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, keyedRequest("/api/v1/alerts", "dup", `{"title":"a"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, http.StatusText(http.StatusConflict), rec.Header().Get("X-Inner-Status"))
}

func TestIdempotencyReleasesKeyAfterServerError(t *testing.T) {
	store := newMemoryStore()
	status := http.StatusServiceUnavailable
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "retry", `{}`))
	require.Empty(t, store.data)

	status = http.StatusCreated
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, keyedRequest("/api/v1/alerts", "retry", `{}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, calls)
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := keyedRequest("/api/v1/alerts", "same", `{}`)
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: uuid.New()}))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 2, calls)
}

func TestIdempotencyRejectsOversizedKey(t *testing.T) {
	h := Idempotency(newMemoryStore(), nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, keyedRequest("/api/v1/alerts", strings.Repeat("k", 256), `{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotencyWithoutStorePassesThrough(t *testing.T) {
	calls := 0
	h := Idempotency(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "k", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest("/api/v1/alerts", "k", `{}`))
	require.Equal(t, 2, calls)
}
