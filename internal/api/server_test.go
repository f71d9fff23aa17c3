package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realchat/internal/registry"
	"realchat/pkg/types"
)

type fakeStore struct {
	messages  []types.ChatMessage
	recentErr error
}

func (s *fakeStore) Append(ctx context.Context, username, body string) (types.ChatMessage, error) {
	return types.ChatMessage{}, errors.New("not used")
}

func (s *fakeStore) Recent(ctx context.Context, limit int) ([]types.ChatMessage, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	if len(s.messages) > limit {
		return s.messages[len(s.messages)-limit:], nil
	}
	return s.messages, nil
}

func (s *fakeStore) Close() error { return nil }

func newTestServer(store *fakeStore) *Server {
	return NewServer(store, registry.New(), 50, []string{"*"})
}

func TestMessages_ReturnsRecentOldestFirst(t *testing.T) {
	now := time.Now().UTC()
	server := newTestServer(&fakeStore{messages: []types.ChatMessage{
		{ID: 1, Username: "alice", Message: "first", Timestamp: now.Add(-time.Minute)},
		{ID: 2, Username: "bob", Message: "second", Timestamp: now},
	}})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var messages []types.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "second", messages[1].Message)
}

func TestMessages_EmptyLogReturnsEmptyArray(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMessages_StoreFailure(t *testing.T) {
	server := newTestServer(&fakeStore{recentErr: errors.New("storage unavailable")})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch messages"}`, rec.Body.String())
}

func TestMessages_MethodNotAllowed(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["connections"])
}

func TestRoot_Liveness(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Chat server is running!"}`, rec.Body.String())
}

func TestRoot_UnknownPath(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS_AllowAll(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Origin", "http://example.com")
	server.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SpecificOrigins(t *testing.T) {
	server := NewServer(&fakeStore{}, registry.New(), 50, []string{"http://allowed.test"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Origin", "http://allowed.test")
	server.ServeHTTP(rec, req)
	assert.Equal(t, "http://allowed.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Origin", "http://other.test")
	server.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/messages", nil)
	req.Header.Set("Origin", "http://example.com")
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
