package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRelaySend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL)
	relay.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, relay.Send(context.Background(), "order.created", map[string]any{"id": 7}))
	assert.Equal(t, "order.created", got["event"])
	assert.Equal(t, "nexus-techhub", got["source"])
	assert.Equal(t, "2025-01-02T03:04:05Z", got["timestamp"])
	assert.Equal(t, float64(7), got["data"].(map[string]any)["id"])
}

func TestHTTPRelayUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPRelay(srv.URL).Send(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPRelayNotConfigured(t *testing.T) {
	relay := NewHTTPRelay("")
	assert.False(t, relay.Configured())
	assert.ErrorIs(t, relay.Send(context.Background(), "x", nil), ErrNotConfigured)
}
