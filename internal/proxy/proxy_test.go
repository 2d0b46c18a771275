// ABOUTME: Tests for the upstream chat proxy
// ABOUTME: Verifies verbatim relay, error mapping, and method restriction

package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_RelaysUpstreamResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "multipart/form-data; boundary=xyz", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "raw-form-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"response":"hi","agent":"Tenancy Advisor"}`))
	}))
	defer upstream.Close()

	h := New(upstream.URL, time.Second, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader("raw-form-bytes"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"response":"hi","agent":"Tenancy Advisor"}`, rec.Body.String())
}

func TestProxy_RelaysUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := New(upstream.URL, time.Second, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend exploded")
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	// Grab a port that nothing listens on.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	h := New(deadURL, 100*time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to communicate with the backend server", body["error"])
}

func TestProxy_RejectsNonPost(t *testing.T) {
	h := New("http://127.0.0.1:0", time.Second, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/proxy", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
