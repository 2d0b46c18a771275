// ABOUTME: Same-origin proxy to the upstream chat backend, avoiding CORS in the browser client
// ABOUTME: Forwards the multipart body verbatim and relays status/body, adding no protocol semantics

package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Handler forwards chat requests to the upstream backend. It introduces no
// additional protocol semantics: the multipart body and Content-Type go
// upstream unchanged, and the upstream's status and body come back verbatim.
type Handler struct {
	upstream string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a proxy handler for the given upstream URL. A zero timeout
// disables the client timeout. Pass nil logger for default.
func New(upstream string, timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		upstream: upstream,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("component", "proxy"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.upstream, r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	req.Header.Set("Content-Type", r.Header.Get("Content-Type"))

	resp, err := h.client.Do(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("relaying upstream body failed", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("proxy error", "error", err, "upstream", h.upstream)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Failed to communicate with the backend server",
	})
}
