// ABOUTME: JSON HTTP API exposing the session operations to presentation code
// ABOUTME: Session list, create/delete/rename/select, send-message, pending flags, SSE events

package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hassle-hq/hassle-chat/internal/attachment"
	"github.com/hassle-hq/hassle-chat/internal/chat"
	"github.com/hassle-hq/hassle-chat/internal/dispatch"
	"github.com/hassle-hq/hassle-chat/internal/timefmt"
)

// maxUploadBytes caps the multipart form we are willing to parse.
const maxUploadBytes = 10 << 20

// API wires the chat core to HTTP. It holds no state of its own - every
// request reads through the repository and dispatcher.
type API struct {
	repo        *chat.Repository
	dispatcher  *dispatch.Dispatcher
	attachments *attachment.Cache
	events      *chat.EventBroadcaster
	logger      *slog.Logger
}

// New creates the API. The attachment cache and broadcaster may be nil.
func New(repo *chat.Repository, dispatcher *dispatch.Dispatcher, attachments *attachment.Cache, events *chat.EventBroadcaster, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		repo:        repo,
		dispatcher:  dispatcher,
		attachments: attachments,
		events:      events,
		logger:      logger.With("component", "web"),
	}
}

// Routes registers all endpoints on the given mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", a.handleListSessions)
	mux.HandleFunc("POST /api/sessions", a.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", a.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", a.handleDeleteSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", a.handleRenameSession)
	mux.HandleFunc("PUT /api/sessions/{id}/select", a.handleSelectSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", a.handleSendMessage)
	mux.HandleFunc("GET /api/attachments/{id}", a.handleGetAttachment)
	mux.HandleFunc("GET /api/events", a.handleEvents)
	mux.HandleFunc("GET /healthz", a.handleHealth)
}

// messageView is the wire shape of a message.
type messageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"time"`
	Agent     string    `json:"agent,omitempty"`
	HasImage  bool      `json:"hasImage,omitempty"`
	// ImagePreview is the attachment id; ImageExpired is set when the
	// attachment no longer resolves (it never survives a restart).
	ImagePreview string `json:"imagePreview,omitempty"`
	ImageExpired bool   `json:"imageExpired,omitempty"`
}

// sessionView is the wire shape of a session. Messages are included only by
// the single-session endpoint.
type sessionView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	CreatedAt   time.Time     `json:"createdAt"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Age         string        `json:"age"`
	AgentType   string        `json:"agentType,omitempty"`
	Pending     bool          `json:"pending"`
	Messages    []messageView `json:"messages,omitempty"`
	Count       int           `json:"messageCount"`
}

// sessionListView is the wire shape of the sidebar.
type sessionListView struct {
	Sessions        []sessionView `json:"sessions"`
	ActiveSessionID string        `json:"activeSessionId"`
}

func (a *API) sessionToView(s *chat.Session, withMessages bool) sessionView {
	v := sessionView{
		ID:          s.ID,
		Title:       s.Title,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
		Age:         timefmt.DistanceToNow(s.CreatedAt),
		AgentType:   string(s.AgentType),
		Pending:     a.dispatcher != nil && a.dispatcher.Pending(s.ID),
		Count:       len(s.Messages),
	}
	if withMessages {
		v.Messages = make([]messageView, len(s.Messages))
		for i, m := range s.Messages {
			v.Messages[i] = a.messageToView(m)
		}
	}
	return v
}

func (a *API) messageToView(m chat.Message) messageView {
	v := messageView{
		ID:           m.ID,
		Role:         string(m.Role),
		Content:      m.Content,
		Timestamp:    m.Timestamp,
		Time:         timefmt.Clock(m.Timestamp),
		Agent:        m.Agent,
		HasImage:     m.HasImage,
		ImagePreview: m.ImagePreview,
	}
	if m.Role == chat.RoleAssistant {
		v.HTML = renderMarkdown(m.Content, a.logger)
	}
	if m.HasImage {
		expired := true
		if a.attachments != nil && m.ImagePreview != "" {
			_, _, ok := a.attachments.Get(m.ImagePreview)
			expired = !ok
		}
		v.ImageExpired = expired
	}
	return v
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := a.repo.Sessions()
	view := sessionListView{
		Sessions:        make([]sessionView, len(sessions)),
		ActiveSessionID: a.repo.ActiveID(),
	}
	for i, s := range sessions {
		view.Sessions[i] = a.sessionToView(s, false)
	}
	a.writeJSON(w, http.StatusOK, view)
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := a.repo.Create()
	a.writeJSON(w, http.StatusCreated, a.sessionToView(s, true))
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.repo.Session(r.PathValue("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, a.sessionToView(s, true))
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	a.repo.Delete(r.PathValue("id"))
	// The repository guarantees an active session remains; return the new
	// state so the sidebar can re-render without a second round trip.
	a.handleListSessions(w, r)
}

func (a *API) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	a.repo.Rename(id, body.Title)

	s, ok := a.repo.Session(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, a.sessionToView(s, false))
}

func (a *API) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := a.repo.Session(id); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	a.repo.Select(id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	prompt, image, imageName, err := parseSendForm(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	outcome, err := a.dispatcher.Send(r.Context(), id, prompt, image, imageName)
	switch {
	case errors.Is(err, dispatch.ErrUnknownSession):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, dispatch.ErrEmptyMessage):
		http.Error(w, "nothing to send", http.StatusBadRequest)
		return
	case err != nil:
		a.logger.Error("send failed", "session_id", id, "error", err)
		http.Error(w, "send failed", http.StatusInternalServerError)
		return
	}

	a.writeJSON(w, http.StatusOK, struct {
		State   string      `json:"state"`
		Message messageView `json:"message"`
	}{
		State:   outcome.State.String(),
		Message: a.messageToView(outcome.Reply),
	})
}

// parseSendForm reads the multipart send request: a "prompt" field and an
// optional "file" image part.
func parseSendForm(r *http.Request) (prompt string, image []byte, imageName string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, "", err
	}
	prompt = r.FormValue("prompt")

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return prompt, nil, "", nil
	}
	if err != nil {
		return "", nil, "", err
	}
	defer file.Close()

	image, err = io.ReadAll(file)
	if err != nil {
		return "", nil, "", err
	}
	return prompt, image, header.Filename, nil
}

func (a *API) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	if a.attachments == nil {
		http.Error(w, "attachment not found", http.StatusNotFound)
		return
	}
	data, name, ok := a.attachments.Get(r.PathValue("id"))
	if !ok {
		// Attachments are ephemeral; after a restart stale ids land here.
		http.Error(w, "attachment not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	if name != "" {
		w.Header().Set("Content-Disposition", "inline; filename="+name)
	}
	w.Write(data)
}

// handleEvents streams repository events as server-sent events so the front
// end re-renders on every mutation.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		http.Error(w, "events unavailable", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch, subID := a.events.Subscribe(r.Context())
	a.logger.Debug("event stream opened", "sub_id", subID)

	enc := json.NewEncoder(w)
	for ev := range ch {
		if _, err := io.WriteString(w, "data: "); err != nil {
			return
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}
