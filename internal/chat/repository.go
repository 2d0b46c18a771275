// ABOUTME: Repository is the single owner of the session collection
// ABOUTME: All mutations are serialized, persisted best-effort, and broadcast to the UI

package chat

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// StatePersister is what the repository needs from durable storage.
// Load reports ok=false when no usable prior state exists; it never fails.
// Save is best-effort: the repository logs failures and carries on, because
// in-memory state is authoritative for the lifetime of the process.
type StatePersister interface {
	Load() (sessions []*Session, activeID string, ok bool)
	Save(sessions []*Session, activeID string) error
}

// Repository owns the session collection. It is the only writer: every
// mutation takes the lock, recomputes derived fields, persists the full
// snapshot, and publishes an event for the presentation layer.
//
// Invariant: at least one session always exists, and the active id always
// references an existing session. Deleting the last session immediately
// re-creates a fresh default one.
type Repository struct {
	mu       sync.Mutex
	sessions []*Session // insertion order
	index    map[string]*Session
	activeID string

	state  StatePersister
	events *EventBroadcaster
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository restores prior state from the persister, or seeds a single
// default session when no usable state exists. The persister and broadcaster
// may be nil (tests, ephemeral mode).
func NewRepository(state StatePersister, events *EventBroadcaster, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		index:  make(map[string]*Session),
		state:  state,
		events: events,
		logger: logger.With("component", "repository"),
		now:    time.Now,
	}

	if state != nil {
		if sessions, activeID, ok := state.Load(); ok && len(sessions) > 0 {
			for _, s := range sessions {
				if s == nil || s.ID == "" {
					continue
				}
				if _, dup := r.index[s.ID]; dup {
					continue
				}
				r.sessions = append(r.sessions, s)
				r.index[s.ID] = s
			}
			if _, exists := r.index[activeID]; exists {
				r.activeID = activeID
			} else if len(r.sessions) > 0 {
				// Stale pointer: fall back to the most recently updated session.
				r.activeID = r.mostRecentLocked().ID
			}
			r.logger.Info("state restored",
				"sessions", len(r.sessions),
				"active_session", r.activeID)
		}
	}

	if len(r.sessions) == 0 {
		s := r.newSessionLocked()
		r.persistLocked()
		r.publish(Event{Type: EventSessionCreated, SessionID: s.ID, Time: s.CreatedAt})
	}

	return r
}

// Create allocates a new session seeded with the welcome message, makes it
// active, and returns a copy.
func (r *Repository) Create() *Session {
	r.mu.Lock()
	s := r.newSessionLocked()
	r.persistLocked()
	clone := s.Clone()
	r.mu.Unlock()

	r.publish(Event{Type: EventSessionCreated, SessionID: clone.ID, Time: clone.CreatedAt})
	return clone
}

// newSessionLocked builds a default session and makes it active.
func (r *Repository) newSessionLocked() *Session {
	now := r.now()
	s := &Session{
		ID:          NewSessionID(now),
		Title:       PlaceholderTitle,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []Message{NewWelcomeMessage(now)},
		AgentType:   AgentNone,
	}
	r.sessions = append(r.sessions, s)
	r.index[s.ID] = s
	r.activeID = s.ID
	return s
}

// Delete removes a session. Unknown ids are a no-op. If the deleted session
// was active, the session with the greatest LastUpdated is re-elected
// (insertion order breaks ties). Deleting the last session re-creates a
// fresh default session so the collection is never empty.
func (r *Repository) Delete(id string) {
	r.mu.Lock()
	if _, exists := r.index[id]; !exists {
		r.mu.Unlock()
		return
	}

	delete(r.index, id)
	for i, s := range r.sessions {
		if s.ID == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			break
		}
	}

	var created *Session
	if r.activeID == id {
		if len(r.sessions) > 0 {
			r.activeID = r.mostRecentLocked().ID
		} else {
			created = r.newSessionLocked()
		}
	}
	r.persistLocked()
	now := r.now()
	r.mu.Unlock()

	r.publish(Event{Type: EventSessionDeleted, SessionID: id, Time: now})
	if created != nil {
		r.publish(Event{Type: EventSessionCreated, SessionID: created.ID, Time: created.CreatedAt})
	}
}

// mostRecentLocked returns the session with the maximum LastUpdated,
// preferring earlier insertion order on ties. Callers guarantee at least
// one session exists.
func (r *Repository) mostRecentLocked() *Session {
	best := r.sessions[0]
	for _, s := range r.sessions[1:] {
		if s.LastUpdated.After(best.LastUpdated) {
			best = s
		}
	}
	return best
}

// Rename sets a session's title and bumps LastUpdated. Empty titles (after
// trimming) and unknown ids are no-ops. A rename freezes title
// auto-derivation because the title is no longer the placeholder.
func (r *Repository) Rename(id, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}

	r.mu.Lock()
	s, exists := r.index[id]
	if !exists {
		r.mu.Unlock()
		return
	}
	s.Title = title
	s.LastUpdated = r.now()
	r.persistLocked()
	when := s.LastUpdated
	r.mu.Unlock()

	r.publish(Event{Type: EventSessionRenamed, SessionID: id, Time: when})
}

// Select makes a session active and durably persists the pointer so it
// survives a reload. Unknown ids are a no-op.
func (r *Repository) Select(id string) {
	r.mu.Lock()
	if _, exists := r.index[id]; !exists {
		r.mu.Unlock()
		return
	}
	r.activeID = id
	r.persistLocked()
	now := r.now()
	r.mu.Unlock()

	r.publish(Event{Type: EventSessionSelected, SessionID: id, Time: now})
}

// Append adds a message to the tail of a session's transcript and bumps
// LastUpdated. The first user message with non-empty content, arriving while
// the title is still the placeholder, derives the title. Unknown session ids
// are a no-op.
func (r *Repository) Append(sessionID string, msg Message) {
	r.mu.Lock()
	s, exists := r.index[sessionID]
	if !exists {
		r.mu.Unlock()
		r.logger.Warn("append to unknown session", "session_id", sessionID)
		return
	}

	now := r.now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	if msg.ID == "" {
		msg.ID = NewMessageID(msg.Role, msg.Timestamp)
	}
	s.Messages = append(s.Messages, msg)
	if msg.Role == RoleUser && s.Title == PlaceholderTitle {
		if derived := DeriveTitle(msg.Content); derived != "" {
			s.Title = derived
		}
	}
	s.LastUpdated = now
	r.persistLocked()
	r.mu.Unlock()

	r.publish(Event{Type: EventMessageAppended, SessionID: sessionID, MessageID: msg.ID, Time: now})
}

// SetAgent records the persona owning a session. It does not bump
// LastUpdated: persona assignment always accompanies a message append.
// Unknown ids and AgentNone are no-ops.
func (r *Repository) SetAgent(sessionID string, agent AgentType) {
	if agent == AgentNone || !agent.Valid() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.index[sessionID]
	if !exists {
		return
	}
	s.AgentType = agent
	r.persistLocked()
}

// Session returns a copy of the session with the given id.
func (r *Repository) Session(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.index[id]
	if !exists {
		return nil, false
	}
	return s.Clone(), true
}

// Sessions returns copies of all sessions in insertion order.
func (r *Repository) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s.Clone()
	}
	return out
}

// ActiveID returns the id of the active session.
func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Active returns a copy of the active session.
func (r *Repository) Active() (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.index[r.activeID]
	if !exists {
		return nil, false
	}
	return s.Clone(), true
}

// persistLocked writes the full snapshot through the persister. Storage
// failures are logged and swallowed: the in-memory state stays authoritative.
func (r *Repository) persistLocked() {
	if r.state == nil {
		return
	}
	snapshot := make([]*Session, len(r.sessions))
	for i, s := range r.sessions {
		snapshot[i] = s.Clone()
	}
	if err := r.state.Save(snapshot, r.activeID); err != nil {
		r.logger.Error("failed to persist state",
			"error", err,
			"sessions", len(snapshot))
	}
}

func (r *Repository) publish(ev Event) {
	if r.events != nil {
		r.events.Publish(ev)
	}
}
