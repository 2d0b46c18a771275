// ABOUTME: StateStore serializes the session collection against the KV store
// ABOUTME: Two independent keys (sessions, active pointer) with a restore that never fails upward

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hassle-hq/hassle-chat/internal/chat"
	"github.com/hassle-hq/hassle-chat/internal/timefmt"
)

const (
	// KeySessions holds the JSON-serialized session collection.
	KeySessions = "chat.sessions"
	// KeyActiveSession holds the active session id. Kept separate from the
	// session collection so a partial write leaves at most the pointer
	// stale, never the collection corrupted relative to itself.
	KeyActiveSession = "chat.active_session"

	// storeTimeout bounds each KV round trip.
	storeTimeout = 5 * time.Second
)

// storedMessage is the durable wire shape of a chat.Message. Timestamps
// travel as RFC 3339 strings for forward compatibility with older payloads.
type storedMessage struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	Timestamp    string `json:"timestamp,omitempty"`
	Agent        string `json:"agent,omitempty"`
	HasImage     bool   `json:"hasImage,omitempty"`
	ImagePreview string `json:"imagePreview,omitempty"`
}

// storedSession is the durable wire shape of a chat.Session.
type storedSession struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	LastUpdated string          `json:"lastUpdated,omitempty"`
	Messages    []storedMessage `json:"messages"`
	AgentType   string          `json:"agentType,omitempty"`
}

// StateStore adapts the KV store into the repository's StatePersister.
type StateStore struct {
	kv     KV
	logger *slog.Logger
}

// NewStateStore creates a StateStore over the given KV. Pass nil logger
// for default.
func NewStateStore(kv KV, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{
		kv:     kv,
		logger: logger.With("component", "state_store"),
	}
}

// Load restores the session collection and active pointer. It never fails
// upward: missing keys, malformed JSON, or shape mismatches all report
// ok=false so the caller falls back to a fresh default session.
func (s *StateStore) Load() ([]*chat.Session, string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	raw, err := s.kv.Get(ctx, KeySessions)
	if err == ErrNotFound {
		return nil, "", false
	}
	if err != nil {
		s.logger.Error("failed to read stored sessions", "error", err)
		return nil, "", false
	}

	var stored []storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("stored sessions are malformed, starting fresh", "error", err)
		return nil, "", false
	}
	if len(stored) == 0 {
		return nil, "", false
	}

	sessions := make([]*chat.Session, 0, len(stored))
	for _, ss := range stored {
		if ss.ID == "" {
			continue
		}
		sessions = append(sessions, decodeSession(ss))
	}
	if len(sessions) == 0 {
		return nil, "", false
	}

	activeID := ""
	if rawID, err := s.kv.Get(ctx, KeyActiveSession); err == nil {
		activeID = string(rawID)
	} else if err != ErrNotFound {
		s.logger.Warn("failed to read active session pointer", "error", err)
	}

	return sessions, activeID, true
}

// Save writes the session collection and the active pointer as two
// independent keys. Collection first: if that write fails the pointer is
// left untouched, so the stored state stays self-consistent.
func (s *StateStore) Save(sessions []*chat.Session, activeID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	stored := make([]storedSession, len(sessions))
	for i, sess := range sessions {
		stored[i] = encodeSession(sess)
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	if err := s.kv.Put(ctx, KeySessions, raw); err != nil {
		return fmt.Errorf("writing sessions: %w", err)
	}
	if err := s.kv.Put(ctx, KeyActiveSession, []byte(activeID)); err != nil {
		return fmt.Errorf("writing active session pointer: %w", err)
	}
	return nil
}

func encodeSession(sess *chat.Session) storedSession {
	msgs := make([]storedMessage, len(sess.Messages))
	for i, m := range sess.Messages {
		msgs[i] = storedMessage{
			ID:           m.ID,
			Role:         string(m.Role),
			Content:      m.Content,
			Timestamp:    m.Timestamp.Format(time.RFC3339Nano),
			Agent:        m.Agent,
			HasImage:     m.HasImage,
			ImagePreview: m.ImagePreview,
		}
	}
	return storedSession{
		ID:          sess.ID,
		Title:       sess.Title,
		CreatedAt:   sess.CreatedAt.Format(time.RFC3339Nano),
		LastUpdated: sess.LastUpdated.Format(time.RFC3339Nano),
		Messages:    msgs,
		AgentType:   string(sess.AgentType),
	}
}

func decodeSession(ss storedSession) *chat.Session {
	createdAt := timefmt.Coerce(ss.CreatedAt, time.Now())
	// Older payloads predate the lastUpdated field; fall back to createdAt.
	lastUpdated := timefmt.Coerce(ss.LastUpdated, createdAt)

	msgs := make([]chat.Message, 0, len(ss.Messages))
	for _, m := range ss.Messages {
		msgs = append(msgs, chat.Message{
			ID:           m.ID,
			Role:         chat.Role(m.Role),
			Content:      m.Content,
			Timestamp:    timefmt.Coerce(m.Timestamp, createdAt),
			Agent:        m.Agent,
			HasImage:     m.HasImage,
			ImagePreview: m.ImagePreview,
		})
	}

	agent := chat.AgentType(ss.AgentType)
	if !agent.Valid() {
		agent = chat.AgentNone
	}

	title := ss.Title
	if title == "" {
		title = chat.PlaceholderTitle
	}

	return &chat.Session{
		ID:          ss.ID,
		Title:       title,
		CreatedAt:   createdAt,
		LastUpdated: lastUpdated,
		Messages:    msgs,
		AgentType:   agent,
	}
}
