// ABOUTME: Core data types for the Hassle chat client: messages, sessions, personas
// ABOUTME: Defines roles, agent types, id generation, and the title derivation rule

package chat

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AgentType identifies the persona currently owning a conversation.
// The empty value means no persona has been established yet.
type AgentType string

const (
	AgentNone              AgentType = ""
	AgentPropertyDetective AgentType = "property-detective"
	AgentTenancyAdvisor    AgentType = "tenancy-advisor"
)

// Valid reports whether t is one of the known agent types (or none).
func (t AgentType) Valid() bool {
	switch t {
	case AgentNone, AgentPropertyDetective, AgentTenancyAdvisor:
		return true
	}
	return false
}

const (
	// PlaceholderTitle is the title of a freshly created session. The first
	// user message replaces it; a user rename freezes it permanently.
	PlaceholderTitle = "New Conversation"

	// WelcomeText seeds every new session as a system message.
	WelcomeText = "Welcome to Hassle! How can I assist you with your property needs today?"

	// titleLimit is the maximum rune length of an auto-derived title.
	titleLimit = 30
)

// Message is a single entry in a session's transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	// Agent is the display name of the responding persona. Set only on
	// assistant messages once the router has committed to a persona.
	Agent string
	// HasImage marks messages that carried an image attachment.
	// ImagePreview is the attachment cache id; it does not survive a
	// process restart, so a stale id simply renders as expired.
	HasImage     bool
	ImagePreview string
}

// Session is one conversation thread.
type Session struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	LastUpdated time.Time
	Messages    []Message
	AgentType   AgentType
}

// Clone returns a deep copy so callers can never mutate repository state.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// idSeq disambiguates ids generated within the same millisecond.
var idSeq atomic.Uint64

// NewMessageID generates a role-prefixed, monotonic-enough message id,
// e.g. "user-1724850000123-17".
func NewMessageID(role Role, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", role, now.UnixMilli(), idSeq.Add(1))
}

// NewSessionID generates a session id, e.g. "session-1724850000123-18".
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session-%d-%d", now.UnixMilli(), idSeq.Add(1))
}

// DeriveTitle produces a session title from the first user message:
// the text truncated to 30 runes, with an ellipsis when truncated.
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit]) + "..."
}

// NewWelcomeMessage seeds a fresh session's transcript.
func NewWelcomeMessage(now time.Time) Message {
	return Message{
		ID:        NewMessageID(RoleSystem, now),
		Role:      RoleSystem,
		Content:   WelcomeText,
		Timestamp: now,
	}
}
