// ABOUTME: Dispatcher runs one request/response cycle with the backend per user message
// ABOUTME: Optimistic user append first, then the exchange - record first, then act

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hassle-hq/hassle-chat/internal/agent"
	"github.com/hassle-hq/hassle-chat/internal/attachment"
	"github.com/hassle-hq/hassle-chat/internal/chat"
)

// FailureText is appended as a system message when the exchange fails.
const FailureText = "There was a problem reaching the assistant. Please try again."

// ErrUnknownSession is returned when dispatching to a session id that does
// not exist.
var ErrUnknownSession = errors.New("unknown session")

// ErrEmptyMessage is returned when there is neither text nor an image to send.
var ErrEmptyMessage = errors.New("empty message")

// State tracks one dispatch through its lifecycle.
// Idle -> Pending -> {Delivered, Failed}; both outcomes are terminal.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDelivered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Request is one outbound exchange with the backend.
type Request struct {
	Prompt string
	Image  []byte
	// ImageName is the uploaded file's name, used for the multipart part.
	ImageName string
	// Previous is the session's persona assignment at send time. The HTTP
	// backend ignores it; the local responder routes with it.
	Previous chat.AgentType
}

// Reply is the backend's answer, with fallbacks already applied by the
// Exchanger. An empty Agent means no persona committed (clarifying prompt).
type Reply struct {
	Response string
	Agent    string
}

// Exchanger performs the actual exchange with the backend.
type Exchanger interface {
	Exchange(ctx context.Context, req *Request) (*Reply, error)
}

// SessionWriter is what the dispatcher needs from the session repository.
type SessionWriter interface {
	Session(id string) (*chat.Session, bool)
	Append(sessionID string, msg chat.Message)
	SetAgent(sessionID string, agent chat.AgentType)
}

// Outcome is the terminal result of one Send.
type Outcome struct {
	State State
	// Reply is the message appended to the session: the assistant reply on
	// Delivered, the system failure message on Failed.
	Reply chat.Message
}

// Dispatcher sends user messages to the backend and reconciles the reply
// (or failure) into the session repository. Results always target the
// session id captured at send time, so a reply lands in the session it was
// sent from even if the user has navigated elsewhere.
type Dispatcher struct {
	repo        SessionWriter
	exchanger   Exchanger
	attachments *attachment.Cache
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[string]int // sessionID -> outstanding dispatches
}

// New creates a Dispatcher. The attachment cache may be nil when image
// staging is not needed (tests). Pass nil logger for default.
func New(repo SessionWriter, exchanger Exchanger, attachments *attachment.Cache, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		repo:        repo,
		exchanger:   exchanger,
		attachments: attachments,
		logger:      logger.With("component", "dispatch"),
		inflight:    make(map[string]int),
	}
}

// Pending reports whether a dispatch is in flight for the session. True
// exactly while a Send for that session is between its optimistic append
// and its terminal outcome.
func (d *Dispatcher) Pending(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[sessionID] > 0
}

// Send runs one dispatch: append the user message optimistically, exchange
// with the backend, then append the reply (Delivered) or a system failure
// message (Failed). There is no automatic retry - a retry could duplicate
// messages.
func (d *Dispatcher) Send(ctx context.Context, sessionID, text string, image []byte, imageName string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(image) == 0 {
		return nil, ErrEmptyMessage
	}

	session, ok := d.repo.Session(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}

	hasImage := len(image) > 0
	now := time.Now()
	userMsg := chat.Message{
		ID:        chat.NewMessageID(chat.RoleUser, now),
		Role:      chat.RoleUser,
		Content:   text,
		Timestamp: now,
		HasImage:  hasImage,
	}
	if hasImage && d.attachments != nil {
		userMsg.ImagePreview = d.attachments.Put(image, imageName)
	}

	// The user sees their own message instantly, and it survives even if
	// the exchange fails.
	d.repo.Append(sessionID, userMsg)

	d.markPending(sessionID)
	defer d.clearPending(sessionID)

	routed := agent.Route(session.AgentType, text, hasImage)

	reply, err := d.exchanger.Exchange(ctx, &Request{
		Prompt:    text,
		Image:     image,
		ImageName: imageName,
		Previous:  session.AgentType,
	})
	if err != nil {
		d.logger.Warn("dispatch failed",
			"session_id", sessionID,
			"error", err)
		sysMsg := chat.Message{
			Role:      chat.RoleSystem,
			Content:   FailureText,
			Timestamp: time.Now(),
		}
		sysMsg.ID = chat.NewMessageID(chat.RoleSystem, sysMsg.Timestamp)
		d.repo.Append(sessionID, sysMsg)
		return &Outcome{State: StateFailed, Reply: sysMsg}, nil
	}

	replyMsg := chat.Message{
		Role:      chat.RoleAssistant,
		Content:   reply.Response,
		Timestamp: time.Now(),
		Agent:     reply.Agent,
	}
	replyMsg.ID = chat.NewMessageID(chat.RoleAssistant, replyMsg.Timestamp)
	d.repo.Append(sessionID, replyMsg)

	// Persona assignment is sticky once routed.
	if routed != chat.AgentNone {
		d.repo.SetAgent(sessionID, routed)
	}

	d.logger.Debug("dispatch delivered",
		"session_id", sessionID,
		"agent", reply.Agent)
	return &Outcome{State: StateDelivered, Reply: replyMsg}, nil
}

func (d *Dispatcher) markPending(sessionID string) {
	d.mu.Lock()
	d.inflight[sessionID]++
	d.mu.Unlock()
}

func (d *Dispatcher) clearPending(sessionID string) {
	d.mu.Lock()
	if d.inflight[sessionID] > 1 {
		d.inflight[sessionID]--
	} else {
		delete(d.inflight, sessionID)
	}
	d.mu.Unlock()
}
