// ABOUTME: LocalResponder - offline Exchanger synthesizing persona replies
// ABOUTME: Used when no upstream is configured, with a timer-based thinking delay

package dispatch

import (
	"context"
	"time"

	"github.com/hassle-hq/hassle-chat/internal/agent"
	"github.com/hassle-hq/hassle-chat/internal/chat"
)

// LocalResponder answers without a backend: it routes the message with the
// agent router and replies with the matched persona's canned text, or the
// clarifying prompt when no persona can be committed.
type LocalResponder struct {
	// Delay simulates backend thinking time before each reply.
	Delay time.Duration
}

// Exchange synthesizes a reply. The delay honors ctx cancellation.
func (l *LocalResponder) Exchange(ctx context.Context, req *Request) (*Reply, error) {
	if l.Delay > 0 {
		select {
		case <-time.After(l.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// A keyword match (or image) re-introduces the matched persona even if
	// it is already established.
	matched := agent.Route(chat.AgentNone, req.Prompt, len(req.Image) > 0)
	switch {
	case matched != chat.AgentNone:
		p, _ := agent.Lookup(matched)
		return &Reply{Response: p.Intro, Agent: p.Name}, nil
	case req.Previous == chat.AgentNone:
		return &Reply{Response: agent.ClarifyPrompt}, nil
	default:
		p, _ := agent.Lookup(req.Previous)
		return &Reply{Response: p.Continuation, Agent: p.Name}, nil
	}
}
