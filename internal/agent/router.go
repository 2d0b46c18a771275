// ABOUTME: Keyword-triggered routing of user messages to response personas
// ABOUTME: Pure function - stateful only through the caller-supplied previous assignment

package agent

import (
	"strings"

	"github.com/hassle-hq/hassle-chat/internal/chat"
)

// Keyword triggers, matched against the lower-cased message text.
var (
	detectiveKeywords = []string{"issue", "problem"}
	tenancyKeywords   = []string{"rent", "lease", "tenant"}
)

// Route decides which persona answers a message.
//
// An attached image, or detective keywords in the text, always routes to the
// property detective. Tenancy keywords route to the tenancy advisor. With no
// keyword match the previous assignment sticks; if there is none, Route
// declines (AgentNone) and the caller presents a clarifying prompt instead
// of a persona response.
//
// Stickiness is deliberate: once a persona is established it is never
// overridden except by an explicit keyword match, so a conversation does not
// oscillate between personas on neutral follow-ups.
func Route(previous chat.AgentType, text string, hasImage bool) chat.AgentType {
	lower := strings.ToLower(text)

	if hasImage || containsAny(lower, detectiveKeywords) {
		return chat.AgentPropertyDetective
	}
	if containsAny(lower, tenancyKeywords) {
		return chat.AgentTenancyAdvisor
	}
	return previous
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
