// ABOUTME: Persona registry - display names and canned replies for each agent type
// ABOUTME: Used by the local responder and anywhere a persona needs a label

package agent

import "github.com/hassle-hq/hassle-chat/internal/chat"

// Persona describes one responder identity.
type Persona struct {
	Type chat.AgentType
	// Name is the user-facing label attached to assistant messages.
	Name string
	// Intro is the reply sent when the persona is first established.
	Intro string
	// Continuation is the reply sent on neutral follow-ups once the
	// persona is sticky.
	Continuation string
}

// ClarifyPrompt is sent when the router declines to commit to a persona.
const ClarifyPrompt = "Thank you for your message. To better assist you, could you clarify if you're asking about a property issue (maintenance, repairs, etc.) or a tenancy question (lease, rights, etc.)?"

var personas = map[chat.AgentType]Persona{
	chat.AgentPropertyDetective: {
		Type:         chat.AgentPropertyDetective,
		Name:         "Property Issue Detective",
		Intro:        "I'm the Property Issue Detective. I can help analyze property issues from your description and images. Could you provide more details about the problem you're experiencing?",
		Continuation: "I'll continue analyzing your property issue. Is there anything specific about the problem you'd like me to focus on?",
	},
	chat.AgentTenancyAdvisor: {
		Type:         chat.AgentTenancyAdvisor,
		Name:         "Tenancy Advisor",
		Intro:        "I'm the Tenancy Advisor. I can help with questions about your lease, tenant rights, and rental agreements. What specific information are you looking for?",
		Continuation: "I'll help with your tenancy question. Is there any specific aspect of your tenancy agreement you're concerned about?",
	},
}

// Lookup returns the persona for an agent type.
func Lookup(t chat.AgentType) (Persona, bool) {
	p, ok := personas[t]
	return p, ok
}

// DisplayName returns the user-facing label for an agent type, or "" when
// no persona is established.
func DisplayName(t chat.AgentType) string {
	if p, ok := personas[t]; ok {
		return p.Name
	}
	return ""
}
