// ABOUTME: Tests for the keyword persona router
// ABOUTME: Documents keyword triggers, image routing, and sticky continuation

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hassle-hq/hassle-chat/internal/chat"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name     string
		previous chat.AgentType
		text     string
		hasImage bool
		want     chat.AgentType
	}{
		{"issue keyword routes to detective", chat.AgentNone, "I have a leak issue", false, chat.AgentPropertyDetective},
		{"problem keyword routes to detective", chat.AgentNone, "there's a PROBLEM with the roof", false, chat.AgentPropertyDetective},
		{"image routes to detective", chat.AgentNone, "look at this", true, chat.AgentPropertyDetective},
		{"rent keyword routes to advisor", chat.AgentNone, "what's my rent due date", false, chat.AgentTenancyAdvisor},
		{"lease keyword routes to advisor", chat.AgentNone, "can I break my LEASE early", false, chat.AgentTenancyAdvisor},
		{"tenant keyword routes to advisor", chat.AgentNone, "tenant rights question", false, chat.AgentTenancyAdvisor},
		{"no keywords and no previous declines", chat.AgentNone, "hello", false, chat.AgentNone},
		{"sticky continuation without keywords", chat.AgentTenancyAdvisor, "ok thanks", false, chat.AgentTenancyAdvisor},
		{"detective stays sticky too", chat.AgentPropertyDetective, "anything else?", false, chat.AgentPropertyDetective},
		{"image wins over tenancy keywords", chat.AgentTenancyAdvisor, "my lease", true, chat.AgentPropertyDetective},
		{"detective keywords win over tenancy keywords", chat.AgentNone, "an issue with my rent", false, chat.AgentPropertyDetective},
		{"keyword match switches an established persona", chat.AgentTenancyAdvisor, "actually there's a damp problem", false, chat.AgentPropertyDetective},
		{"matching is case-insensitive", chat.AgentNone, "ISSUE", false, chat.AgentPropertyDetective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.previous, tt.text, tt.hasImage))
		})
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup(chat.AgentPropertyDetective)
	assert.True(t, ok)
	assert.Equal(t, "Property Issue Detective", p.Name)
	assert.NotEmpty(t, p.Intro)
	assert.NotEmpty(t, p.Continuation)

	p, ok = Lookup(chat.AgentTenancyAdvisor)
	assert.True(t, ok)
	assert.Equal(t, "Tenancy Advisor", p.Name)

	_, ok = Lookup(chat.AgentNone)
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Tenancy Advisor", DisplayName(chat.AgentTenancyAdvisor))
	assert.Empty(t, DisplayName(chat.AgentNone))
}
