// ABOUTME: Tests for the StateStore adapter
// ABOUTME: Tolerant restore, timestamp coercion, and two-key write semantics

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassle-hq/hassle-chat/internal/chat"
)

func testSessions() []*chat.Session {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []*chat.Session{
		{
			ID:          "session-1",
			Title:       "Boiler trouble",
			CreatedAt:   created,
			LastUpdated: created.Add(time.Hour),
			Messages: []chat.Message{
				{ID: "m1", Role: chat.RoleSystem, Content: chat.WelcomeText, Timestamp: created},
				{ID: "m2", Role: chat.RoleUser, Content: "My boiler has an issue", Timestamp: created.Add(time.Hour), HasImage: true, ImagePreview: "att-1"},
				{ID: "m3", Role: chat.RoleAssistant, Content: "Tell me more", Timestamp: created.Add(time.Hour), Agent: "Property Issue Detective"},
			},
			AgentType: chat.AgentPropertyDetective,
		},
		{
			ID:        "session-2",
			Title:     chat.PlaceholderTitle,
			CreatedAt: created.Add(2 * time.Hour),
			Messages: []chat.Message{
				{ID: "m4", Role: chat.RoleSystem, Content: chat.WelcomeText, Timestamp: created.Add(2 * time.Hour)},
			},
		},
	}
}

func TestStateStore_SaveLoadRoundTrip(t *testing.T) {
	kv := NewMockKV()
	ss := NewStateStore(kv, nil)

	require.NoError(t, ss.Save(testSessions(), "session-2"))

	sessions, activeID, ok := ss.Load()
	require.True(t, ok)
	assert.Equal(t, "session-2", activeID)
	require.Len(t, sessions, 2)

	first := sessions[0]
	assert.Equal(t, "Boiler trouble", first.Title)
	assert.Equal(t, chat.AgentPropertyDetective, first.AgentType)
	require.Len(t, first.Messages, 3)
	assert.Equal(t, chat.RoleUser, first.Messages[1].Role)
	assert.True(t, first.Messages[1].HasImage)
	assert.Equal(t, "att-1", first.Messages[1].ImagePreview)
	assert.Equal(t, "Property Issue Detective", first.Messages[2].Agent)
	assert.True(t, first.LastUpdated.Equal(first.CreatedAt.Add(time.Hour)))
}

func TestStateStore_LoadMissingState(t *testing.T) {
	ss := NewStateStore(NewMockKV(), nil)

	sessions, activeID, ok := ss.Load()
	assert.False(t, ok)
	assert.Nil(t, sessions)
	assert.Empty(t, activeID)
}

func TestStateStore_LoadTruncatedJSON(t *testing.T) {
	kv := NewMockKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(`[{"id":"session-1","title":"Bo`)))

	ss := NewStateStore(kv, nil)
	_, _, ok := ss.Load()
	assert.False(t, ok, "truncated JSON must read as no prior state, not crash")
}

func TestStateStore_LoadTypeMismatch(t *testing.T) {
	kv := NewMockKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(`{"not":"an array"}`)))

	ss := NewStateStore(kv, nil)
	_, _, ok := ss.Load()
	assert.False(t, ok)
}

func TestStateStore_LoadEmptyCollection(t *testing.T) {
	kv := NewMockKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(`[]`)))

	ss := NewStateStore(kv, nil)
	_, _, ok := ss.Load()
	assert.False(t, ok)
}

func TestStateStore_LastUpdatedDefaultsToCreatedAt(t *testing.T) {
	// Older stored shape: no lastUpdated field.
	kv := NewMockKV()
	ctx := context.Background()
	payload := `[{
		"id": "session-1",
		"title": "Old shape",
		"createdAt": "2025-06-01T10:00:00Z",
		"messages": [{"id": "m1", "role": "system", "content": "hi"}]
	}]`
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(payload)))

	ss := NewStateStore(kv, nil)
	sessions, _, ok := ss.Load()
	require.True(t, ok)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.True(t, s.LastUpdated.Equal(s.CreatedAt))
	// Message without a timestamp inherits the session's createdAt.
	assert.True(t, s.Messages[0].Timestamp.Equal(s.CreatedAt))
}

func TestStateStore_UnknownAgentTypeDropsToNone(t *testing.T) {
	kv := NewMockKV()
	ctx := context.Background()
	payload := `[{
		"id": "session-1",
		"title": "t",
		"createdAt": "2025-06-01T10:00:00Z",
		"agentType": "astrologer",
		"messages": []
	}]`
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(payload)))

	ss := NewStateStore(kv, nil)
	sessions, _, ok := ss.Load()
	require.True(t, ok)
	assert.Equal(t, chat.AgentNone, sessions[0].AgentType)
}

func TestStateStore_SessionsWithoutIDSkipped(t *testing.T) {
	kv := NewMockKV()
	ctx := context.Background()
	payload := `[{"title": "no id", "messages": []}, {"id": "ok", "title": "t", "messages": []}]`
	require.NoError(t, kv.Put(ctx, KeySessions, []byte(payload)))

	ss := NewStateStore(kv, nil)
	sessions, _, ok := ss.Load()
	require.True(t, ok)
	require.Len(t, sessions, 1)
	assert.Equal(t, "ok", sessions[0].ID)
}

func TestStateStore_SaveFailurePropagates(t *testing.T) {
	kv := NewMockKV()
	kv.FailPuts = errors.New("quota exceeded")

	ss := NewStateStore(kv, nil)
	err := ss.Save(testSessions(), "session-1")
	assert.Error(t, err)
}

func TestStateStore_MissingPointerStillLoads(t *testing.T) {
	kv := NewMockKV()
	ss := NewStateStore(kv, nil)
	require.NoError(t, ss.Save(testSessions(), "session-1"))
	require.NoError(t, kv.Delete(context.Background(), KeyActiveSession))

	sessions, activeID, ok := ss.Load()
	require.True(t, ok)
	assert.Len(t, sessions, 2)
	assert.Empty(t, activeID)
}
