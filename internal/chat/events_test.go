// ABOUTME: Tests for the event broadcaster
// ABOUTME: Subscribe/publish/unsubscribe lifecycle and context cleanup

package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishReachesAllSubscribers(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ctx := context.Background()
	ch1, _ := b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)

	ev := Event{Type: EventMessageAppended, SessionID: "s1"}
	b.Publish(ev)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, ev.Type, got.Type)
			assert.Equal(t, "s1", got.SessionID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(context.Background())
	b.Unsubscribe(subID)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is safe.
	b.Unsubscribe(subID)
}

func TestBroadcaster_ContextCancelCleansUp(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestBroadcaster_FullSubscriberDropsEvents(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background())

	// Overfill the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(Event{Type: EventSessionCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBufferSize)
}

func TestRepository_PublishesEvents(t *testing.T) {
	b := NewEventBroadcaster(nil)
	defer b.Close()

	repo := NewRepository(nil, b, nil)
	// Subscribe after construction so the seeded session's event is not seen.
	ch, _ := b.Subscribe(context.Background())

	s := repo.Create()
	repo.Append(s.ID, Message{Role: RoleUser, Content: "hi"})
	repo.Rename(s.ID, "named")

	want := []EventType{EventSessionCreated, EventMessageAppended, EventSessionRenamed}
	for _, wt := range want {
		select {
		case got := <-ch:
			assert.Equal(t, wt, got.Type)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", wt)
		}
	}
}
