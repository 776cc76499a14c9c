package runtime

import (
	"context"
	"testing"

	"baatchit/domain"
	"baatchit/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []event.ChangeEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.ChangeEvent) error {
	s.events = append(s.events, e)
	return nil
}

func added(chatID domain.ChatID) event.MessageAdded {
	return event.MessageAdded{Message: domain.Message{ID: uuid.New(), ChatID: chatID}}
}

func TestRegistry_Subscribe_OneViewer(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	viewer := domain.UserID(uuid.NewString())
	chatID := domain.ChatID("u1_u2")
	sink := &recordingSink{}

	// Given no viewer is connected
	req.Empty(registry.Sessions)
	req.Empty(registry.ChatWatchers)

	// When a viewer subscribes a conversation
	registry.Subscribe(viewer, chatID, sink)

	// Then
	req.Len(registry.Sessions, 1)
	req.Len(registry.ChatWatchers, 1)
	req.Contains(registry.ChatWatchers[chatID], viewer)
	req.Len(registry.GetSinksForChat(chatID), 1)
}

func TestRegistry_Subscribe_MultipleViewersSameChat(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	chatID := domain.ChatID("u1_u2")

	registry.Subscribe("u1", chatID, &recordingSink{})
	registry.Subscribe("u2", chatID, &recordingSink{})

	req.Len(registry.Sessions, 2)
	req.Len(registry.ChatWatchers[chatID], 2)
	req.Len(registry.GetSinksForChat(chatID), 2)
}

func TestRegistry_Resubscribe_CancelsPreviousChat(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := NewRegistry()
	viewer := domain.UserID("u1")
	oldSink := &recordingSink{}
	newSink := &recordingSink{}

	// Given a viewer watching chat u1_u2
	registry.Subscribe(viewer, "u1_u2", oldSink)

	// When the viewer switches to chat u1_u3
	registry.Subscribe(viewer, "u1_u3", newSink)

	// Then events of the old chat no longer reach anyone
	req.Empty(registry.GetSinksForChat("u1_u2"))
	for _, sink := range registry.GetSinksForChat("u1_u3") {
		req.NoError(sink.Consume(ctx, added("u1_u3")))
	}
	req.Empty(oldSink.events)
	req.Len(newSink.events, 1)
}

func TestRegistry_Cancel_StopsDeliveryImmediately(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := NewRegistry()
	sink := &recordingSink{}

	cancel := registry.Subscribe("u1", "u1_u2", sink)

	// The fanout may have picked the subscription up before cancel
	sinks := registry.GetSinksForChat("u1_u2")
	req.Len(sinks, 1)

	cancel()

	// Delivery after cancel is swallowed, not forwarded
	req.NoError(sinks[0].Consume(ctx, added("u1_u2")))
	req.Empty(sink.events)
	req.Empty(registry.Sessions)
	req.Empty(registry.ChatWatchers)
}

func TestRegistry_Cancel_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	cancel := registry.Subscribe("u1", "u1_u2", &recordingSink{})
	cancel()
	cancel()
	cancel()

	req.Empty(registry.Sessions)
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Subscribe("u1", "u1_u2", &recordingSink{})
	registry.Subscribe("u2", "u1_u2", &recordingSink{})

	registry.Unsubscribe("u1")

	req.Len(registry.Sessions, 1)
	req.Len(registry.ChatWatchers[domain.ChatID("u1_u2")], 1)

	// Unsubscribing an unknown viewer is a no-op
	registry.Unsubscribe("ghost")
	req.Len(registry.Sessions, 1)
}
