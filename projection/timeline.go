// Package projection builds local read models from store change events:
// the message timeline of the open conversation and the recent-contacts
// list. Projections only consume events, they never emit any.
package projection

import (
	"context"
	"log/slog"
	"sync"

	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/repositories"
)

// Timeline materializes the message list of one conversation for one
// viewer. Every relevant change triggers a full reload from the store,
// so adds and soft-deletes take the same path and the snapshot always
// reflects the stored documents, in ascending send order.
type Timeline struct {
	mu       sync.Mutex
	ViewerID domain.UserID
	ChatID   domain.ChatID
	messages []domain.Message
	repo     repositories.IMessageRepository
	publish  func([]domain.Message)
	log      *slog.Logger
}

// NewTimeline loads the initial snapshot and pushes it through publish.
// A load failure is logged and leaves the timeline empty until the next
// change event.
func NewTimeline(
	viewerID domain.UserID,
	chatID domain.ChatID,
	repo repositories.IMessageRepository,
	publish func([]domain.Message),
	log *slog.Logger,
) *Timeline {
	t := &Timeline{
		ViewerID: viewerID,
		ChatID:   chatID,
		repo:     repo,
		publish:  publish,
		log:      log,
	}
	t.reload()
	return t
}

func (t *Timeline) Consume(_ context.Context, e event.ChangeEvent) error {
	if e.ChatID() != t.ChatID {
		return nil
	}
	t.reload()
	return nil
}

// Snapshot returns the last good message list, oldest first.
func (t *Timeline) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.messages...)
}

// reload replaces the snapshot with the current store contents.
// On failure the previous snapshot is kept.
func (t *Timeline) reload() {
	messages, err := t.repo.MessagesByChat(t.ChatID)
	if err != nil {
		t.log.Error("Failed to reload timeline",
			"chatId", t.ChatID, "viewerId", t.ViewerID, "err", err)
		return
	}

	t.mu.Lock()
	t.messages = messages
	t.mu.Unlock()

	if t.publish != nil {
		t.publish(messages)
	}
}
