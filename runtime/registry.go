// Package runtime handles change-event propagation from the message store
// to live projections. It orchestrates the system without containing
// business logic or domain rules.
package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"baatchit/contract"
	"baatchit/domain"
	"baatchit/domain/event"
)

type Set map[domain.UserID]struct{}

// Registry tracks which viewer is watching which conversation.
// A viewer has at most one live subscription: subscribing to a new chat
// cancels the previous one first, so no event of the old conversation can
// reach a sink that now renders another one.
type Registry struct {
	mu           sync.RWMutex
	Sessions     map[domain.UserID]*Subscription // viewer -> live subscription
	ChatWatchers map[domain.ChatID]Set           // chat -> watching viewers
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:     make(map[domain.UserID]*Subscription),
		ChatWatchers: make(map[domain.ChatID]Set),
	}
}

// Subscription wraps a sink with a cancellation flag. Once cancelled,
// Consume becomes a no-op even if the fanout already picked the sink up,
// so no buffered replay is possible after cancel.
type Subscription struct {
	ViewerID domain.UserID
	ChatID   domain.ChatID
	sink     contract.EventSink
	canceled atomic.Bool
	once     sync.Once
	remove   func()
}

func (s *Subscription) Consume(ctx context.Context, e event.ChangeEvent) error {
	if s.canceled.Load() {
		return nil
	}
	return s.sink.Consume(ctx, e)
}

// Cancel stops delivery immediately. Idempotent.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.canceled.Store(true)
		s.remove()
	})
}

// GetSinksForChat retrieves all live sinks watching a conversation.
// It performs a two-step lookup:
// 1. Identifies viewer IDs associated with the chat via ChatWatchers.
// 2. Resolves those IDs into actual subscriptions using the Sessions map.
// Returns nil if nobody watches the chat.
func (r *Registry) GetSinksForChat(chatID domain.ChatID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	watchers, ok := r.ChatWatchers[chatID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for viewerID := range watchers {
		if sub, exists := r.Sessions[viewerID]; exists && sub.ChatID == chatID {
			activeSinks = append(activeSinks, sub)
		}
	}
	return activeSinks
}

// Subscribe registers the viewer's sink for one conversation and returns
// its cancel handle. Any previous subscription of the same viewer is
// cancelled first: switching counterpart must never leak events of the
// old conversation into the new one.
func (r *Registry) Subscribe(viewerID domain.UserID, chatID domain.ChatID, sink contract.EventSink) contract.Cancel {
	r.mu.Lock()
	previous := r.Sessions[viewerID]
	r.mu.Unlock()
	if previous != nil {
		previous.Cancel()
	}

	sub := &Subscription{ViewerID: viewerID, ChatID: chatID, sink: sink}
	sub.remove = func() { r.drop(sub) }

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[viewerID] = sub
	if _, ok := r.ChatWatchers[chatID]; !ok {
		r.ChatWatchers[chatID] = make(Set)
	}
	r.ChatWatchers[chatID][viewerID] = struct{}{}
	return sub.Cancel
}

// SessionCount reports how many viewers currently hold a subscription.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions)
}

// Unsubscribe cancels the viewer's current subscription, if any.
func (r *Registry) Unsubscribe(viewerID domain.UserID) {
	r.mu.RLock()
	sub := r.Sessions[viewerID]
	r.mu.RUnlock()
	if sub != nil {
		sub.Cancel()
	}
}

// drop removes a cancelled subscription from the maps. It cleans up empty
// watcher sets to prevent memory leaks over time, and leaves the entry
// alone when the viewer already re-subscribed elsewhere.
func (r *Registry) drop(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.Sessions[sub.ViewerID]; ok && current == sub {
		delete(r.Sessions, sub.ViewerID)
	}
	if watchers, ok := r.ChatWatchers[sub.ChatID]; ok {
		if current, stillThere := r.Sessions[sub.ViewerID]; !stillThere || current.ChatID != sub.ChatID {
			delete(watchers, sub.ViewerID)
		}
		if len(watchers) == 0 {
			delete(r.ChatWatchers, sub.ChatID)
		}
	}
}
