package projection

import (
	"context"
	"log/slog"
	"sync"

	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/repositories"
)

// ContactHub owns one ContactList per signed-in viewer and feeds all of
// them from the change feed. It is registered as a permanent sink, so
// contact lists stay current even while their viewer has no open
// conversation.
type ContactHub struct {
	mu         sync.Mutex
	lists      map[domain.UserID]*ContactList
	repo       repositories.IMessageRepository
	directory  ProfileResolver
	onSnapshot func(viewerID domain.UserID, contacts []domain.Contact)
	log        *slog.Logger
}

func NewContactHub(
	repo repositories.IMessageRepository,
	directory ProfileResolver,
	onSnapshot func(viewerID domain.UserID, contacts []domain.Contact),
	log *slog.Logger,
) *ContactHub {
	return &ContactHub{
		lists:      make(map[domain.UserID]*ContactList),
		repo:       repo,
		directory:  directory,
		onSnapshot: onSnapshot,
		log:        log,
	}
}

// For returns the viewer's contact list, building it from the store on
// first access.
func (h *ContactHub) For(viewerID domain.UserID) *ContactList {
	h.mu.Lock()
	list, ok := h.lists[viewerID]
	if !ok {
		var publish func([]domain.Contact)
		if h.onSnapshot != nil {
			callback := h.onSnapshot
			publish = func(contacts []domain.Contact) { callback(viewerID, contacts) }
		}
		list = NewContactList(viewerID, h.repo, h.directory, publish, h.log)
		h.lists[viewerID] = list
	}
	h.mu.Unlock()

	if !ok {
		if err := list.RebuildFromStore(); err != nil {
			h.log.Error("Initial contact rebuild failed", "viewerId", viewerID, "err", err)
		}
	}
	return list
}

// Drop forgets a viewer's list, typically on logout.
func (h *ContactHub) Drop(viewerID domain.UserID) {
	h.mu.Lock()
	delete(h.lists, viewerID)
	h.mu.Unlock()
}

// Consume forwards the change to every known list. Each list decides
// on its own whether the conversation concerns its viewer.
func (h *ContactHub) Consume(ctx context.Context, e event.ChangeEvent) error {
	h.mu.Lock()
	lists := make([]*ContactList, 0, len(h.lists))
	for _, list := range h.lists {
		lists = append(lists, list)
	}
	h.mu.Unlock()

	for _, list := range lists {
		if err := list.Consume(ctx, e); err != nil {
			h.log.Error("Contact list rejected change event",
				"viewerId", list.ViewerID, "err", err)
		}
	}
	return nil
}
