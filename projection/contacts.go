package projection

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/repositories"

	"github.com/samber/lo"
)

// ProfileResolver maps a message counterpart to a known user profile.
// Resolution tries the id first, then the email.
type ProfileResolver interface {
	Resolve(uid domain.UserID, email string) (domain.User, bool)
}

// ContactList materializes the recent-contacts sidebar of one viewer:
// one entry per counterpart the viewer has a conversation with, carrying
// the preview of the newest message, ordered most recent first.
//
// The list is rebuilt from the store on change events and patched
// in memory right after a local send, so the sidebar updates before the
// store change comes back around. Both paths converge on the same state
// because entries are deduplicated by counterpart id and ordered by the
// server timestamp of the newest message.
type ContactList struct {
	mu        sync.Mutex
	ViewerID  domain.UserID
	contacts  []domain.Contact
	repo      repositories.IMessageRepository
	directory ProfileResolver
	publish   func([]domain.Contact)
	log       *slog.Logger
}

func NewContactList(
	viewerID domain.UserID,
	repo repositories.IMessageRepository,
	directory ProfileResolver,
	publish func([]domain.Contact),
	log *slog.Logger,
) *ContactList {
	return &ContactList{
		ViewerID:  viewerID,
		repo:      repo,
		directory: directory,
		publish:   publish,
		log:       log,
	}
}

// Consume refreshes the entry of the changed conversation when the
// viewer is one of its participants. Other conversations are ignored.
func (c *ContactList) Consume(_ context.Context, e event.ChangeEvent) error {
	var message domain.Message
	switch evt := e.(type) {
	case event.MessageAdded:
		message = evt.Message
	case event.MessageDeleted:
		message = evt.Message
	default:
		return nil
	}

	if _, ok := domain.Counterpart(message.Participants, c.ViewerID); !ok {
		return nil
	}
	c.refreshChat(message.ChatID)
	return nil
}

// RebuildFromStore recomputes the whole list from stored documents.
// Conversations whose counterpart has no known profile are left out.
// On failure the previous list stays in place.
func (c *ContactList) RebuildFromStore() error {
	chats, err := c.repo.ChatsWith(c.ViewerID)
	if err != nil {
		c.log.Error("Failed to list conversations", "viewerId", c.ViewerID, "err", err)
		return err
	}

	contacts := make([]domain.Contact, 0, len(chats))
	for _, chatID := range chats {
		contact, ok := c.contactFor(chatID)
		if !ok {
			continue
		}
		contacts = append(contacts, contact)
	}
	sortByRecency(contacts)

	c.mu.Lock()
	c.contacts = contacts
	c.mu.Unlock()

	c.publishSnapshot()
	return nil
}

// Upsert patches the list in memory from a message the viewer just sent,
// without waiting for the store change event. An unknown counterpart is
// a no-op.
func (c *ContactList) Upsert(message domain.Message) {
	contact, ok := c.fromMessage(message)
	if !ok {
		return
	}
	c.replace(contact)
}

// Snapshot returns a copy of the current list, most recent first.
func (c *ContactList) Snapshot() []domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Contact(nil), c.contacts...)
}

// refreshChat recomputes one entry from the store. A conversation whose
// last message disappeared entirely drops off the list.
func (c *ContactList) refreshChat(chatID domain.ChatID) {
	contact, ok := c.contactFor(chatID)
	if !ok {
		return
	}
	c.replace(contact)
}

// contactFor builds the sidebar entry of one conversation from its
// newest message.
func (c *ContactList) contactFor(chatID domain.ChatID) (domain.Contact, bool) {
	latest, err := c.repo.LatestMessage(chatID)
	if err != nil {
		c.log.Debug("No preview for conversation", "chatId", chatID, "err", err)
		return domain.Contact{}, false
	}
	return c.fromMessage(latest)
}

func (c *ContactList) fromMessage(message domain.Message) (domain.Contact, bool) {
	counterpartID, ok := domain.Counterpart(message.Participants, c.ViewerID)
	if !ok {
		return domain.Contact{}, false
	}

	counterpartEmail := message.SenderEmail
	if message.SenderID == c.ViewerID {
		counterpartEmail = message.RecipientEmail
	}

	profile, ok := c.directory.Resolve(counterpartID, counterpartEmail)
	if !ok {
		return domain.Contact{}, false
	}

	return domain.Contact{
		UID:             profile.UID,
		DisplayName:     profile.Label(),
		Email:           profile.Email,
		LastMessage:     domain.Preview(message),
		LastMessageTime: message.LocalTimestamp,
		LastMessageAt:   message.CreatedAt,
	}, true
}

// replace swaps in one entry, keeping the recency order and at most one
// entry per counterpart.
func (c *ContactList) replace(contact domain.Contact) {
	c.mu.Lock()
	contacts := lo.Reject(c.contacts, func(existing domain.Contact, _ int) bool {
		return existing.UID == contact.UID
	})
	contacts = append(contacts, contact)
	sortByRecency(contacts)
	c.contacts = contacts
	c.mu.Unlock()

	c.publishSnapshot()
}

func (c *ContactList) publishSnapshot() {
	if c.publish != nil {
		c.publish(c.Snapshot())
	}
}

func sortByRecency(contacts []domain.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].LastMessageAt.After(contacts[j].LastMessageAt)
	})
}
