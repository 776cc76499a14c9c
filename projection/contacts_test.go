package projection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/repositories"

	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	byID    map[domain.UserID]domain.User
	byEmail map[string]domain.User
}

func (d stubDirectory) Resolve(uid domain.UserID, email string) (domain.User, bool) {
	if user, ok := d.byID[uid]; ok {
		return user, true
	}
	user, ok := d.byEmail[email]
	return user, ok
}

func knownUsers(users ...domain.User) stubDirectory {
	directory := stubDirectory{
		byID:    map[domain.UserID]domain.User{},
		byEmail: map[string]domain.User{},
	}
	for _, user := range users {
		directory.byID[user.UID] = user
		directory.byEmail[user.Email] = user
	}
	return directory
}

func bob() domain.User {
	return domain.User{UID: "bob", DisplayName: "Bob", Email: "bob@mail.test"}
}

func clara() domain.User {
	return domain.User{UID: "clara", DisplayName: "Clara", Email: "clara@mail.test"}
}

func TestContactList_RebuildOrdersByRecency(t *testing.T) {
	req := require.New(t)
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())
	now := time.Now()

	storedMessage(t, repo, "alice", "bob", "old chat", now)
	storedMessage(t, repo, "clara", "alice", "new chat", now.Add(time.Hour))

	contacts := NewContactList("alice", repo, knownUsers(bob(), clara()), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())

	snapshot := contacts.Snapshot()
	req.Len(snapshot, 2)
	req.Equal(domain.UserID("clara"), snapshot[0].UID)
	req.Equal("new chat", snapshot[0].LastMessage)
	req.Equal(domain.UserID("bob"), snapshot[1].UID)
	req.Equal("old chat", snapshot[1].LastMessage)
}

func TestContactList_OneEntryPerCounterpart(t *testing.T) {
	req := require.New(t)
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())
	now := time.Now()

	// Many messages with the same counterpart still yield one entry,
	// carrying the newest preview.
	storedMessage(t, repo, "alice", "bob", "hello", now)
	storedMessage(t, repo, "bob", "alice", "hi", now.Add(time.Minute))
	storedMessage(t, repo, "alice", "bob", "how are you", now.Add(2*time.Minute))

	contacts := NewContactList("alice", repo, knownUsers(bob()), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())

	snapshot := contacts.Snapshot()
	req.Len(snapshot, 1)
	req.Equal("how are you", snapshot[0].LastMessage)
	req.Equal("Bob", snapshot[0].DisplayName)
}

func TestContactList_UnknownCounterpartExcluded(t *testing.T) {
	req := require.New(t)
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())

	storedMessage(t, repo, "ghost", "alice", "boo", time.Now())

	contacts := NewContactList("alice", repo, knownUsers(), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())

	req.Empty(contacts.Snapshot())
}

func TestContactList_DeletedNewestFallsBackToPreviousText(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())
	now := time.Now()

	storedMessage(t, repo, "alice", "bob", "still here", now)
	newest := storedMessage(t, repo, "bob", "alice", "oops", now.Add(time.Minute))

	contacts := NewContactList("alice", repo, knownUsers(bob()), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())

	deleted, err := repo.MarkDeleted(newest.ID)
	req.NoError(err)
	req.NoError(contacts.Consume(ctx, event.MessageDeleted{Message: deleted}))

	snapshot := contacts.Snapshot()
	req.Len(snapshot, 1)
	req.Equal("still here", snapshot[0].LastMessage)
}

func TestContactList_DeletedOnlyMessageShowsPlaceholder(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())

	only := storedMessage(t, repo, "alice", "bob", "oops", time.Now())

	contacts := NewContactList("alice", repo, knownUsers(bob()), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())

	deleted, err := repo.MarkDeleted(only.ID)
	req.NoError(err)
	req.NoError(contacts.Consume(ctx, event.MessageDeleted{Message: deleted}))

	snapshot := contacts.Snapshot()
	req.Len(snapshot, 1)
	req.Equal(domain.DeletedPlaceholder, snapshot[0].LastMessage)
}

func TestContactList_UpsertMovesCounterpartToTop(t *testing.T) {
	req := require.New(t)
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())
	now := time.Now()

	storedMessage(t, repo, "alice", "bob", "old", now)
	storedMessage(t, repo, "clara", "alice", "newer", now.Add(time.Hour))

	contacts := NewContactList("alice", repo, knownUsers(bob(), clara()), nil, slog.Default())
	req.NoError(contacts.RebuildFromStore())
	req.Equal(domain.UserID("clara"), contacts.Snapshot()[0].UID)

	// Optimistic patch right after a local send, before any store event
	sent := storedMessage(t, repo, "alice", "bob", "just sent", now.Add(2*time.Hour))
	contacts.Upsert(sent)

	snapshot := contacts.Snapshot()
	req.Len(snapshot, 2, "upsert replaces, never duplicates")
	req.Equal(domain.UserID("bob"), snapshot[0].UID)
	req.Equal("just sent", snapshot[0].LastMessage)

	// The store-backed rebuild then converges on the same state
	req.NoError(contacts.RebuildFromStore())
	req.Equal(snapshot, contacts.Snapshot())
}

func TestContactList_UpsertUnknownCounterpartIsNoOp(t *testing.T) {
	req := require.New(t)
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())

	contacts := NewContactList("alice", repo, knownUsers(), nil, slog.Default())
	contacts.Upsert(domain.Message{
		ChatID:       "alice_ghost",
		SenderID:     "alice",
		Participants: [2]domain.UserID{"alice", "ghost"},
		Text:         "anyone there",
		CreatedAt:    time.Now(),
	})

	req.Empty(contacts.Snapshot())
}

func TestContactList_IgnoresEventsOfOtherViewers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())

	contacts := NewContactList("alice", repo, knownUsers(bob(), clara()), nil, slog.Default())

	other := storedMessage(t, repo, "bob", "clara", "private", time.Now())
	req.NoError(contacts.Consume(ctx, event.MessageAdded{Message: other}))

	req.Empty(contacts.Snapshot())
}

func TestContactList_PublishesOnEveryChange(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := repositories.NewMessageRepository(openTestDB(t), slog.Default())

	var published [][]domain.Contact
	contacts := NewContactList("alice", repo, knownUsers(bob()),
		func(snapshot []domain.Contact) { published = append(published, snapshot) },
		slog.Default())

	req.NoError(contacts.RebuildFromStore())

	message := storedMessage(t, repo, "bob", "alice", "ping", time.Now())
	req.NoError(contacts.Consume(ctx, event.MessageAdded{Message: message}))

	req.Len(published, 2)
	req.Empty(published[0])
	req.Len(published[1], 1)
}
