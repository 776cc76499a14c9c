package repositories

import (
	"context"
	"log/slog"
	"testing"

	"baatchit/domain"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *DirectoryIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewDirectoryIndex(writer, slog.Default())
}

func Test_DirectoryIndex_Search(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := openTestIndex(t)

	users := []domain.User{
		{UID: "u1", DisplayName: "Alice Martin", Email: "alice@example.com"},
		{UID: "u2", DisplayName: "Bob", Email: "bob@example.com"},
		{UID: "u3", DisplayName: "Alicia", Email: "ali@example.com"},
	}
	for _, user := range users {
		req.NoError(index.IndexUser(user))
	}

	uids, err := index.Search(ctx, "alice", 10)
	req.NoError(err)
	req.Contains(uids, domain.UserID("u1"))
	req.NotContains(uids, domain.UserID("u2"))

	// Prefix of both display name and email
	uids, err = index.Search(ctx, "ali", 10)
	req.NoError(err)
	req.Contains(uids, domain.UserID("u1"))
	req.Contains(uids, domain.UserID("u3"))

	uids, err = index.Search(ctx, "bob", 10)
	req.NoError(err)
	req.Equal([]domain.UserID{"u2"}, uids)
}

func Test_DirectoryIndex_BlankQuery(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	uids, err := index.Search(context.Background(), "   ", 10)
	req.NoError(err)
	req.Empty(uids)
}

func Test_DirectoryIndex_Reindex_Replaces(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := openTestIndex(t)

	req.NoError(index.IndexUser(domain.User{UID: "u1", DisplayName: "Old Name", Email: "u1@example.com"}))
	req.NoError(index.IndexUser(domain.User{UID: "u1", DisplayName: "New Name", Email: "u1@example.com"}))

	uids, err := index.Search(ctx, "old", 10)
	req.NoError(err)
	req.Empty(uids)

	uids, err = index.Search(ctx, "new", 10)
	req.NoError(err)
	req.Equal([]domain.UserID{"u1"}, uids)
}
