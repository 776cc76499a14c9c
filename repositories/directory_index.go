package repositories

import (
	"context"
	"log/slog"
	"strings"

	"baatchit/domain"

	"github.com/blugelabs/bluge"
)

// DirectoryIndex is the full-text index behind the sidebar user search.
// Display names and emails are indexed; search matches whole terms or
// prefixes of either field.
type DirectoryIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewDirectoryIndex(writer *bluge.Writer, log *slog.Logger) *DirectoryIndex {
	return &DirectoryIndex{writer: writer, log: log}
}

// IndexUser inserts or replaces a profile in the index.
func (d *DirectoryIndex) IndexUser(user domain.User) error {
	doc := bluge.NewDocument(string(user.UID))
	doc.AddField(bluge.NewTextField("displayName", user.DisplayName).StoreValue())
	doc.AddField(bluge.NewTextField("email", user.Email).StoreValue())
	return d.writer.Update(doc.ID(), doc)
}

// Search returns the uids of profiles whose display name or email
// matches the query. Weak input (blank query) yields no results.
func (d *DirectoryIndex) Search(ctx context.Context, query string, limit int) ([]domain.UserID, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	boolean := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField("displayName")).
		AddShould(bluge.NewMatchQuery(query).SetField("email")).
		AddShould(bluge.NewPrefixQuery(query).SetField("displayName")).
		AddShould(bluge.NewPrefixQuery(query).SetField("email"))

	reader, err := d.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			d.log.Warn("Failed to close index reader", "err", err)
		}
	}()

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, boolean))
	if err != nil {
		return nil, err
	}

	var uids []domain.UserID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				uids = append(uids, domain.UserID(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return uids, nil
}
