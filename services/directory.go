package services

import (
	"context"
	"log/slog"
	"sync"

	"baatchit/domain"
	"baatchit/repositories"
)

type IDirectory interface {
	Resolve(uid domain.UserID, email string) (domain.User, bool)
	Users() []domain.User
	Search(ctx context.Context, query string, limit int) ([]domain.User, error)
	Add(user domain.User) error
	Refresh() error
}

// Directory is the in-memory roster of known users, loaded once from the
// store and patched as accounts are created. Lookups resolve by id first
// and fall back to email, in that fixed order.
type Directory struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]domain.User
	byEmail map[string]domain.User
	users   []domain.User
	repo    repositories.IUserRepository
	index   *repositories.DirectoryIndex
	log     *slog.Logger
}

// NewDirectory builds an empty directory. Call Refresh to load the
// roster. The search index is optional.
func NewDirectory(repo repositories.IUserRepository, index *repositories.DirectoryIndex, log *slog.Logger) *Directory {
	return &Directory{
		byID:    make(map[domain.UserID]domain.User),
		byEmail: make(map[string]domain.User),
		repo:    repo,
		index:   index,
		log:     log,
	}
}

// Refresh reloads every profile from the store and reindexes them.
func (d *Directory) Refresh() error {
	records, err := d.repo.ListUsers()
	if err != nil {
		return err
	}

	byID := make(map[domain.UserID]domain.User, len(records))
	byEmail := make(map[string]domain.User, len(records))
	users := make([]domain.User, 0, len(records))
	for _, record := range records {
		user := record.Profile()
		byID[user.UID] = user
		byEmail[user.Email] = user
		users = append(users, user)
	}

	d.mu.Lock()
	d.byID = byID
	d.byEmail = byEmail
	d.users = users
	d.mu.Unlock()

	if d.index != nil {
		for _, user := range users {
			if err := d.index.IndexUser(user); err != nil {
				d.log.Error("Failed to index user", "uid", user.UID, "err", err)
			}
		}
	}
	return nil
}

// Add registers a freshly created account without a full reload.
func (d *Directory) Add(user domain.User) error {
	d.mu.Lock()
	if _, known := d.byID[user.UID]; !known {
		d.users = append(d.users, user)
	}
	d.byID[user.UID] = user
	d.byEmail[user.Email] = user
	d.mu.Unlock()

	if d.index != nil {
		return d.index.IndexUser(user)
	}
	return nil
}

// Resolve finds a profile by id, then by email. Both misses mean the
// user is unknown to the directory.
func (d *Directory) Resolve(uid domain.UserID, email string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if user, ok := d.byID[uid]; ok {
		return user, true
	}
	if email != "" {
		if user, ok := d.byEmail[email]; ok {
			return user, true
		}
	}
	return domain.User{}, false
}

// Users returns a copy of the full roster.
func (d *Directory) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.User(nil), d.users...)
}

// Search runs a full-text lookup over display names and emails and maps
// the hits back to profiles. Without an index it degrades to the empty
// result rather than failing.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]domain.User, error) {
	if d.index == nil {
		return nil, nil
	}
	uids, err := d.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	users := make([]domain.User, 0, len(uids))
	for _, uid := range uids {
		if user, ok := d.byID[uid]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}
