//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"baatchit/domain"
	"baatchit/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IUserRepository interface {
	CreateUser(email, displayName, hashedPassword string) (domain.UserID, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(uid domain.UserID) (User, error)
	ListUsers() ([]User, error)
}

// User is the repository-level representation of a profile, carrying the
// credential hash the domain never sees.
type User struct {
	UID          domain.UserID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile strips the credential fields.
func (u User) Profile() domain.User {
	return domain.User{
		UID:         u.UID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists a new profile and returns the generated uid.
// The email acts as the uniqueness key, exactly like the sign-up flow
// of the auth provider the directory mirrors.
func (u *UserRepository) CreateUser(email, displayName, hashedPassword string) (domain.UserID, error) {
	uid := domain.UserID(uuid.NewString())
	bytes, err := marshalUser(User{
		UID:          uid,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailKey(email))
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(uid)); err != nil {
			return err
		}
		return txn.Set([]byte(userKey(uid)), bytes)
	})
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var uid domain.UserID
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailKey(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			uid = domain.UserID(val)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return User{}, errors.ErrProfileNotFound
		}
		return User{}, err
	}
	return u.GetUserByID(uid)
}

func (u *UserRepository) GetUserByID(uid domain.UserID) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey(uid)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = unmarshalUser(val)
			return err
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return User{}, errors.ErrProfileNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListUsers returns every profile. The directory is loaded once per
// session; profile changes after that are not observed.
func (u *UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := unmarshalUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

const (
	userPrefix      = "user:"
	userEmailPrefix = "useremail:"
)

func userKey(uid domain.UserID) string {
	return userPrefix + string(uid)
}

func userEmailKey(email string) string {
	return userEmailPrefix + email
}

func marshalUser(user User) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"uid":          string(user.UID),
		"email":        user.Email,
		"displayName":  user.DisplayName,
		"passwordHash": user.PasswordHash,
		"createdAt":    user.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return proto.Marshal(s)
}

func unmarshalUser(value []byte) (User, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	doc := s.AsMap()
	createdAt, err := time.Parse(time.RFC3339Nano, str(doc, "createdAt"))
	if err != nil {
		return User{}, fmt.Errorf("user createdAt: %w", err)
	}
	return User{
		UID:          domain.UserID(str(doc, "uid")),
		Email:        str(doc, "email"),
		DisplayName:  str(doc, "displayName"),
		PasswordHash: str(doc, "passwordHash"),
		CreatedAt:    createdAt,
	}, nil
}
