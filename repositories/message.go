//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"baatchit/domain"
	"baatchit/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	MessagesByChat(chatID domain.ChatID) ([]domain.Message, error)
	LatestMessage(chatID domain.ChatID) (domain.Message, error)
	ChatsWith(userID domain.UserID) ([]domain.ChatID, error)
	MarkDeleted(messageID uuid.UUID) (domain.Message, error)
}

// MessageRepository persists chat messages in BadgerDB as schemaless
// protobuf documents, preserving the field names of the hosted document
// store the records originate from.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// StoreMessage persists a message in BadgerDB.
// The primary key is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting per chat using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// A secondary index "msgid:{uuid}" -> primary key allows patching by id.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := primaryKey(message)
	bytes, err := marshalDocument(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(message.ID)), []byte(key))
	})
}

// MessagesByChat retrieves every message of a conversation using a prefix
// scan. Thanks to the padded timestamp in the key, messages come out of
// Badger already ordered, but the result is sorted again on createdAt:
// the materialized list must stay ascending even if key layout changes.
func (m MessageRepository) MessagesByChat(chatID domain.ChatID) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(chatPrefix(chatID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		message, err := unmarshalDocument(b)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// LatestMessage returns the newest non-deleted message of a conversation,
// falling back to the newest deleted one when the whole chat has been
// erased. Returns ErrMessageNotFound for an unknown chat.
func (m MessageRepository) LatestMessage(chatID domain.ChatID) (domain.Message, error) {
	var newest *domain.Message
	var newestVisible *domain.Message

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := chatPrefix(chatID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				var err error
				message, err = unmarshalDocument(value)
				return err
			})
			if err != nil {
				return err
			}
			if newest == nil {
				newest = &message
			}
			if !message.IsDeleted {
				newestVisible = &message
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	if newestVisible != nil {
		return *newestVisible, nil
	}
	if newest != nil {
		return *newest, nil
	}
	return domain.Message{}, errors.ErrMessageNotFound
}

// ChatsWith scans the message collection and collects the distinct chat
// identifiers whose participants include the given user.
func (m MessageRepository) ChatsWith(userID domain.UserID) ([]domain.ChatID, error) {
	var chatIDs []domain.ChatID
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := unmarshalDocument(value)
				if err != nil {
					return err
				}
				if message.Participants[0] == userID || message.Participants[1] == userID {
					chatIDs = append(chatIDs, message.ChatID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Uniq(chatIDs), nil
}

// MarkDeleted applies the soft-delete transition: isDeleted true, text
// replaced by the placeholder, attachments cleared. Re-applying it to an
// already-deleted message is a no-op. The updated record is returned.
func (m MessageRepository) MarkDeleted(messageID uuid.UUID) (domain.Message, error) {
	var updated domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey(messageID)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMessageNotFound
			}
			return err
		}
		var key []byte
		if err := item.Value(func(v []byte) error {
			key = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}

		record, err := txn.Get(key)
		if err != nil {
			return err
		}
		var message domain.Message
		if err := record.Value(func(v []byte) error {
			message, err = unmarshalDocument(v)
			return err
		}); err != nil {
			return err
		}

		if message.IsDeleted {
			updated = message
			return nil
		}

		message.IsDeleted = true
		message.Text = domain.DeletedPlaceholder
		message.Attachments = nil
		bytes, err := marshalDocument(message)
		if err != nil {
			return err
		}
		updated = message
		return txn.Set(key, bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return updated, nil
}

const messagePrefix = "msg:"

func primaryKey(message domain.Message) string {
	return fmt.Sprintf("%s%019d:%s",
		chatPrefix(message.ChatID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func chatPrefix(chatID domain.ChatID) string {
	return fmt.Sprintf("%s%s:", messagePrefix, chatID)
}

func indexKey(messageID uuid.UUID) string {
	return "msgid:" + messageID.String()
}

// marshalDocument encodes a message as a schemaless protobuf Struct whose
// field names are the logical schema of the original document store.
func marshalDocument(message domain.Message) ([]byte, error) {
	doc := map[string]any{
		"id":             message.ID.String(),
		"chatId":         string(message.ChatID),
		"uid":            string(message.SenderID),
		"email":          message.SenderEmail,
		"displayName":    message.SenderName,
		"recipientUid":   string(message.RecipientID),
		"recipientEmail": message.RecipientEmail,
		"participants":   []any{string(message.Participants[0]), string(message.Participants[1])},
		"text":           message.Text,
		"createdAt":      message.CreatedAt.UTC().Format(time.RFC3339Nano),
		"localTimeStamp": message.LocalTimestamp,
		"isDeleted":      message.IsDeleted,
	}
	if len(message.Attachments) > 0 {
		attachment := message.Attachments[0]
		doc["images"] = attachment.EncodedImageData
		doc["filename"] = attachment.Filename
		doc["size"] = attachment.SizeBytes
		doc["type"] = attachment.MimeType
	}
	s, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeDocument exposes the document codec to the inspection tools.
func DecodeDocument(value []byte) (domain.Message, error) {
	return unmarshalDocument(value)
}

func unmarshalDocument(value []byte) (domain.Message, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return domain.Message{}, fmt.Errorf("decode document: %w", err)
	}
	doc := s.AsMap()

	id, err := uuid.Parse(str(doc, "id"))
	if err != nil {
		return domain.Message{}, fmt.Errorf("document id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, str(doc, "createdAt"))
	if err != nil {
		return domain.Message{}, fmt.Errorf("document createdAt: %w", err)
	}

	message := domain.Message{
		ID:             id,
		ChatID:         domain.ChatID(str(doc, "chatId")),
		SenderID:       domain.UserID(str(doc, "uid")),
		SenderEmail:    str(doc, "email"),
		SenderName:     str(doc, "displayName"),
		RecipientID:    domain.UserID(str(doc, "recipientUid")),
		RecipientEmail: str(doc, "recipientEmail"),
		Text:           str(doc, "text"),
		CreatedAt:      createdAt,
		LocalTimestamp: str(doc, "localTimeStamp"),
	}
	if deleted, ok := doc["isDeleted"].(bool); ok {
		message.IsDeleted = deleted
	}
	if participants, ok := doc["participants"].([]any); ok && len(participants) == 2 {
		message.Participants = [2]domain.UserID{
			domain.UserID(fmt.Sprint(participants[0])),
			domain.UserID(fmt.Sprint(participants[1])),
		}
	}
	if data := str(doc, "images"); data != "" {
		message.Attachments = []domain.Attachment{{
			EncodedImageData: data,
			Filename:         str(doc, "filename"),
			SizeBytes:        num(doc, "size"),
			MimeType:         str(doc, "type"),
		}}
	}
	return message, nil
}

func str(doc map[string]any, field string) string {
	v, _ := doc[field].(string)
	return v
}

func num(doc map[string]any, field string) int {
	v, _ := doc[field].(float64)
	return int(v)
}
