package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"baatchit/contract"
	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/errors"
	"baatchit/projection"
	"baatchit/repositories"
	"baatchit/runtime"

	"github.com/google/uuid"
)

// MaxImagesPerSend bounds one composition, matching the upload limit of
// the compose box.
const MaxImagesPerSend = 10

// ImageEncoder turns a raw upload into a transport-ready attachment.
// A failure concerns that image only, never the whole send.
type ImageEncoder interface {
	Encode(data []byte, filename string) (domain.Attachment, error)
}

// Upload is one image picked in the compose box, still unencoded.
type Upload struct {
	Data     []byte
	Filename string
}

// SendCommand carries everything the send pipeline needs. Sender fields
// come from the session token, recipient fields from the selected
// contact.
type SendCommand struct {
	SenderID          domain.UserID
	SenderEmail       string
	SenderDisplayName string
	RecipientID       domain.UserID
	RecipientEmail    string
	Text              string
	Images            []Upload
}

type IChatService interface {
	Send(ctx context.Context, cmd SendCommand) ([]domain.Message, error)
	SoftDelete(ctx context.Context, messageID uuid.UUID) (domain.Message, error)
	Messages(viewerID, counterpartID domain.UserID) ([]domain.Message, error)
	OpenConversation(viewerID, counterpartID domain.UserID, publish func([]domain.Message)) (*projection.Timeline, contract.Cancel, error)
	CloseConversation(viewerID domain.UserID)
	Contacts(viewerID domain.UserID) *projection.ContactList
}

// ChatService drives the write side of a conversation: validation,
// attachment encoding, persistence, change publication, and the
// optimistic patch of the sender's contact list.
type ChatService struct {
	messages     repositories.IMessageRepository
	directory    IDirectory
	encoder      ImageEncoder
	orchestrator *runtime.Orchestrator
	contacts     *projection.ContactHub
	log          *slog.Logger
}

func NewChatService(
	messages repositories.IMessageRepository,
	directory IDirectory,
	encoder ImageEncoder,
	orchestrator *runtime.Orchestrator,
	contacts *projection.ContactHub,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:     messages,
		directory:    directory,
		encoder:      encoder,
		orchestrator: orchestrator,
		contacts:     contacts,
		log:          log,
	}
}

// Send validates and persists one composition. With attachments present
// it writes one record per surviving image, all sharing the same text,
// conversation and timestamps. The stored records are returned so the
// caller can clear the compose box only on success.
func (s *ChatService) Send(ctx context.Context, cmd SendCommand) ([]domain.Message, error) {
	if cmd.SenderID == "" {
		return nil, errors.ErrUnauthenticated
	}
	if cmd.RecipientID == "" {
		return nil, errors.ErrNoRecipient
	}

	text := strings.TrimSpace(cmd.Text)
	if text == "" && len(cmd.Images) == 0 {
		// Empty composition never reaches the store or the caller
		s.log.Debug("Ignoring send", "reason", errors.ErrEmptyMessage)
		return nil, nil
	}
	if len(cmd.Images) > MaxImagesPerSend {
		return nil, errors.ErrTooManyAttachments
	}

	chatID, err := domain.ResolveChatID(cmd.SenderID, cmd.RecipientID)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	base := domain.Message{
		ChatID:         chatID,
		SenderID:       cmd.SenderID,
		SenderEmail:    cmd.SenderEmail,
		SenderName:     s.senderLabel(cmd),
		RecipientID:    cmd.RecipientID,
		RecipientEmail: cmd.RecipientEmail,
		Participants:   [2]domain.UserID{cmd.SenderID, cmd.RecipientID},
		Text:           text,
		CreatedAt:      createdAt,
		LocalTimestamp: domain.FormatLocalTime(createdAt),
	}

	var stored []domain.Message
	if len(cmd.Images) == 0 {
		message := base
		message.ID = uuid.New()
		if err := s.messages.StoreMessage(message); err != nil {
			return nil, err
		}
		stored = append(stored, message)
	} else {
		for _, image := range cmd.Images {
			attachment, err := s.encoder.Encode(image.Data, image.Filename)
			if err != nil {
				// A broken image drops out, the rest of the send goes on
				s.log.Warn("Dropping attachment that failed to encode",
					"filename", image.Filename, "err", err)
				continue
			}
			message := base
			message.ID = uuid.New()
			message.Attachments = []domain.Attachment{attachment}
			if err := s.messages.StoreMessage(message); err != nil {
				return stored, err
			}
			stored = append(stored, message)
		}
	}

	for _, message := range stored {
		s.orchestrator.Publish(event.MessageAdded{Message: message})
	}

	// Patch the sender's sidebar right away instead of waiting for the
	// change feed to come back around.
	if len(stored) > 0 && s.contacts != nil {
		s.contacts.For(cmd.SenderID).Upsert(stored[len(stored)-1])
	}

	return stored, nil
}

// SoftDelete blanks a message in place. The record keeps its slot in
// the conversation; repeating the call is harmless.
func (s *ChatService) SoftDelete(_ context.Context, messageID uuid.UUID) (domain.Message, error) {
	updated, err := s.messages.MarkDeleted(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	s.orchestrator.Publish(event.MessageDeleted{Message: updated})
	return updated, nil
}

// Messages returns the conversation between two users, oldest first.
func (s *ChatService) Messages(viewerID, counterpartID domain.UserID) ([]domain.Message, error) {
	chatID, err := domain.ResolveChatID(viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	return s.messages.MessagesByChat(chatID)
}

// OpenConversation builds the viewer's timeline for the selected
// counterpart and registers it on the change feed. Any previously open
// conversation of the viewer is detached first.
func (s *ChatService) OpenConversation(viewerID, counterpartID domain.UserID,
	publish func([]domain.Message)) (*projection.Timeline, contract.Cancel, error) {
	chatID, err := domain.ResolveChatID(viewerID, counterpartID)
	if err != nil {
		return nil, nil, err
	}
	timeline := projection.NewTimeline(viewerID, chatID, s.messages, publish, s.log)
	cancel := s.orchestrator.Watch(viewerID, chatID, timeline)
	return timeline, cancel, nil
}

func (s *ChatService) CloseConversation(viewerID domain.UserID) {
	s.orchestrator.Unwatch(viewerID)
}

// Contacts exposes the viewer's recent-contacts list.
func (s *ChatService) Contacts(viewerID domain.UserID) *projection.ContactList {
	return s.contacts.For(viewerID)
}

// senderLabel picks the display name stamped on outgoing messages:
// directory profile first, then the session's display name, then the
// email local part, then the unknown fallback.
func (s *ChatService) senderLabel(cmd SendCommand) string {
	if profile, ok := s.directory.Resolve(cmd.SenderID, cmd.SenderEmail); ok && profile.DisplayName != "" {
		return profile.DisplayName
	}
	if cmd.SenderDisplayName != "" {
		return cmd.SenderDisplayName
	}
	if local := domain.EmailLocalPart(cmd.SenderEmail); local != "" {
		return local
	}
	return domain.UnknownUserName
}
