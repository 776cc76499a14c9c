// Package domain contains core concepts of the chat system.
// This file defines Message records and chat identity resolution.
// Messages are immutable except for the soft-delete transition.
package domain

import (
	"sort"
	"strings"
	"time"

	"baatchit/errors"

	"github.com/google/uuid"
)

// ChatID identifies the conversation between an unordered pair of users.
type ChatID string

const (
	// DeletedPlaceholder replaces the text of a soft-deleted message.
	DeletedPlaceholder = "This message was deleted."

	// SentImagesPreview is the contact-list preview for image messages.
	SentImagesPreview = "Sent Images"
)

// Message represents one persisted chat record.
// A message carries at most one attachment: sending several images
// produces one record per image, all sharing text, chat and timestamps.
type Message struct {
	ID             uuid.UUID
	ChatID         ChatID
	SenderID       UserID
	SenderEmail    string
	SenderName     string
	RecipientID    UserID
	RecipientEmail string
	Participants   [2]UserID
	Text           string
	Attachments    []Attachment
	CreatedAt      time.Time
	LocalTimestamp string
	IsDeleted      bool
}

// Attachment is a re-encoded, size-bounded image carried by a message.
type Attachment struct {
	EncodedImageData string // data URI
	Filename         string
	SizeBytes        int
	MimeType         string
}

// ResolveChatID derives the canonical conversation identifier for a pair
// of users. The two identifiers are sorted lexicographically and joined
// with "_", so ResolveChatID(a, b) == ResolveChatID(b, a).
func ResolveChatID(a, b UserID) (ChatID, error) {
	if a == "" || b == "" {
		return "", errors.ErrInvalidParticipant
	}
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return ChatID(strings.Join(pair, "_")), nil
}

// Counterpart returns the participant that is not the given user.
func Counterpart(participants [2]UserID, current UserID) (UserID, bool) {
	for _, p := range participants {
		if p != current && p != "" {
			return p, true
		}
	}
	return "", false
}

// Preview renders the contact-list preview for a message. Every path that
// builds a contact entry (optimistic send, live change event, full rebuild)
// must go through this function so they converge on the same label.
func Preview(m Message) string {
	if m.IsDeleted {
		return DeletedPlaceholder
	}
	if len(m.Attachments) > 0 {
		return SentImagesPreview
	}
	return m.Text
}

// FormatLocalTime renders the client-side send time as zero-padded 24h HH:MM.
func FormatLocalTime(t time.Time) string {
	return t.Format("15:04")
}
