package event

import "baatchit/domain"

// ChangeEvent is a change notification from the message store.
type ChangeEvent interface {
	ChatID() domain.ChatID
}

// MessageAdded reports a newly inserted message.
type MessageAdded struct {
	Message domain.Message
}

func (e MessageAdded) ChatID() domain.ChatID {
	return e.Message.ChatID
}

// MessageDeleted reports the soft-delete transition of a message.
// The embedded record is the post-transition state (placeholder text,
// attachments cleared).
type MessageDeleted struct {
	Message domain.Message
}

func (e MessageDeleted) ChatID() domain.ChatID {
	return e.Message.ChatID
}
