package errors

import "fmt"

var (
	ErrUnauthenticated    = fmt.Errorf("no authenticated user")
	ErrNoRecipient        = fmt.Errorf("no recipient selected")
	ErrEmptyMessage       = fmt.Errorf("message has no text and no attachments")
	ErrTooManyAttachments = fmt.Errorf("too many attached images")
	ErrInvalidParticipant = fmt.Errorf("participant identifier is empty")
	ErrProfileNotFound    = fmt.Errorf("profile not found in user directory")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
