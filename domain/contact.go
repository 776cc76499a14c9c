package domain

import "time"

// Contact is one recent-contacts entry: a counterpart user and the
// preview of the latest exchange. Derived state, never persisted.
type Contact struct {
	UID             UserID
	DisplayName     string
	Email           string
	LastMessage     string
	LastMessageTime string // zero-padded HH:MM, display only
	LastMessageAt   time.Time
}
