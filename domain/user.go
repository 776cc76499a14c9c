// Package domain contains core concepts of the chat system.
// This file defines User profiles and display-name resolution rules.
package domain

import "strings"

// UserID is the opaque identifier assigned by the auth provider.
type UserID string

// UnknownUserName is the last resort of the display-name fallback chain.
const UnknownUserName = "Unknown User"

// User is a read-only profile from the user directory.
type User struct {
	UID         UserID
	DisplayName string
	Email       string
}

// EmailLocalPart returns the part of an email address before the "@",
// or an empty string when there is none.
func EmailLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return local
}

// Label resolves what to display for a profile: display name first,
// then the email local part, then "Unknown User".
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if local := EmailLocalPart(u.Email); local != "" {
		return local
	}
	return UnknownUserName
}
