package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUser_Label_FallbackChain(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"display name first", User{DisplayName: "Alice", Email: "alice@example.com"}, "Alice"},
		{"email local part second", User{Email: "alice@example.com"}, "alice"},
		{"unknown last", User{}, UnknownUserName},
		{"malformed email falls through", User{Email: "not-an-email"}, UnknownUserName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.user.Label())
		})
	}
}

func TestEmailLocalPart(t *testing.T) {
	req := require.New(t)
	req.Equal("bob", EmailLocalPart("bob@chat.dev"))
	req.Equal("", EmailLocalPart("bob"))
	req.Equal("", EmailLocalPart(""))
}
