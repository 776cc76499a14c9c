package domain

import (
	"testing"
	"time"

	"baatchit/errors"

	"github.com/stretchr/testify/require"
)

func TestResolveChatID_Symmetry(t *testing.T) {
	req := require.New(t)

	pairs := [][2]UserID{
		{"u1", "u2"},
		{"zz", "aa"},
		{"alice-uid", "bob-uid"},
		{"9", "10"},
	}

	for _, pair := range pairs {
		ab, err := ResolveChatID(pair[0], pair[1])
		req.NoError(err)
		ba, err := ResolveChatID(pair[1], pair[0])
		req.NoError(err)
		req.Equal(ab, ba)
	}
}

func TestResolveChatID_LexicographicJoin(t *testing.T) {
	req := require.New(t)

	id, err := ResolveChatID("u2", "u1")
	req.NoError(err)
	req.Equal(ChatID("u1_u2"), id)

	// "10" < "9" lexicographically, order is by string comparison
	id, err = ResolveChatID("9", "10")
	req.NoError(err)
	req.Equal(ChatID("10_9"), id)
}

func TestResolveChatID_EmptyParticipant(t *testing.T) {
	req := require.New(t)

	_, err := ResolveChatID("", "u2")
	req.ErrorIs(err, errors.ErrInvalidParticipant)

	_, err = ResolveChatID("u1", "")
	req.ErrorIs(err, errors.ErrInvalidParticipant)
}

func TestCounterpart(t *testing.T) {
	req := require.New(t)

	other, ok := Counterpart([2]UserID{"u1", "u2"}, "u1")
	req.True(ok)
	req.Equal(UserID("u2"), other)

	other, ok = Counterpart([2]UserID{"u1", "u2"}, "u2")
	req.True(ok)
	req.Equal(UserID("u1"), other)

	_, ok = Counterpart([2]UserID{"u1", ""}, "u1")
	req.False(ok)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		want    string
	}{
		{"plain text", Message{Text: "hello"}, "hello"},
		{"attachment wins over text", Message{
			Text:        "look",
			Attachments: []Attachment{{Filename: "cat.jpg"}},
		}, SentImagesPreview},
		{"deleted wins over everything", Message{
			Text:        "secret",
			Attachments: []Attachment{{Filename: "cat.jpg"}},
			IsDeleted:   true,
		}, DeletedPlaceholder},
		{"empty text", Message{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Preview(tt.message))
		})
	}
}

func TestFormatLocalTime_ZeroPadded(t *testing.T) {
	req := require.New(t)

	at := time.Date(2025, 3, 9, 9, 5, 33, 0, time.UTC)
	req.Equal("09:05", FormatLocalTime(at))

	at = time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	req.Equal("14:05", FormatLocalTime(at))
}
