package mimetypes

import (
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"JPEG with parameters", "image/jpeg; q=0.9", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},
		{"Mismatch", "image/png", ImageJPEG, false},
		{"Invalid MIME", "not a mime", ImagePNG, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Matches(tt.detected, tt.expected)
			if ok != tt.want && got != tt.expected {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.detected, tt.expected, ok, tt.want)
			}
		})
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		want     bool
	}{
		{"PNG", "image/png", true},
		{"WebP", "image/webp", true},
		{"PDF is not an image", "application/pdf", false},
		{"Plain text with charset", "text/plain; charset=utf-8", false},
		{"Invalid", "???", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImage(tt.detected); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.detected, got, tt.want)
			}
		})
	}
}
