package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/lectures/internal/shared"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"short link", "https://youtu.be/abcDEF1234", "abcDEF1234"},
		{"short link with query", "https://youtu.be/abcDEF1234?t=30", "abcDEF1234"},
		{"watch", "https://www.youtube.com/watch?v=abcDEF1234", "abcDEF1234"},
		{"watch with extra params", "https://www.youtube.com/watch?v=abcDEF1234&t=30", "abcDEF1234"},
		{"mobile", "https://m.youtube.com/watch?v=abcDEF1234", "abcDEF1234"},
		{"bare host", "https://youtube.com/watch?v=abc_DEF-12", "abc_DEF-12"},
		{"live", "https://www.youtube.com/live/abcDEF1234?si=xyz", "abcDEF1234"},
		{"glued fragment", "https://www.youtube.com/watch?v=abcDEF1234?feature=share", "abcDEF1234"},
		{"no scheme", "youtu.be/abcDEF1234", "abcDEF1234"},
		{"whitespace", "  https://youtu.be/abcDEF1234 \n", "abcDEF1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}

	t.Run("unresolvable", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"https://vimeo.com/12345",
			"https://www.youtube.com/watch",
			"https://www.youtube.com/channel/UC123",
			"https://youtu.be/",
			"https://youtu.be/<script>",
		} {
			if _, err := ExtractVideoID(raw); !errors.Is(err, shared.ErrUnresolvableURL) {
				t.Errorf("%q: expected ErrUnresolvableURL, got %v", raw, err)
			}
		}
	})
}

func TestShortURL(t *testing.T) {
	if got := ShortURL("abcDEF1234"); got != "https://youtu.be/abcDEF1234" {
		t.Errorf("unexpected short URL %s", got)
	}

	id, err := ExtractVideoID(ShortURL("abcDEF1234"))
	if err != nil || id != "abcDEF1234" {
		t.Errorf("short URL should round trip, got %q (%v)", id, err)
	}
}
