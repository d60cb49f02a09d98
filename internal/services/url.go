package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/lectures/internal/shared"
)

// ShortURL returns the canonical short link for a video id.
func ShortURL(id string) string {
	return "https://youtu.be/" + id
}

// ExtractVideoID returns the video id referenced by raw.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", shared.ErrUnresolvableURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnresolvableURL, err)
	}

	var id string
	switch host := strings.ToLower(u.Hostname()); host {
	case "youtu.be", "www.youtu.be":
		id = firstSegment(u.Path)
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/live/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/live"))
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", shared.ErrUnresolvableURL, host)
	}

	id = stripFragments(id)
	if !validID(id) {
		return "", fmt.Errorf("%w: no video id in %q", shared.ErrUnresolvableURL, raw)
	}
	return id, nil
}

func firstSegment(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return seg
}

// stripFragments drops anything after a stray ?, & or # left inside the id.
func stripFragments(id string) string {
	if i := strings.IndexAny(id, "?&#"); i >= 0 {
		return id[:i]
	}
	return id
}

func validID(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
