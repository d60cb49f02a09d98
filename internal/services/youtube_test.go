package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/shared"
	tu "github.com/desertthunder/lectures/internal/testing"
)

func quietLogger() *log.Logger {
	l := shared.NewLogger(nil)
	l.SetLevel(log.FatalLevel)
	return l
}

func videoListHandler(t *testing.T, items []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube/v3/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		key := r.URL.Query().Get("key")
		if key == "" {
			key = r.Header.Get("X-Goog-Api-Key")
		}
		if key != "test-key" {
			t.Errorf("expected api key test-key, got %q", key)
		}
		if got := r.URL.Query().Get("id"); got != "abcDEF1234" {
			t.Errorf("expected id abcDEF1234, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"kind": "youtube#videoListResponse", "items": items})
	}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService("k"); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		items := []map[string]any{{
			"id": "abcDEF1234",
			"snippet": map[string]any{
				"title":       "Fighting spirit",
				"publishedAt": "2023-05-17T09:30:00Z",
				"thumbnails": map[string]any{
					"default": map[string]any{"url": "https://i.ytimg.com/default.jpg"},
					"high":    map[string]any{"url": "https://i.ytimg.com/high.jpg"},
					"maxres":  map[string]any{"url": "https://i.ytimg.com/maxres.jpg"},
				},
			},
		}}
		server := httptest.NewServer(videoListHandler(t, items))
		defer server.Close()

		svc := NewYouTubeService("test-key", WithEndpoint(server.URL+"/"), WithLogger(quietLogger()))
		info, err := svc.Fetch(ctx, "https://www.youtube.com/watch?v=abcDEF1234&t=30")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if info.YouTubeID != "abcDEF1234" {
			t.Errorf("expected id abcDEF1234, got %s", info.YouTubeID)
		}
		if info.Title != "Fighting spirit" {
			t.Errorf("unexpected title %q", info.Title)
		}
		if info.ThumbnailURL != "https://i.ytimg.com/maxres.jpg" {
			t.Errorf("expected maxres thumbnail, got %s", info.ThumbnailURL)
		}
		want := time.Date(2023, 5, 17, 9, 30, 0, 0, time.UTC)
		if !info.PublishDate.Equal(want) {
			t.Errorf("expected publish date %v, got %v", want, info.PublishDate)
		}
	})

	t.Run("no items", func(t *testing.T) {
		server := httptest.NewServer(videoListHandler(t, []map[string]any{}))
		defer server.Close()

		svc := NewYouTubeService("test-key", WithEndpoint(server.URL+"/"), WithLogger(quietLogger()))
		_, err := svc.Fetch(ctx, "https://youtu.be/abcDEF1234")
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrLookupFailed, got %v", err)
		}
	})

	t.Run("non-2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
		}))
		defer server.Close()

		svc := NewYouTubeService("test-key", WithEndpoint(server.URL+"/"), WithLogger(quietLogger()))
		_, err := svc.Fetch(ctx, "https://youtu.be/abcDEF1234")
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrLookupFailed, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer server.Close()

		svc := NewYouTubeService("test-key",
			WithEndpoint(server.URL+"/"),
			WithTimeout(50*time.Millisecond),
			WithLogger(quietLogger()),
		)
		_, err := svc.Fetch(ctx, "https://youtu.be/abcDEF1234")
		if !errors.Is(err, shared.ErrTimeout) || !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrTimeout wrapped in ErrLookupFailed, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		svc := NewYouTubeService("test-key", WithHTTPClient(client), WithLogger(quietLogger()))

		_, err := svc.Fetch(ctx, "https://youtu.be/abcDEF1234")
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrLookupFailed, got %v", err)
		}
		if errors.Is(err, shared.ErrTimeout) {
			t.Errorf("connection failure is not a timeout: %v", err)
		}
	})

	t.Run("unresolvable URL never calls the API", func(t *testing.T) {
		svc := NewYouTubeService("test-key", WithEndpoint("http://127.0.0.1:1/"))
		_, err := svc.Fetch(ctx, "https://vimeo.com/12345")
		if !errors.Is(err, shared.ErrUnresolvableURL) {
			t.Errorf("expected ErrUnresolvableURL, got %v", err)
		}
	})
}
