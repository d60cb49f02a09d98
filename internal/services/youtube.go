package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// PublishedAtLayout is the fixed timestamp layout of snippet.publishedAt.
const PublishedAtLayout = "2006-01-02T15:04:05Z"

const defaultTimeout = 10 * time.Second

// YouTubeService implements [Fetcher] over the YouTube Data API v3.
type YouTubeService struct {
	apiKey     string
	endpoint   string
	timeout    time.Duration
	logger     *log.Logger
	httpClient *http.Client
}

// YouTubeOption configures a [YouTubeService].
type YouTubeOption func(*YouTubeService)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) YouTubeOption {
	return func(y *YouTubeService) { y.endpoint = endpoint }
}

// WithTimeout bounds each lookup; non-positive values keep the default.
func WithTimeout(d time.Duration) YouTubeOption {
	return func(y *YouTubeService) {
		if d > 0 {
			y.timeout = d
		}
	}
}

// WithHTTPClient sends requests through c. The client is used as-is, so the API key is not attached.
func WithHTTPClient(c *http.Client) YouTubeOption {
	return func(y *YouTubeService) { y.httpClient = c }
}

// WithLogger sets the logger used for lookup diagnostics.
func WithLogger(l *log.Logger) YouTubeOption {
	return func(y *YouTubeService) { y.logger = l }
}

// NewYouTubeService creates a metadata fetcher authenticated with apiKey.
func NewYouTubeService(apiKey string, opts ...YouTubeOption) *YouTubeService {
	y := &YouTubeService{apiKey: apiKey, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(y)
	}
	if y.logger == nil {
		y.logger = shared.NewLogger(nil)
	}
	return y
}

// Name returns the service name.
func (y *YouTubeService) Name() string { return "YouTube" }

// Fetch resolves rawURL to a video id and performs one videos.list lookup for it.
func (y *YouTubeService) Fetch(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	svc, err := y.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLookupFailed, err)
	}

	resp, err := svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: video %s after %v", shared.ErrLookupFailed, shared.ErrTimeout, id, y.timeout)
		}
		y.logger.Warn("video lookup failed", "video_id", id, "error", err)
		return nil, fmt.Errorf("%w: video %s: %v", shared.ErrLookupFailed, id, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: video %s not found", shared.ErrLookupFailed, id)
	}

	snippet := resp.Items[0].Snippet
	published, err := time.Parse(PublishedAtLayout, snippet.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s has malformed publish date %q", shared.ErrLookupFailed, id, snippet.PublishedAt)
	}

	return &models.VideoInfo{
		YouTubeID:    id,
		Title:        snippet.Title,
		ThumbnailURL: bestThumbnail(snippet.Thumbnails),
		PublishDate:  published.UTC(),
	}, nil
}

func (y *YouTubeService) client(ctx context.Context) (*youtube.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(y.apiKey)}
	if y.endpoint != "" {
		opts = append(opts, option.WithEndpoint(y.endpoint))
	}
	if y.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(y.httpClient))
	}
	return youtube.NewService(ctx, opts...)
}

// bestThumbnail picks the highest resolution thumbnail present.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
