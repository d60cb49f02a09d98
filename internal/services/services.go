package services

import (
	"context"

	"github.com/desertthunder/lectures/internal/models"
)

// Fetcher resolves a video URL to provider metadata.
type Fetcher interface {
	// Fetch extracts the video id from rawURL and looks up its metadata.
	Fetch(ctx context.Context, rawURL string) (*models.VideoInfo, error)

	// Name returns the provider name (e.g., "YouTube")
	Name() string
}

var _ Fetcher = (*YouTubeService)(nil)
