package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/services"
	"github.com/desertthunder/lectures/internal/shared"
)

// LectureInput is the submitted lecture form.
type LectureInput struct {
	Title    string  `form:"title" validate:"required,max=200"`
	URL      string  `form:"youtube_url" validate:"required,url"`
	TopicIDs []int64 `form:"topics"`
	TagIDs   []int64 `form:"tags"`
	RankID   *int64  `form:"rank"`
}

// Validate checks required fields and lengths.
func (in *LectureInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	return models.ValidateStruct(in)
}

// LectureManager creates and edits lectures.
type LectureManager struct {
	db      *shared.Database
	fetcher services.Fetcher
	logger  *log.Logger
}

// NewLectureManager creates a [LectureManager] that looks up metadata with fetcher.
func NewLectureManager(db *shared.Database, fetcher services.Fetcher, logger *log.Logger) *LectureManager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LectureManager{db: db, fetcher: fetcher, logger: logger}
}

// Get loads a lecture with its association sets.
func (m *LectureManager) Get(ctx context.Context, id int64) (*models.Lecture, error) {
	return repositories.NewLectureRepository(m.db).Get(ctx, id)
}

// Create validates in, fetches the video metadata and stores the lecture with its associations.
//
// Unknown topic, tag and rank ids are ignored. A video that is already catalogued returns [shared.ErrConflict].
func (m *LectureManager) Create(ctx context.Context, in LectureInput) (*models.Lecture, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	info, err := m.fetcher.Fetch(ctx, in.URL)
	if err != nil {
		m.logger.Error("metadata lookup failed", "url", in.URL, "error", err)
		return nil, err
	}

	lecture := &models.Lecture{
		YouTubeID:    info.YouTubeID,
		Title:        in.Title,
		ThumbnailURL: info.ThumbnailURL,
		PublishDate:  info.PublishDate,
		RankID:       in.RankID,
		TopicIDs:     in.TopicIDs,
		TagIDs:       in.TagIDs,
	}

	err = m.db.WithTx(ctx, func(tx *shared.Tx) error {
		repo := repositories.NewLectureRepository(tx)
		existing, err := repo.GetByYouTubeID(ctx, lecture.YouTubeID)
		switch {
		case err == nil:
			return fmt.Errorf("video %s is lecture %d: %w", lecture.YouTubeID, existing.ID, shared.ErrConflict)
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return repo.Create(ctx, lecture)
	})
	if err != nil {
		m.logger.Error("failed to add lecture", "youtube_id", lecture.YouTubeID, "error", err)
		return nil, err
	}

	m.logger.Info("lecture added", "id", lecture.ID, "youtube_id", lecture.YouTubeID)
	return lecture, nil
}

// Update sets the lecture's title, association sets and rank from in.
//
// Metadata is fetched again only when in.URL resolves to a different video than the one stored.
// Returns [shared.ErrNotFound] when no lecture has id.
func (m *LectureManager) Update(ctx context.Context, id int64, in LectureInput) (*models.Lecture, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lecture, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	videoID, err := services.ExtractVideoID(in.URL)
	if err != nil {
		return nil, err
	}

	if videoID != lecture.YouTubeID {
		info, err := m.fetcher.Fetch(ctx, in.URL)
		if err != nil {
			m.logger.Error("metadata lookup failed", "url", in.URL, "error", err)
			return nil, err
		}
		lecture.YouTubeID = info.YouTubeID
		lecture.ThumbnailURL = info.ThumbnailURL
		lecture.PublishDate = info.PublishDate
	}

	lecture.Title = in.Title
	lecture.RankID = in.RankID
	lecture.TopicIDs = in.TopicIDs
	lecture.TagIDs = in.TagIDs

	err = m.db.WithTx(ctx, func(tx *shared.Tx) error {
		return repositories.NewLectureRepository(tx).Update(ctx, lecture)
	})
	if err != nil {
		m.logger.Error("failed to update lecture", "id", id, "error", err)
		return nil, err
	}

	m.logger.Info("lecture updated", "id", lecture.ID, "youtube_id", lecture.YouTubeID)
	return lecture, nil
}

// Choices holds every term of each kind, for form selections and filter panels.
type Choices struct {
	Topics []*models.Term
	Tags   []*models.Term
	Ranks  []*models.Term
}

// TaxonomyManager creates and lists topics, tags and ranks.
type TaxonomyManager struct {
	db     *shared.Database
	logger *log.Logger
}

func NewTaxonomyManager(db *shared.Database, logger *log.Logger) *TaxonomyManager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TaxonomyManager{db: db, logger: logger}
}

// Create adds a term of kind. A name already in use returns [shared.ErrConflict].
func (m *TaxonomyManager) Create(ctx context.Context, kind models.TaxonomyKind, name string) (*models.Term, error) {
	term := models.NewTerm(kind, name)
	if err := term.Validate(); err != nil {
		return nil, err
	}

	repo := repositories.NewTaxonomyRepository(m.db, kind)
	if _, err := repo.GetByName(ctx, term.Name); err == nil {
		return nil, fmt.Errorf("%s %q: %w", kind, term.Name, shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if err := repo.Create(ctx, term); err != nil {
		m.logger.Error("failed to add term", "kind", kind, "name", term.Name, "error", err)
		return nil, err
	}

	m.logger.Info("term added", "kind", kind, "id", term.ID, "name", term.Name)
	return term, nil
}

// List returns every term of kind in insertion order.
func (m *TaxonomyManager) List(ctx context.Context, kind models.TaxonomyKind) ([]*models.Term, error) {
	return repositories.NewTaxonomyRepository(m.db, kind).List(ctx)
}

// Choices lists every kind at once.
func (m *TaxonomyManager) Choices(ctx context.Context) (*Choices, error) {
	var (
		c   Choices
		err error
	)
	if c.Topics, err = m.List(ctx, models.KindTopic); err != nil {
		return nil, err
	}
	if c.Tags, err = m.List(ctx, models.KindTag); err != nil {
		return nil, err
	}
	if c.Ranks, err = m.List(ctx, models.KindRank); err != nil {
		return nil, err
	}
	return &c, nil
}
