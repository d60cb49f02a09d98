package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/shared"
)

// ImportResult counts what an import changed.
type ImportResult struct {
	LecturesCreated int                         `json:"lectures_created"`
	LecturesSkipped int                         `json:"lectures_skipped"`
	TermsCreated    map[models.TaxonomyKind]int `json:"terms_created"`
	TermsReused     map[models.TaxonomyKind]int `json:"terms_reused"`
}

func newImportResult() *ImportResult {
	return &ImportResult{
		TermsCreated: map[models.TaxonomyKind]int{},
		TermsReused:  map[models.TaxonomyKind]int{},
	}
}

func (r *ImportResult) String() string {
	return fmt.Sprintf("%d lectures imported, %d skipped; topics %d new/%d reused, tags %d new/%d reused, ranks %d new/%d reused",
		r.LecturesCreated, r.LecturesSkipped,
		r.TermsCreated[models.KindTopic], r.TermsReused[models.KindTopic],
		r.TermsCreated[models.KindTag], r.TermsReused[models.KindTag],
		r.TermsCreated[models.KindRank], r.TermsReused[models.KindRank],
	)
}

// Stats summarises catalog size.
type Stats struct {
	Lectures int `json:"lectures"`
	Topics   int `json:"topics"`
	Tags     int `json:"tags"`
	Ranks    int `json:"ranks"`
}

// Catalog exports, imports and resets the whole catalog.
type Catalog struct {
	db     *shared.Database
	logger *log.Logger
}

func NewCatalog(db *shared.Database, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Catalog{db: db, logger: logger}
}

// ParseSnapshot decodes a snapshot document. Malformed JSON returns [shared.ErrInvalidInput].
func ParseSnapshot(r io.Reader) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	if err := json.NewDecoder(r).Decode(snap); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot: %v", shared.ErrInvalidInput, err)
	}
	return snap, nil
}

// Export reads every lecture and term in one transaction.
func (c *Catalog) Export(ctx context.Context) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := c.db.WithTx(ctx, func(tx *shared.Tx) error {
		var err error
		snap, err = buildSnapshot(ctx, repositories.New(tx))
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Stats counts lectures and terms.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	repos := repositories.New(c.db)
	var (
		s   Stats
		err error
	)
	if s.Lectures, err = repos.Lectures.Count(ctx); err != nil {
		return nil, err
	}
	for kind, dst := range map[models.TaxonomyKind]*int{models.KindTopic: &s.Topics, models.KindTag: &s.Tags, models.KindRank: &s.Ranks} {
		terms, err := repositories.NewTaxonomyRepository(c.db, kind).List(ctx)
		if err != nil {
			return nil, err
		}
		*dst = len(terms)
	}
	return &s, nil
}

func buildSnapshot(ctx context.Context, repos *repositories.Repositories) (*models.Snapshot, error) {
	snap := models.NewSnapshot()

	lectures, err := repos.Lectures.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lectures {
		snap.Lectures = append(snap.Lectures, models.SnapshotFromLecture(l))
	}

	for _, repo := range []*repositories.TaxonomyRepository{repos.Topics, repos.Tags, repos.Ranks} {
		terms, err := repo.List(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]models.SnapshotTerm, 0, len(terms))
		for _, t := range terms {
			entries = append(entries, models.SnapshotTerm{ID: t.ID, Name: t.Name})
		}
		snap.SetTerms(repo.Kind(), entries)
	}

	return snap, nil
}

// Import merges snap into the catalog in one transaction.
//
// Terms are matched by name: an existing term is reused, a missing one is created, and the
// snapshot's ids are remapped to the stored ids. Lectures whose video id is already stored are
// skipped. References to ids the snapshot does not define are dropped. Importing the same
// snapshot twice creates nothing the second time.
//
// Progress is delivered once the transaction commits, so a failed import reports nothing.
// Sends block until received or ctx is done.
func (c *Catalog) Import(ctx context.Context, snap *models.Snapshot, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: empty snapshot", shared.ErrInvalidInput)
	}

	var (
		result *ImportResult
		steps  []ProgressUpdate
	)
	err := c.db.WithTx(ctx, func(tx *shared.Tx) error {
		var err error
		steps = steps[:0]
		result, err = importSnapshot(ctx, repositories.New(tx), snap, func(u ProgressUpdate) {
			steps = append(steps, u)
		})
		return err
	})
	if err != nil {
		c.logger.Error("import failed", "error", err)
		return nil, err
	}

	c.logger.Info("import finished", "created", result.LecturesCreated, "skipped", result.LecturesSkipped)
	for _, u := range append(steps, importDoneUpdate(result)) {
		if err := sendProgress(ctx, progress, u); err != nil {
			return result, err
		}
	}
	return result, nil
}

func importSnapshot(ctx context.Context, repos *repositories.Repositories, snap *models.Snapshot, report func(ProgressUpdate)) (*ImportResult, error) {
	result := newImportResult()
	idMaps := map[models.TaxonomyKind]map[int64]int64{}

	for _, repo := range []*repositories.TaxonomyRepository{repos.Topics, repos.Tags, repos.Ranks} {
		kind := repo.Kind()
		entries := snap.Terms(kind)
		mapping := make(map[int64]int64, len(entries))

		for i, entry := range entries {
			newID, reused, err := reconcileTerm(ctx, repo, entry.Name)
			if err != nil {
				return nil, fmt.Errorf("%s %d (%q): %w", kind, entry.ID, entry.Name, err)
			}
			mapping[entry.ID] = newID
			if reused {
				result.TermsReused[kind]++
			} else {
				result.TermsCreated[kind]++
			}
			report(termUpdate(kind, i+1, len(entries), entry.Name, reused))
		}
		idMaps[kind] = mapping
	}

	total := len(snap.Lectures)
	for i, entry := range snap.Lectures {
		exists, err := repos.Lectures.ExistsYouTubeID(ctx, entry.YouTubeID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.LecturesSkipped++
			report(lectureUpdate(i+1, total, entry, true))
			continue
		}

		lecture := &models.Lecture{
			YouTubeID:    entry.YouTubeID,
			Title:        entry.Title,
			ThumbnailURL: entry.ThumbnailURL,
			PublishDate:  entry.PublishDate,
			RankID:       remapOne(idMaps[models.KindRank], entry.RankID),
			TopicIDs:     remap(idMaps[models.KindTopic], entry.TopicIDs),
			TagIDs:       remap(idMaps[models.KindTag], entry.TagIDs),
		}
		if err := repos.Lectures.Create(ctx, lecture); err != nil {
			return nil, fmt.Errorf("lecture %d (%s): %w", entry.ID, entry.YouTubeID, err)
		}
		result.LecturesCreated++
		report(lectureUpdate(i+1, total, entry, false))
	}

	return result, nil
}

// reconcileTerm returns the id of the term named name, creating it when missing.
func reconcileTerm(ctx context.Context, repo *repositories.TaxonomyRepository, name string) (int64, bool, error) {
	term := models.NewTerm(repo.Kind(), name)
	existing, err := repo.GetByName(ctx, term.Name)
	if err == nil {
		return existing.ID, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return 0, false, err
	}
	if err := repo.Create(ctx, term); err != nil {
		return 0, false, err
	}
	return term.ID, false, nil
}

func remap(mapping map[int64]int64, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range models.DedupeIDs(ids) {
		if newID, ok := mapping[id]; ok {
			out = append(out, newID)
		}
	}
	return models.DedupeIDs(out)
}

func remapOne(mapping map[int64]int64, id *int64) *int64 {
	if id == nil {
		return nil
	}
	newID, ok := mapping[*id]
	if !ok {
		return nil
	}
	return &newID
}

// Reset snapshots the catalog and then deletes every lecture, association and term.
// User accounts are kept. Returns the pre-reset snapshot.
func (c *Catalog) Reset(ctx context.Context) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := c.db.WithTx(ctx, func(tx *shared.Tx) error {
		repos := repositories.New(tx)

		var err error
		if snap, err = buildSnapshot(ctx, repos); err != nil {
			return err
		}

		if _, err := repos.Lectures.DeleteAll(ctx); err != nil {
			return err
		}
		for _, repo := range []*repositories.TaxonomyRepository{repos.Topics, repos.Tags, repos.Ranks} {
			if _, err := repo.DeleteAll(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("reset failed", "error", err)
		return nil, err
	}

	c.logger.Warn("catalog reset", "lectures", len(snap.Lectures), "topics", len(snap.Topics), "tags", len(snap.Tags), "ranks", len(snap.Ranks))
	return snap, nil
}
