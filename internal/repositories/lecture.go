package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
)

const lectureColumns = `id, youtube_id, title, thumbnail_url, publish_date, rank_id`

// LectureRepository persists [models.Lecture] records together with their association sets.
//
// Association writes are not atomic on their own; callers wrap Create and Update in a transaction.
type LectureRepository struct {
	q shared.Querier
}

// NewLectureRepository creates a new [LectureRepository] with the given database connection
func NewLectureRepository(q shared.Querier) *LectureRepository {
	return &LectureRepository{q: q}
}

// Create inserts a lecture and attaches its topic set, tag set and rank.
//
// Unknown topic, tag and rank ids are ignored; on return the lecture holds the ids actually attached.
// A duplicate youtube_id returns [shared.ErrConflict].
func (r *LectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	if err := lecture.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	lecture.PublishDate = models.NormalizeTime(lecture.PublishDate)

	query := `
		INSERT INTO lectures (youtube_id, title, thumbnail_url, publish_date, rank_id)
		VALUES (?, ?, ?, ?, (SELECT id FROM ranks WHERE id = ?))
		RETURNING id, rank_id
	`

	var rankID sql.NullInt64
	err := r.q.QueryRowContext(ctx, query,
		lecture.YouTubeID,
		lecture.Title,
		lecture.ThumbnailURL,
		lecture.PublishDate,
		nullableID(lecture.RankID),
	).Scan(&lecture.ID, &rankID)
	if err != nil {
		return translate(err, "failed to insert lecture %s", lecture.YouTubeID)
	}
	lecture.RankID = fromNull(rankID)

	return r.replaceAssociations(ctx, lecture)
}

// Update writes the lecture's core fields and replaces its association sets.
// Returns [shared.ErrNotFound] when no lecture has the lecture's ID.
func (r *LectureRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	if err := lecture.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	lecture.PublishDate = models.NormalizeTime(lecture.PublishDate)

	query := `
		UPDATE lectures
		SET youtube_id = ?, title = ?, thumbnail_url = ?, publish_date = ?, rank_id = (SELECT id FROM ranks WHERE id = ?)
		WHERE id = ?
		RETURNING rank_id
	`

	var rankID sql.NullInt64
	err := r.q.QueryRowContext(ctx, query,
		lecture.YouTubeID,
		lecture.Title,
		lecture.ThumbnailURL,
		lecture.PublishDate,
		nullableID(lecture.RankID),
		lecture.ID,
	).Scan(&rankID)
	if err != nil {
		return translate(err, "lecture %d", lecture.ID)
	}
	lecture.RankID = fromNull(rankID)

	return r.replaceAssociations(ctx, lecture)
}

func (r *LectureRepository) replaceAssociations(ctx context.Context, lecture *models.Lecture) error {
	topics, err := r.ReplaceTopics(ctx, lecture.ID, lecture.TopicIDs)
	if err != nil {
		return err
	}
	tags, err := r.ReplaceTags(ctx, lecture.ID, lecture.TagIDs)
	if err != nil {
		return err
	}
	lecture.TopicIDs, lecture.TagIDs = topics, tags
	return nil
}

// ReplaceTopics sets the lecture's topic set to ids, skipping unknown and repeated ids.
// Returns the ids attached.
func (r *LectureRepository) ReplaceTopics(ctx context.Context, lectureID int64, ids []int64) ([]int64, error) {
	return r.replaceJoin(ctx, "lecture_topics", "topic_id", "topics", lectureID, ids)
}

// ReplaceTags sets the lecture's tag set to ids, skipping unknown and repeated ids.
// Returns the ids attached.
func (r *LectureRepository) ReplaceTags(ctx context.Context, lectureID int64, ids []int64) ([]int64, error) {
	return r.replaceJoin(ctx, "lecture_tags", "tag_id", "tags", lectureID, ids)
}

func (r *LectureRepository) replaceJoin(ctx context.Context, table, column, target string, lectureID int64, ids []int64) ([]int64, error) {
	if _, err := r.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE lecture_id = ?`, table), lectureID); err != nil {
		return nil, translate(err, "failed to clear %s for lecture %d", table, lectureID)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (lecture_id, %s) SELECT CAST(? AS BIGINT), id FROM %s WHERE id = ?`, table, column, target)
	attached := []int64{}
	for _, id := range models.DedupeIDs(ids) {
		result, err := r.q.ExecContext(ctx, insert, lectureID, id)
		if err != nil {
			return nil, translate(err, "failed to attach %s %d to lecture %d", column, id, lectureID)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			attached = append(attached, id)
		}
	}
	return attached, nil
}

// Get retrieves a lecture by ID with its association sets
func (r *LectureRepository) Get(ctx context.Context, id int64) (*models.Lecture, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+lectureColumns+` FROM lectures WHERE id = ?`, id)
	lecture, err := scanLecture(row)
	if err != nil {
		return nil, translate(err, "lecture %d", id)
	}
	if err := r.loadAssociations(ctx, lecture); err != nil {
		return nil, err
	}
	return lecture, nil
}

// GetByYouTubeID retrieves a lecture by its video id with its association sets
func (r *LectureRepository) GetByYouTubeID(ctx context.Context, youtubeID string) (*models.Lecture, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+lectureColumns+` FROM lectures WHERE youtube_id = ?`, youtubeID)
	lecture, err := scanLecture(row)
	if err != nil {
		return nil, translate(err, "lecture %s", youtubeID)
	}
	if err := r.loadAssociations(ctx, lecture); err != nil {
		return nil, err
	}
	return lecture, nil
}

// ExistsYouTubeID reports whether a lecture with the video id is stored.
func (r *LectureRepository) ExistsYouTubeID(ctx context.Context, youtubeID string) (bool, error) {
	n, err := count(ctx, r.q, `SELECT COUNT(*) FROM lectures WHERE youtube_id = ?`, youtubeID)
	if err != nil {
		return false, translate(err, "failed to look up lecture %s", youtubeID)
	}
	return n > 0, nil
}

// List retrieves every lecture ordered by ID, with association sets.
func (r *LectureRepository) List(ctx context.Context) ([]*models.Lecture, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+lectureColumns+` FROM lectures ORDER BY id ASC`)
	if err != nil {
		return nil, translate(err, "failed to query lectures")
	}

	lectures := []*models.Lecture{}
	byID := map[int64]*models.Lecture{}
	for rows.Next() {
		lecture, err := scanLecture(rows)
		if err != nil {
			rows.Close()
			return nil, translate(err, "failed to scan lecture")
		}
		lecture.TopicIDs, lecture.TagIDs = []int64{}, []int64{}
		lectures = append(lectures, lecture)
		byID[lecture.ID] = lecture
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	topics, err := r.joinPairs(ctx, `SELECT lecture_id, topic_id FROM lecture_topics ORDER BY lecture_id, topic_id`)
	if err != nil {
		return nil, err
	}
	for _, p := range topics {
		if l, ok := byID[p[0]]; ok {
			l.TopicIDs = append(l.TopicIDs, p[1])
		}
	}

	tags, err := r.joinPairs(ctx, `SELECT lecture_id, tag_id FROM lecture_tags ORDER BY lecture_id, tag_id`)
	if err != nil {
		return nil, err
	}
	for _, p := range tags {
		if l, ok := byID[p[0]]; ok {
			l.TagIDs = append(l.TagIDs, p[1])
		}
	}

	return lectures, nil
}

// Count returns the number of lectures.
func (r *LectureRepository) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.q, `SELECT COUNT(*) FROM lectures`)
	if err != nil {
		return 0, translate(err, "failed to count lectures")
	}
	return n, nil
}

// DeleteAll removes every association row and then every lecture, returning the number of lectures deleted.
func (r *LectureRepository) DeleteAll(ctx context.Context) (int64, error) {
	for _, table := range []string{"lecture_topics", "lecture_tags"} {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return 0, translate(err, "failed to delete %s", table)
		}
	}

	result, err := r.q.ExecContext(ctx, `DELETE FROM lectures`)
	if err != nil {
		return 0, translate(err, "failed to delete lectures")
	}
	return result.RowsAffected()
}

func (r *LectureRepository) loadAssociations(ctx context.Context, lecture *models.Lecture) error {
	var err error
	if lecture.TopicIDs, err = r.ids(ctx, `SELECT topic_id FROM lecture_topics WHERE lecture_id = ? ORDER BY topic_id`, lecture.ID); err != nil {
		return err
	}
	if lecture.TagIDs, err = r.ids(ctx, `SELECT tag_id FROM lecture_tags WHERE lecture_id = ? ORDER BY tag_id`, lecture.ID); err != nil {
		return err
	}
	return nil
}

func (r *LectureRepository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "failed to query associations")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err, "failed to scan association")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LectureRepository) joinPairs(ctx context.Context, query string) ([][2]int64, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err, "failed to query associations")
	}
	defer rows.Close()

	var pairs [][2]int64
	for rows.Next() {
		var p [2]int64
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, translate(err, "failed to scan association")
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func scanLecture(s scanner) (*models.Lecture, error) {
	var (
		lecture     models.Lecture
		publishDate time.Time
		rankID      sql.NullInt64
	)
	err := s.Scan(&lecture.ID, &lecture.YouTubeID, &lecture.Title, &lecture.ThumbnailURL, &publishDate, &rankID)
	if err != nil {
		return nil, err
	}
	lecture.PublishDate = publishDate.UTC()
	lecture.RankID = fromNull(rankID)
	return &lecture, nil
}

func fromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
