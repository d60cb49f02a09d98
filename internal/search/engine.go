package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lectures/internal/shared"
)

// Result is a lecture summary with association names resolved.
type Result struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	YouTubeID    string    `json:"youtube_id"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishDate  time.Time `json:"publish_date"`
	Topics       []string  `json:"topics"`
	Tags         []string  `json:"tags"`
	Rank         *string   `json:"rank"`
}

// Page is one page of search results.
type Page struct {
	Lectures    []Result `json:"lectures"`
	HasNext     bool     `json:"has_next"`
	TotalPages  int      `json:"total_pages"`
	CurrentPage int      `json:"current_page"`
	Total       int      `json:"total"`
}

// Engine runs compiled filters against the catalog.
type Engine struct {
	q shared.Querier
}

// NewEngine creates an [Engine] reading through q.
func NewEngine(q shared.Querier) *Engine {
	return &Engine{q: q}
}

// Search returns the page of lectures selected by f.
// Pages past the end are empty with HasNext false.
func (e *Engine) Search(ctx context.Context, f Filter) (*Page, error) {
	page := normalizePage(f.Page)
	query := Compile(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM lectures l ` + query.Where
	if err := e.q.QueryRowContext(ctx, countSQL, query.Args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: count lectures: %v", shared.ErrStorage, err)
	}

	pages := TotalPages(total)
	result := &Page{
		Lectures:    []Result{},
		HasNext:     page < pages,
		TotalPages:  pages,
		CurrentPage: page,
		Total:       total,
	}
	// Compare page numbers; (page-1)*PageSize overflows for huge pages.
	if page > pages {
		return result, nil
	}

	args := append(append([]any{}, query.Args...), PageSize, (page-1)*PageSize)
	lectures, err := e.selectResults(ctx, query.Where+" "+query.OrderBy+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	result.Lectures = lectures
	return result, nil
}

// Recent returns the n most recently published lectures.
func (e *Engine) Recent(ctx context.Context, n int) ([]Result, error) {
	if n <= 0 {
		return []Result{}, nil
	}
	return e.selectResults(ctx, OrderBy(SortDate)+" LIMIT ?", n)
}

// selectResults runs the lecture select with tail appended, then resolves association names.
func (e *Engine) selectResults(ctx context.Context, tail string, args ...any) ([]Result, error) {
	query := `
		SELECT l.id, l.title, l.youtube_id, l.thumbnail_url, l.publish_date, r.name
		FROM lectures l
		LEFT JOIN ranks r ON r.id = l.rank_id
	` + tail

	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search lectures: %v", shared.ErrStorage, err)
	}

	results := []Result{}
	for rows.Next() {
		var (
			r    Result
			rank sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.YouTubeID, &r.ThumbnailURL, &r.PublishDate, &rank); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan lecture: %v", shared.ErrStorage, err)
		}
		r.PublishDate = r.PublishDate.UTC()
		r.Topics, r.Tags = []string{}, []string{}
		if rank.Valid {
			name := rank.String
			r.Rank = &name
		}
		results = append(results, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: iterate lectures: %v", shared.ErrStorage, err)
	}

	if len(results) == 0 {
		return results, nil
	}
	if err := e.attachNames(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) attachNames(ctx context.Context, results []Result) error {
	index := make(map[int64]int, len(results))
	ids := make([]any, len(results))
	for i, r := range results {
		index[r.ID] = i
		ids[i] = r.ID
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"

	topics := `SELECT lt.lecture_id, t.name FROM lecture_topics lt JOIN topics t ON t.id = lt.topic_id WHERE lt.lecture_id IN ` + in + ` ORDER BY lt.lecture_id, t.id`
	err := e.eachName(ctx, topics, ids, func(lectureID int64, name string) {
		r := &results[index[lectureID]]
		r.Topics = append(r.Topics, name)
	})
	if err != nil {
		return err
	}

	tags := `SELECT lg.lecture_id, g.name FROM lecture_tags lg JOIN tags g ON g.id = lg.tag_id WHERE lg.lecture_id IN ` + in + ` ORDER BY lg.lecture_id, g.id`
	return e.eachName(ctx, tags, ids, func(lectureID int64, name string) {
		r := &results[index[lectureID]]
		r.Tags = append(r.Tags, name)
	})
}

func (e *Engine) eachName(ctx context.Context, query string, args []any, fn func(int64, string)) error {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: load association names: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("%w: scan association name: %v", shared.ErrStorage, err)
		}
		fn(id, name)
	}
	return rows.Err()
}
