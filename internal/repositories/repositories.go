package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lectures/internal/shared"
)

// Repositories groups the repositories bound to one [shared.Querier].
type Repositories struct {
	Users    *UserRepository
	Lectures *LectureRepository
	Topics   *TaxonomyRepository
	Tags     *TaxonomyRepository
	Ranks    *TaxonomyRepository
}

// New binds every repository to q, typically a [shared.Database] or a [shared.Tx].
func New(q shared.Querier) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(q),
		Lectures: NewLectureRepository(q),
		Topics:   NewTopicRepository(q),
		Tags:     NewTagRepository(q),
		Ranks:    NewRankRepository(q),
	}
}

// translate maps driver errors to the package's sentinel errors.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, shared.ErrNotFound)
	case shared.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", msg, shared.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %v", msg, shared.ErrStorage, err)
	}
}

// insertID executes an INSERT ... RETURNING id statement.
func insertID(ctx context.Context, q shared.Querier, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// count runs a SELECT COUNT(*) query.
func count(ctx context.Context, q shared.Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
