package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
)

// TaxonomyRepository persists the [models.Term] values of a single [models.TaxonomyKind].
//
// Topics, tags and ranks share one shape (id, unique name) and differ only in table and name length.
type TaxonomyRepository struct {
	q     shared.Querier
	kind  models.TaxonomyKind
	table string
}

// NewTaxonomyRepository creates a repository for kind.
func NewTaxonomyRepository(q shared.Querier, kind models.TaxonomyKind) *TaxonomyRepository {
	return &TaxonomyRepository{q: q, kind: kind, table: kind.Table()}
}

func NewTopicRepository(q shared.Querier) *TaxonomyRepository {
	return NewTaxonomyRepository(q, models.KindTopic)
}

func NewTagRepository(q shared.Querier) *TaxonomyRepository {
	return NewTaxonomyRepository(q, models.KindTag)
}

func NewRankRepository(q shared.Querier) *TaxonomyRepository {
	return NewTaxonomyRepository(q, models.KindRank)
}

// Kind returns the taxonomy kind this repository stores.
func (r *TaxonomyRepository) Kind() models.TaxonomyKind { return r.kind }

// Create inserts a term and sets its ID. A duplicate name returns [shared.ErrConflict].
func (r *TaxonomyRepository) Create(ctx context.Context, term *models.Term) error {
	term.Kind = r.kind
	if err := term.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id, err := insertID(ctx, r.q, fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) RETURNING id`, r.table), term.Name)
	if err != nil {
		return translate(err, "%s %q", r.kind, term.Name)
	}

	term.ID = id
	return nil
}

// Get retrieves a term by ID
func (r *TaxonomyRepository) Get(ctx context.Context, id int64) (*models.Term, error) {
	term := &models.Term{Kind: r.kind}
	err := r.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s WHERE id = ?`, r.table), id).Scan(&term.ID, &term.Name)
	if err != nil {
		return nil, translate(err, "%s %d", r.kind, id)
	}
	return term, nil
}

// GetByName retrieves a term by exact name
func (r *TaxonomyRepository) GetByName(ctx context.Context, name string) (*models.Term, error) {
	term := &models.Term{Kind: r.kind}
	err := r.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s WHERE name = ?`, r.table), name).Scan(&term.ID, &term.Name)
	if err != nil {
		return nil, translate(err, "%s %q", r.kind, name)
	}
	return term, nil
}

// List retrieves every term in insertion order
func (r *TaxonomyRepository) List(ctx context.Context) ([]*models.Term, error) {
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id ASC`, r.table))
	if err != nil {
		return nil, translate(err, "failed to query %s", r.table)
	}
	defer rows.Close()

	terms := []*models.Term{}
	for rows.Next() {
		term := &models.Term{Kind: r.kind}
		if err := rows.Scan(&term.ID, &term.Name); err != nil {
			return nil, translate(err, "failed to scan %s", r.kind)
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return terms, nil
}

// DeleteAll removes every term and returns how many were deleted.
// Lecture associations referencing them must be removed first.
func (r *TaxonomyRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table))
	if err != nil {
		return 0, translate(err, "failed to delete %s", r.table)
	}
	return result.RowsAffected()
}
