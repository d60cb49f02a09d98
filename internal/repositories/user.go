package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
)

// UserRepository persists admin [models.User] accounts.
type UserRepository struct {
	q shared.Querier
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(q shared.Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new user and sets its ID. A taken username returns [shared.ErrConflict].
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = models.Now()
	}

	id, err := insertID(ctx, r.q,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`,
		user.Username, user.PasswordHash, models.NormalizeTime(user.CreatedAt),
	)
	if err != nil {
		return translate(err, "failed to insert user %s", user.Username)
	}

	user.ID = id
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user %d", id)
	}
	return user, nil
}

// GetByUsername retrieves a user by exact username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user %q", username)
	}
	return user, nil
}

// UpdatePassword replaces the stored hash for the user with the given id.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return translate(err, "failed to update password for user %d", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// List retrieves all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, username, password_hash, created_at FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, translate(err, "failed to query users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "failed to scan user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.q, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, translate(err, "failed to count users")
	}
	return n, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

var (
	_ scanner = (*sql.Row)(nil)
	_ scanner = (*sql.Rows)(nil)
)

func scanUser(s scanner) (*models.User, error) {
	var (
		user      models.User
		createdAt time.Time
	)
	if err := s.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = createdAt.UTC()
	return &user, nil
}
