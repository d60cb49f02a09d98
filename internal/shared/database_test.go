package shared

import (
	"context"
	"errors"
	"testing"
)

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		dsn     string
	}{
		{"sqlite:///baduk_lectures.db", DialectSQLite, "baduk_lectures.db"},
		{"sqlite:////var/lib/lectures.db", DialectSQLite, "/var/lib/lectures.db"},
		{"sqlite://", DialectSQLite, ":memory:"},
		{":memory:", DialectSQLite, ":memory:"},
		{"./local.db", DialectSQLite, "./local.db"},
		{"postgres://u:p@localhost/db", DialectPostgres, "postgres://u:p@localhost/db"},
		{"postgresql://u:p@localhost/db?sslmode=disable", DialectPostgres, "postgresql://u:p@localhost/db?sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn, err := ParseDatabaseURL(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dialect != tt.dialect || dsn != tt.dsn {
				t.Errorf("got (%s, %s), want (%s, %s)", dialect, dsn, tt.dialect, tt.dsn)
			}
		})
	}

	t.Run("rejects unknown schemes", func(t *testing.T) {
		for _, url := range []string{"", "mysql://localhost/db"} {
			if _, _, err := ParseDatabaseURL(url); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("%q: expected ErrInvalidConfig, got %v", url, err)
			}
		}
	})
}

func TestRewritePlaceholders(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM lectures WHERE id = ?":                    "SELECT * FROM lectures WHERE id = $1",
		"INSERT INTO tags (name) VALUES (?) RETURNING id":        "INSERT INTO tags (name) VALUES ($1) RETURNING id",
		"SELECT ? , ?, ?":                                        "SELECT $1 , $2, $3",
		"SELECT 'what?' FROM t WHERE a = ?":                      "SELECT 'what?' FROM t WHERE a = $1",
		"SELECT 'it''s?' WHERE a = ? AND b LIKE ? ESCAPE '\\'": "SELECT 'it''s?' WHERE a = $1 AND b LIKE $2 ESCAPE '\\'",
	}
	for in, want := range tests {
		if got := rewritePlaceholders(in); got != want {
			t.Errorf("rewritePlaceholders(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDatabase(t *testing.T) {
	ctx := context.Background()

	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Run("WithTx commits", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO topics (name) VALUES (?)", "Opening")
			return err
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var n int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM topics").Scan(&n)
		if n != 1 {
			t.Errorf("expected 1 topic, got %d", n)
		}
	})

	t.Run("WithTx rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO topics (name) VALUES (?)", "Endgame"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		var n int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM topics WHERE name = ?", "Endgame").Scan(&n)
		if n != 0 {
			t.Errorf("rolled back insert is visible")
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		_, err := db.ExecContext(ctx, "INSERT INTO topics (name) VALUES (?)", "Opening")
		if err == nil {
			t.Fatal("expected duplicate insert to fail")
		}
		if !IsUniqueViolation(err) {
			t.Errorf("expected unique violation, got %v", err)
		}
		if IsUniqueViolation(errors.New("other")) {
			t.Error("plain error reported as unique violation")
		}
	})

	t.Run("foreign keys enforced", func(t *testing.T) {
		_, err := db.ExecContext(ctx, "INSERT INTO lecture_topics (lecture_id, topic_id) VALUES (?, ?)", 999, 999)
		if err == nil {
			t.Error("expected foreign key violation")
		}
	})
}

func TestBrowseURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:5000": "http://127.0.0.1:5000",
		"0.0.0.0:8080":   "http://localhost:8080",
		":5000":          "http://localhost:5000",
	}
	for addr, want := range tests {
		if got := BrowseURL(addr); got != want {
			t.Errorf("BrowseURL(%q) = %q, want %q", addr, got, want)
		}
	}
}
