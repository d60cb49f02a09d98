package shared

import (
	"context"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	ctx := context.Background()

	for _, dialect := range []Dialect{DialectSQLite, DialectPostgres} {
		t.Run("loadMigrations "+string(dialect), func(t *testing.T) {
			migrations, err := loadMigrations(dialect)
			if err != nil {
				t.Fatalf("failed to load migrations: %v", err)
			}
			if len(migrations) == 0 {
				t.Fatal("expected at least one migration")
			}

			for i := 1; i < len(migrations); i++ {
				if migrations[i].Version <= migrations[i-1].Version {
					t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
				}
			}
			for _, m := range migrations {
				if m.Up == "" || m.Down == "" {
					t.Errorf("migration version %d incomplete", m.Version)
				}
			}
		})
	}

	t.Run("dialects have matching versions", func(t *testing.T) {
		lite, _ := loadMigrations(DialectSQLite)
		pg, _ := loadMigrations(DialectPostgres)
		if len(lite) != len(pg) {
			t.Fatalf("sqlite has %d migrations, postgres has %d", len(lite), len(pg))
		}
		for i := range lite {
			if lite[i].Version != pg[i].Version {
				t.Errorf("version mismatch at %d: %d vs %d", i, lite[i].Version, pg[i].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		applied, err := RunMigrations(ctx, db)
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if applied == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"users", "lectures", "topics", "tags", "ranks", "lecture_topics", "lecture_tags"} {
			if _, err := db.ExecContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		version, err := RollbackMigration(ctx, db)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if version != 0 {
			t.Errorf("expected to roll back version 0, got %d", version)
		}

		if _, err := db.ExecContext(ctx, "SELECT 1 FROM lectures LIMIT 1"); err == nil {
			t.Error("lectures table should be gone after rollback")
		}

		current, err := CurrentVersion(ctx, db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if current != -1 {
			t.Errorf("expected no applied migrations, got version %d", current)
		}

		if _, err := RollbackMigration(ctx, db); err == nil {
			t.Error("rolling back an empty schema should fail")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		applied, err := RunMigrations(ctx, db)
		if err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}
		if applied != 0 {
			t.Errorf("second run applied %d migrations", applied)
		}

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		migrations, _ := loadMigrations(DialectSQLite)
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
