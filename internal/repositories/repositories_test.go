package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *shared.Database {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func mustTerm(t *testing.T, repo *TaxonomyRepository, name string) *models.Term {
	t.Helper()
	term := models.NewTerm(repo.Kind(), name)
	if err := repo.Create(context.Background(), term); err != nil {
		t.Fatalf("failed to create %s %q: %v", repo.Kind(), name, err)
	}
	return term
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser("admin", "hash")

		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID == 0 {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser("admin", "hash")
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.GetByUsername(ctx, "admin")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.ID != user.ID || retrieved.PasswordHash != "hash" {
			t.Errorf("unexpected user %+v", retrieved)
		}
		if !retrieved.CreatedAt.Equal(user.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", user.CreatedAt, retrieved.CreatedAt)
		}
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := models.NewUser("admin", "old")
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.UpdatePassword(ctx, user.ID, "new"); err != nil {
			t.Fatalf("failed to update password: %v", err)
		}
		retrieved, _ := repo.Get(ctx, user.ID)
		if retrieved.PasswordHash != "new" {
			t.Errorf("password hash not updated")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		for _, name := range []string{"alice", "bob"} {
			if err := repo.Create(ctx, models.NewUser(name, "hash")); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		users, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 || users[0].Username != "alice" {
			t.Errorf("unexpected users %v", users)
		}
	})
}

func TestUserRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidationError", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		err := repo.Create(ctx, models.NewUser("", "hash"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewUser("admin", "a")); err != nil {
			t.Fatalf("failed to create first user: %v", err)
		}
		if err := repo.Create(ctx, models.NewUser("admin", "b")); !errors.Is(err, shared.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		if _, err := repo.GetByUsername(ctx, "ghost"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.UpdatePassword(ctx, 42, "x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTaxonomyRepository(t *testing.T) {
	ctx := context.Background()

	for _, kind := range models.TaxonomyKinds {
		t.Run(string(kind), func(t *testing.T) {
			repo := NewTaxonomyRepository(setupTestDB(t), kind)

			first := mustTerm(t, repo, "Alpha")
			mustTerm(t, repo, "Beta")

			got, err := repo.GetByName(ctx, "Alpha")
			if err != nil {
				t.Fatalf("failed to get by name: %v", err)
			}
			if got.ID != first.ID || got.Kind != kind {
				t.Errorf("unexpected term %+v", got)
			}

			terms, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(terms) != 2 || terms[0].Name != "Alpha" || terms[1].Name != "Beta" {
				t.Errorf("unexpected terms %v", terms)
			}

			t.Run("duplicate name conflicts", func(t *testing.T) {
				err := repo.Create(ctx, models.NewTerm(kind, "Alpha"))
				if !errors.Is(err, shared.ErrConflict) {
					t.Errorf("expected ErrConflict, got %v", err)
				}
			})

			t.Run("missing term", func(t *testing.T) {
				if _, err := repo.Get(ctx, 999); !errors.Is(err, shared.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			})

			t.Run("DeleteAll", func(t *testing.T) {
				n, err := repo.DeleteAll(ctx)
				if err != nil || n != 2 {
					t.Errorf("expected 2 deleted, got %d (%v)", n, err)
				}
			})
		})
	}
}

func TestLectureRepository(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	t.Run("Create attaches known associations", func(t *testing.T) {
		db := setupTestDB(t)
		repos := New(db)
		opening := mustTerm(t, repos.Topics, "Opening")
		tag := mustTerm(t, repos.Tags, "beginner")
		rank := mustTerm(t, repos.Ranks, "5k")

		missingRank := int64(99)
		lecture := &models.Lecture{
			YouTubeID:   "abcDEF1234",
			Title:       "Opening principles",
			PublishDate: published,
			RankID:      &missingRank,
			TopicIDs:    []int64{opening.ID, 404, opening.ID},
			TagIDs:      []int64{tag.ID},
		}
		if err := repos.Lectures.Create(ctx, lecture); err != nil {
			t.Fatalf("failed to create lecture: %v", err)
		}

		if lecture.RankID != nil {
			t.Errorf("unknown rank should be ignored, got %v", *lecture.RankID)
		}
		if len(lecture.TopicIDs) != 1 || lecture.TopicIDs[0] != opening.ID {
			t.Errorf("expected only the known topic attached, got %v", lecture.TopicIDs)
		}

		lecture.RankID = &rank.ID
		lecture.TopicIDs = nil
		if err := repos.Lectures.Update(ctx, lecture); err != nil {
			t.Fatalf("failed to update lecture: %v", err)
		}

		got, err := repos.Lectures.Get(ctx, lecture.ID)
		if err != nil {
			t.Fatalf("failed to get lecture: %v", err)
		}
		if !got.HasRank(rank.ID) {
			t.Errorf("expected rank %d, got %v", rank.ID, got.RankID)
		}
		if len(got.TopicIDs) != 0 {
			t.Errorf("topic set should be replaced with empty set, got %v", got.TopicIDs)
		}
		if !got.HasTag(tag.ID) {
			t.Errorf("expected tag %d, got %v", tag.ID, got.TagIDs)
		}
		if !got.PublishDate.Equal(published) {
			t.Errorf("expected publish date %v, got %v", published, got.PublishDate)
		}
	})

	t.Run("duplicate youtube id conflicts", func(t *testing.T) {
		repo := NewLectureRepository(setupTestDB(t))
		first := &models.Lecture{YouTubeID: "dup", Title: "one", PublishDate: published}
		if err := repo.Create(ctx, first); err != nil {
			t.Fatalf("failed to create lecture: %v", err)
		}

		err := repo.Create(ctx, &models.Lecture{YouTubeID: "dup", Title: "two", PublishDate: published})
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}

		exists, err := repo.ExistsYouTubeID(ctx, "dup")
		if err != nil || !exists {
			t.Errorf("expected dup to exist (%v)", err)
		}
	})

	t.Run("update missing lecture", func(t *testing.T) {
		repo := NewLectureRepository(setupTestDB(t))
		err := repo.Update(ctx, &models.Lecture{ID: 12, YouTubeID: "x", Title: "x"})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List and DeleteAll", func(t *testing.T) {
		db := setupTestDB(t)
		repos := New(db)
		topic := mustTerm(t, repos.Topics, "Endgame")

		for i, id := range []string{"a1", "b2", "c3"} {
			l := &models.Lecture{YouTubeID: id, Title: id, PublishDate: published.Add(time.Duration(i) * time.Hour)}
			if i == 1 {
				l.TopicIDs = []int64{topic.ID}
			}
			if err := repos.Lectures.Create(ctx, l); err != nil {
				t.Fatalf("failed to create lecture: %v", err)
			}
		}

		lectures, err := repos.Lectures.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(lectures) != 3 {
			t.Fatalf("expected 3 lectures, got %d", len(lectures))
		}
		if len(lectures[1].TopicIDs) != 1 || len(lectures[0].TopicIDs) != 0 {
			t.Errorf("associations not loaded: %v / %v", lectures[0].TopicIDs, lectures[1].TopicIDs)
		}

		n, err := repos.Lectures.DeleteAll(ctx)
		if err != nil || n != 3 {
			t.Fatalf("expected 3 deleted, got %d (%v)", n, err)
		}
		if c, _ := repos.Lectures.Count(ctx); c != 0 {
			t.Errorf("expected no lectures left, got %d", c)
		}
	})
}
