// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/shared"
)

// NewTestDB creates an in-memory SQLite database with migrations applied, closed on cleanup.
func NewTestDB(t *testing.T) *shared.Database {
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

// QuietLogger returns a logger that discards everything below fatal.
func QuietLogger() *log.Logger {
	l := shared.NewLogger(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

// Seeder inserts fixtures through the repositories.
type Seeder struct {
	t     *testing.T
	q     shared.Querier
	repos *repositories.Repositories
}

func NewSeeder(t *testing.T, q shared.Querier) *Seeder {
	return &Seeder{t: t, q: q, repos: repositories.New(q)}
}

// Term creates a topic, tag or rank.
func (s *Seeder) Term(kind models.TaxonomyKind, name string) int64 {
	s.t.Helper()
	term := models.NewTerm(kind, name)
	if err := repositories.NewTaxonomyRepository(s.q, kind).Create(context.Background(), term); err != nil {
		s.t.Fatalf("failed to seed %s %q: %v", kind, name, err)
	}
	return term.ID
}

// Lecture creates a lecture and returns its id.
func (s *Seeder) Lecture(l *models.Lecture) int64 {
	s.t.Helper()
	if l.Title == "" {
		l.Title = l.YouTubeID
	}
	if l.PublishDate.IsZero() {
		l.PublishDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if err := s.repos.Lectures.Create(context.Background(), l); err != nil {
		s.t.Fatalf("failed to seed lecture %s: %v", l.YouTubeID, err)
	}
	return l.ID
}

// User creates an admin account with an already hashed password.
func (s *Seeder) User(username, hash string) *models.User {
	s.t.Helper()
	u := models.NewUser(username, hash)
	if err := s.repos.Users.Create(context.Background(), u); err != nil {
		s.t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return u
}

// MockFetcher is a test double for [services.Fetcher] keyed by raw URL.
type MockFetcher struct {
	mu     sync.Mutex
	Videos map[string]*models.VideoInfo
	Err    error
	Calls  []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{Videos: map[string]*models.VideoInfo{}}
}

// Add registers the metadata returned for rawURL.
func (m *MockFetcher) Add(rawURL string, info models.VideoInfo) *MockFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Videos[rawURL] = &info
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, rawURL)
	if m.Err != nil {
		return nil, m.Err
	}
	info, ok := m.Videos[rawURL]
	if !ok {
		return nil, shared.ErrLookupFailed
	}
	copied := *info
	return &copied, nil
}

func (m *MockFetcher) Name() string { return "mock" }

// CallCount returns how many times Fetch ran.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Errorf("Directory does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
