package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/server"
	"github.com/desertthunder/lectures/internal/shared"
	tu "github.com/desertthunder/lectures/internal/testing"
)

const snapshotFixture = `{
  "lectures": [
    {"id": 10, "title": "Opening principles", "youtube_id": "abc123", "thumbnail_url": "", "publish_date": "2024-03-01T00:00:00Z", "rank_id": 3, "topic_ids": [1], "tag_ids": [2]},
    {"id": 11, "title": "Ladder problems", "youtube_id": "def456", "thumbnail_url": "", "publish_date": "2024-02-01T00:00:00Z", "rank_id": null, "topic_ids": [1, 99], "tag_ids": []}
  ],
  "topics": [{"id": 1, "name": "Fuseki"}],
  "tags": [{"id": 2, "name": "beginner-friendly"}],
  "ranks": [{"id": 3, "name": "DDK"}]
}`

// cliEnv points a runner at a fresh SQLite file and a config path that does not exist yet.
type cliEnv struct {
	t          *testing.T
	dir        string
	dbPath     string
	configPath string
	output     *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		t:          t,
		dir:        dir,
		dbPath:     filepath.Join(dir, "lectures.db"),
		configPath: filepath.Join(dir, "config.toml"),
		output:     &bytes.Buffer{},
	}
	t.Setenv("DATABASE_URL", env.dbPath)
	t.Setenv("LECTURES_CONFIG", "")
	return env
}

// run executes args against a fresh runner and returns its output.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	e.output.Reset()
	runner := NewRunner(RunnerOpts{Logger: tu.QuietLogger(), Output: e.output})
	argv := append([]string{"lectures", "--config", e.configPath}, args...)
	err := newApp(runner).Run(context.Background(), argv)
	return e.output.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("lectures %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (e *cliEnv) openDB() *shared.Database {
	e.t.Helper()
	db, err := shared.NewDatabase(e.dbPath)
	if err != nil {
		e.t.Fatalf("failed to open database: %v", err)
	}
	e.t.Cleanup(func() { db.Close() })
	return db
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			fetcher := tu.NewMockFetcher()

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Fetcher: fetcher,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.metadataFetcher() != fetcher {
				t.Error("expected injected fetcher to be used")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.open == nil {
				t.Error("expected default browser opener")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for i, cmd := range runner.register() {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"serve", "setup", "catalog", "browse"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			t.Setenv("PORT", "")
			runner := NewRunner(RunnerOpts{Logger: tu.QuietLogger()})
			if err := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Server.Port != shared.DefaultConfig().Server.Port {
				t.Errorf("expected default port, got %d", runner.config.Server.Port)
			}
		})

		t.Run("file then environment", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := "[server]\nport = 9000\nenv = \"production\"\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("PORT", "9100")
			t.Setenv("LECTURES_ENV", "")

			runner := NewRunner(RunnerOpts{Logger: tu.QuietLogger()})
			if err := runner.loadConfig(path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Server.Port != 9100 {
				t.Errorf("expected PORT override, got %d", runner.config.Server.Port)
			}
			if runner.config.Server.Env != shared.EnvProduction {
				t.Errorf("expected env from file, got %q", runner.config.Server.Env)
			}
		})

		t.Run("malformed environment", func(t *testing.T) {
			t.Setenv("PORT", "eighty")
			runner := NewRunner(RunnerOpts{Logger: tu.QuietLogger()})
			if err := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("database creates config and migrates", func(t *testing.T) {
		env := newCLIEnv(t)
		out := env.mustRun("setup", "database")

		tu.AssertFileExists(t, env.configPath)
		if !strings.Contains(out, "Database ready") {
			t.Errorf("unexpected output %q", out)
		}

		out = env.mustRun("setup", "database", "--rollback")
		if !strings.Contains(out, "Rolled back migration") {
			t.Errorf("unexpected rollback output %q", out)
		}
	})

	t.Run("admin with default password warns", func(t *testing.T) {
		env := newCLIEnv(t)
		out := env.mustRun("setup", "admin")

		if !strings.Contains(out, "WARNING") || !strings.Contains(out, defaultAdminPassword) {
			t.Errorf("expected default password warning, got %q", out)
		}

		user, err := repositories.NewUserRepository(env.openDB()).GetByUsername(context.Background(), defaultAdminUsername)
		if err != nil {
			t.Fatalf("expected admin user, got %v", err)
		}
		if !server.CheckPassword(user.PasswordHash, defaultAdminPassword) {
			t.Error("expected default password to verify")
		}
	})

	t.Run("admin twice conflicts", func(t *testing.T) {
		env := newCLIEnv(t)
		env.mustRun("setup", "admin", "--password", "s3cret")

		if _, err := env.run("setup", "admin"); !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("password rotation", func(t *testing.T) {
		env := newCLIEnv(t)
		env.mustRun("setup", "admin", "--username", "curator", "--password", "old-password")
		env.mustRun("setup", "password", "--username", "curator", "--password", "new-password")

		user, err := repositories.NewUserRepository(env.openDB()).GetByUsername(context.Background(), "curator")
		if err != nil {
			t.Fatal(err)
		}
		if server.CheckPassword(user.PasswordHash, "old-password") {
			t.Error("expected old password to be rejected")
		}
		if !server.CheckPassword(user.PasswordHash, "new-password") {
			t.Error("expected new password to verify")
		}
	})

	t.Run("password for unknown user", func(t *testing.T) {
		env := newCLIEnv(t)
		if _, err := env.run("setup", "password", "--username", "nobody", "--password", "x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	t.Run("import export reset", func(t *testing.T) {
		env := newCLIEnv(t)
		snapshot := filepath.Join(env.dir, "snapshot.json")
		if err := os.WriteFile(snapshot, []byte(snapshotFixture), 0644); err != nil {
			t.Fatal(err)
		}

		out := env.mustRun("catalog", "import", snapshot)
		if !strings.Contains(out, "2 lectures imported, 0 skipped") {
			t.Errorf("unexpected import output %q", out)
		}

		out = env.mustRun("catalog", "import", "--json", snapshot)
		if !strings.Contains(out, `"lectures_skipped": 2`) {
			t.Errorf("expected second import to skip both lectures, got %q", out)
		}

		out = env.mustRun("catalog", "stats", "--json")
		if !strings.Contains(out, `"lectures": 2`) || !strings.Contains(out, `"topics": 1`) {
			t.Errorf("unexpected stats %q", out)
		}

		out = env.mustRun("catalog", "export", "--format", "csv")
		if !strings.Contains(out, "Opening principles") || !strings.Contains(out, "Fuseki") {
			t.Errorf("unexpected csv export %q", out)
		}

		exported := filepath.Join(env.dir, "export.json")
		env.mustRun("catalog", "export", "--output", exported)
		if content := tu.MustReadFile(t, exported); !strings.Contains(content, `"youtube_id": "def456"`) {
			t.Errorf("unexpected json export %s", content)
		}

		if _, err := env.run("catalog", "reset"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected reset without --force to fail, got %v", err)
		}

		saved := filepath.Join(env.dir, "reset.json")
		out = env.mustRun("catalog", "reset", "--force", "--output", saved)
		if !strings.Contains(out, "Deleted 2 lectures") {
			t.Errorf("unexpected reset output %q", out)
		}
		if content := tu.MustReadFile(t, saved); !strings.Contains(content, "Ladder problems") {
			t.Errorf("expected pre-reset snapshot, got %s", content)
		}

		out = env.mustRun("catalog", "stats")
		if !strings.Contains(out, "Lectures: 0") {
			t.Errorf("expected empty catalog, got %q", out)
		}

		if _, err := env.run("catalog", "reset", "--force", "--output", saved); !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected existing snapshot path to be refused, got %v", err)
		}
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		env := newCLIEnv(t)
		path := filepath.Join(env.dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := env.run("catalog", "import", path); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown export format", func(t *testing.T) {
		env := newCLIEnv(t)
		if _, err := env.run("catalog", "export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("refuses default secret outside development", func(t *testing.T) {
		env := newCLIEnv(t)
		t.Setenv("LECTURES_ENV", shared.EnvProduction)
		t.Setenv("SESSION_SECRET", "")

		if _, err := env.run("serve"); !errors.Is(err, shared.ErrInsecureConfig) {
			t.Errorf("expected ErrInsecureConfig, got %v", err)
		}
	})
}
