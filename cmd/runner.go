package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/services"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	fetcher services.Fetcher
	logger  *log.Logger
	output  io.Writer
	open    func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Fetcher services.Fetcher
	Logger  *log.Logger
	Output  io.Writer
	Open    func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &Runner{
		config:  opts.Config,
		fetcher: opts.Fetcher,
		logger:  opts.Logger,
		output:  opts.Output,
		open:    opts.Open,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, catalogCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by the root --config flag.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, r.loadConfig(cmd.String("config"))
}

// loadConfig reads path when it exists, falls back to the embedded defaults otherwise,
// then applies environment overrides.
func (r *Runner) loadConfig(path string) error {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return err
		}
		r.logger.Debug("loaded config", "path", path)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	r.config = config
	return nil
}

// openDatabase connects to the configured database and applies pending migrations.
func (r *Runner) openDatabase(ctx context.Context) (*shared.Database, error) {
	db, err := shared.NewDatabase(r.config.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		r.logger.Info("applied migrations", "count", applied)
	}
	return db, nil
}

// metadataFetcher returns the injected fetcher or a YouTube Data API client built from config.
func (r *Runner) metadataFetcher() services.Fetcher {
	if r.fetcher != nil {
		return r.fetcher
	}

	yt := r.config.Credentials.YouTube
	if yt.APIKey == "" || yt.APIKey == shared.DefaultAPIKey {
		r.logger.Warn("YouTube API key is not configured; adding lectures will fail")
	}
	return services.NewYouTubeService(yt.APIKey,
		services.WithTimeout(yt.Timeout()),
		services.WithLogger(shared.WithLogger(r.logger, "service", "youtube")),
	)
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
