package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/lectures/internal/server"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web application until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = cmd.Int("port")
	}
	if err := r.config.Validate(); err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}
	if r.config.Server.IsDevelopment() && r.config.Credentials.Session.Secret == shared.DefaultSessionSecret {
		r.logger.Warn("using the default session secret; set SESSION_SECRET before deploying")
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := server.New(r.config, db, r.metadataFetcher(), shared.WithLogger(r.logger, "component", "http"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("open") {
		url := shared.BrowseURL(r.config.Server.Addr())
		go func() {
			if err := r.open(url); err != nil {
				r.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}()
	}

	return srv.Run(ctx)
}
