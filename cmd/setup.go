package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/server"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "changeme"
)

// SetupDatabase creates config.toml when missing and runs (or rolls back) migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if err := r.loadConfig(configPath); err != nil {
			return err
		}
	}

	r.logger.Info("initializing database", "url", r.config.Database.URL)

	db, err := shared.NewDatabase(r.config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		version, err := shared.RollbackMigration(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back migration", "version", version)
		return r.writePlain("✓ Rolled back migration %d\n", version)
	}

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.URL)
	return r.writePlain("✓ Database ready (%d migrations applied, schema version %d)\n", applied, version)
}

// SetupAdmin creates the admin account, using the placeholder password unless one is given.
func (r *Runner) SetupAdmin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	insecure := password == ""
	if insecure {
		password = defaultAdminPassword
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := server.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := repositories.NewUserRepository(db).Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return fmt.Errorf("%w: user %q already exists; use 'lectures setup password' to change it", shared.ErrConflict, username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("created user", "username", username, "id", user.ID)
	r.writePlain("✓ Created user %q\n", username)

	if insecure {
		r.logger.Warn("admin account uses the default password", "username", username)
		r.writePlainHeader("WARNING: default password in use")
		r.writePlain("The password for %q is %q.\n", username, defaultAdminPassword)
		r.writePlain("Change it now: lectures setup password --username %s --password <new>\n", username)
	}
	return nil
}

// SetupPassword replaces an existing account's password.
func (r *Runner) SetupPassword(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")

	hash, err := server.HashPassword(cmd.String("password"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	r.logger.Info("password changed", "username", username)
	return r.writePlain("✓ Password updated for %q\n", username)
}
