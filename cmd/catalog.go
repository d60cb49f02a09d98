package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/lectures/internal/formatter"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/desertthunder/lectures/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogExport writes the catalog in the requested format.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	output := cmd.String("output")

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := tasks.NewCatalog(db, r.logger).Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}
	r.logger.Info("exported catalog", "lectures", len(snap.Lectures), "format", format)

	switch {
	case format == formatter.FormatCSV && output != "":
		result, err := formatter.WriteCSVExport(snap, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", result.LecturesFile)
		return r.writePlain("✓ Wrote %s\n", result.TaxonomyFile)
	case format == formatter.FormatMarkdown && (output != "" || cmd.Bool("thumbnails")):
		result, err := formatter.WriteMarkdownExport(snap, output, cmd.Bool("thumbnails"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d files to %s (%d thumbnails)\n", len(result.Files), result.Directory, result.Thumbnails)
	case format == formatter.FormatJSON && output != "":
		path, err := formatter.WriteJSONExport(snap, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", path)
	case format == formatter.FormatText && output != "":
		path, err := formatter.WriteTextExport(snap, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", path)
	default:
		return formatter.Render(r.output, snap, format)
	}
}

// CatalogImport loads a snapshot file into the catalog, printing each step once the import commits.
func (r *Runner) CatalogImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: snapshot path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := tasks.ParseSnapshot(f)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	asJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Phase == tasks.ImportDone || asJSON {
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.NewCatalog(db, r.logger).Import(ctx, snap, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if asJSON {
		return r.writeJSON(result, true)
	}
	return r.writePlainln("✓ %s", result)
}

// CatalogReset deletes every lecture and term after saving the pre-reset snapshot.
func (r *Runner) CatalogReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("%w: reset deletes all lectures; pass --force to confirm", shared.ErrMissingArgument)
	}

	output := cmd.String("output")
	if output == "" {
		output = fmt.Sprintf("reset-%s.json", time.Now().UTC().Format("20060102-150405"))
	}
	if _, err := os.Stat(output); err == nil {
		return fmt.Errorf("%w: %s already exists", shared.ErrConflict, output)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := tasks.NewCatalog(db, r.logger).Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	path, err := formatter.WriteJSONExport(snap, output)
	if err != nil {
		return fmt.Errorf("catalog was reset but the snapshot could not be saved: %w", err)
	}

	r.logger.Warn("catalog reset", "lectures", len(snap.Lectures), "snapshot", path)
	return r.writePlain("✓ Deleted %d lectures; snapshot saved to %s\n", len(snap.Lectures), path)
}

// CatalogStats prints the number of lectures and terms.
func (r *Runner) CatalogStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := tasks.NewCatalog(db, r.logger).Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	r.writePlainHeader("Catalog")
	return r.writePlain("Lectures: %d\nTopics:   %d\nTags:     %d\nRanks:    %d\n", stats.Lectures, stats.Topics, stats.Tags, stats.Ranks)
}
