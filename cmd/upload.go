package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/shelfctl/internal/formatter"
	"github.com/desertthunder/shelfctl/internal/repositories"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/desertthunder/shelfctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// UploadRun uploads one or more book files, waiting for server-side imports to finish.
func (r *Runner) UploadRun(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.StringArgs("paths")

	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file path is required", shared.ErrMissingArgument)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", shared.ErrFileNotFound, path)
		}
	}

	opts := r.uploadOptions(cmd)

	r.logger.Info("starting upload", "files", len(paths), "workers", opts.NumWorkers)
	r.writePlain("Uploading %d file(s)...\n\n", len(paths))

	// Record outcomes to the local database when it is available.
	if db, err := r.openDatabase(); err == nil {
		defer db.Close()
		r.engine.SetRecorder(repositories.NewImportRepository(db))
	} else {
		r.logger.Warn("import history disabled", "error", err)
	}

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.UploadFile:
				r.writePlain("📤 %s\n", update.Message)
			case tasks.PollTask:
				r.writePlain("⏳ %s\n", update.Message)
			case tasks.FileImported:
				r.writePlain("✓ %s\n", update.Message)
			case tasks.FileFailed:
				r.writePlain("✗ %s\n", update.Message)
			}
		}
	}()

	// Run the engine operation
	result, err := r.engine.Run(ctx, progressCh, paths, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Upload Complete!")
	r.writePlain("%s\n", formatter.FormatUploadSummary(result))

	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d files failed", shared.ErrTaskFailed, result.Failed, result.TotalFiles)
	}

	return nil
}

// UploadConvert requests a format conversion and waits for the resulting task.
func (r *Runner) UploadConvert(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.Int64("id")
	format := cmd.String("format")

	opts := r.uploadOptions(cmd)

	r.logger.Info("starting conversion", "book", bookID, "format", format)
	r.writePlain("Converting book %d to %s...\n\n", bookID, format)

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			r.writePlain("⏳ %s\n", update.Message)
		}
	}()

	bookIDs, err := r.engine.Convert(ctx, progressCh, bookID, format, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln("✓ Conversion complete")
	for _, id := range bookIDs {
		r.writePlain("  Book: %d\n", id)
	}

	return nil
}

// UploadHistory lists recorded import outcomes from the local database.
func (r *Runner) UploadHistory(ctx context.Context, cmd *cli.Command) error {
	batchID := cmd.String("batch")
	status := cmd.String("status")
	useJSON := cmd.Bool("json")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewImportRepository(db)

	criteria := map[string]any{}
	if batchID != "" {
		criteria["batch_id"] = batchID
	}
	if status != "" {
		criteria["status"] = status
	}

	records, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list import records: %w", err)
	}

	if useJSON {
		summaries := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			summaries = append(summaries, map[string]any{
				"batch_id":   rec.BatchID(),
				"file_name":  rec.FileName(),
				"task_id":    rec.TaskID(),
				"book_ids":   rec.BookIDs(),
				"status":     string(rec.Status()),
				"error":      rec.Error(),
				"created_at": rec.CreatedAt(),
			})
		}
		return r.writeJSON(summaries, true)
	}

	r.writePlain("%d import record(s):\n\n", len(records))
	for i, rec := range records {
		r.writePlain("%d. %s\n", i+1, rec.FileName())
		r.writePlain("   Batch: %s\n", rec.BatchID())
		r.writePlain("   Status: %s\n", rec.Status())
		if rec.TaskID() > 0 {
			r.writePlain("   Task: %d\n", rec.TaskID())
		}
		if len(rec.BookIDs()) > 0 {
			r.writePlain("   Books: %s\n", rec.BookIDsString())
		}
		if rec.Error() != "" {
			r.writePlain("   Error: %s\n", rec.Error())
		}
		r.writePlain("\n")
	}

	return nil
}
