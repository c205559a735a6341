package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/shelfctl/internal/repositories"
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList lists books from the remote library with optional pagination.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	offset := cmd.Int("offset")
	sort := cmd.String("sort")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	cache := cmd.Bool("cache")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing books with limit %v", limit)

	books, err := r.library.GetBooks(ctx, services.ListOptions{Limit: limit, Offset: offset, Sort: sort})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cache {
		if err := r.cacheBooks(books); err != nil {
			r.logger.Warn("failed to refresh local cache", "error", err)
		} else {
			r.writePlain("✓ Cached %d books locally\n\n", len(books))
		}
	}

	if useJSON {
		return r.writeJSON(books, pretty)
	}

	r.writePlain("Found %d books:\n\n", len(books))
	for _, b := range books {
		r.writeBookSummary(b)
	}

	return nil
}

// LibraryShow displays a single book by id.
func (r *Runner) LibraryShow(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.Int64("id")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("fetching book %v", bookID)

	book, err := r.library.GetBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(book, pretty)
	}

	r.writePlain("%s\n", book.Title)
	if len(book.Authors) > 0 {
		r.writePlain("Authors: %s\n", strings.Join(book.Authors, ", "))
	}
	if book.Series != "" {
		r.writePlain("Series: %s #%g\n", book.Series, book.SeriesIndex)
	}
	r.writePlain("Formats: %s\n", strings.Join(book.Formats, ", "))
	if len(book.Tags) > 0 {
		r.writePlain("Tags: %s\n", strings.Join(book.Tags, ", "))
	}
	if book.Size > 0 {
		r.writePlain("Size: %s\n", shared.FormatFileSize(book.Size))
	}

	return nil
}

// LibrarySearch performs a full-text search against the library.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("searching library for %q", query)

	books, err := r.library.SearchBooks(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(books, pretty)
	}

	r.writePlain("Found %d books matching %q:\n\n", len(books), query)
	for _, b := range books {
		r.writeBookSummary(b)
	}

	return nil
}

// LibraryDownload streams a book file to disk.
func (r *Runner) LibraryDownload(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.Int64("id")
	format := cmd.String("format")
	outputPath := cmd.String("output")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("book_%d.%s", bookID, strings.ToLower(format))
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	r.logger.Infof("downloading book %v as %v", bookID, format)

	n, err := r.library.DownloadBook(ctx, bookID, format, f)
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Downloaded to %s (%s)\n", outputPath, shared.FormatFileSize(n))
	return nil
}

// LibraryCached lists books from the local cache database.
func (r *Runner) LibraryCached(ctx context.Context, cmd *cli.Command) error {
	author := cmd.String("author")
	series := cmd.String("series")
	useJSON := cmd.Bool("json")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewBookRepository(db)

	criteria := map[string]any{}
	if author != "" {
		criteria["author"] = author
	}
	if series != "" {
		criteria["series"] = series
	}

	books, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cached books: %w", err)
	}

	if useJSON {
		summaries := make([]map[string]any, 0, len(books))
		for _, b := range books {
			summaries = append(summaries, map[string]any{
				"id":         b.LibraryID(),
				"title":      b.Title(),
				"author":     b.Author(),
				"series":     b.Series(),
				"formats":    b.Formats(),
				"updated_at": b.UpdatedAt(),
			})
		}
		return r.writeJSON(summaries, true)
	}

	r.writePlain("%d cached books:\n\n", len(books))
	for i, b := range books {
		r.writePlain("%d. %s - %s\n", i+1, b.Author(), b.Title())
		if b.Series() != "" {
			r.writePlain("   Series: %s\n", b.Series())
		}
		r.writePlain("   ID: %d\n", b.LibraryID())
	}

	return nil
}

// cacheBooks refreshes the local cache with the given books.
func (r *Runner) cacheBooks(books []services.Book) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	adapter := repositories.NewBookCacheAdapter(repositories.NewBookRepository(db))
	return adapter.CacheBooks(books)
}

func (r *Runner) writeBookSummary(b services.Book) {
	r.writePlain("%d. %s\n", b.ID, b.Title)
	if author := b.Author(); author != "" {
		r.writePlain("   Author: %s\n", author)
	}
	if b.Series != "" {
		r.writePlain("   Series: %s #%g\n", b.Series, b.SeriesIndex)
	}
	r.writePlain("   Formats: %s\n", strings.Join(b.Formats, ", "))
	r.writePlain("\n")
}
