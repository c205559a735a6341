package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfctl/internal/formatter"
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ShelfList lists shelves on the library server.
func (r *Runner) ShelfList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("listing shelves")

	shelves, err := r.library.GetShelves(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(shelves, pretty)
	}

	r.writePlain("Found %d shelves:\n\n", len(shelves))
	for i, s := range shelves {
		r.writePlain("%d. %s\n", i+1, s.Name)
		r.writePlain("   ID: %d\n", s.ID)
		r.writePlain("   Books: %d\n", s.BookCount)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(s.Public))
		r.writePlain("\n")
	}

	return nil
}

// ShelfCreate creates a new shelf.
func (r *Runner) ShelfCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	public := cmd.Bool("public")

	if name == "" {
		return fmt.Errorf("%w: shelf name is required", shared.ErrMissingArgument)
	}

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("creating shelf %q", name)

	shelf, err := r.library.CreateShelf(ctx, name, public)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Created shelf %q (ID: %d, %s)\n", shelf.Name, shelf.ID, shared.VisibilityString(shelf.Public))
	return nil
}

// ShelfAdd places a book on a shelf.
func (r *Runner) ShelfAdd(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.Int64("shelf")
	bookID := cmd.Int64("book")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("adding book %v to shelf %v", bookID, shelfID)

	if err := r.library.AddToShelf(ctx, shelfID, bookID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Added book %d to shelf %d\n", bookID, shelfID)
	return nil
}

// ShelfRemove removes a book from a shelf.
func (r *Runner) ShelfRemove(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.Int64("shelf")
	bookID := cmd.Int64("book")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("removing book %v from shelf %v", bookID, shelfID)

	if err := r.library.RemoveFromShelf(ctx, shelfID, bookID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Removed book %d from shelf %d\n", bookID, shelfID)
	return nil
}

// ShelfExport exports a shelf and its books to CSV, Markdown, or plain text.
func (r *Runner) ShelfExport(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.Int64("id")
	format := cmd.String("format")
	outputPath := cmd.String("output")
	coverURL := cmd.String("cover-url")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("exporting shelf %v as %v", shelfID, format)

	shelves, err := r.library.GetShelves(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var shelf *services.Shelf
	for i := range shelves {
		if shelves[i].ID == shelfID {
			shelf = &shelves[i]
			break
		}
	}
	if shelf == nil {
		return fmt.Errorf("%w: shelf %d", shared.ErrShelfNotFound, shelfID)
	}

	books, err := r.library.GetShelfBooks(ctx, shelfID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	export := &services.ShelfExport{Shelf: *shelf, Books: books}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, outputPath)
		if err != nil {
			return fmt.Errorf("failed to export shelf: %w", err)
		}
		r.writePlain("✓ Shelf exported to %s\n", result.BooksFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(export, outputPath, coverURL)
		if err != nil {
			return fmt.Errorf("failed to export shelf: %w", err)
		}
		r.writePlain("✓ Shelf exported to %s\n", result.Directory)
		if result.CoverImage != "" {
			r.writePlain("  Cover: %s\n", result.CoverImage)
		}
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, outputPath)
		if err != nil {
			return fmt.Errorf("failed to export shelf: %w", err)
		}
		r.writePlain("✓ Shelf exported to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, markdown, or text)", shared.ErrInvalidFlag, format)
	}

	r.writePlain("  Shelf: %s\n", shelf.Name)
	r.writePlain("  Books: %d\n", len(books))
	return nil
}
