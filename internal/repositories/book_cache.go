package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/shelfctl/internal/models"
	"github.com/desertthunder/shelfctl/internal/services"
)

// BookCacheAdapter caches server book listings through a BookRepository.
//
// Provides automatic book caching with deduplication via the library_id
// constraint. Books already cached are refreshed in place; duplicate inserts
// racing past the existence check are silently ignored.
type BookCacheAdapter struct {
	repo *BookRepository
}

// NewBookCacheAdapter creates a new BookCacheAdapter with the given repository
func NewBookCacheAdapter(repo *BookRepository) *BookCacheAdapter {
	return &BookCacheAdapter{repo: repo}
}

// CacheBook caches a book fetched from the library server.
// Existing entries are updated with the server's current metadata.
// Only returns errors for actual failures (not constraint violations).
func (a *BookCacheAdapter) CacheBook(book services.Book) error {
	existing, err := a.repo.GetByLibraryID(book.ID)
	if err == nil && existing != nil {
		applyBook(existing, book)
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached book: %w", err)
		}
		return nil
	}

	persisted := models.NewPersistedBook(book.ID, book.Title, book.Author())
	applyBook(persisted, book)

	err = a.repo.Create(persisted)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache book: %w", err)
	}

	return nil
}

// CacheBooks caches a listing, stopping at the first hard failure.
func (a *BookCacheAdapter) CacheBooks(books []services.Book) error {
	for _, book := range books {
		if err := a.CacheBook(book); err != nil {
			return err
		}
	}
	return nil
}

func applyBook(persisted *models.PersistedBook, book services.Book) {
	persisted.Rename(book.Title, book.Author())
	persisted.SetSeries(book.Series, book.SeriesIndex)
	persisted.SetFormats(book.Formats)
	persisted.SetTags(book.Tags)
}
