// package services defines interface Service for interacting with the library server HTTP API
package services

import (
	"context"
	"io"
)

// Service defines the interface for a library server that can list books and shelves,
// accept uploads, and report on background tasks.
type Service interface {
	// Authenticate configures credentials for subsequent requests.
	// Supported keys: "headers_file" (session headers from `shelfctl auth import`)
	// or "token" (OAuth bearer token). Returns an error if neither is usable.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Health checks that the server is reachable and responding.
	Health(ctx context.Context) error

	// GetBooks retrieves a page of books from the library.
	GetBooks(ctx context.Context, opts ListOptions) ([]Book, error)

	// GetBook retrieves a single book by its library id.
	GetBook(ctx context.Context, bookID int64) (*Book, error)

	// SearchBooks performs a full-text search over the library.
	SearchBooks(ctx context.Context, query string) ([]Book, error)

	// DownloadBook streams a book file in the given format to w,
	// returning the number of bytes written.
	DownloadBook(ctx context.Context, bookID int64, format string, w io.Writer) (int64, error)

	// GetShelves retrieves all shelves visible to the authenticated user.
	GetShelves(ctx context.Context) ([]Shelf, error)

	// GetShelfBooks retrieves the books on a shelf.
	GetShelfBooks(ctx context.Context, shelfID int64) ([]Book, error)

	// CreateShelf creates a new shelf.
	CreateShelf(ctx context.Context, name string, public bool) (*Shelf, error)

	// AddToShelf places a book on a shelf.
	AddToShelf(ctx context.Context, shelfID, bookID int64) error

	// RemoveFromShelf removes a book from a shelf.
	RemoveFromShelf(ctx context.Context, shelfID, bookID int64) error

	// UploadBook submits a book file for import. The server either imports it
	// synchronously (receipt carries book ids) or defers to a background task
	// (receipt carries a task id to poll).
	UploadBook(ctx context.Context, path string) (*UploadReceipt, error)

	// ConvertBook asks the server to convert a book to another format.
	// Conversion always runs as a background task.
	ConvertBook(ctx context.Context, bookID int64, format string) (*UploadReceipt, error)

	// GetTask retrieves the current state of a background task.
	GetTask(ctx context.Context, taskID int64) (*Task, error)

	// Name returns the display name of the server.
	Name() string
}

// AdminService extends Service for servers exposing the admin settings API.
type AdminService interface {
	Service

	// GetSettings retrieves the server's admin settings document.
	GetSettings(ctx context.Context) (map[string]any, error)

	// UpdateSettings applies a partial settings update.
	UpdateSettings(ctx context.Context, patch map[string]any) error
}

// ListOptions controls pagination and ordering for book listings.
type ListOptions struct {
	Limit  int
	Offset int
	Sort   string // e.g. "title", "added", "author"
}

// Book represents a book in the remote library
type Book struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Series      string   `json:"series,omitempty"`
	SeriesIndex float64  `json:"series_index,omitempty"`
	Formats     []string `json:"formats"`
	Tags        []string `json:"tags,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	AddedAt     string   `json:"added_at,omitempty"`
	Size        int64    `json:"size,omitempty"`
}

// Author returns the primary author, or an empty string for authorless entries.
func (b Book) Author() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0]
}

// Shelf represents a named collection of books on the server
type Shelf struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Public    bool   `json:"public"`
	BookCount int    `json:"book_count"`
}

// ShelfExport bundles a shelf with its resolved books for export.
type ShelfExport struct {
	Shelf Shelf  `json:"shelf"`
	Books []Book `json:"books"`
}

// UploadReceipt is the server's response to an upload or convert request.
//
// Exactly one of BookIDs / TaskID is meaningful: fast imports return the new
// book ids directly, deferred imports return a task handle to poll.
type UploadReceipt struct {
	BookIDs []int64 `json:"book_ids,omitempty"`
	TaskID  int64   `json:"task_id,omitempty"`
}

// Deferred reports whether the server handed back a background task instead of
// an immediate result.
func (r *UploadReceipt) Deferred() bool {
	return len(r.BookIDs) == 0 && r.TaskID > 0
}
