package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/shelfctl/internal/models"
	"github.com/desertthunder/shelfctl/internal/shared"
)

// BookRepository implements models.Repository[*models.PersistedBook] for the
// local book cache.
//
// Books fetched from the library server are cached on every listing so offline
// commands and the TUI can browse without a connection. The server's numeric id
// is stored as library_id and kept unique among live rows.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new BookRepository with the given database connection
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a new [models.PersistedBook] into the database with generated ID and sequence
func (r *BookRepository) Create(book *models.PersistedBook) error {
	sequence, err := NextSequence(r.db, "books")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	book.SetID(id)
	book.SetSequence(sequence)

	if err := book.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO books (id, sequence, library_id, title, author, series, series_index, formats, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		book.LibraryID(),
		book.Title(),
		book.Author(),
		book.Series(),
		book.SeriesIndex(),
		book.FormatsString(),
		book.TagsString(),
		book.CreatedAt(),
		book.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

// Get retrieves a book by ID, excluding soft-deleted books
func (r *BookRepository) Get(id string) (*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, library_id, title, author, series, series_index, formats, tags, created_at, updated_at, deleted_at
		FROM books
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByLibraryID retrieves a book by its server-side numeric id
func (r *BookRepository) GetByLibraryID(libraryID int64) (*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, library_id, title, author, series, series_index, formats, tags, created_at, updated_at, deleted_at
		FROM books
		WHERE library_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, libraryID))
}

// Update modifies an existing book in the database
func (r *BookRepository) Update(book *models.PersistedBook) error {
	if err := book.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE books
		SET title = ?, author = ?, series = ?, series_index = ?, formats = ?, tags = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		book.Title(),
		book.Author(),
		book.Series(),
		book.SeriesIndex(),
		book.FormatsString(),
		book.TagsString(),
		now,
		book.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book not found or already deleted: %s", book.ID())
	}

	return nil
}

// Delete soft-deletes a book by ID
func (r *BookRepository) Delete(id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE books
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all books matching the given criteria, excluding soft-deleted books
func (r *BookRepository) List(criteria map[string]any) ([]*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, library_id, title, author, series, series_index, formats, tags, created_at, updated_at, deleted_at
		FROM books
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if author, ok := criteria["author"].(string); ok && author != "" {
		query += " AND author = ?"
		args = append(args, author)
	}

	if series, ok := criteria["series"].(string); ok && series != "" {
		query += " AND series = ?"
		args = append(args, series)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*models.PersistedBook
	for rows.Next() {
		book, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedBook]
func (r *BookRepository) scanOne(row *sql.Row) (*models.PersistedBook, error) {
	var (
		id          string
		sequence    int
		libraryID   int64
		title       string
		author      string
		series      string
		seriesIndex float64
		formats     string
		tags        string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &libraryID, &title, &author, &series, &seriesIndex, &formats, &tags, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	return hydrateBook(id, sequence, libraryID, title, author, series, seriesIndex, formats, tags, createdAt, updatedAt, deletedAt), nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedBook]
func (r *BookRepository) scanRow(rows *sql.Rows) (*models.PersistedBook, error) {
	var (
		id          string
		sequence    int
		libraryID   int64
		title       string
		author      string
		series      string
		seriesIndex float64
		formats     string
		tags        string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &libraryID, &title, &author, &series, &seriesIndex, &formats, &tags, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	return hydrateBook(id, sequence, libraryID, title, author, series, seriesIndex, formats, tags, createdAt, updatedAt, deletedAt), nil
}

func hydrateBook(id string, sequence int, libraryID int64, title, author, series string, seriesIndex float64, formats, tags string, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.PersistedBook {
	book := models.NewPersistedBook(libraryID, title, author)
	book.SetID(id)
	book.SetSequence(sequence)
	book.SetSeries(series, seriesIndex)
	book.SetFormats(models.SplitList(formats))
	book.SetTags(models.SplitList(tags))

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	book.SetTimestamps(createdAt, updatedAt, deleted)

	return book
}
