package models

import (
	"fmt"
	"strings"
	"time"
)

// PersistedBook is a locally cached copy of a book in the remote library.
//
// LibraryID is the server's numeric identifier; the primary key is a client-side
// UUID so cached rows survive server-side renumbering after a library rebuild.
type PersistedBook struct {
	id          string
	sequence    int
	libraryID   int64
	title       string
	author      string
	series      string
	seriesIndex float64
	formats     []string
	tags        []string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewPersistedBook creates a cached book entry for the given library book.
func NewPersistedBook(libraryID int64, title, author string) *PersistedBook {
	now := time.Now().UTC()
	return &PersistedBook{
		libraryID: libraryID,
		title:     title,
		author:    author,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *PersistedBook) ID() string            { return b.id }
func (b *PersistedBook) Sequence() int         { return b.sequence }
func (b *PersistedBook) LibraryID() int64      { return b.libraryID }
func (b *PersistedBook) Title() string         { return b.title }
func (b *PersistedBook) Author() string        { return b.author }
func (b *PersistedBook) Series() string        { return b.series }
func (b *PersistedBook) SeriesIndex() float64  { return b.seriesIndex }
func (b *PersistedBook) Formats() []string     { return b.formats }
func (b *PersistedBook) Tags() []string        { return b.tags }
func (b *PersistedBook) CreatedAt() time.Time  { return b.createdAt }
func (b *PersistedBook) UpdatedAt() time.Time  { return b.updatedAt }
func (b *PersistedBook) DeletedAt() *time.Time { return b.deletedAt }

// SetID assigns the client-side identifier. Called by the repository on insert.
func (b *PersistedBook) SetID(id string) { b.id = id }

// SetSequence assigns the human-readable ordering number.
func (b *PersistedBook) SetSequence(seq int) { b.sequence = seq }

// Rename updates the title and author, typically after a server-side edit.
func (b *PersistedBook) Rename(title, author string) {
	b.title = title
	b.author = author
	b.touch()
}

// SetSeries records series membership and position.
func (b *PersistedBook) SetSeries(series string, index float64) {
	b.series = series
	b.seriesIndex = index
	b.touch()
}

// SetFormats replaces the list of available file formats.
func (b *PersistedBook) SetFormats(formats []string) {
	b.formats = formats
	b.touch()
}

// SetTags replaces the tag list.
func (b *PersistedBook) SetTags(tags []string) {
	b.tags = tags
	b.touch()
}

// SetTimestamps restores persisted timestamps when scanning from the database.
func (b *PersistedBook) SetTimestamps(created, updated time.Time, deleted *time.Time) {
	b.createdAt = created
	b.updatedAt = updated
	b.deletedAt = deleted
}

// MarkDeleted soft-deletes the record.
func (b *PersistedBook) MarkDeleted() {
	now := time.Now().UTC()
	b.deletedAt = &now
	b.touch()
}

func (b *PersistedBook) touch() { b.updatedAt = time.Now().UTC() }

// FormatsString serializes formats for storage as a comma-separated list.
func (b *PersistedBook) FormatsString() string { return strings.Join(b.formats, ",") }

// TagsString serializes tags for storage as a comma-separated list.
func (b *PersistedBook) TagsString() string { return strings.Join(b.tags, ",") }

// Validate checks the book's data before persistence.
func (b *PersistedBook) Validate() error {
	if b.id == "" {
		return fmt.Errorf("book ID is required")
	}
	if b.libraryID <= 0 {
		return fmt.Errorf("library ID must be positive, got %d", b.libraryID)
	}
	if strings.TrimSpace(b.title) == "" {
		return fmt.Errorf("book title is required")
	}
	return nil
}

// SplitList parses a comma-separated column back into a slice, dropping empties.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
