package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ImportStatus enumerates the lifecycle of a single file import.
type ImportStatus string

const (
	ImportPending   ImportStatus = "pending"
	ImportUploading ImportStatus = "uploading"
	ImportPolling   ImportStatus = "polling"
	ImportSucceeded ImportStatus = "succeeded"
	ImportFailed    ImportStatus = "failed"
)

// ImportRecord tracks one uploaded file through the upload/poll workflow.
//
// BatchID groups files submitted together in a single `shelfctl upload` run.
// TaskID is zero when the server imported the file synchronously.
type ImportRecord struct {
	id        string
	sequence  int
	batchID   string
	fileName  string
	taskID    int64
	bookIDs   []int64
	status    ImportStatus
	errMsg    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewImportRecord creates a pending import record for a file in a batch.
func NewImportRecord(batchID, fileName string) *ImportRecord {
	now := time.Now().UTC()
	return &ImportRecord{
		batchID:   batchID,
		fileName:  fileName,
		status:    ImportPending,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *ImportRecord) ID() string            { return r.id }
func (r *ImportRecord) Sequence() int         { return r.sequence }
func (r *ImportRecord) BatchID() string       { return r.batchID }
func (r *ImportRecord) FileName() string      { return r.fileName }
func (r *ImportRecord) TaskID() int64         { return r.taskID }
func (r *ImportRecord) BookIDs() []int64      { return r.bookIDs }
func (r *ImportRecord) Status() ImportStatus  { return r.status }
func (r *ImportRecord) Error() string         { return r.errMsg }
func (r *ImportRecord) CreatedAt() time.Time  { return r.createdAt }
func (r *ImportRecord) UpdatedAt() time.Time  { return r.updatedAt }
func (r *ImportRecord) DeletedAt() *time.Time { return r.deletedAt }

// SetID assigns the client-side identifier. Called by the repository on insert.
func (r *ImportRecord) SetID(id string) { r.id = id }

// SetSequence assigns the human-readable ordering number.
func (r *ImportRecord) SetSequence(seq int) { r.sequence = seq }

// SetTaskID records the background task handle returned by the server.
func (r *ImportRecord) SetTaskID(taskID int64) {
	r.taskID = taskID
	r.status = ImportPolling
	r.touch()
}

// MarkSucceeded records the resulting book ids and completes the record.
func (r *ImportRecord) MarkSucceeded(bookIDs []int64) {
	r.bookIDs = bookIDs
	r.status = ImportSucceeded
	r.errMsg = ""
	r.touch()
}

// MarkFailed records the classified failure message.
func (r *ImportRecord) MarkFailed(message string) {
	r.status = ImportFailed
	r.errMsg = message
	r.touch()
}

// SetStatus overrides the status directly, used when scanning from the database.
func (r *ImportRecord) SetStatus(status ImportStatus) { r.status = status }

// SetBookIDs restores persisted book ids when scanning from the database.
func (r *ImportRecord) SetBookIDs(ids []int64) { r.bookIDs = ids }

// SetError restores a persisted error message when scanning from the database.
func (r *ImportRecord) SetError(msg string) { r.errMsg = msg }

// SetTimestamps restores persisted timestamps when scanning from the database.
func (r *ImportRecord) SetTimestamps(created, updated time.Time, deleted *time.Time) {
	r.createdAt = created
	r.updatedAt = updated
	r.deletedAt = deleted
}

func (r *ImportRecord) touch() { r.updatedAt = time.Now().UTC() }

// BookIDsString serializes book ids for storage as a comma-separated list.
func (r *ImportRecord) BookIDsString() string {
	parts := make([]string, len(r.bookIDs))
	for i, id := range r.bookIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseBookIDs parses a comma-separated book id column back into a slice.
func ParseBookIDs(s string) []int64 {
	var ids []int64
	for _, part := range SplitList(s) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate checks the record's data before persistence.
func (r *ImportRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("import record ID is required")
	}
	if r.batchID == "" {
		return fmt.Errorf("batch ID is required")
	}
	if strings.TrimSpace(r.fileName) == "" {
		return fmt.Errorf("file name is required")
	}
	switch r.status {
	case ImportPending, ImportUploading, ImportPolling, ImportSucceeded, ImportFailed:
	default:
		return fmt.Errorf("invalid import status: %s", r.status)
	}
	return nil
}
