package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/shelfctl/internal/models"
	"github.com/desertthunder/shelfctl/internal/shared"
)

// ImportRepository implements models.Repository[*models.ImportRecord] for
// upload history.
//
// Every file in a batch upload gets a row here before it touches the network,
// updated as the upload and any background task progress. The tasks package
// writes through this repository via its recorder hook.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the given database connection
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a new [models.ImportRecord] into the database with generated ID and sequence
func (r *ImportRepository) Create(record *models.ImportRecord) error {
	sequence, err := NextSequence(r.db, "imports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)
	record.SetSequence(sequence)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO imports (id, sequence, batch_id, file_name, task_id, book_ids, status, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.BatchID(),
		record.FileName(),
		record.TaskID(),
		record.BookIDsString(),
		string(record.Status()),
		record.Error(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import record: %w", err)
	}

	return nil
}

// Get retrieves an import record by ID, excluding soft-deleted records
func (r *ImportRepository) Get(id string) (*models.ImportRecord, error) {
	query := `
		SELECT id, sequence, batch_id, file_name, task_id, book_ids, status, error, created_at, updated_at, deleted_at
		FROM imports
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing import record in the database
func (r *ImportRepository) Update(record *models.ImportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE imports
		SET task_id = ?, book_ids = ?, status = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.TaskID(),
		record.BookIDsString(),
		string(record.Status()),
		record.Error(),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import record not found or already deleted: %s", record.ID())
	}

	return nil
}

// Delete soft-deletes an import record by ID
func (r *ImportRepository) Delete(id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE imports
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete import record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import record not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all import records matching the given criteria, excluding soft-deleted records
func (r *ImportRepository) List(criteria map[string]any) ([]*models.ImportRecord, error) {
	query := `
		SELECT id, sequence, batch_id, file_name, task_id, book_ids, status, error, created_at, updated_at, deleted_at
		FROM imports
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if batchID, ok := criteria["batch_id"].(string); ok && batchID != "" {
		query += " AND batch_id = ?"
		args = append(args, batchID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import records: %w", err)
	}
	defer rows.Close()

	var records []*models.ImportRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ListBatch retrieves all records for a batch in upload order
func (r *ImportRepository) ListBatch(batchID string) ([]*models.ImportRecord, error) {
	return r.List(map[string]any{"batch_id": batchID})
}

// scanOne scans a single [sql.Row] into a [models.ImportRecord]
func (r *ImportRepository) scanOne(row *sql.Row) (*models.ImportRecord, error) {
	var (
		id        string
		sequence  int
		batchID   string
		fileName  string
		taskID    sql.NullInt64
		bookIDs   string
		status    string
		errMsg    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &batchID, &fileName, &taskID, &bookIDs, &status, &errMsg, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import record: %w", err)
	}

	return hydrateImport(id, sequence, batchID, fileName, taskID, bookIDs, status, errMsg, createdAt, updatedAt, deletedAt), nil
}

// scanRow scans a row from [sql.Rows] into a [models.ImportRecord]
func (r *ImportRepository) scanRow(rows *sql.Rows) (*models.ImportRecord, error) {
	var (
		id        string
		sequence  int
		batchID   string
		fileName  string
		taskID    sql.NullInt64
		bookIDs   string
		status    string
		errMsg    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &batchID, &fileName, &taskID, &bookIDs, &status, &errMsg, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan import record: %w", err)
	}

	return hydrateImport(id, sequence, batchID, fileName, taskID, bookIDs, status, errMsg, createdAt, updatedAt, deletedAt), nil
}

func hydrateImport(id string, sequence int, batchID, fileName string, taskID sql.NullInt64, bookIDs, status, errMsg string, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.ImportRecord {
	record := models.NewImportRecord(batchID, fileName)
	record.SetID(id)
	record.SetSequence(sequence)
	if taskID.Valid {
		record.SetTaskID(taskID.Int64)
	}
	record.SetBookIDs(models.ParseBookIDs(bookIDs))
	record.SetStatus(models.ImportStatus(status))
	record.SetError(errMsg)

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	record.SetTimestamps(createdAt, updatedAt, deleted)

	return record
}
