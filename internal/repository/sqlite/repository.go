package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// SearchOptions contains all possible search parameters for time entries
type SearchOptions struct {
	Synced         *bool
	OrganizationID *string
	WorkItemID     *int64
	StartTime      *time.Time
	EndTime        *time.Time
}

// Repository defines the interface for database operations
type Repository interface {
	// Time entries
	CreateTimeEntry(ctx context.Context, entry *TimeEntry) error
	GetTimeEntry(ctx context.Context, id string) (*TimeEntry, error)
	ListTimeEntries(ctx context.Context) ([]*TimeEntry, error)
	SearchTimeEntries(ctx context.Context, opts SearchOptions) ([]*TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) error
	MarkTimeEntriesSynced(ctx context.Context, ids []string, syncedAt time.Time) (int64, error)

	// Timer session snapshot
	SaveTimerSession(ctx context.Context, session *TimerSession) error
	LoadTimerSession(ctx context.Context) (*TimerSession, error)
	ClearTimerSession(ctx context.Context) error

	// Sync audit log
	AppendSyncLog(ctx context.Context, log *SyncLog, capacity int) error
	ListSyncLogs(ctx context.Context, limit int) ([]*SyncLog, error)

	// Cross-process sync leases
	AcquireSyncLease(ctx context.Context, key, owner string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseSyncLease(ctx context.Context, key, owner string) error

	// Utility
	Close() error
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db *sql.DB
}

// New creates a new SQLite repository instance and applies pending migrations
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("configure database", err)
	}

	if err := migrations.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateTimeEntry inserts a time entry. Inserting an id that already exists
// is a no-op.
func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	query := `
	INSERT INTO time_entries (` + timeEntryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`

	var description interface{}
	if entry.Description != nil {
		description = *entry.Description
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.WorkItemID,
		entry.WorkItemTitle,
		entry.WorkItemType,
		entry.ProjectName,
		entry.OrganizationID,
		entry.OrganizationName,
		FormatTimeForDB(entry.StartTime),
		FormatTimeForDB(entry.EndTime),
		entry.DurationMinutes,
		description,
		boolToInt(entry.SyncedToAdo),
		FormatTimePtrForDB(entry.SyncedAt),
		FormatTimeForDB(entry.CreatedAt),
		FormatTimeForDB(entry.UpdatedAt),
	)
	if err != nil {
		return HandleDatabaseError("insert time entry", err)
	}
	return nil
}

// GetTimeEntry retrieves a time entry by ID
func (r *SQLiteRepository) GetTimeEntry(ctx context.Context, id string) (*TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = ?`
	return QuerySingle(ctx, r.db, query, ScanTimeEntry, "time entry", id, id)
}

// ListTimeEntries retrieves all time entries ordered by start time
func (r *SQLiteRepository) ListTimeEntries(ctx context.Context) ([]*TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries ORDER BY start_time ASC, id ASC`
	return QueryMultiple(ctx, r.db, query, ScanTimeEntries, "time entries")
}

// SearchTimeEntries searches for time entries based on the provided options
func (r *SQLiteRepository) SearchTimeEntries(ctx context.Context, opts SearchOptions) ([]*TimeEntry, error) {
	var conditions []string
	var args []interface{}

	if opts.Synced != nil {
		conditions = append(conditions, "synced_to_ado = ?")
		args = append(args, boolToInt(*opts.Synced))
	}
	if opts.OrganizationID != nil {
		conditions = append(conditions, "organization_id = ?")
		args = append(args, *opts.OrganizationID)
	}
	if opts.WorkItemID != nil {
		conditions = append(conditions, "work_item_id = ?")
		args = append(args, *opts.WorkItemID)
	}
	if opts.StartTime != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, FormatTimePtrForDB(opts.StartTime))
	}
	if opts.EndTime != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, FormatTimePtrForDB(opts.EndTime))
	}

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return QueryMultiple(ctx, r.db, query, ScanTimeEntries, "time entries", args...)
}

// DeleteTimeEntry deletes a time entry by ID
func (r *SQLiteRepository) DeleteTimeEntry(ctx context.Context, id string) error {
	query := `DELETE FROM time_entries WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "time entry", id, id)
}

// MarkTimeEntriesSynced flags the given unsynced entries as synced in a
// single statement. Unknown or already-synced ids are ignored. It returns
// the number of entries that changed.
func (r *SQLiteRepository) MarkTimeEntriesSynced(ctx context.Context, ids []string, syncedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
	UPDATE time_entries
	SET synced_to_ado = 1, synced_at = ?, updated_at = ?
	WHERE synced_to_ado = 0 AND id IN (` + placeholders(len(ids)) + `)`

	stamp := FormatTimeForDB(syncedAt)
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, stamp, stamp)
	for _, id := range ids {
		args = append(args, id)
	}

	return ExecuteCountingRows(ctx, r.db, query, args...)
}
