package sqlite

import (
	"context"
	"time"
)

// AppendSyncLog inserts a sync log record and evicts the oldest records
// beyond capacity in the same transaction. A capacity <= 0 disables eviction.
func (r *SQLiteRepository) AppendSyncLog(ctx context.Context, log *SyncLog, capacity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin sync log transaction", err)
	}
	defer tx.Rollback()

	var errorMessage interface{}
	if log.ErrorMessage != nil {
		errorMessage = *log.ErrorMessage
	}

	insert := `INSERT INTO sync_logs (` + syncLogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		log.ID,
		log.WorkItemID,
		log.OrganizationID,
		log.HoursSynced,
		FormatTimeForDB(log.SyncedAt),
		log.Status,
		errorMessage,
	); err != nil {
		return HandleDatabaseError("insert sync log", err)
	}

	if capacity > 0 {
		evict := `
		DELETE FROM sync_logs
		WHERE seq NOT IN (SELECT seq FROM sync_logs ORDER BY seq DESC LIMIT ?)`
		if _, err := tx.ExecContext(ctx, evict, capacity); err != nil {
			return HandleDatabaseError("evict sync logs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit sync log", err)
	}
	return nil
}

// ListSyncLogs returns the most recent records first. A limit <= 0 returns all.
func (r *SQLiteRepository) ListSyncLogs(ctx context.Context, limit int) ([]*SyncLog, error) {
	query := `SELECT ` + syncLogColumns + ` FROM sync_logs ORDER BY seq DESC`
	if limit > 0 {
		return QueryMultiple(ctx, r.db, query+` LIMIT ?`, ScanSyncLogs, "sync logs", limit)
	}
	return QueryMultiple(ctx, r.db, query, ScanSyncLogs, "sync logs")
}

// AcquireSyncLease claims key for owner until now+ttl. It succeeds when the
// key is free, expired, or already held by owner.
func (r *SQLiteRepository) AcquireSyncLease(ctx context.Context, key, owner string, now time.Time, ttl time.Duration) (bool, error) {
	query := `
	INSERT INTO sync_leases (group_key, owner, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT(group_key) DO UPDATE SET
		owner = excluded.owner,
		expires_at = excluded.expires_at
	WHERE sync_leases.expires_at <= ? OR sync_leases.owner = excluded.owner`

	rows, err := ExecuteCountingRows(ctx, r.db, query,
		key,
		owner,
		FormatTimeForDB(now.Add(ttl)),
		FormatTimeForDB(now),
	)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ReleaseSyncLease drops key if owner still holds it
func (r *SQLiteRepository) ReleaseSyncLease(ctx context.Context, key, owner string) error {
	_, err := ExecuteCountingRows(ctx, r.db, `DELETE FROM sync_leases WHERE group_key = ? AND owner = ?`, key, owner)
	return err
}
