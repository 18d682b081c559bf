package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
)

// SaveTimerSession writes the timer snapshot, replacing any previous one
func (r *SQLiteRepository) SaveTimerSession(ctx context.Context, session *TimerSession) error {
	query := `
	INSERT INTO timer_session (id, ` + timerSessionColumns + `)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		is_running = excluded.is_running,
		is_paused = excluded.is_paused,
		start_time = excluded.start_time,
		accumulated_paused_ms = excluded.accumulated_paused_ms,
		pause_started_at = excluded.pause_started_at,
		work_item_id = excluded.work_item_id,
		work_item_title = excluded.work_item_title,
		work_item_type = excluded.work_item_type,
		work_item_state = excluded.work_item_state,
		organization_id = excluded.organization_id,
		organization_name = excluded.organization_name,
		project_name = excluded.project_name,
		remote_completed_work = excluded.remote_completed_work,
		updated_at = excluded.updated_at`

	var workItemID, completedWork interface{}
	if session.WorkItemID != nil {
		workItemID = *session.WorkItemID
	}
	if session.RemoteCompletedWork != nil {
		completedWork = *session.RemoteCompletedWork
	}

	_, err := r.db.ExecContext(ctx, query,
		boolToInt(session.IsRunning),
		boolToInt(session.IsPaused),
		FormatTimeForDB(session.StartTime),
		session.AccumulatedPausedMs,
		FormatTimePtrForDB(session.PauseStartedAt),
		workItemID,
		session.WorkItemTitle,
		session.WorkItemType,
		session.WorkItemState,
		session.OrganizationID,
		session.OrganizationName,
		session.ProjectName,
		completedWork,
		FormatTimeForDB(session.UpdatedAt),
	)
	if err != nil {
		return HandleDatabaseError("save timer session", err)
	}
	return nil
}

// LoadTimerSession returns the stored snapshot, or nil if there is none
func (r *SQLiteRepository) LoadTimerSession(ctx context.Context) (*TimerSession, error) {
	query := `SELECT ` + timerSessionColumns + ` FROM timer_session WHERE id = 1`

	session, err := ScanTimerSession(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, HandleDatabaseError("load timer session", err)
	}
	return session, nil
}

// ClearTimerSession removes the snapshot. Clearing an absent snapshot is not an error.
func (r *SQLiteRepository) ClearTimerSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timer_session WHERE id = 1`); err != nil {
		return HandleDatabaseError("clear timer session", err)
	}
	return nil
}
