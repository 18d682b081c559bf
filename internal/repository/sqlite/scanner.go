package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

const timeEntryColumns = `id, work_item_id, work_item_title, work_item_type, project_name,
	organization_id, organization_name, start_time, end_time, duration_minutes,
	description, synced_to_ado, synced_at, created_at, updated_at`

// ScanTimeEntry scans a single time entry from a database row
func ScanTimeEntry(scanner Scanner) (*TimeEntry, error) {
	entry := &TimeEntry{}
	var (
		startTime, endTime, createdAt, updatedAt string
		description, syncedAt                    sql.NullString
		synced                                   int
	)

	err := scanner.Scan(
		&entry.ID,
		&entry.WorkItemID,
		&entry.WorkItemTitle,
		&entry.WorkItemType,
		&entry.ProjectName,
		&entry.OrganizationID,
		&entry.OrganizationName,
		&startTime,
		&endTime,
		&entry.DurationMinutes,
		&description,
		&synced,
		&syncedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.StartTime, err = parseColumn("start_time", startTime); err != nil {
		return nil, err
	}
	if entry.EndTime, err = parseColumn("end_time", endTime); err != nil {
		return nil, err
	}
	if entry.CreatedAt, err = parseColumn("created_at", createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = parseColumn("updated_at", updatedAt); err != nil {
		return nil, err
	}
	if entry.SyncedAt, err = parseNullableColumn("synced_at", syncedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		entry.Description = &description.String
	}
	entry.SyncedToAdo = synced != 0

	return entry, nil
}

// ScanTimeEntries scans multiple time entries from database rows
func ScanTimeEntries(rows Rows) ([]*TimeEntry, error) {
	var entries []*TimeEntry
	for rows.Next() {
		entry, err := ScanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

const timerSessionColumns = `is_running, is_paused, start_time, accumulated_paused_ms, pause_started_at,
	work_item_id, work_item_title, work_item_type, work_item_state, organization_id,
	organization_name, project_name, remote_completed_work, updated_at`

// ScanTimerSession scans the timer session snapshot row
func ScanTimerSession(scanner Scanner) (*TimerSession, error) {
	session := &TimerSession{}
	var (
		running, paused               int
		startTime, updatedAt          string
		pauseStartedAt                sql.NullString
		workItemID                    sql.NullInt64
		title, itemType, state, orgID sql.NullString
		orgName, project              sql.NullString
		completedWork                 sql.NullFloat64
	)

	err := scanner.Scan(
		&running,
		&paused,
		&startTime,
		&session.AccumulatedPausedMs,
		&pauseStartedAt,
		&workItemID,
		&title,
		&itemType,
		&state,
		&orgID,
		&orgName,
		&project,
		&completedWork,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.IsRunning = running != 0
	session.IsPaused = paused != 0
	if session.StartTime, err = parseColumn("start_time", startTime); err != nil {
		return nil, err
	}
	if session.UpdatedAt, err = parseColumn("updated_at", updatedAt); err != nil {
		return nil, err
	}
	if session.PauseStartedAt, err = parseNullableColumn("pause_started_at", pauseStartedAt); err != nil {
		return nil, err
	}
	if workItemID.Valid {
		id := workItemID.Int64
		session.WorkItemID = &id
	}
	session.WorkItemTitle = title.String
	session.WorkItemType = itemType.String
	session.WorkItemState = state.String
	session.OrganizationID = orgID.String
	session.OrganizationName = orgName.String
	session.ProjectName = project.String
	if completedWork.Valid {
		value := completedWork.Float64
		session.RemoteCompletedWork = &value
	}

	return session, nil
}

const syncLogColumns = `id, work_item_id, organization_id, hours_synced, synced_at, status, error_message`

// ScanSyncLog scans a single sync log record
func ScanSyncLog(scanner Scanner) (*SyncLog, error) {
	log := &SyncLog{}
	var (
		syncedAt     string
		errorMessage sql.NullString
	)

	err := scanner.Scan(
		&log.ID,
		&log.WorkItemID,
		&log.OrganizationID,
		&log.HoursSynced,
		&syncedAt,
		&log.Status,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if log.SyncedAt, err = parseColumn("synced_at", syncedAt); err != nil {
		return nil, err
	}
	if errorMessage.Valid {
		log.ErrorMessage = &errorMessage.String
	}
	return log, nil
}

// ScanSyncLogs scans multiple sync log records
func ScanSyncLogs(rows Rows) ([]*SyncLog, error) {
	var logs []*SyncLog
	for rows.Next() {
		log, err := ScanSyncLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func parseColumn(column, value string) (time.Time, error) {
	t, err := ParseTimeFromDB(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", column, err)
	}
	return t, nil
}

func parseNullableColumn(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseColumn(column, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
