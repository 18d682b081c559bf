package domain

import (
	"time"

	"ado-time-tracker/internal/repository/sqlite"
)

// TimeEntryMapper handles conversion between domain and database TimeEntry models.
type TimeEntryMapper struct{}

// NewTimeEntryMapper creates a new TimeEntryMapper instance.
func NewTimeEntryMapper() *TimeEntryMapper {
	return &TimeEntryMapper{}
}

// ToDatabase converts a domain TimeEntry to a database TimeEntry.
func (m *TimeEntryMapper) ToDatabase(e TimeEntry) sqlite.TimeEntry {
	return sqlite.TimeEntry{
		ID:               e.ID,
		WorkItemID:       e.WorkItemID,
		WorkItemTitle:    e.WorkItemTitle,
		WorkItemType:     e.WorkItemType,
		ProjectName:      e.ProjectName,
		OrganizationID:   e.OrganizationID,
		OrganizationName: e.OrganizationName,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		DurationMinutes:  e.DurationMinutes,
		Description:      e.Description,
		SyncedToAdo:      e.SyncedToAdo,
		SyncedAt:         e.SyncedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// FromDatabase converts a database TimeEntry to a domain TimeEntry.
func (m *TimeEntryMapper) FromDatabase(e sqlite.TimeEntry) TimeEntry {
	return TimeEntry{
		ID:               e.ID,
		WorkItemID:       e.WorkItemID,
		WorkItemTitle:    e.WorkItemTitle,
		WorkItemType:     e.WorkItemType,
		ProjectName:      e.ProjectName,
		OrganizationID:   e.OrganizationID,
		OrganizationName: e.OrganizationName,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		DurationMinutes:  e.DurationMinutes,
		Description:      e.Description,
		SyncedToAdo:      e.SyncedToAdo,
		SyncedAt:         e.SyncedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// FromDatabaseSlice converts database TimeEntries to domain TimeEntries.
func (m *TimeEntryMapper) FromDatabaseSlice(dbEntries []*sqlite.TimeEntry) []TimeEntry {
	entries := make([]TimeEntry, len(dbEntries))
	for i, entry := range dbEntries {
		entries[i] = m.FromDatabase(*entry)
	}
	return entries
}

// TimerSessionMapper flattens the session snapshot into its single table row.
type TimerSessionMapper struct{}

// NewTimerSessionMapper creates a new TimerSessionMapper instance.
func NewTimerSessionMapper() *TimerSessionMapper {
	return &TimerSessionMapper{}
}

// ToDatabase converts a domain session, stamping it with updatedAt.
func (m *TimerSessionMapper) ToDatabase(s TimerSession, updatedAt time.Time) sqlite.TimerSession {
	row := sqlite.TimerSession{
		IsRunning:           s.IsRunning,
		IsPaused:            s.IsPaused,
		StartTime:           s.StartTime,
		AccumulatedPausedMs: s.AccumulatedPausedMs,
		PauseStartedAt:      s.PauseStartedAt,
		UpdatedAt:           updatedAt,
	}
	if item := s.WorkItem; item != nil {
		id := item.ID
		row.WorkItemID = &id
		row.WorkItemTitle = item.Title
		row.WorkItemType = item.Type
		row.WorkItemState = item.State
		row.OrganizationID = item.OrganizationID
		row.OrganizationName = item.OrganizationName
		row.ProjectName = item.ProjectName
		row.RemoteCompletedWork = item.RemoteCompletedWork
	}
	return row
}

// FromDatabase converts the stored row back into a domain session.
func (m *TimerSessionMapper) FromDatabase(row sqlite.TimerSession) TimerSession {
	session := TimerSession{
		IsRunning:           row.IsRunning,
		IsPaused:            row.IsPaused,
		StartTime:           row.StartTime,
		AccumulatedPausedMs: row.AccumulatedPausedMs,
		PauseStartedAt:      row.PauseStartedAt,
	}
	if row.WorkItemID != nil {
		session.WorkItem = &WorkItem{
			ID:                  *row.WorkItemID,
			Title:               row.WorkItemTitle,
			Type:                row.WorkItemType,
			State:               row.WorkItemState,
			OrganizationID:      row.OrganizationID,
			OrganizationName:    row.OrganizationName,
			ProjectName:         row.ProjectName,
			RemoteCompletedWork: row.RemoteCompletedWork,
		}
	}
	return session
}

// SyncLogMapper handles conversion between domain and database SyncLog models.
type SyncLogMapper struct{}

// NewSyncLogMapper creates a new SyncLogMapper instance.
func NewSyncLogMapper() *SyncLogMapper {
	return &SyncLogMapper{}
}

// ToDatabase converts a domain SyncLog to a database SyncLog.
func (m *SyncLogMapper) ToDatabase(l SyncLog) sqlite.SyncLog {
	return sqlite.SyncLog{
		ID:             l.ID,
		WorkItemID:     l.WorkItemID,
		OrganizationID: l.OrganizationID,
		HoursSynced:    l.HoursSynced,
		SyncedAt:       l.SyncedAt,
		Status:         string(l.Status),
		ErrorMessage:   l.ErrorMessage,
	}
}

// FromDatabase converts a database SyncLog to a domain SyncLog.
func (m *SyncLogMapper) FromDatabase(l sqlite.SyncLog) SyncLog {
	return SyncLog{
		ID:             l.ID,
		WorkItemID:     l.WorkItemID,
		OrganizationID: l.OrganizationID,
		HoursSynced:    l.HoursSynced,
		SyncedAt:       l.SyncedAt,
		Status:         SyncStatus(l.Status),
		ErrorMessage:   l.ErrorMessage,
	}
}

// FromDatabaseSlice converts database SyncLogs to domain SyncLogs.
func (m *SyncLogMapper) FromDatabaseSlice(dbLogs []*sqlite.SyncLog) []SyncLog {
	logs := make([]SyncLog, len(dbLogs))
	for i, l := range dbLogs {
		logs[i] = m.FromDatabase(*l)
	}
	return logs
}

// SearchOptionsMapper handles conversion between domain and database SearchOptions.
type SearchOptionsMapper struct{}

// NewSearchOptionsMapper creates a new SearchOptionsMapper instance.
func NewSearchOptionsMapper() *SearchOptionsMapper {
	return &SearchOptionsMapper{}
}

// ToDatabase converts domain SearchOptions to database SearchOptions.
func (m *SearchOptionsMapper) ToDatabase(opts SearchOptions) sqlite.SearchOptions {
	return sqlite.SearchOptions{
		Synced:         opts.Synced,
		OrganizationID: opts.OrganizationID,
		WorkItemID:     opts.WorkItemID,
		StartTime:      opts.StartTime,
		EndTime:        opts.EndTime,
	}
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	TimeEntry     *TimeEntryMapper
	TimerSession  *TimerSessionMapper
	SyncLog       *SyncLogMapper
	SearchOptions *SearchOptionsMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		TimeEntry:     NewTimeEntryMapper(),
		TimerSession:  NewTimerSessionMapper(),
		SyncLog:       NewSyncLogMapper(),
		SearchOptions: NewSearchOptionsMapper(),
	}
}
