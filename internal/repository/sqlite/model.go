package sqlite

import "time"

// TimeEntry is the persisted form of a completed tracking session or
// manual entry
type TimeEntry struct {
	ID               string
	WorkItemID       int64
	WorkItemTitle    string
	WorkItemType     string
	ProjectName      string
	OrganizationID   string
	OrganizationName string
	StartTime        time.Time
	EndTime          time.Time
	DurationMinutes  int
	Description      *string
	SyncedToAdo      bool
	SyncedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TimerSession is the single-row snapshot of the in-flight timer.
// The work item columns are nil when the snapshot carries no item.
type TimerSession struct {
	IsRunning           bool
	IsPaused            bool
	StartTime           time.Time
	AccumulatedPausedMs int64
	PauseStartedAt      *time.Time
	WorkItemID          *int64
	WorkItemTitle       string
	WorkItemType        string
	WorkItemState       string
	OrganizationID      string
	OrganizationName    string
	ProjectName         string
	RemoteCompletedWork *float64
	UpdatedAt           time.Time
}

// SyncLog is one audit record of a reconciliation group
type SyncLog struct {
	ID             string
	WorkItemID     int64
	OrganizationID string
	HoursSynced    float64
	SyncedAt       time.Time
	Status         string
	ErrorMessage   *string
}
