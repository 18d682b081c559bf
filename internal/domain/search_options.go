package domain

import "time"

// SearchOptions represents search criteria for time entries.
type SearchOptions struct {
	Synced         *bool
	OrganizationID *string
	WorkItemID     *int64
	StartTime      *time.Time
	EndTime        *time.Time
}

// UnsyncedOnly selects entries not yet pushed to the remote.
func UnsyncedOnly() SearchOptions {
	synced := false
	return SearchOptions{Synced: &synced}
}
