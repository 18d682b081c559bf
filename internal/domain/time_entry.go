package domain

import (
	"time"
)

// TimeEntry is one finished tracking session or manual entry.
// A synced entry is never mutated again; it may only be deleted.
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

// NewTimeEntry creates an unsynced entry for the given work item.
// An empty description is stored as nil.
func NewTimeEntry(id string, item WorkItem, start, end time.Time, minutes int, description string, now time.Time) TimeEntry {
	entry := TimeEntry{
		ID:               id,
		WorkItemID:       item.ID,
		WorkItemTitle:    item.Title,
		WorkItemType:     item.Type,
		ProjectName:      item.ProjectName,
		OrganizationID:   item.OrganizationID,
		OrganizationName: item.OrganizationName,
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  minutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if description != "" {
		entry.Description = &description
	}
	return entry
}

// Key returns the reconciliation group the entry belongs to.
func (te TimeEntry) Key() GroupKey {
	return GroupKey{OrganizationID: te.OrganizationID, WorkItemID: te.WorkItemID}
}

// Duration returns the recorded worked duration.
func (te TimeEntry) Duration() time.Duration {
	return time.Duration(te.DurationMinutes) * time.Minute
}

// IsValid checks if the time entry has valid data.
func (te TimeEntry) IsValid() bool {
	if te.ID == "" || te.OrganizationID == "" {
		return false
	}
	if te.WorkItemID <= 0 || te.DurationMinutes < 1 {
		return false
	}
	if te.StartTime.IsZero() || te.EndTime.Before(te.StartTime) {
		return false
	}
	if te.SyncedToAdo != (te.SyncedAt != nil) {
		return false
	}
	return true
}

// EntryIDs returns the ids of entries in order.
func EntryIDs(entries []TimeEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
