package domain

import (
	"fmt"
	"sort"
	"time"
)

// GroupKey identifies a reconciliation group.
type GroupKey struct {
	OrganizationID string
	WorkItemID     int64
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%d", k.OrganizationID, k.WorkItemID)
}

// SyncGroup aggregates unsynced entries of one work item. It is derived on
// every pass and never persisted.
type SyncGroup struct {
	OrganizationID string
	WorkItemID     int64
	TotalMinutes   int
	EntryIDs       []string
}

// Key returns the group's identity.
func (g SyncGroup) Key() GroupKey {
	return GroupKey{OrganizationID: g.OrganizationID, WorkItemID: g.WorkItemID}
}

// Hours converts the grouped minutes to hours without rounding.
func (g SyncGroup) Hours() float64 {
	return float64(g.TotalMinutes) / 60
}

// GroupEntries buckets entries by organization and work item. Groups are
// ordered by organization then work item id; entry ids keep input order.
func GroupEntries(entries []TimeEntry) []SyncGroup {
	index := make(map[GroupKey]int)
	var groups []SyncGroup

	for _, e := range entries {
		key := e.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SyncGroup{OrganizationID: key.OrganizationID, WorkItemID: key.WorkItemID})
		}
		groups[i].TotalMinutes += e.DurationMinutes
		groups[i].EntryIDs = append(groups[i].EntryIDs, e.ID)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].OrganizationID != groups[j].OrganizationID {
			return groups[i].OrganizationID < groups[j].OrganizationID
		}
		return groups[i].WorkItemID < groups[j].WorkItemID
	})
	return groups
}

// SyncStatus is the outcome of one reconciled group.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncLog is one audit record of a reconciled group.
type SyncLog struct {
	ID             string
	WorkItemID     int64
	OrganizationID string
	HoursSynced    float64
	SyncedAt       time.Time
	Status         SyncStatus
	ErrorMessage   *string
}

// SyncResult summarizes a reconciliation pass in group counts.
type SyncResult struct {
	Success int
	Failed  int
	Skipped int
	Logs    []SyncLog
}
