package domain

import "fmt"

// WorkItem is a snapshot of a remote work item. It is fetched on demand and
// never owned long-term by the timer.
type WorkItem struct {
	ID               int64
	Title            string
	Type             string
	State            string
	AssignedTo       string
	OrganizationID   string
	OrganizationName string
	ProjectName      string
	// RemoteCompletedWork is the CompletedWork field in hours, nil when unset.
	RemoteCompletedWork *float64
}

// IsValid checks that the item can be tracked against.
func (w WorkItem) IsValid() bool {
	return w.ID > 0 && w.OrganizationID != ""
}

// CompletedHours returns the remote CompletedWork, treating unset as zero.
func (w WorkItem) CompletedHours() float64 {
	if w.RemoteCompletedWork == nil {
		return 0
	}
	return *w.RemoteCompletedWork
}

// String returns the item for display purposes.
func (w WorkItem) String() string {
	if w.Title == "" {
		return fmt.Sprintf("#%d", w.ID)
	}
	return fmt.Sprintf("#%d %s", w.ID, w.Title)
}

// Organization is a configured remote tenant.
type Organization struct {
	ID      string
	Name    string
	URL     string
	Project string
	Token   string
}

// DisplayName prefers the human name over the id.
func (o Organization) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}
