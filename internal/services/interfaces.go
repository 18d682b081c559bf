package services

import (
	"context"
	"time"

	"ado-time-tracker/internal/ado"
	"ado-time-tracker/internal/domain"
)

// LedgerService is the durable store of finished time entries
type LedgerService interface {
	// Append stores an entry. Appending an id that already exists is a no-op.
	Append(ctx context.Context, entry domain.TimeEntry) error
	// Remove deletes an entry. Removing an unknown id is a no-op.
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.TimeEntry, error)
	List(ctx context.Context, opts domain.SearchOptions) ([]domain.TimeEntry, error)
	// ListUnsynced returns unsynced entries ordered by start time then id.
	ListUnsynced(ctx context.Context) ([]domain.TimeEntry, error)
	// MarkSynced flags exactly the given ids in one transaction. Unknown ids
	// are ignored. It returns the number of entries that changed.
	MarkSynced(ctx context.Context, ids []string, syncedAt time.Time) (int64, error)

	AddManualEntry(ctx context.Context, item domain.WorkItem, start, end time.Time, description string) (*domain.TimeEntry, error)
}

// SessionStore persists the timer snapshot. Load returns nil when no session
// is stored.
type SessionStore interface {
	Save(ctx context.Context, session domain.TimerSession) error
	Load(ctx context.Context) (*domain.TimerSession, error)
	Clear(ctx context.Context) error
}

// EventKind distinguishes timer notifications
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventTick:
		return "tick"
	default:
		return "unknown"
	}
}

// TimerStatus is a point-in-time view of the timer
type TimerStatus struct {
	State     domain.TimerState
	WorkItem  *domain.WorkItem
	StartTime time.Time
	Elapsed   time.Duration
}

// Event is delivered to timer listeners
type Event struct {
	Kind   EventKind
	Status TimerStatus
}

// Listener receives timer events one at a time, in transition order.
// A listener may call timer transitions; the resulting events are delivered
// after the current callback returns.
type Listener func(Event)

// TimerService owns the single in-flight tracking session
type TimerService interface {
	Start(ctx context.Context, item domain.WorkItem) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	// Stop ends the session. It returns nil when the session was too short
	// to record.
	Stop(ctx context.Context, description string) (*domain.TimeEntry, error)

	Elapsed() time.Duration
	Status() TimerStatus

	// Restore rehydrates the session from the persisted snapshot.
	Restore(ctx context.Context) error
	// Subscribe registers a listener and returns a function removing it.
	Subscribe(listener Listener) func()
	// Close stops ticking and waits for the tick goroutine to exit.
	Close()
}

// SyncService reconciles unsynced entries with the remote CompletedWork field
type SyncService interface {
	SyncAll(ctx context.Context) (*domain.SyncResult, error)
	// SyncEntries reconciles the selected entries. Unknown and already synced
	// ids are ignored; an empty selection means all unsynced entries.
	SyncEntries(ctx context.Context, ids []string) (*domain.SyncResult, error)
	RecentLogs(ctx context.Context, limit int) ([]domain.SyncLog, error)
}

// WorkItemDirectory looks up trackable work items of an organization
type WorkItemDirectory interface {
	GetByID(ctx context.Context, organizationID string, id int64) (*domain.WorkItem, error)
	Search(ctx context.Context, organizationID, text string) ([]domain.WorkItem, error)
	ListAssignedToCurrentUser(ctx context.Context, organizationID string) ([]domain.WorkItem, error)
	// Invalidate drops cached results of one organization, or of all when
	// organizationID is empty.
	Invalidate(organizationID string)
}

// WorkItemClient is the remote work item API
type WorkItemClient interface {
	GetWorkItem(ctx context.Context, conn ado.Connection, id int64) (*ado.WorkItem, error)
	Query(ctx context.Context, conn ado.Connection, wiql string, top int) ([]*ado.WorkItem, error)
	UpdateCompletedWork(ctx context.Context, conn ado.Connection, id int64, hours float64) error
}

// OrganizationResolver finds configured organizations
type OrganizationResolver interface {
	Lookup(id string) (domain.Organization, bool)
	List() []domain.Organization
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	Ledger        LedgerService
	Timer         TimerService
	Sync          SyncService
	Directory     WorkItemDirectory
	Organizations OrganizationResolver
}

func connectionFor(org domain.Organization) ado.Connection {
	return ado.Connection{
		BaseURL: org.URL,
		Project: org.Project,
		Token:   org.Token,
	}
}
