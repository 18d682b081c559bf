package api

import (
	"context"
	"fmt"
	"time"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/services"
	"ado-time-tracker/internal/validation"
)

// TimerStatus is the timer view returned by timer operations
type TimerStatus = services.TimerStatus

// BusinessAPI is the command surface consumed by the CLI
type BusinessAPI interface {
	// ========== Timer ==========

	// StartTimer looks the work item up and starts tracking it
	StartTimer(ctx context.Context, organizationID string, workItemID int64) (*TimerStatus, error)

	PauseTimer(ctx context.Context) (*TimerStatus, error)
	ResumeTimer(ctx context.Context) (*TimerStatus, error)

	// StopTimer records the session. The entry is nil when the session was
	// under a minute and discarded.
	StopTimer(ctx context.Context, description string) (*domain.TimeEntry, error)

	TimerStatus(ctx context.Context) (*TimerStatus, error)

	// Subscribe registers for tick and state-changed notifications. Listeners
	// may call timer operations from inside the callback.
	Subscribe(listener services.Listener) func()

	// ========== Sync ==========

	// Sync reconciles the given entries, or every unsynced entry when ids
	// is empty
	Sync(ctx context.Context, ids []string) (*domain.SyncResult, error)

	RecentSyncLogs(ctx context.Context, limit int) ([]domain.SyncLog, error)

	// ========== Ledger ==========

	ListEntries(ctx context.Context, unsyncedOnly bool) ([]domain.TimeEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	AddManualEntry(ctx context.Context, organizationID string, workItemID int64, start, end time.Time, description string) (*domain.TimeEntry, error)

	// ========== Work items ==========

	SearchWorkItems(ctx context.Context, organizationID, text string) ([]domain.WorkItem, error)
	AssignedWorkItems(ctx context.Context, organizationID string) ([]domain.WorkItem, error)
	Organizations(ctx context.Context) []domain.Organization
}

// businessAPIImpl implements the BusinessAPI interface
type businessAPIImpl struct {
	services           *services.ServiceContainer
	timeEntryValidator *validation.TimeEntryValidator
	workItemValidator  *validation.WorkItemValidator
}

// NewBusinessAPI creates a new BusinessAPI instance
func NewBusinessAPI(container *services.ServiceContainer) BusinessAPI {
	return &businessAPIImpl{
		services:           container,
		timeEntryValidator: validation.NewTimeEntryValidator(),
		workItemValidator:  validation.NewWorkItemValidator(),
	}
}

func (b *businessAPIImpl) StartTimer(ctx context.Context, organizationID string, workItemID int64) (*TimerStatus, error) {
	item, err := b.lookupWorkItem(ctx, organizationID, workItemID)
	if err != nil {
		return nil, err
	}

	err = b.services.Timer.Start(ctx, *item)
	if err != nil && !startedAnyway(err) {
		return nil, err
	}
	status := b.services.Timer.Status()
	return &status, err
}

func (b *businessAPIImpl) PauseTimer(ctx context.Context) (*TimerStatus, error) {
	return b.transition(b.services.Timer.Pause(ctx))
}

func (b *businessAPIImpl) ResumeTimer(ctx context.Context) (*TimerStatus, error) {
	return b.transition(b.services.Timer.Resume(ctx))
}

func (b *businessAPIImpl) StopTimer(ctx context.Context, description string) (*domain.TimeEntry, error) {
	return b.services.Timer.Stop(ctx, description)
}

func (b *businessAPIImpl) TimerStatus(ctx context.Context) (*TimerStatus, error) {
	status := b.services.Timer.Status()
	return &status, nil
}

func (b *businessAPIImpl) Subscribe(listener services.Listener) func() {
	return b.services.Timer.Subscribe(listener)
}

func (b *businessAPIImpl) Sync(ctx context.Context, ids []string) (*domain.SyncResult, error) {
	result, err := b.services.Sync.SyncEntries(ctx, ids)
	if result != nil && result.Success > 0 {
		// cached CompletedWork values are stale now
		b.services.Directory.Invalidate("")
	}
	return result, err
}

func (b *businessAPIImpl) RecentSyncLogs(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	if limit < 0 {
		return nil, errors.NewInvalidInputError("limit", limit, "must not be negative")
	}
	return b.services.Sync.RecentLogs(ctx, limit)
}

func (b *businessAPIImpl) ListEntries(ctx context.Context, unsyncedOnly bool) ([]domain.TimeEntry, error) {
	if unsyncedOnly {
		return b.services.Ledger.ListUnsynced(ctx)
	}
	return b.services.Ledger.List(ctx, domain.SearchOptions{})
}

// DeleteEntry removes an entry, reporting unknown ids as not found
func (b *businessAPIImpl) DeleteEntry(ctx context.Context, id string) error {
	if err := b.timeEntryValidator.ValidateTimeEntryID(id); err != nil {
		return err
	}
	if _, err := b.services.Ledger.Get(ctx, id); err != nil {
		return err
	}
	return b.services.Ledger.Remove(ctx, id)
}

func (b *businessAPIImpl) AddManualEntry(ctx context.Context, organizationID string, workItemID int64, start, end time.Time, description string) (*domain.TimeEntry, error) {
	item, err := b.lookupWorkItem(ctx, organizationID, workItemID)
	if err != nil {
		return nil, err
	}
	return b.services.Ledger.AddManualEntry(ctx, *item, start, end, description)
}

func (b *businessAPIImpl) SearchWorkItems(ctx context.Context, organizationID, text string) ([]domain.WorkItem, error) {
	return b.services.Directory.Search(ctx, organizationID, text)
}

func (b *businessAPIImpl) AssignedWorkItems(ctx context.Context, organizationID string) ([]domain.WorkItem, error) {
	return b.services.Directory.ListAssignedToCurrentUser(ctx, organizationID)
}

func (b *businessAPIImpl) Organizations(ctx context.Context) []domain.Organization {
	return b.services.Organizations.List()
}

// lookupWorkItem resolves a trackable work item through the directory
func (b *businessAPIImpl) lookupWorkItem(ctx context.Context, organizationID string, workItemID int64) (*domain.WorkItem, error) {
	if err := b.workItemValidator.ValidateWorkItemRef(organizationID, workItemID); err != nil {
		return nil, err
	}

	item, err := b.services.Directory.GetByID(ctx, organizationID, workItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError("work item", fmt.Sprintf("%s/%d", organizationID, workItemID))
	}
	return item, nil
}

// transition reports the timer status after a pause or resume. A failed
// snapshot write still returns the status since the transition stands.
func (b *businessAPIImpl) transition(err error) (*TimerStatus, error) {
	if err != nil && !startedAnyway(err) {
		return nil, err
	}
	status := b.services.Timer.Status()
	return &status, err
}

// startedAnyway reports errors that leave the in-memory transition applied
func startedAnyway(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeDatabase)
}
