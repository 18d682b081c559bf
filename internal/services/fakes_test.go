package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ado-time-tracker/internal/ado"
	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/repository/sqlite"

	"github.com/stretchr/testify/require"
)

var nine = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testItem() domain.WorkItem {
	return domain.WorkItem{
		ID:               100,
		Title:            "Fix login",
		Type:             "Task",
		State:            "Active",
		OrganizationID:   "contoso",
		OrganizationName: "Contoso",
		ProjectName:      "Web",
	}
}

func itemFor(org string, id int64) domain.WorkItem {
	item := testItem()
	item.OrganizationID = org
	item.ID = id
	return item
}

func hours(h float64) *float64 {
	return &h
}

func testRegistry() *config.OrganizationRegistry {
	return config.NewOrganizationRegistry(domain.Organization{
		ID:      "contoso",
		Name:    "Contoso",
		URL:     "https://dev.azure.com/contoso",
		Project: "Web",
		Token:   "pat",
	})
}

func setupRepository(t *testing.T) sqlite.Repository {
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

type patchCall struct {
	conn  ado.Connection
	id    int64
	hours float64
}

// fakeWorkItemClient is an in-memory remote. Updates are applied to the
// stored items so later reads observe them.
type fakeWorkItemClient struct {
	mu          sync.Mutex
	items       map[int64]*ado.WorkItem
	getErr      map[int64]error
	updateErr   map[int64]error
	updateDelay time.Duration
	patches     []patchCall
	gets        int
	queries     []string
	tops        []int
	queryResult []*ado.WorkItem
}

func newFakeClient() *fakeWorkItemClient {
	return &fakeWorkItemClient{
		items:     make(map[int64]*ado.WorkItem),
		getErr:    make(map[int64]error),
		updateErr: make(map[int64]error),
	}
}

func (f *fakeWorkItemClient) put(item ado.WorkItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = &item
}

func (f *fakeWorkItemClient) setCompleted(id int64, completed *float64) {
	f.put(ado.WorkItem{ID: id, Title: "Item", Type: "Task", State: "Active", CompletedWork: completed})
}

func (f *fakeWorkItemClient) completed(id int64) *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		return item.CompletedWork
	}
	return nil
}

func (f *fakeWorkItemClient) patchCalls() []patchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]patchCall(nil), f.patches...)
}

func (f *fakeWorkItemClient) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeWorkItemClient) GetWorkItem(ctx context.Context, conn ado.Connection, id int64) (*ado.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *fakeWorkItemClient) Query(ctx context.Context, conn ado.Connection, wiql string, top int) ([]*ado.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, wiql)
	f.tops = append(f.tops, top)
	return f.queryResult, nil
}

func (f *fakeWorkItemClient) UpdateCompletedWork(ctx context.Context, conn ado.Connection, id int64, value float64) error {
	if f.updateDelay > 0 {
		time.Sleep(f.updateDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.patches = append(f.patches, patchCall{conn: conn, id: id, hours: value})
	if item, ok := f.items[id]; ok {
		item.CompletedWork = &value
	}
	return nil
}

// failingLedger wraps a ledger and fails selected operations.
type failingLedger struct {
	LedgerService
	appendErr     error
	markSyncedErr error
}

func (f *failingLedger) Append(ctx context.Context, entry domain.TimeEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.LedgerService.Append(ctx, entry)
}

func (f *failingLedger) MarkSynced(ctx context.Context, ids []string, syncedAt time.Time) (int64, error) {
	if f.markSyncedErr != nil {
		return 0, f.markSyncedErr
	}
	return f.LedgerService.MarkSynced(ctx, ids, syncedAt)
}

// failingStore wraps a session store and fails saves.
type failingStore struct {
	SessionStore
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, session domain.TimerSession) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.SessionStore.Save(ctx, session)
}

var errDiskFull = errors.NewDatabaseError("save timer session", nil)

func fakeClock() *clock.FakeClock {
	return clock.Fake(nine)
}
