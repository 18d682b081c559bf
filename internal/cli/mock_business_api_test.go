package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/services"

	"github.com/google/uuid"
)

var nine = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// mockBusinessAPI implements the BusinessAPI interface for testing
type mockBusinessAPI struct {
	mu          sync.Mutex
	orgs        []domain.Organization
	items       map[string]domain.WorkItem
	entries     map[string]domain.TimeEntry
	logs        []domain.SyncLog
	status      api.TimerStatus
	listeners   map[int]services.Listener
	nextID      int
	syncResult  *domain.SyncResult
	syncErr     error
	syncedIDs   [][]string
	searches    []string
	searchOrgs  []string
	manualStart time.Time
	manualEnd   time.Time
	lastLimit   int
}

// newMockBusinessAPI creates a mock with one organization and one work item
func newMockBusinessAPI() *mockBusinessAPI {
	m := &mockBusinessAPI{
		orgs:      []domain.Organization{{ID: "contoso", Name: "Contoso", URL: "https://dev.azure.com/contoso", Project: "Web"}},
		items:     make(map[string]domain.WorkItem),
		entries:   make(map[string]domain.TimeEntry),
		listeners: make(map[int]services.Listener),
	}
	m.addItem(domain.WorkItem{ID: 100, Title: "Fix login", Type: "Task", State: "Active", OrganizationID: "contoso", OrganizationName: "Contoso"})
	return m
}

func (m *mockBusinessAPI) addItem(item domain.WorkItem) {
	m.items[fmt.Sprintf("%s/%d", item.OrganizationID, item.ID)] = item
}

func (m *mockBusinessAPI) addEntry(entry domain.TimeEntry) {
	m.entries[entry.ID] = entry
}

// emit publishes a status to every subscriber
func (m *mockBusinessAPI) emit(kind services.EventKind, status api.TimerStatus) {
	m.mu.Lock()
	listeners := make([]services.Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()
	for _, l := range listeners {
		l(services.Event{Kind: kind, Status: status})
	}
}

func (m *mockBusinessAPI) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func (m *mockBusinessAPI) StartTimer(ctx context.Context, organizationID string, workItemID int64) (*api.TimerStatus, error) {
	item, ok := m.items[fmt.Sprintf("%s/%d", organizationID, workItemID)]
	if !ok {
		return nil, errors.NewNotFoundError("work item", fmt.Sprintf("%s/%d", organizationID, workItemID))
	}
	if m.status.State != domain.TimerIdle {
		return nil, errors.NewIllegalTransitionError("start", m.status.State.String())
	}
	m.status = api.TimerStatus{State: domain.TimerRunning, WorkItem: &item, StartTime: nine}
	status := m.status
	return &status, nil
}

func (m *mockBusinessAPI) PauseTimer(ctx context.Context) (*api.TimerStatus, error) {
	if m.status.State != domain.TimerRunning {
		return nil, errors.NewIllegalTransitionError("pause", m.status.State.String())
	}
	m.status.State = domain.TimerPaused
	status := m.status
	return &status, nil
}

func (m *mockBusinessAPI) ResumeTimer(ctx context.Context) (*api.TimerStatus, error) {
	if m.status.State != domain.TimerPaused {
		return nil, errors.NewIllegalTransitionError("resume", m.status.State.String())
	}
	m.status.State = domain.TimerRunning
	status := m.status
	return &status, nil
}

func (m *mockBusinessAPI) StopTimer(ctx context.Context, description string) (*domain.TimeEntry, error) {
	if m.status.State == domain.TimerIdle {
		return nil, errors.NewIllegalTransitionError("stop", "idle")
	}
	elapsed := m.status.Elapsed
	item := *m.status.WorkItem
	m.status = api.TimerStatus{}
	if elapsed < time.Minute {
		return nil, nil
	}

	minutes := int(elapsed.Round(time.Minute) / time.Minute)
	entry := domain.NewTimeEntry(uuid.NewString(), item, nine, nine.Add(elapsed), minutes, description, nine)
	m.entries[entry.ID] = entry
	return &entry, nil
}

func (m *mockBusinessAPI) TimerStatus(ctx context.Context) (*api.TimerStatus, error) {
	status := m.status
	return &status, nil
}

func (m *mockBusinessAPI) Subscribe(listener services.Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *mockBusinessAPI) Sync(ctx context.Context, ids []string) (*domain.SyncResult, error) {
	m.syncedIDs = append(m.syncedIDs, ids)
	if m.syncResult == nil {
		return &domain.SyncResult{}, m.syncErr
	}
	return m.syncResult, m.syncErr
}

func (m *mockBusinessAPI) RecentSyncLogs(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	m.lastLimit = limit
	if limit < len(m.logs) {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

func (m *mockBusinessAPI) ListEntries(ctx context.Context, unsyncedOnly bool) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	for _, entry := range m.entries {
		if unsyncedOnly && entry.SyncedToAdo {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
	return entries, nil
}

func (m *mockBusinessAPI) DeleteEntry(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return errors.NewNotFoundError("time entry", id)
	}
	delete(m.entries, id)
	return nil
}

func (m *mockBusinessAPI) AddManualEntry(ctx context.Context, organizationID string, workItemID int64, start, end time.Time, description string) (*domain.TimeEntry, error) {
	item, ok := m.items[fmt.Sprintf("%s/%d", organizationID, workItemID)]
	if !ok {
		return nil, errors.NewNotFoundError("work item", fmt.Sprintf("%s/%d", organizationID, workItemID))
	}
	if !end.After(start) {
		return nil, errors.NewValidationError("end time must be after start time", nil)
	}
	m.manualStart, m.manualEnd = start, end
	minutes := int(end.Sub(start).Round(time.Minute) / time.Minute)
	entry := domain.NewTimeEntry(uuid.NewString(), item, start, end, minutes, description, nine)
	m.entries[entry.ID] = entry
	return &entry, nil
}

func (m *mockBusinessAPI) SearchWorkItems(ctx context.Context, organizationID, text string) ([]domain.WorkItem, error) {
	m.searchOrgs = append(m.searchOrgs, organizationID)
	m.searches = append(m.searches, text)
	var items []domain.WorkItem
	for _, item := range m.items {
		if item.OrganizationID == organizationID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *mockBusinessAPI) AssignedWorkItems(ctx context.Context, organizationID string) ([]domain.WorkItem, error) {
	return m.SearchWorkItems(ctx, organizationID, "@Me")
}

func (m *mockBusinessAPI) Organizations(ctx context.Context) []domain.Organization {
	return m.orgs
}

// setupTestAppWithMockBusinessAPI wires an App to a mock and captures output
func setupTestAppWithMockBusinessAPI(t *testing.T) (*App, *mockBusinessAPI, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	mock := newMockBusinessAPI()
	var out, errOut bytes.Buffer
	app := NewApp(mock, config.NewConfig(), &out, &errOut)

	original := timeNow
	timeNow = func() time.Time { return nine }
	t.Cleanup(func() { timeNow = original })

	return app, mock, &out, &errOut
}

func newTestEntry(item string, workItemID int64, start time.Time, minutes int) domain.TimeEntry {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return domain.NewTimeEntry(uuid.NewString(), domain.WorkItem{ID: workItemID, Title: item, OrganizationID: "contoso", OrganizationName: "Contoso"}, start, end, minutes, "", end)
}
