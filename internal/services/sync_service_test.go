package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/logging"
	"ado-time-tracker/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	sync   SyncService
	ledger LedgerService
	client *fakeWorkItemClient
	clock  *clock.FakeClock
	repo   sqlite.Repository
}

func defaultSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		RemoteTimeout: 5 * time.Second,
		Concurrency:   4,
		LogCapacity:   100,
		LeaseTTL:      time.Minute,
	}
}

func setupSyncService(t *testing.T) *syncFixture {
	return setupSyncServiceWithConfig(t, defaultSyncConfig())
}

func setupSyncServiceWithConfig(t *testing.T, cfg config.SyncConfig) *syncFixture {
	repo := setupRepository(t)
	clk := fakeClock()
	ledger := NewLedgerService(repo, clk)
	client := newFakeClient()
	svc := NewSyncService(repo, ledger, client, testRegistry(), clk, logging.Discard(), cfg)
	return &syncFixture{sync: svc, ledger: ledger, client: client, clock: clk, repo: repo}
}

func (f *syncFixture) appendEntries(t *testing.T, entries ...domain.TimeEntry) {
	for _, e := range entries {
		require.NoError(t, f.ledger.Append(context.Background(), e))
	}
}

func (f *syncFixture) unsyncedIDs(t *testing.T) []string {
	entries, err := f.ledger.ListUnsynced(context.Background())
	require.NoError(t, err)
	return domain.EntryIDs(entries)
}

func TestSyncService_EndToEndWithTimer(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	timer := NewTimerService(f.clock, f.ledger, NewSessionStore(f.repo, f.clock), logging.Discard(), config.TimerConfig{TickInterval: time.Second})
	t.Cleanup(timer.Close)

	require.NoError(t, timer.Start(ctx, testItem()))
	f.clock.Set(nine.Add(10 * time.Minute))
	require.NoError(t, timer.Pause(ctx))
	f.clock.Set(nine.Add(15 * time.Minute))
	require.NoError(t, timer.Resume(ctx))
	f.clock.Set(nine.Add(20 * time.Minute))
	entry, err := timer.Stop(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 15, entry.DurationMinutes)

	f.client.setCompleted(100, hours(1.0))
	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)

	patches := f.client.patchCalls()
	require.Len(t, patches, 1)
	assert.Equal(t, int64(100), patches[0].id)
	assert.InDelta(t, 1.25, patches[0].hours, 1e-9)
	assert.Equal(t, "https://dev.azure.com/contoso", patches[0].conn.BaseURL)
	assert.Equal(t, "pat", patches[0].conn.Token)

	synced, err := f.ledger.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, synced.SyncedToAdo)
	require.NotNil(t, synced.SyncedAt)
}

func TestSyncService_SecondPassIsNoOp(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	f.client.setCompleted(100, hours(1.0))
	f.appendEntries(t, newEntry(testItem(), nine, 30))

	first, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Success)

	second, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{}, *second)

	assert.Len(t, f.client.patchCalls(), 1)
	assert.InDelta(t, 1.5, *f.client.completed(100), 1e-9)
}

func TestSyncService_GroupsEntriesPerWorkItem(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	f.client.setCompleted(100, hours(2.0))
	f.appendEntries(t,
		newEntry(testItem(), nine, 10),
		newEntry(testItem(), nine.Add(time.Hour), 20),
		newEntry(testItem(), nine.Add(2*time.Hour), 30),
	)

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	patches := f.client.patchCalls()
	require.Len(t, patches, 1, "one PATCH per group")
	assert.InDelta(t, 3.0, patches[0].hours, 1e-9)
	assert.Empty(t, f.unsyncedIDs(t))

	require.Len(t, result.Logs, 1)
	assert.Equal(t, domain.SyncStatusSuccess, result.Logs[0].Status)
	assert.InDelta(t, 1.0, result.Logs[0].HoursSynced, 1e-9)
}

func TestSyncService_PartialFailureIsolation(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	f.client.setCompleted(100, hours(1.0))
	f.client.setCompleted(200, hours(4.0))
	f.client.updateErr[200] = errors.NewRemoteError("update work item", 401, "access denied", nil)

	a := newEntry(testItem(), nine, 30)
	b := newEntry(itemFor("contoso", 200), nine, 45)
	f.appendEntries(t, a, b)

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, []string{b.ID}, f.unsyncedIDs(t))
	assert.InDelta(t, 4.0, *f.client.completed(200), 1e-9)

	logs, err := f.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	var failed []domain.SyncLog
	for _, l := range logs {
		if l.Status == domain.SyncStatusFailed {
			failed = append(failed, l)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, int64(200), failed[0].WorkItemID)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Contains(t, *failed[0].ErrorMessage, "HTTP 401")
	assert.Contains(t, *failed[0].ErrorMessage, "access denied")

	// A retry after the remote recovers applies only the remaining group.
	delete(f.client.updateErr, 200)
	retry, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Success)
	assert.InDelta(t, 1.5, *f.client.completed(100), 1e-9)
	assert.InDelta(t, 4.75, *f.client.completed(200), 1e-9)
}

func TestSyncService_GroupFailures(t *testing.T) {
	tests := []struct {
		name            string
		entry           domain.TimeEntry
		prepare         func(c *fakeWorkItemClient)
		expectedMessage string
	}{
		{
			name:            "unknown organization",
			entry:           newEntry(itemFor("fabrikam", 100), nine, 30),
			prepare:         func(c *fakeWorkItemClient) { c.setCompleted(100, hours(1)) },
			expectedMessage: "organization not found",
		},
		{
			name:            "work item missing remotely",
			entry:           newEntry(testItem(), nine, 30),
			prepare:         func(c *fakeWorkItemClient) {},
			expectedMessage: "work item 100 not found",
		},
		{
			name:  "remote read fails",
			entry: newEntry(testItem(), nine, 30),
			prepare: func(c *fakeWorkItemClient) {
				c.getErr[100] = errors.NewRemoteError("get work item", 0, "connection refused", nil)
			},
			expectedMessage: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupSyncService(t)
			ctx := context.Background()
			tt.prepare(f.client)
			f.appendEntries(t, tt.entry)

			result, err := f.sync.SyncAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, result.Success)
			assert.Equal(t, 1, result.Failed)
			require.Len(t, result.Logs, 1)
			require.NotNil(t, result.Logs[0].ErrorMessage)
			assert.Contains(t, *result.Logs[0].ErrorMessage, tt.expectedMessage)
			assert.Equal(t, []string{tt.entry.ID}, f.unsyncedIDs(t))
			assert.Empty(t, f.client.patchCalls())
		})
	}
}

func TestSyncService_MissingCompletedWorkCountsAsZero(t *testing.T) {
	f := setupSyncService(t)
	f.client.setCompleted(100, nil)
	f.appendEntries(t, newEntry(testItem(), nine, 90))

	result, err := f.sync.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.InDelta(t, 1.5, f.client.patchCalls()[0].hours, 1e-9)
}

func TestSyncService_SyncEntriesSelection(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	f.client.setCompleted(100, hours(0))
	f.client.setCompleted(200, hours(0))

	a := newEntry(testItem(), nine, 30)
	b := newEntry(testItem(), nine.Add(time.Hour), 15)
	c := newEntry(itemFor("contoso", 200), nine, 60)
	f.appendEntries(t, a, b, c)

	result, err := f.sync.SyncEntries(ctx, []string{a.ID, a.ID, "00000000-0000-0000-0000-000000000000"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.InDelta(t, 0.5, *f.client.completed(100), 1e-9, "only the selected entry is applied")
	assert.InDelta(t, 0, *f.client.completed(200), 1e-9)
	assert.Equal(t, []string{c.ID, b.ID}, f.unsyncedIDs(t))

	again, err := f.sync.SyncEntries(ctx, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{}, *again, "already synced entries are ignored")

	_, err = f.sync.SyncEntries(ctx, []string{"not-a-uuid"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	all, err := f.sync.SyncEntries(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Success)
	assert.Empty(t, f.unsyncedIDs(t))
}

func TestSyncService_ConcurrentPassesDoNotDoubleApply(t *testing.T) {
	f := setupSyncService(t)
	f.client.setCompleted(100, hours(1.0))
	f.client.updateDelay = 20 * time.Millisecond
	f.appendEntries(t, newEntry(testItem(), nine, 15))

	var wg sync.WaitGroup
	results := make([]*domain.SyncResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.sync.SyncAll(context.Background())
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	success := 0
	for _, r := range results {
		require.NotNil(t, r)
		success += r.Success
		assert.Equal(t, 0, r.Failed)
	}
	assert.Equal(t, 1, success)
	assert.Len(t, f.client.patchCalls(), 1)
	assert.InDelta(t, 1.25, *f.client.completed(100), 1e-9)
}

func TestSyncService_SkipsGroupLeasedByAnotherProcess(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	f.client.setCompleted(100, hours(1.0))
	entry := newEntry(testItem(), nine, 15)
	f.appendEntries(t, entry)

	acquired, err := f.repo.AcquireSyncLease(ctx, "contoso/100", "another-process", nine, time.Hour)
	require.NoError(t, err)
	require.True(t, acquired)

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, f.client.patchCalls())
	assert.Equal(t, []string{entry.ID}, f.unsyncedIDs(t))

	require.NoError(t, f.repo.ReleaseSyncLease(ctx, "contoso/100", "another-process"))
	result, err = f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
}

func TestSyncService_CancelledContextStartsNoGroups(t *testing.T) {
	f := setupSyncService(t)
	f.client.setCompleted(100, hours(1.0))
	entries := []domain.TimeEntry{newEntry(testItem(), nine, 15)}
	f.appendEntries(t, entries...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.sync.(*syncServiceImpl).reconcile(ctx, entries)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeTimeout))
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Success+result.Failed+result.Skipped)
	assert.Empty(t, f.client.patchCalls())
}

func TestSyncService_MarkSyncedFailureAfterPatch(t *testing.T) {
	repo := setupRepository(t)
	clk := fakeClock()
	ledger := &failingLedger{
		LedgerService: NewLedgerService(repo, clk),
		markSyncedErr: errors.NewDatabaseError("mark time entries synced", nil),
	}
	client := newFakeClient()
	client.setCompleted(100, hours(1.0))
	svc := NewSyncService(repo, ledger, client, testRegistry(), clk, logging.Discard(), defaultSyncConfig())
	require.NoError(t, ledger.Append(context.Background(), newEntry(testItem(), nine, 30)))

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Logs, 1)
	require.NotNil(t, result.Logs[0].ErrorMessage)
	assert.Contains(t, *result.Logs[0].ErrorMessage, "CompletedWork updated to 1.5")
	assert.Len(t, client.patchCalls(), 1)
}

func TestSyncService_SyncLogIsCapped(t *testing.T) {
	cfg := defaultSyncConfig()
	cfg.LogCapacity = 2
	f := setupSyncServiceWithConfig(t, cfg)
	ctx := context.Background()

	f.appendEntries(t,
		newEntry(itemFor("fabrikam", 1), nine, 10),
		newEntry(itemFor("fabrikam", 2), nine, 10),
		newEntry(itemFor("fabrikam", 3), nine, 10),
	)

	result, err := f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed)

	logs, err := f.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()
	key := domain.GroupKey{OrganizationID: "contoso", WorkItemID: 100}

	unlock := locks.Lock(key)
	assert.Equal(t, 1, locks.size())

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock(key)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder must wait")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}
