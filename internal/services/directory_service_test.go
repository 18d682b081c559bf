package services

import (
	"context"
	"testing"
	"time"

	"ado-time-tracker/internal/ado"
	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultDirectoryConfig() config.DirectoryConfig {
	return config.DirectoryConfig{
		CacheTTL:       5 * time.Minute,
		SearchLimit:    50,
		AssignedLimit:  200,
		TrackableTypes: []string{"Task", "Bug", "User Story"},
		TerminalStates: []string{"Closed", "Resolved", "Done", "Removed"},
	}
}

func setupDirectory(t *testing.T) (WorkItemDirectory, *fakeWorkItemClient, *clock.FakeClock) {
	client := newFakeClient()
	clk := fakeClock()
	return NewWorkItemDirectory(client, testRegistry(), clk, defaultDirectoryConfig()), client, clk
}

func TestWorkItemDirectory_GetByID(t *testing.T) {
	tests := []struct {
		name     string
		item     *ado.WorkItem
		expected bool
	}{
		{
			name:     "active task",
			item:     &ado.WorkItem{ID: 100, Title: "Fix login", Type: "Task", State: "Active", ProjectName: "Web", CompletedWork: hours(2)},
			expected: true,
		},
		{
			name:     "terminal state is excluded",
			item:     &ado.WorkItem{ID: 100, Title: "Old", Type: "Task", State: "closed"},
			expected: false,
		},
		{
			name:     "untrackable type is excluded",
			item:     &ado.WorkItem{ID: 100, Title: "Theme", Type: "Epic", State: "Active"},
			expected: false,
		},
		{
			name:     "missing item",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, client, _ := setupDirectory(t)
			if tt.item != nil {
				client.put(*tt.item)
			}

			item, err := directory.GetByID(context.Background(), "contoso", 100)
			require.NoError(t, err)
			if !tt.expected {
				assert.Nil(t, item)
				return
			}

			require.NotNil(t, item)
			assert.Equal(t, int64(100), item.ID)
			assert.Equal(t, "contoso", item.OrganizationID)
			assert.Equal(t, "Contoso", item.OrganizationName)
			assert.Equal(t, "Web", item.ProjectName)
			assert.InDelta(t, 2.0, item.CompletedHours(), 1e-9)
		})
	}
}

func TestWorkItemDirectory_UnknownOrganization(t *testing.T) {
	directory, client, _ := setupDirectory(t)

	_, err := directory.GetByID(context.Background(), "fabrikam", 100)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = directory.ListAssignedToCurrentUser(context.Background(), "fabrikam")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
	assert.Equal(t, 0, client.getCount())
}

func TestWorkItemDirectory_Search(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		expectedIDs   []int64
		expectedQuery string
	}{
		{name: "numeric text looks up by id", text: "100", expectedIDs: []int64{100}},
		{name: "hash prefixed id", text: " #100 ", expectedIDs: []int64{100}},
		{
			name:          "title text runs a query",
			text:          "login",
			expectedIDs:   []int64{200},
			expectedQuery: "[System.Title] CONTAINS 'login'",
		},
		{
			name:          "quotes are escaped",
			text:          "user's",
			expectedIDs:   []int64{200},
			expectedQuery: "CONTAINS 'user''s'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, client, _ := setupDirectory(t)
			client.put(ado.WorkItem{ID: 100, Title: "Fix login", Type: "Task", State: "Active"})
			client.queryResult = []*ado.WorkItem{
				{ID: 200, Title: "Login page", Type: "Bug", State: "New"},
				{ID: 300, Title: "Login epic", Type: "Epic", State: "New"},
				{ID: 400, Title: "Login done", Type: "Task", State: "Done"},
			}

			items, err := directory.Search(context.Background(), "contoso", tt.text)
			require.NoError(t, err)

			var ids []int64
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)

			if tt.expectedQuery == "" {
				assert.Empty(t, client.queries)
				return
			}
			require.Len(t, client.queries, 1)
			assert.Contains(t, client.queries[0], tt.expectedQuery)
			assert.Contains(t, client.queries[0], "NOT IN ('Closed', 'Resolved', 'Done', 'Removed')")
			assert.Equal(t, []int{50}, client.tops)
		})
	}
}

func TestWorkItemDirectory_SearchRejectsEmptyText(t *testing.T) {
	directory, _, _ := setupDirectory(t)

	_, err := directory.Search(context.Background(), "contoso", "   ")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestWorkItemDirectory_ListAssignedToCurrentUser(t *testing.T) {
	directory, client, _ := setupDirectory(t)
	client.queryResult = []*ado.WorkItem{
		{ID: 1, Title: "Mine", Type: "User Story", State: "Active", AssignedTo: "Ada"},
		{ID: 2, Title: "Finished", Type: "Task", State: "Resolved", AssignedTo: "Ada"},
	}

	items, err := directory.ListAssignedToCurrentUser(context.Background(), "contoso")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].AssignedTo)
	require.Len(t, client.queries, 1)
	assert.Contains(t, client.queries[0], "[System.AssignedTo] = @Me")
	assert.Equal(t, []int{200}, client.tops)
}

func TestWorkItemDirectory_CachesUntilTTL(t *testing.T) {
	directory, client, clk := setupDirectory(t)
	client.put(ado.WorkItem{ID: 100, Title: "Fix login", Type: "Task", State: "Active"})
	ctx := context.Background()

	_, err := directory.GetByID(ctx, "contoso", 100)
	require.NoError(t, err)
	_, err = directory.GetByID(ctx, "contoso", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, client.getCount(), "second lookup is served from cache")

	clk.Advance(5 * time.Minute)
	_, err = directory.GetByID(ctx, "contoso", 100)
	require.NoError(t, err)
	assert.Equal(t, 2, client.getCount(), "expired entries are refetched")

	directory.Invalidate("contoso")
	_, err = directory.GetByID(ctx, "contoso", 100)
	require.NoError(t, err)
	assert.Equal(t, 3, client.getCount(), "invalidation drops the cache")
}

func TestWorkItemDirectory_CachedResultsAreCopies(t *testing.T) {
	directory, client, _ := setupDirectory(t)
	client.queryResult = []*ado.WorkItem{
		{ID: 200, Title: "Login page", Type: "Bug", State: "New"},
	}
	ctx := context.Background()

	first, err := directory.Search(ctx, "contoso", "login")
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Title = "changed by caller"

	second, err := directory.Search(ctx, "contoso", "login")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Login page", second[0].Title)
	second[0].State = "Closed"

	third, err := directory.Search(ctx, "contoso", "login")
	require.NoError(t, err)
	assert.Equal(t, "New", third[0].State)
	assert.Len(t, client.queries, 1, "later searches are served from cache")
}

func TestWorkItemDirectory_ZeroTTLDisablesCache(t *testing.T) {
	client := newFakeClient()
	client.put(ado.WorkItem{ID: 100, Title: "Fix login", Type: "Task", State: "Active"})
	cfg := defaultDirectoryConfig()
	cfg.CacheTTL = 0
	directory := NewWorkItemDirectory(client, testRegistry(), fakeClock(), cfg)

	for i := 0; i < 3; i++ {
		_, err := directory.GetByID(context.Background(), "contoso", 100)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, client.getCount())
}

func TestSyncService_IgnoresDirectoryCache(t *testing.T) {
	f := setupSyncService(t)
	ctx := context.Background()
	directory := NewWorkItemDirectory(f.client, testRegistry(), f.clock, defaultDirectoryConfig())
	f.client.setCompleted(100, hours(1.0))

	cached, err := directory.GetByID(ctx, "contoso", 100)
	require.NoError(t, err)
	require.NotNil(t, cached)

	// Another editor changes the remote value after it was cached.
	f.client.setCompleted(100, hours(3.0))
	f.appendEntries(t, newEntry(testItem(), nine, 30))

	_, err = f.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, *f.client.completed(100), 1e-9)
	assert.InDelta(t, 1.0, cached.CompletedHours(), 1e-9)
}
