package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeShorthand(t *testing.T) {
	tests := []struct {
		input       string
		expected    time.Duration
		expectError bool
	}{
		{"30m", 30 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1mo", 30 * 24 * time.Hour, false},
		{"1y", 365 * 24 * time.Hour, false},
		{"1h30m", 0, true},
		{"h", 0, true},
		{"5s", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := parseTimeShorthand(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("45m")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)

	d, err = parseDuration("1h15m")
	require.NoError(t, err)
	assert.Equal(t, 75*time.Minute, d)

	_, err = parseDuration("a while")
	assert.EqualError(t, err, "invalid duration: a while")
}

func TestParseClock(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	got, err := parseClock("07:15", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 7, 15, 0, 0, time.UTC), got)

	got, err = parseClock("2026-02-27 16:45", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 27, 16, 45, 0, 0, time.UTC), got)

	_, err = parseClock("7pm", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HH:MM")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "00:00:00", formatElapsed(0))
	assert.Equal(t, "00:00:59", formatElapsed(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "25:01:01", formatElapsed(25*time.Hour+time.Minute+time.Second))

	assert.Equal(t, "0m", formatMinutes(0))
	assert.Equal(t, "59m", formatMinutes(59))
	assert.Equal(t, "1h 05m", formatMinutes(65))

	assert.Equal(t, "1.75h", formatHours(1.75))
	assert.Equal(t, "0.33h", formatHours(20.0/60))
	assert.Equal(t, "3h", formatHours(3))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon…", truncate("longer title", 4))
	assert.Equal(t, "…", truncate("anything", 1))
	assert.Equal(t, "unlimited", truncate("unlimited", 0))

	assert.Equal(t, "abcdef12", shortID("abcdef12-3456-7890"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestFormatSynced(t *testing.T) {
	entry := newTestEntry("Fix login", 100, nine.Add(-time.Hour), 30)
	assert.Equal(t, "no", formatSynced(entry, nine))

	syncedAt := nine.Add(-10 * time.Minute)
	entry.SyncedToAdo, entry.SyncedAt = true, &syncedAt
	assert.Equal(t, "10 minutes ago", formatSynced(entry, nine))
}

func TestTerminalWidth_NonTerminal(t *testing.T) {
	isTerminal, width := terminalWidth(&bytes.Buffer{})
	assert.False(t, isTerminal)
	assert.Zero(t, width)
}

func TestResolveWorkItemRef(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		orgs       []domain.Organization
		expectedID int64
		expectOrg  string
		expectErr  bool
	}{
		{name: "org and id", args: []string{"fabrikam", "7"}, expectOrg: "fabrikam", expectedID: 7},
		{name: "org slash hash id", args: []string{"fabrikam/#7"}, expectOrg: "fabrikam", expectedID: 7},
		{name: "bare id", args: []string{"#7"}, expectOrg: "contoso", expectedID: 7},
		{
			name:      "bare id with no organizations",
			args:      []string{"7"},
			orgs:      []domain.Organization{},
			expectErr: true,
		},
		{name: "zero id", args: []string{"contoso", "0"}, expectErr: true},
		{name: "too many arguments", args: []string{"contoso", "7", "8"}, expectErr: true},
		{name: "no arguments", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock, _, _ := setupTestAppWithMockBusinessAPI(t)
			if tt.orgs != nil {
				mock.orgs = tt.orgs
			}

			org, id, err := app.resolveWorkItemRef(context.Background(), tt.args)
			if tt.expectErr {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectOrg, org)
			assert.Equal(t, tt.expectedID, id)
		})
	}
}
