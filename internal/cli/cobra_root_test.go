package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ado-time-tracker/internal/api"
	"ado-time-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factoryRecorder struct {
	mock     *mockBusinessAPI
	cfg      *config.Config
	calls    int
	closed   int
	buildErr error
}

func (f *factoryRecorder) build(ctx context.Context, cfg *config.Config) (api.BusinessAPI, func(), error) {
	f.calls++
	f.cfg = cfg
	if f.buildErr != nil {
		return nil, nil, f.buildErr
	}
	return f.mock, func() { f.closed++ }, nil
}

func setupTestRoot(t *testing.T) (*RootCommand, *factoryRecorder, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ATT_CONFIG_FILE", filepath.Join(dir, "config.yaml"))
	t.Setenv("ATT_DB_DIR", dir)
	t.Setenv("ATT_SYNC_CONCURRENCY", "")

	recorder := &factoryRecorder{mock: newMockBusinessAPI()}
	var out, errOut bytes.Buffer
	return NewRootCommand(recorder.build, &out, &errOut), recorder, &out, &errOut
}

func TestRootCommand_DispatchesThroughFactory(t *testing.T) {
	root, recorder, out, _ := setupTestRoot(t)

	require.NoError(t, root.Execute(context.Background(), []string{"start", "contoso", "100"}))

	assert.Equal(t, "Started #100 Fix login (Contoso) 00:00:00\n", out.String())
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, 1, recorder.closed, "cleanup runs after the command")
}

func TestRootCommand_FlagOverridesReachFactory(t *testing.T) {
	root, recorder, _, _ := setupTestRoot(t)
	dir := t.TempDir()
	configFile := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("sync:\n  concurrency: 2\n  remote_timeout: 10s\n"), 0644))

	err := root.Execute(context.Background(), []string{
		"--config", configFile,
		"--db-dir", dir,
		"--sync-concurrency", "6",
		"--cache-ttl", "1m",
		"orgs",
	})
	require.NoError(t, err)

	require.NotNil(t, recorder.cfg)
	assert.Equal(t, dir, recorder.cfg.Database.Dir)
	assert.Equal(t, 6, recorder.cfg.Sync.Concurrency, "flags win over the config file")
	assert.Equal(t, 10*time.Second, recorder.cfg.Sync.RemoteTimeout, "file values apply when no flag is set")
	assert.Equal(t, time.Minute, recorder.cfg.Directory.CacheTTL)
	assert.Equal(t, 4, config.NewConfig().Sync.Concurrency, "defaults are untouched")
}

func TestRootCommand_IllegalTransitionIsAWarning(t *testing.T) {
	root, _, _, errOut := setupTestRoot(t)

	require.NoError(t, root.Execute(context.Background(), []string{"pause"}))
	assert.Equal(t, "warning: cannot pause while timer is idle\n", errOut.String())
}

func TestRootCommand_Errors(t *testing.T) {
	t.Run("command errors carry the operation", func(t *testing.T) {
		root, _, _, _ := setupTestRoot(t)

		err := root.Execute(context.Background(), []string{"start", "contoso", "404"})
		require.Error(t, err)
		assert.Equal(t, "failed to start timer: work item not found: contoso/404", err.Error())
	})

	t.Run("factory failures are reported", func(t *testing.T) {
		root, recorder, _, _ := setupTestRoot(t)
		recorder.buildErr = fmt.Errorf("database locked")

		err := root.Execute(context.Background(), []string{"status"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize: database locked")
		assert.Equal(t, 0, recorder.closed)
	})

	t.Run("invalid configuration never builds the API", func(t *testing.T) {
		root, recorder, _, _ := setupTestRoot(t)

		err := root.Execute(context.Background(), []string{"--sync-concurrency", "0", "status"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
		assert.Equal(t, 0, recorder.calls)
	})

	t.Run("arguments are checked before setup", func(t *testing.T) {
		root, recorder, _, _ := setupTestRoot(t)

		err := root.Execute(context.Background(), []string{"pause", "now"})
		require.Error(t, err)
		assert.Equal(t, 0, recorder.calls)
	})
}
