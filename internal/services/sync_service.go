package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/repository/sqlite"
	"ado-time-tracker/internal/validation"

	"github.com/google/uuid"
)

// ErrOrganizationNotFound is the SyncLog message for groups whose
// organization is not configured.
const ErrOrganizationNotFound = "organization not found"

type groupOutcome int

const (
	outcomeNotStarted groupOutcome = iota
	outcomeSuccess
	outcomeFailed
	outcomeSkipped
)

type groupResult struct {
	outcome groupOutcome
	log     *domain.SyncLog
}

// syncServiceImpl implements the SyncService interface
type syncServiceImpl struct {
	repo               sqlite.Repository
	ledger             LedgerService
	client             WorkItemClient
	orgs               OrganizationResolver
	clock              clock.Clock
	logger             *slog.Logger
	config             config.SyncConfig
	mapper             *domain.Mapper
	timeEntryValidator *validation.TimeEntryValidator

	// owner identifies this process in sync leases
	owner string
	locks *keyedMutex
}

// NewSyncService creates a new SyncService instance
func NewSyncService(repo sqlite.Repository, ledger LedgerService, client WorkItemClient, orgs OrganizationResolver,
	clk clock.Clock, logger *slog.Logger, cfg config.SyncConfig) SyncService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 30 * time.Second
	}
	cfg.LeaseTTL = leaseTTLFor(cfg)
	return &syncServiceImpl{
		repo:               repo,
		ledger:             ledger,
		client:             client,
		orgs:               orgs,
		clock:              clk,
		logger:             logger,
		config:             cfg,
		mapper:             domain.NewMapper(),
		timeEntryValidator: validation.NewTimeEntryValidator(),
		owner:              uuid.NewString(),
		locks:              newKeyedMutex(),
	}
}

func (s *syncServiceImpl) SyncAll(ctx context.Context) (*domain.SyncResult, error) {
	entries, err := s.ledger.ListUnsynced(ctx)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, entries)
}

func (s *syncServiceImpl) SyncEntries(ctx context.Context, ids []string) (*domain.SyncResult, error) {
	if len(ids) == 0 {
		return s.SyncAll(ctx)
	}
	if err := s.timeEntryValidator.ValidateTimeEntryIDs(ids); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids))
	var entries []domain.TimeEntry
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		entry, err := s.ledger.Get(ctx, id)
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !entry.SyncedToAdo {
			entries = append(entries, *entry)
		}
	}
	return s.reconcile(ctx, entries)
}

func (s *syncServiceImpl) RecentLogs(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	rows, err := s.repo.ListSyncLogs(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.mapper.SyncLog.FromDatabaseSlice(rows), nil
}

// reconcile runs every group on a bounded worker pool. Cancelling ctx stops
// new groups from starting; groups already running complete.
func (s *syncServiceImpl) reconcile(ctx context.Context, entries []domain.TimeEntry) (*domain.SyncResult, error) {
	groups := domain.GroupEntries(entries)
	results := make([]groupResult, len(groups))

	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

dispatch:
	for i := range groups {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			break dispatch
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.reconcileGroup(ctx, groups[i])
		}(i)
	}
	wg.Wait()

	result := &domain.SyncResult{}
	notStarted := 0
	for _, r := range results {
		switch r.outcome {
		case outcomeSuccess:
			result.Success++
		case outcomeFailed:
			result.Failed++
		case outcomeSkipped:
			result.Skipped++
		default:
			notStarted++
		}
		if r.log != nil {
			result.Logs = append(result.Logs, *r.log)
		}
	}

	s.logger.Info("sync pass finished",
		"groups", len(groups),
		"success", result.Success,
		"failed", result.Failed,
		"skipped", result.Skipped)

	if notStarted > 0 {
		return result, errors.WrapError(ctx.Err(), errors.ErrorTypeTimeout,
			fmt.Sprintf("sync interrupted, %d groups not started", notStarted))
	}
	return result, nil
}

// reconcileGroup performs the read-modify-write of one work item while
// holding both the in-process group lock and the cross-process lease.
func (s *syncServiceImpl) reconcileGroup(ctx context.Context, group domain.SyncGroup) groupResult {
	key := group.Key()
	work := context.WithoutCancel(ctx)

	unlock := s.locks.Lock(key)
	defer unlock()

	acquired, err := s.repo.AcquireSyncLease(work, key.String(), s.owner, s.clock.Now(), s.config.LeaseTTL)
	if err != nil {
		return s.fail(work, group, fmt.Sprintf("acquire sync lease: %s", errors.GetUserMessage(err)))
	}
	if !acquired {
		s.logger.Info("group is being synced elsewhere, skipping", "group", key.String())
		return groupResult{outcome: outcomeSkipped}
	}
	defer func() {
		if err := s.repo.ReleaseSyncLease(work, key.String(), s.owner); err != nil {
			s.logger.Warn("failed to release sync lease", "group", key.String(), "error", err)
		}
	}()

	group, err = s.pending(work, group)
	if err != nil {
		return s.fail(work, group, errors.GetUserMessage(err))
	}
	if len(group.EntryIDs) == 0 {
		s.logger.Debug("group already synced, skipping", "group", key.String())
		return groupResult{outcome: outcomeSkipped}
	}

	org, ok := s.orgs.Lookup(group.OrganizationID)
	if !ok {
		return s.fail(work, group, ErrOrganizationNotFound)
	}
	conn := connectionFor(org)

	remote, cancel := context.WithTimeout(work, s.config.RemoteTimeout)
	defer cancel()

	item, err := s.client.GetWorkItem(remote, conn, group.WorkItemID)
	if err != nil {
		return s.fail(work, group, errors.GetUserMessage(err))
	}
	if item == nil {
		return s.fail(work, group, fmt.Sprintf("work item %d not found", group.WorkItemID))
	}

	var current float64
	if item.CompletedWork != nil {
		current = *item.CompletedWork
	}
	newTotal := current + group.Hours()

	if err := s.client.UpdateCompletedWork(remote, conn, group.WorkItemID, newTotal); err != nil {
		return s.fail(work, group, errors.GetUserMessage(err))
	}

	if _, err := s.ledger.MarkSynced(work, group.EntryIDs, s.clock.Now()); err != nil {
		s.logger.Error("remote updated but entries not marked synced",
			"group", key.String(), "completed_work", newTotal, "error", err)
		return s.fail(work, group, fmt.Sprintf(
			"CompletedWork updated to %g but marking entries synced failed: %s", newTotal, errors.GetUserMessage(err)))
	}

	s.logger.Debug("group synced", "group", key.String(), "from", current, "to", newTotal)
	return groupResult{outcome: outcomeSuccess, log: s.record(work, group, domain.SyncStatusSuccess, nil)}
}

// pending narrows the group to entries that are still unsynced.
func (s *syncServiceImpl) pending(ctx context.Context, group domain.SyncGroup) (domain.SyncGroup, error) {
	synced := false
	unsynced, err := s.ledger.List(ctx, domain.SearchOptions{
		Synced:         &synced,
		OrganizationID: &group.OrganizationID,
		WorkItemID:     &group.WorkItemID,
	})
	if err != nil {
		return group, err
	}

	minutes := make(map[string]int, len(unsynced))
	for _, e := range unsynced {
		minutes[e.ID] = e.DurationMinutes
	}

	narrowed := domain.SyncGroup{OrganizationID: group.OrganizationID, WorkItemID: group.WorkItemID}
	for _, id := range group.EntryIDs {
		if m, ok := minutes[id]; ok {
			narrowed.EntryIDs = append(narrowed.EntryIDs, id)
			narrowed.TotalMinutes += m
		}
	}
	return narrowed, nil
}

func (s *syncServiceImpl) fail(ctx context.Context, group domain.SyncGroup, message string) groupResult {
	s.logger.Warn("group sync failed", "group", group.Key().String(), "error", message)
	return groupResult{outcome: outcomeFailed, log: s.record(ctx, group, domain.SyncStatusFailed, &message)}
}

// record appends a SyncLog. A failed write is logged and does not change the
// group's outcome.
func (s *syncServiceImpl) record(ctx context.Context, group domain.SyncGroup, status domain.SyncStatus, message *string) *domain.SyncLog {
	log := domain.SyncLog{
		ID:             uuid.NewString(),
		WorkItemID:     group.WorkItemID,
		OrganizationID: group.OrganizationID,
		HoursSynced:    group.Hours(),
		SyncedAt:       s.clock.Now(),
		Status:         status,
		ErrorMessage:   message,
	}

	row := s.mapper.SyncLog.ToDatabase(log)
	if err := s.repo.AppendSyncLog(ctx, &row, s.config.LogCapacity); err != nil {
		s.logger.Error("failed to write sync log", "group", group.Key().String(), "error", err)
	}
	return &log
}

// leaseTTLFor is the minimum lease length that covers a group's remote calls.
func leaseTTLFor(cfg config.SyncConfig) time.Duration {
	if ttl := 2 * cfg.RemoteTimeout; ttl > cfg.LeaseTTL {
		return ttl
	}
	return cfg.LeaseTTL
}
