package services

import (
	"context"
	"math"
	"time"

	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/repository/sqlite"
	"ado-time-tracker/internal/validation"

	"github.com/google/uuid"
)

// ledgerServiceImpl implements the LedgerService interface
type ledgerServiceImpl struct {
	repo               sqlite.Repository
	mapper             *domain.Mapper
	clock              clock.Clock
	timeEntryValidator *validation.TimeEntryValidator
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(repo sqlite.Repository, clk clock.Clock) LedgerService {
	return &ledgerServiceImpl{
		repo:               repo,
		mapper:             domain.NewMapper(),
		clock:              clk,
		timeEntryValidator: validation.NewTimeEntryValidatorWithClock(clk.Now),
	}
}

func (l *ledgerServiceImpl) Append(ctx context.Context, entry domain.TimeEntry) error {
	if !entry.IsValid() {
		return errors.NewValidationError("time entry is incomplete", nil).
			WithContext("time_entry_id", entry.ID)
	}

	row := l.mapper.TimeEntry.ToDatabase(entry)
	return l.repo.CreateTimeEntry(ctx, &row)
}

func (l *ledgerServiceImpl) Remove(ctx context.Context, id string) error {
	err := l.repo.DeleteTimeEntry(ctx, id)
	if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
		return nil
	}
	return err
}

func (l *ledgerServiceImpl) Get(ctx context.Context, id string) (*domain.TimeEntry, error) {
	row, err := l.repo.GetTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := l.mapper.TimeEntry.FromDatabase(*row)
	return &entry, nil
}

func (l *ledgerServiceImpl) List(ctx context.Context, opts domain.SearchOptions) ([]domain.TimeEntry, error) {
	if err := l.timeEntryValidator.ValidateSearchOptions(opts); err != nil {
		return nil, err
	}

	rows, err := l.repo.SearchTimeEntries(ctx, l.mapper.SearchOptions.ToDatabase(opts))
	if err != nil {
		return nil, err
	}
	return l.mapper.TimeEntry.FromDatabaseSlice(rows), nil
}

func (l *ledgerServiceImpl) ListUnsynced(ctx context.Context) ([]domain.TimeEntry, error) {
	return l.List(ctx, domain.UnsyncedOnly())
}

func (l *ledgerServiceImpl) MarkSynced(ctx context.Context, ids []string, syncedAt time.Time) (int64, error) {
	return l.repo.MarkTimeEntriesSynced(ctx, ids, syncedAt)
}

// AddManualEntry records time worked outside the timer. The duration is
// rounded to the nearest minute.
func (l *ledgerServiceImpl) AddManualEntry(ctx context.Context, item domain.WorkItem, start, end time.Time, description string) (*domain.TimeEntry, error) {
	if err := l.timeEntryValidator.ValidateManualEntry(item, start, end, description); err != nil {
		return nil, err
	}

	minutes := roundMinutes(end.Sub(start))
	entry := domain.NewTimeEntry(uuid.NewString(), item, start, end, minutes, description, l.clock.Now())
	if err := l.Append(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// sessionStoreImpl keeps the timer snapshot in the single-row session table
type sessionStoreImpl struct {
	repo   sqlite.Repository
	mapper *domain.Mapper
	clock  clock.Clock
}

// NewSessionStore creates a SessionStore backed by the repository
func NewSessionStore(repo sqlite.Repository, clk clock.Clock) SessionStore {
	return &sessionStoreImpl{
		repo:   repo,
		mapper: domain.NewMapper(),
		clock:  clk,
	}
}

func (s *sessionStoreImpl) Save(ctx context.Context, session domain.TimerSession) error {
	row := s.mapper.TimerSession.ToDatabase(session, s.clock.Now())
	return s.repo.SaveTimerSession(ctx, &row)
}

func (s *sessionStoreImpl) Load(ctx context.Context) (*domain.TimerSession, error) {
	row, err := s.repo.LoadTimerSession(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	session := s.mapper.TimerSession.FromDatabase(*row)
	return &session, nil
}

func (s *sessionStoreImpl) Clear(ctx context.Context) error {
	return s.repo.ClearTimerSession(ctx)
}
