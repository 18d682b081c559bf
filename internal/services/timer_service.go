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
	"ado-time-tracker/internal/validation"

	"github.com/google/uuid"
)

// MinimumRecordedDuration is the worked time below which a stopped session
// is discarded instead of recorded.
const MinimumRecordedDuration = time.Minute

// timerServiceImpl implements the TimerService interface.
//
// Lock order is notifyMu then mu. notifyMu is held for a whole transition,
// including persistence, and events are queued under it so they keep
// transition order. Queued events are dispatched by flush after notifyMu is
// released, which lets a listener call back into the timer. mu guards the
// session and the ticker and is never held while calling out.
type timerServiceImpl struct {
	clock             clock.Clock
	ledger            LedgerService
	store             SessionStore
	logger            *slog.Logger
	config            config.TimerConfig
	validator         *validation.Validator
	workItemValidator *validation.WorkItemValidator

	notifyMu sync.Mutex

	mu       sync.Mutex
	session  domain.TimerSession
	ticker   *clock.Ticker
	tickDone chan struct{}
	closed   bool
	wg       sync.WaitGroup

	listenersMu  sync.Mutex
	listeners    []subscription
	nextListener int

	pendingMu sync.Mutex
	pending   []Event
	draining  bool
}

type subscription struct {
	id       int
	listener Listener
}

// NewTimerService creates the timer. Call Restore before first use to pick
// up a session persisted by an earlier process.
func NewTimerService(clk clock.Clock, ledger LedgerService, store SessionStore, logger *slog.Logger, cfg config.TimerConfig) TimerService {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &timerServiceImpl{
		clock:             clk,
		ledger:            ledger,
		store:             store,
		logger:            logger,
		config:            cfg,
		validator:         validation.NewValidator(),
		workItemValidator: validation.NewWorkItemValidator(),
	}
}

func (t *timerServiceImpl) Start(ctx context.Context, item domain.WorkItem) error {
	if err := t.workItemValidator.ValidateWorkItemRef(item.OrganizationID, item.ID); err != nil {
		return err
	}

	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if state := t.session.State(); state != domain.TimerIdle {
		t.mu.Unlock()
		return t.illegal("start", state)
	}
	now := t.clock.Now()
	t.session = domain.TimerSession{
		IsRunning: true,
		StartTime: now,
		WorkItem:  &item,
	}
	snapshot := t.session
	t.startTickingLocked()
	t.mu.Unlock()

	t.logger.Debug("timer started", "work_item", item.ID, "organization", item.OrganizationID)
	err := t.store.Save(ctx, snapshot)
	t.enqueue(Event{Kind: EventStateChanged, Status: statusOf(snapshot, now)})
	return err
}

func (t *timerServiceImpl) Pause(ctx context.Context) error {
	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if state := t.session.State(); state != domain.TimerRunning {
		t.mu.Unlock()
		return t.illegal("pause", state)
	}
	now := t.clock.Now()
	t.session.IsPaused = true
	t.session.PauseStartedAt = &now
	snapshot := t.session
	t.stopTickingLocked()
	t.mu.Unlock()

	t.logger.Debug("timer paused", "elapsed", snapshot.Elapsed(now))
	err := t.store.Save(ctx, snapshot)
	t.enqueue(Event{Kind: EventStateChanged, Status: statusOf(snapshot, now)})
	return err
}

func (t *timerServiceImpl) Resume(ctx context.Context) error {
	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if state := t.session.State(); state != domain.TimerPaused {
		t.mu.Unlock()
		return t.illegal("resume", state)
	}
	now := t.clock.Now()
	t.session.AccumulatedPausedMs += openPause(t.session, now).Milliseconds()
	t.session.IsPaused = false
	t.session.PauseStartedAt = nil
	snapshot := t.session
	t.startTickingLocked()
	t.mu.Unlock()

	t.logger.Debug("timer resumed", "paused_ms", snapshot.AccumulatedPausedMs)
	err := t.store.Save(ctx, snapshot)
	t.enqueue(Event{Kind: EventStateChanged, Status: statusOf(snapshot, now)})
	return err
}

// Stop folds an open pause into the session, records the worked time rounded
// to the nearest minute and resets to idle. Sessions under a minute of worked
// time are discarded. If the entry cannot be stored the session is kept.
func (t *timerServiceImpl) Stop(ctx context.Context, description string) (*domain.TimeEntry, error) {
	if !t.validator.IsValidStringLength(description, validation.MaxDescriptionLength) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("description must be at most %d characters", validation.MaxDescriptionLength), nil)
	}

	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	state := t.session.State()
	if state == domain.TimerIdle {
		t.mu.Unlock()
		return nil, t.illegal("stop", state)
	}
	now := t.clock.Now()
	session := t.session
	t.mu.Unlock()

	var entry *domain.TimeEntry
	worked := session.Elapsed(now)
	if worked >= MinimumRecordedDuration {
		recorded := domain.NewTimeEntry(uuid.NewString(), *session.WorkItem, session.StartTime, now, roundMinutes(worked), description, now)
		if err := t.ledger.Append(ctx, recorded); err != nil {
			t.logger.Error("failed to record time entry, session kept", "error", err)
			return nil, err
		}
		entry = &recorded
		t.logger.Debug("timer stopped", "entry", recorded.ID, "minutes", recorded.DurationMinutes)
	} else {
		t.logger.Debug("timer stopped, session under a minute discarded", "elapsed", worked)
	}

	t.mu.Lock()
	t.session = domain.TimerSession{}
	t.stopTickingLocked()
	t.mu.Unlock()

	err := t.store.Clear(ctx)
	t.enqueue(Event{Kind: EventStateChanged, Status: TimerStatus{State: domain.TimerIdle}})
	return entry, err
}

func (t *timerServiceImpl) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Elapsed(t.clock.Now())
}

func (t *timerServiceImpl) Status() TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return statusOf(t.session, t.clock.Now())
}

// Restore rehydrates a running or paused session. A paused session resumes
// its pause at restore time unless PreservePauseOnRestore is set and the
// snapshot carries the original pause instant. Inconsistent snapshots are
// cleared.
func (t *timerServiceImpl) Restore(ctx context.Context) error {
	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	snapshot, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}
	if !snapshot.IsRunning || snapshot.WorkItem == nil || !snapshot.IsConsistent() {
		t.logger.Warn("discarding inconsistent timer snapshot",
			"running", snapshot.IsRunning, "paused", snapshot.IsPaused)
		return t.store.Clear(ctx)
	}

	now := t.clock.Now()
	restored := *snapshot
	rewritten := false
	if restored.IsPaused && (!t.config.PreservePauseOnRestore || restored.PauseStartedAt == nil) {
		restored.PauseStartedAt = &now
		rewritten = true
	}

	t.mu.Lock()
	if state := t.session.State(); state != domain.TimerIdle {
		t.mu.Unlock()
		return t.illegal("restore", state)
	}
	t.session = restored
	if !restored.IsPaused {
		t.startTickingLocked()
	}
	t.mu.Unlock()

	t.logger.Debug("timer restored", "state", restored.State().String(), "work_item", restored.WorkItem.ID)
	if rewritten {
		err = t.store.Save(ctx, restored)
	}
	t.enqueue(Event{Kind: EventStateChanged, Status: statusOf(restored, now)})
	return err
}

func (t *timerServiceImpl) Subscribe(listener Listener) func() {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()

	t.nextListener++
	id := t.nextListener
	t.listeners = append(t.listeners, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() {
			t.listenersMu.Lock()
			defer t.listenersMu.Unlock()
			for i, s := range t.listeners {
				if s.id == id {
					t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (t *timerServiceImpl) Close() {
	t.mu.Lock()
	t.closed = true
	t.stopTickingLocked()
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *timerServiceImpl) illegal(operation string, state domain.TimerState) error {
	t.logger.Warn("illegal timer transition", "operation", operation, "state", state.String())
	return errors.NewIllegalTransitionError(operation, state.String())
}

// enqueue queues an event for dispatch. Callers hold notifyMu.
func (t *timerServiceImpl) enqueue(event Event) {
	t.pendingMu.Lock()
	t.pending = append(t.pending, event)
	t.pendingMu.Unlock()
}

// flush delivers queued events one at a time. Only one goroutine drains the
// queue; a flush that finds another drainer active leaves its events to it.
func (t *timerServiceImpl) flush() {
	t.pendingMu.Lock()
	if t.draining {
		t.pendingMu.Unlock()
		return
	}
	t.draining = true
	for len(t.pending) > 0 {
		event := t.pending[0]
		t.pending = t.pending[1:]
		t.pendingMu.Unlock()
		t.publish(event)
		t.pendingMu.Lock()
	}
	t.pending = nil
	t.draining = false
	t.pendingMu.Unlock()
}

func (t *timerServiceImpl) publish(event Event) {
	t.listenersMu.Lock()
	subs := make([]subscription, len(t.listeners))
	copy(subs, t.listeners)
	t.listenersMu.Unlock()

	for _, s := range subs {
		s.listener(event)
	}
}

// startTickingLocked starts a new ticker generation. Callers hold mu.
func (t *timerServiceImpl) startTickingLocked() {
	if t.closed || t.ticker != nil {
		return
	}
	ticker := t.clock.NewTicker(t.config.TickInterval)
	done := make(chan struct{})
	t.ticker = ticker
	t.tickDone = done

	t.wg.Add(1)
	go t.runTicker(ticker, done)
}

// stopTickingLocked retires the current ticker generation. Callers hold mu.
func (t *timerServiceImpl) stopTickingLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.tickDone)
	t.ticker = nil
	t.tickDone = nil
}

func (t *timerServiceImpl) runTicker(ticker *clock.Ticker, done <-chan struct{}) {
	defer t.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.emitTick(done)
		}
	}
}

// emitTick publishes the elapsed time unless the generation was retired
// while waiting for the dispatch lock.
func (t *timerServiceImpl) emitTick(done <-chan struct{}) {
	defer t.flush()
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	select {
	case <-done:
		return
	default:
	}

	t.enqueue(Event{Kind: EventTick, Status: t.Status()})
}

func statusOf(session domain.TimerSession, now time.Time) TimerStatus {
	status := TimerStatus{State: session.State()}
	if !session.IsRunning {
		return status
	}
	if session.WorkItem != nil {
		item := *session.WorkItem
		status.WorkItem = &item
	}
	status.StartTime = session.StartTime
	status.Elapsed = session.Elapsed(now)
	return status
}

func openPause(session domain.TimerSession, now time.Time) time.Duration {
	if !session.IsPaused || session.PauseStartedAt == nil {
		return 0
	}
	if d := now.Sub(*session.PauseStartedAt); d > 0 {
		return d
	}
	return 0
}
