package domain

import "time"

// TimerState is the observable state of the timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TimerSession is the in-flight tracking session. IsPaused implies IsRunning,
// and PauseStartedAt is set exactly while paused.
type TimerSession struct {
	IsRunning           bool
	IsPaused            bool
	StartTime           time.Time
	AccumulatedPausedMs int64
	PauseStartedAt      *time.Time
	WorkItem            *WorkItem
}

// State derives the state from the session flags.
func (s TimerSession) State() TimerState {
	switch {
	case !s.IsRunning:
		return TimerIdle
	case s.IsPaused:
		return TimerPaused
	default:
		return TimerRunning
	}
}

// Elapsed returns the worked time at now, excluding closed pauses and the open
// pause if any. It never goes negative.
func (s TimerSession) Elapsed(now time.Time) time.Duration {
	if !s.IsRunning {
		return 0
	}
	elapsed := now.Sub(s.StartTime) - time.Duration(s.AccumulatedPausedMs)*time.Millisecond
	if s.IsPaused && s.PauseStartedAt != nil {
		elapsed -= now.Sub(*s.PauseStartedAt)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// IsConsistent reports whether the flags satisfy the session invariants.
// A paused snapshot without a pause instant is tolerated; restore fills it in.
func (s TimerSession) IsConsistent() bool {
	if s.IsPaused && !s.IsRunning {
		return false
	}
	if !s.IsPaused && s.PauseStartedAt != nil {
		return false
	}
	return s.AccumulatedPausedMs >= 0
}
