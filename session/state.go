package session

// State is the publicly observable session state. It is derived purely from
// the exhausted, startedPlayback and paused flags.
type State int

const (
	// StateIdle means no play has started since the last tune and the session
	// is not actively tuning.
	StateIdle State = iota
	// StateTuning means a tune is in progress and no play has been obtained
	// yet.
	StateTuning
	StatePlaying
	StatePaused
	// StateExhausted means the server has no more plays for the current
	// station. Terminal until the station or placement changes or a re-tune.
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateTuning:
		return "Tuning"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateExhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a play has started and the session is not
// exhausted.
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// callers hold mu
func (s *Session) stateLocked() State {
	switch {
	case s.exhausted:
		return StateExhausted
	case !s.startedPlayback && s.paused:
		return StateIdle
	case !s.startedPlayback:
		return StateTuning
	case s.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// transitionLocked applies mutate and emits a StateChanged event if the
// derived state changed. Callers hold mu.
func (s *Session) transitionLocked(mutate func()) {
	prev := s.stateLocked()
	mutate()
	if cur := s.stateLocked(); cur != prev {
		s.emitState(StateChange{Previous: prev, Current: cur})
	}
}
