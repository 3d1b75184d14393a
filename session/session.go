// Package session implements the client-side session engine for the Aerial FM
// streaming service. A Session negotiates plays with the server, reports
// playback lifecycle events, and exposes a small state machine and event
// stream to driving code.
//
// All session state is guarded by a single mutex; asynchronous continuations
// re-validate the identity of the object they were opened against before
// mutating anything, so responses that arrive after a re-tune or a play
// change are discarded.
package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aerialfm/aerial-go/api"
	"github.com/aerialfm/aerial-go/identity"
)

// Requester issues signed requests against the API. Implemented by
// *api.Client.
type Requester interface {
	Get(ctx context.Context, path string, params url.Values) (*api.Response, error)
	Post(ctx context.Context, path string, params url.Values) (*api.Response, error)
}

// playSlot wraps the current play with session-local mutable state.
type playSlot struct {
	play       *api.Play
	started    bool
	canSkip    bool
	retryCount int
}

// pendingRequest marks an in-flight create-play call. The token is the
// identity used for stale-response rejection: at most one pendingRequest
// exists at a time, and a response is applied only if its request is still
// the registered one.
type pendingRequest struct {
	token      uuid.UUID
	retryCount int
}

// Session coordinates plays for one placement/station.
type Session struct {
	mu sync.Mutex

	cfg    Config
	client Requester
	ids    identity.Store

	ctx    context.Context
	cancel context.CancelFunc

	clientID    string
	placement   *api.Placement
	stations    []api.Station
	placementID string
	stationID   string

	current    *playSlot
	pending    *api.Play
	pendingReq *pendingRequest

	exhausted       bool
	startedPlayback bool
	paused          bool

	fatalErr error
	closed   bool

	subs   []*Subscription
	subsMu sync.RWMutex
}

// New creates a session. A nil store falls back to an in-memory one.
func New(cfg Config, client Requester, store identity.Store) *Session {
	if store == nil {
		store = identity.NewMemoryStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:         cfg,
		client:      client,
		ids:         store,
		ctx:         ctx,
		cancel:      cancel,
		placementID: cfg.PlacementID,
		stationID:   cfg.StationID,
		paused:      true,
	}
}

// Subscribe creates a new event subscription.
func (s *Session) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close tears the session down. Outstanding operations become no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pendingReq = nil
	s.pending = nil
	s.current = nil
	s.mu.Unlock()

	s.cancel()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

// Tune (re)establishes the placement/station context and begins requesting
// plays. Any outstanding request or queued play is abandoned; a current play
// is cleared with a completion notification. Placement resolution and the
// first play request run asynchronously; failures surface on the Error event
// channel.
func (s *Session) Tune() error {
	if err := s.cfg.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.fatalErr != nil {
		err := s.fatalErr
		s.mu.Unlock()
		return err
	}

	// Abandon anything in flight; their responses are now stale.
	s.pendingReq = nil
	s.pending = nil
	s.transitionLocked(func() {
		s.assignCurrentPlayLocked(nil, true)
		s.exhausted = false
		s.startedPlayback = false
		s.paused = false
	})
	s.mu.Unlock()

	go s.tune()
	return nil
}

func (s *Session) tune() {
	if err := s.resolvePlacement(); err != nil {
		s.mu.Lock()
		s.failLocked(err)
		s.mu.Unlock()
		return
	}
	s.RequestNextPlay()
}

// SetStation changes the active station. The session resets exactly as in
// Tune; whether a new play is requested right away is governed by
// Config.RequestPlayOnChange.
func (s *Session) SetStation(id string) {
	s.mu.Lock()
	if s.closed || s.stationID == id {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.stationID = id
	s.emitStationChanged(id)
	request := s.cfg.RequestPlayOnChange
	s.mu.Unlock()

	if request {
		s.RequestNextPlay()
	}
}

// SetPlacement changes the active placement. The station selection is
// cleared so the new placement's default station applies after resolution.
func (s *Session) SetPlacement(id string) {
	s.mu.Lock()
	if s.closed || s.placementID == id {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.placementID = id
	s.placement = nil
	s.stations = nil
	s.stationID = ""
	s.emitPlacementChanged(id)
	request := s.cfg.RequestPlayOnChange
	s.mu.Unlock()

	if request {
		go s.tune()
	}
}

// SetPaused sets the paused flag and emits PlayPaused/PlayResumed. Pause
// policy (what may be paused, and when) lives in player.Controller.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	if s.closed || s.paused == paused {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(func() { s.paused = paused })
	if paused {
		s.emitPlayPaused()
	} else {
		s.emitPlayResumed()
	}
	s.mu.Unlock()
}

// Paused reports the paused flag.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// ResetClientID clears the persisted client identifier. Intended for test and
// debug use; it resets play-history-derived eligibility.
func (s *Session) ResetClientID() error {
	s.mu.Lock()
	s.clientID = ""
	s.mu.Unlock()
	return s.ids.Clear()
}

// State returns the current derived state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// ActivePlay returns the current play, or nil when none is active.
func (s *Session) ActivePlay() *api.Play {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.play
}

// HasActivePlayStarted reports whether the current play has been reported as
// started.
func (s *Session) HasActivePlayStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.started
}

// CanSkip reports whether the server granted skip permission for the current
// play.
func (s *Session) CanSkip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.canSkip
}

// Tuned reports whether placement data has been resolved.
func (s *Session) Tuned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement != nil
}

// PlacementID returns the active placement id.
func (s *Session) PlacementID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placementID
}

// StationID returns the active station id.
func (s *Session) StationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stationID
}

// Stations returns the station list of the resolved placement.
func (s *Session) Stations() []api.Station {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Station, len(s.stations))
	copy(out, s.stations)
	return out
}

// ClientID returns the registered client identifier, if any.
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// Err returns the latched fatal error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatalErr
}

// resetLocked performs the tune reset sequence without kicking off any
// network activity. Callers hold mu.
func (s *Session) resetLocked() {
	s.pendingReq = nil
	s.pending = nil
	s.transitionLocked(func() {
		s.assignCurrentPlayLocked(nil, true)
		s.exhausted = false
		s.startedPlayback = false
	})
}

// assignCurrentPlayLocked makes play the current play. An existing current
// play is cleared with a completion notification first. A nil play either
// leaves the session waiting for the next play (waitingIfEmpty) or marks it
// exhausted. Callers hold mu.
func (s *Session) assignCurrentPlayLocked(play *api.Play, waitingIfEmpty bool) {
	if s.current != nil {
		done := s.current.play
		s.current = nil
		s.emitPlayCompleted(done)
	}

	if play == nil {
		if !waitingIfEmpty {
			s.transitionLocked(func() { s.exhausted = true })
			s.emitPlaysExhausted()
		}
		return
	}

	s.current = &playSlot{play: play}
	s.emitPlayActive(play)
}

// failLocked latches a fatal error and reports it. Callers hold mu.
func (s *Session) failLocked(err error) {
	if s.fatalErr == nil {
		s.fatalErr = err
	}
	s.emitError(err)
}

// sleep waits for d or until the session is closed. Returns false when the
// session closed first.
func (s *Session) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.ctx.Done():
		return false
	}
}
