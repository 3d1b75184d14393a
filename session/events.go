package session

import "github.com/aerialfm/aerial-go/api"

// StateChange is emitted when the derived session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// PlacementInfo is emitted when placement data is retrieved from the server.
type PlacementInfo struct {
	Placement api.Placement
	Stations  []api.Station
}

func (s *Session) emit(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

func (s *Session) emitPlacement(info PlacementInfo) {
	s.emit(func(sub *Subscription) { sub.sendPlacement(info) })
}

func (s *Session) emitStations(stations []api.Station) {
	s.emit(func(sub *Subscription) { sub.sendStations(stations) })
}

func (s *Session) emitPlacementChanged(id string) {
	s.emit(func(sub *Subscription) { sub.sendPlacementChanged(id) })
}

func (s *Session) emitStationChanged(id string) {
	s.emit(func(sub *Subscription) { sub.sendStationChanged(id) })
}

func (s *Session) emitPlayActive(play *api.Play) {
	s.emit(func(sub *Subscription) { sub.sendPlayActive(play) })
}

func (s *Session) emitPlayStarted(play *api.Play) {
	s.emit(func(sub *Subscription) { sub.sendPlayStarted(play) })
}

func (s *Session) emitPlayCompleted(play *api.Play) {
	s.emit(func(sub *Subscription) { sub.sendPlayCompleted(play) })
}

func (s *Session) emitPlaysExhausted() {
	s.emit(func(sub *Subscription) { sub.sendPlaysExhausted() })
}

func (s *Session) emitSkipDenied() {
	s.emit(func(sub *Subscription) { sub.sendSkipDenied() })
}

func (s *Session) emitNotInRegion() {
	s.emit(func(sub *Subscription) { sub.sendNotInRegion() })
}

func (s *Session) emitClientRegistered(id string) {
	s.emit(func(sub *Subscription) { sub.sendClientRegistered(id) })
}

func (s *Session) emitPlayPaused() {
	s.emit(func(sub *Subscription) { sub.sendPlayPaused() })
}

func (s *Session) emitPlayResumed() {
	s.emit(func(sub *Subscription) { sub.sendPlayResumed() })
}

func (s *Session) emitState(e StateChange) {
	s.emit(func(sub *Subscription) { sub.sendState(e) })
}

func (s *Session) emitError(err error) {
	s.emit(func(sub *Subscription) { sub.sendError(err) })
}
