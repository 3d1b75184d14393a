package session

import "github.com/aerialfm/aerial-go/api"

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Events are delivered
// on buffered channels with non-blocking sends; a slow subscriber loses
// events rather than stalling the session.
type Subscription struct {
	Placement        <-chan PlacementInfo
	Stations         <-chan []api.Station
	PlacementChanged <-chan string
	StationChanged   <-chan string
	PlayActive       <-chan *api.Play
	PlayStarted      <-chan *api.Play
	PlayCompleted    <-chan *api.Play
	PlaysExhausted   <-chan struct{}
	SkipDenied       <-chan struct{}
	NotInRegion      <-chan struct{}
	ClientRegistered <-chan string
	PlayPaused       <-chan struct{}
	PlayResumed      <-chan struct{}
	StateChanged     <-chan StateChange
	Error            <-chan error
	Done             <-chan struct{}

	// Internal write channels
	placementCh        chan PlacementInfo
	stationsCh         chan []api.Station
	placementChangedCh chan string
	stationChangedCh   chan string
	playActiveCh       chan *api.Play
	playStartedCh      chan *api.Play
	playCompletedCh    chan *api.Play
	playsExhaustedCh   chan struct{}
	skipDeniedCh       chan struct{}
	notInRegionCh      chan struct{}
	clientRegisteredCh chan string
	playPausedCh       chan struct{}
	playResumedCh      chan struct{}
	stateCh            chan StateChange
	errorCh            chan error
	doneCh             chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		placementCh:        make(chan PlacementInfo, eventBufferSize),
		stationsCh:         make(chan []api.Station, eventBufferSize),
		placementChangedCh: make(chan string, eventBufferSize),
		stationChangedCh:   make(chan string, eventBufferSize),
		playActiveCh:       make(chan *api.Play, eventBufferSize),
		playStartedCh:      make(chan *api.Play, eventBufferSize),
		playCompletedCh:    make(chan *api.Play, eventBufferSize),
		playsExhaustedCh:   make(chan struct{}, eventBufferSize),
		skipDeniedCh:       make(chan struct{}, eventBufferSize),
		notInRegionCh:      make(chan struct{}, eventBufferSize),
		clientRegisteredCh: make(chan string, eventBufferSize),
		playPausedCh:       make(chan struct{}, eventBufferSize),
		playResumedCh:      make(chan struct{}, eventBufferSize),
		stateCh:            make(chan StateChange, eventBufferSize),
		errorCh:            make(chan error, eventBufferSize),
		doneCh:             make(chan struct{}),
	}
	s.Placement = s.placementCh
	s.Stations = s.stationsCh
	s.PlacementChanged = s.placementChangedCh
	s.StationChanged = s.stationChangedCh
	s.PlayActive = s.playActiveCh
	s.PlayStarted = s.playStartedCh
	s.PlayCompleted = s.playCompletedCh
	s.PlaysExhausted = s.playsExhaustedCh
	s.SkipDenied = s.skipDeniedCh
	s.NotInRegion = s.notInRegionCh
	s.ClientRegistered = s.clientRegisteredCh
	s.PlayPaused = s.playPausedCh
	s.PlayResumed = s.playResumedCh
	s.StateChanged = s.stateCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendPlacement(info PlacementInfo) {
	select {
	case s.placementCh <- info:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendStations(stations []api.Station) {
	select {
	case s.stationsCh <- stations:
	default:
	}
}

func (s *Subscription) sendPlacementChanged(id string) {
	select {
	case s.placementChangedCh <- id:
	default:
	}
}

func (s *Subscription) sendStationChanged(id string) {
	select {
	case s.stationChangedCh <- id:
	default:
	}
}

func (s *Subscription) sendPlayActive(play *api.Play) {
	select {
	case s.playActiveCh <- play:
	default:
	}
}

func (s *Subscription) sendPlayStarted(play *api.Play) {
	select {
	case s.playStartedCh <- play:
	default:
	}
}

func (s *Subscription) sendPlayCompleted(play *api.Play) {
	select {
	case s.playCompletedCh <- play:
	default:
	}
}

func (s *Subscription) sendPlaysExhausted() {
	select {
	case s.playsExhaustedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendSkipDenied() {
	select {
	case s.skipDeniedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendNotInRegion() {
	select {
	case s.notInRegionCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendClientRegistered(id string) {
	select {
	case s.clientRegisteredCh <- id:
	default:
	}
}

func (s *Subscription) sendPlayPaused() {
	select {
	case s.playPausedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendPlayResumed() {
	select {
	case s.playResumedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendError(err error) {
	select {
	case s.errorCh <- err:
	default:
	}
}
