package player

import (
	"sync"
	"time"

	"github.com/aerialfm/aerial-go/api"
	"github.com/aerialfm/aerial-go/session"
)

const (
	defaultElapseInterval  = 10 * time.Second
	defaultStartAckTimeout = 2 * time.Second
	pollInterval           = 200 * time.Millisecond
)

// activePlayState tracks the playback progress of the play the controller is
// currently driving.
type activePlayState struct {
	id            string
	playStarted   bool // audible playback began
	startReported bool // server acknowledged our start call
}

// Controller composes a Session with an audio Device and adds playback
// policy: when to pause and resume, when a skip is allowed, and the lifecycle
// reporting the session expects (start on first audio, periodic elapsed
// pings, completion or invalidation at the end).
type Controller struct {
	session *session.Session
	device  Device
	sub     *session.Subscription

	elapseInterval  time.Duration
	startAckTimeout time.Duration

	mu     sync.Mutex
	active *activePlayState
}

// Option configures a Controller.
type Option func(*Controller)

// WithElapseInterval sets the cadence of elapsed-time reports.
func WithElapseInterval(d time.Duration) Option {
	return func(c *Controller) { c.elapseInterval = d }
}

// WithStartAckTimeout bounds how long completion waits for the start
// acknowledgement before being reported anyway.
func WithStartAckTimeout(d time.Duration) Option {
	return func(c *Controller) { c.startAckTimeout = d }
}

// NewController creates a controller and starts consuming session events.
func NewController(s *session.Session, d Device, opts ...Option) *Controller {
	c := &Controller{
		session:         s,
		device:          d,
		sub:             s.Subscribe(),
		elapseInterval:  defaultElapseInterval,
		startAckTimeout: defaultStartAckTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Play starts music: it tunes the session if needed, or resumes a paused
// play.
func (c *Controller) Play() error {
	if !c.session.Tuned() {
		return c.session.Tune()
	}
	if c.session.ActivePlay() != nil && c.session.Paused() {
		c.session.SetPaused(false)
		c.device.Resume()
	}
	return nil
}

// Pause pauses the current play. A play that has not started cannot be
// paused.
func (c *Controller) Pause() {
	if !c.session.HasActivePlayStarted() || c.session.Paused() {
		return
	}
	c.session.SetPaused(true)
	c.device.Pause()
}

// Skip asks the server to skip the current play. A play that has not started
// cannot be skipped.
func (c *Controller) Skip() error {
	if !c.session.HasActivePlayStarted() {
		return nil
	}
	return c.session.RequestSkip()
}

// Invalidate reports the current play as unplayable.
func (c *Controller) Invalidate() error {
	return c.session.RequestInvalidate()
}

func (c *Controller) run() {
	for {
		select {
		case play := <-c.sub.PlayActive:
			c.onPlayActive(play)
		case play := <-c.sub.PlayStarted:
			c.onPlayStarted(play)
		case play := <-c.sub.PlayCompleted:
			c.onPlayCompleted(play)
		case <-c.sub.PlaysExhausted:
			// Out of music; drop pause so the next tune starts fresh.
			c.session.SetPaused(false)
		case <-c.sub.Done:
			return
		}
	}
}

func (c *Controller) onPlayActive(play *api.Play) {
	c.mu.Lock()
	c.active = &activePlayState{id: play.ID}
	c.mu.Unlock()

	go c.playLoop(play)
}

// Server acknowledged that playback started.
func (c *Controller) onPlayStarted(play *api.Play) {
	c.mu.Lock()
	if c.active != nil && c.active.id == play.ID {
		c.active.startReported = true
	}
	c.mu.Unlock()
}

func (c *Controller) onPlayCompleted(play *api.Play) {
	c.mu.Lock()
	match := c.active != nil && c.active.id == play.ID
	if match {
		c.active = nil
	}
	c.mu.Unlock()

	if match {
		// Force play mode in case we were paused and a skip completed the
		// play.
		c.session.SetPaused(false)
	}
}

// playLoop drives the device for one play, from load to completion. Every
// wait re-checks that the play is still the one being driven; a newer play
// taking over makes this loop a no-op.
func (c *Controller) playLoop(play *api.Play) {
	duration := time.Duration(play.AudioFile.DurationSeconds * float64(time.Second))

	if err := c.device.Load(play.AudioFile.URL, duration); err != nil {
		_ = c.session.RequestInvalidate()
		return
	}

	// Wait for something we can play.
	for {
		select {
		case <-c.device.Ready():
		case <-time.After(pollInterval):
			if !c.isActive(play.ID) {
				return
			}
			continue
		case <-c.sub.Done:
			return
		}
		break
	}
	if !c.isActive(play.ID) {
		return
	}

	// Hold off until unpaused.
	for c.session.Paused() {
		if !c.isActive(play.ID) {
			return
		}
		select {
		case <-time.After(pollInterval):
		case <-c.sub.Done:
			return
		}
	}

	c.device.Start()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	elapse := time.NewTicker(c.elapseInterval)
	defer elapse.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			if !c.isActive(play.ID) {
				return
			}
			pos := c.device.Position()
			// Don't play past the duration of the track.
			if duration > 0 && pos >= duration {
				break loop
			}
			if pos > 0 && c.markPlayStarted(play.ID) {
				_ = c.session.ReportStarted()
			}
		case <-elapse.C:
			if c.playStarted(play.ID) {
				_ = c.session.ReportElapsed(int(c.device.Position().Seconds()))
			}
		case <-c.device.Finished():
			break loop
		case <-c.sub.Done:
			return
		}
	}

	if !c.isActive(play.ID) {
		return
	}
	c.device.Stop()

	if !c.playStarted(play.ID) {
		// The sound ended before it ever audibly started; report it invalid
		// so the session advances.
		_ = c.session.RequestInvalidate()
		return
	}

	// Completion is only accepted for an acknowledged start, so wait for the
	// ack of our start call, but only for so long: a start the server never
	// acknowledged is reported invalid instead, which also moves the session
	// along.
	deadline := time.After(c.startAckTimeout)
	for !c.startReported(play.ID) {
		if !c.isActive(play.ID) {
			return
		}
		select {
		case <-time.After(pollInterval):
		case <-deadline:
			_ = c.session.RequestInvalidate()
			return
		case <-c.sub.Done:
			return
		}
	}

	_ = c.session.ReportCompleted()
}

func (c *Controller) isActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.id == id
}

// markPlayStarted records that audible playback began. Returns true exactly
// once per play.
func (c *Controller) markPlayStarted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.id != id || c.active.playStarted {
		return false
	}
	c.active.playStarted = true
	return true
}

func (c *Controller) playStarted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.id == id && c.active.playStarted
}

func (c *Controller) startReported(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.id == id && c.active.startReported
}
