package player

import (
	"sync"
	"time"
)

const simBufferDelay = 300 * time.Millisecond

// SimDevice is a clock-driven stand-in for a real audio output: it "buffers"
// briefly after Load, then advances its position in real time while playing
// and signals Finished when the track duration elapses. Useful for demos and
// integration testing without touching any audio hardware.
type SimDevice struct {
	mu          sync.Mutex
	duration    time.Duration
	playing     bool
	startedAt   time.Time
	accumulated time.Duration
	readyCh     chan struct{}
	finishedCh  chan struct{}
	timer       *time.Timer
}

// NewSimDevice creates a simulated device.
func NewSimDevice() *SimDevice {
	return &SimDevice{
		readyCh:    make(chan struct{}),
		finishedCh: make(chan struct{}, 1),
	}
}

func (d *SimDevice) Load(_ string, duration time.Duration) error {
	d.mu.Lock()
	d.stopTimerLocked()
	d.duration = duration
	d.playing = false
	d.accumulated = 0
	d.readyCh = make(chan struct{})
	ready := d.readyCh
	d.mu.Unlock()

	time.AfterFunc(simBufferDelay, func() { close(ready) })
	return nil
}

func (d *SimDevice) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		return
	}
	d.playing = true
	d.startedAt = time.Now()
	d.armTimerLocked()
}

func (d *SimDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimerLocked()
	d.playing = false
	d.accumulated = 0
}

func (d *SimDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing {
		return
	}
	d.stopTimerLocked()
	d.accumulated += time.Since(d.startedAt)
	d.playing = false
}

func (d *SimDevice) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		return
	}
	d.playing = true
	d.startedAt = time.Now()
	d.armTimerLocked()
}

func (d *SimDevice) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	pos := d.accumulated
	if d.playing {
		pos += time.Since(d.startedAt)
	}
	if d.duration > 0 && pos > d.duration {
		pos = d.duration
	}
	return pos
}

func (d *SimDevice) Ready() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readyCh
}

func (d *SimDevice) Finished() <-chan struct{} {
	return d.finishedCh
}

// callers hold mu
func (d *SimDevice) armTimerLocked() {
	remaining := d.duration - d.accumulated
	if remaining <= 0 {
		return
	}
	d.timer = time.AfterFunc(remaining, func() {
		select {
		case d.finishedCh <- struct{}{}:
		default:
		}
	})
}

// callers hold mu
func (d *SimDevice) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Verify SimDevice implements Device at compile time.
var _ Device = (*SimDevice)(nil)
