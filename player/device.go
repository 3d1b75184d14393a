// Package player drives an audio device from a session: it loads each active
// play, detects when audible playback begins, reports progress, and advances
// the session when the sound ends. The decode device itself is external; this
// package only consumes its ready/position/finished contract.
package player

import "time"

// Device is the audio output the controller drives. Load prepares the track
// at the given locator; Ready is closed once enough is buffered to start.
// Finished signals that playback reached the end of the loaded track.
type Device interface {
	Load(url string, duration time.Duration) error
	Start()
	Stop()
	Pause()
	Resume()
	Position() time.Duration
	Ready() <-chan struct{}
	Finished() <-chan struct{}
}
