package player

import (
	"sync"
	"time"
)

// MockDevice is a test double for Device.
type MockDevice struct {
	mu         sync.Mutex
	loadCalls  []string
	loadErr    error
	position   time.Duration
	started    bool
	stopped    bool
	paused     bool
	readyCh    chan struct{}
	finishedCh chan struct{}
}

// NewMockDevice creates a new mock device for testing.
func NewMockDevice() *MockDevice {
	return &MockDevice{
		readyCh:    make(chan struct{}),
		finishedCh: make(chan struct{}, 1),
	}
}

func (m *MockDevice) Load(url string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, url)
	return m.loadErr
}

func (m *MockDevice) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockDevice) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockDevice) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

func (m *MockDevice) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

func (m *MockDevice) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockDevice) Ready() <-chan struct{} {
	return m.readyCh
}

func (m *MockDevice) Finished() <-chan struct{} {
	return m.finishedCh
}

// Test helpers

func (m *MockDevice) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *MockDevice) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *MockDevice) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *MockDevice) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *MockDevice) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// SimulateReady marks the loaded track as playable.
func (m *MockDevice) SimulateReady() {
	close(m.readyCh)
}

// SimulateFinished simulates the track reaching its end.
func (m *MockDevice) SimulateFinished() {
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}

// Verify MockDevice implements Device at compile time.
var _ Device = (*MockDevice)(nil)
