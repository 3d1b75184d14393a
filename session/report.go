package session

import (
	"net/url"
	"strconv"
	"time"

	"github.com/aerialfm/aerial-go/api"
)

const (
	startRetryDelay     = 2 * time.Second
	invalidateBaseDelay = 200 * time.Millisecond
)

// ReportStarted tells the server playback of the current play has begun.
// Retries on a fixed cadence until acknowledged; a server report that the
// start was already recorded counts as acknowledgement. On success the next
// play is pre-fetched while this one plays.
func (s *Session) ReportStarted() error {
	s.mu.Lock()
	slot, err := s.currentSlotLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go s.runStartReport(slot)
	return nil
}

func (s *Session) runStartReport(slot *playSlot) {
	for {
		resp, err := s.client.Post(s.ctx, "play/"+slot.play.ID+"/start", nil)

		s.mu.Lock()
		if s.current != slot {
			// Nobody cares about this play any more.
			s.mu.Unlock()
			return
		}

		if err == nil && !resp.Success {
			switch resp.Err.Code {
			case api.CodePlaybackStarted:
				// We missed the response to an earlier start call; the play
				// was good.
				s.markStartedLocked(slot, true)
				s.mu.Unlock()
				s.RequestNextPlay()
				return
			case api.CodeBadCredentials:
				s.failLocked(ErrBadCredentials)
				s.mu.Unlock()
				return
			}
		}

		if err == nil && resp.Success {
			var sr api.StartResponse
			if derr := resp.Decode(&sr); derr == nil {
				s.markStartedLocked(slot, sr.CanSkip)
				s.mu.Unlock()
				s.RequestNextPlay()
				return
			}
		}

		slot.retryCount++
		if s.cfg.retriesExceeded(slot.retryCount) {
			s.failLocked(ErrRetriesExhausted)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if !s.sleep(startRetryDelay) {
			return
		}
	}
}

// callers hold mu
func (s *Session) markStartedLocked(slot *playSlot, canSkip bool) {
	slot.started = true
	slot.canSkip = canSkip
	s.transitionLocked(func() { s.startedPlayback = true })
	s.emitPlayStarted(slot.play)
}

// ReportElapsed tells the server how many seconds of the current play have
// been listened to. Fire and forget: no retry, no response handling beyond
// the credential check.
func (s *Session) ReportElapsed(seconds int) error {
	s.mu.Lock()
	slot, err := s.currentSlotLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go func() {
		params := url.Values{}
		params.Set("seconds", strconv.Itoa(seconds))
		resp, err := s.client.Post(s.ctx, "play/"+slot.play.ID+"/elapse", params)
		s.checkAuth(resp, err)
	}()
	return nil
}

// ReportCompleted tells the server the current play finished, then promotes
// the queued pending play, if any. When a play request is still in flight the
// session just goes back to waiting and lets that request's resolution assign
// the next play.
func (s *Session) ReportCompleted() error {
	s.mu.Lock()
	slot, err := s.currentSlotLocked()
	if err == nil && !slot.started {
		err = ErrPlayNotStarted
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go s.runCompleteReport(slot)
	return nil
}

func (s *Session) runCompleteReport(slot *playSlot) {
	resp, err := s.client.Post(s.ctx, "play/"+slot.play.ID+"/complete", nil)
	// Beyond the credential check, the response doesn't matter.
	s.checkAuth(resp, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != slot {
		return
	}

	if s.pendingReq == nil {
		// Start playing whatever we've got queued up.
		pp := s.pending
		s.pending = nil
		s.assignCurrentPlayLocked(pp, false)
	} else {
		// A request is on its way in; wait for it.
		s.assignCurrentPlayLocked(nil, true)
	}
}

// RequestSkip asks the server to skip the current play. Requires the play to
// have started and the server to have granted skip permission; otherwise a
// SkipDenied event fires and no call is made. A server refusal revokes the
// permission for this play.
func (s *Session) RequestSkip() error {
	s.mu.Lock()
	slot, err := s.currentSlotLocked()
	if err == nil && !slot.started {
		err = ErrPlayNotStarted
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !slot.canSkip {
		s.emitSkipDenied()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	go s.runSkip(slot)
	return nil
}

func (s *Session) runSkip(slot *playSlot) {
	resp, err := s.client.Post(s.ctx, "play/"+slot.play.ID+"/skip", nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != slot {
		return
	}

	if err == nil && resp.Success {
		switch {
		case s.pending != nil:
			pp := s.pending
			s.pending = nil
			s.assignCurrentPlayLocked(pp, false)
		case s.pendingReq != nil:
			s.assignCurrentPlayLocked(nil, true)
		default:
			// The start report's pre-fetch already resolved and found
			// nothing, so we're out of music.
			s.assignCurrentPlayLocked(nil, false)
		}
		return
	}

	if err == nil && resp.Err.Code == api.CodeBadCredentials {
		s.failLocked(ErrBadCredentials)
		return
	}

	// No point asking again for this play.
	slot.canSkip = false
	s.emitSkipDenied()
}

// RequestInvalidate reports the current play as unplayable, started or not,
// and advances to the next one. Used when local playback fails technically.
func (s *Session) RequestInvalidate() error {
	s.mu.Lock()
	slot, err := s.currentSlotLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go s.runInvalidate(slot)
	return nil
}

func (s *Session) runInvalidate(slot *playSlot) {
	for retryCount := 0; ; {
		resp, err := s.client.Post(s.ctx, "play/"+slot.play.ID+"/invalidate", nil)

		s.mu.Lock()
		if s.current != slot {
			s.mu.Unlock()
			return
		}

		if err == nil && resp.Success {
			if s.pending != nil {
				pp := s.pending
				s.pending = nil
				s.assignCurrentPlayLocked(pp, false)
				s.mu.Unlock()
				return
			}

			s.assignCurrentPlayLocked(nil, true)
			request := s.pendingReq == nil
			s.mu.Unlock()

			// Invalidation can land before any start call was attempted, in
			// which case no pre-fetch has happened yet.
			if request {
				s.RequestNextPlay()
			}
			return
		}

		if err == nil && resp.Err.Code == api.CodeBadCredentials {
			s.failLocked(ErrBadCredentials)
			s.mu.Unlock()
			return
		}

		retryCount++
		if s.cfg.retriesExceeded(retryCount) {
			s.failLocked(ErrRetriesExhausted)
			s.mu.Unlock()
			return
		}
		delay := invalidateBaseDelay * time.Duration(1<<retryCount)
		s.mu.Unlock()

		if !s.sleep(delay) {
			return
		}
	}
}

// currentSlotLocked returns the current slot or the applicable precondition
// error. Callers hold mu.
func (s *Session) currentSlotLocked() (*playSlot, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.fatalErr != nil {
		return nil, s.fatalErr
	}
	if s.current == nil {
		return nil, ErrNoActivePlay
	}
	return s.current, nil
}

// checkAuth latches the fatal credential error from a fire-and-forget call.
func (s *Session) checkAuth(resp *api.Response, err error) {
	if err != nil || resp.Success {
		return
	}
	if resp.Err.Code == api.CodeBadCredentials {
		s.mu.Lock()
		s.failLocked(ErrBadCredentials)
		s.mu.Unlock()
	}
}
