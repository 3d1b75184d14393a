package session

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aerialfm/aerial-go/api"
)

const playRequestBaseDelay = 500 * time.Millisecond

// RequestNextPlay asks the server to create the next play. At most one such
// request is outstanding at a time: calling this while one is in flight is a
// no-op. The response, when it still matters, either becomes the current play
// (when none is active) or is queued to start after the current one.
//
// Driving code rarely needs to call this directly: Tune issues the first
// request and a successful start report pre-fetches the next play. It is
// exported for hosts that keep RequestPlayOnChange off and schedule requests
// themselves.
func (s *Session) RequestNextPlay() {
	s.mu.Lock()
	if s.closed || s.fatalErr != nil || s.pendingReq != nil {
		s.mu.Unlock()
		return
	}
	// Register before any await so a second call stays a no-op even while
	// the client id is still being fetched.
	req := &pendingRequest{token: uuid.New()}
	s.pendingReq = req
	s.mu.Unlock()

	go s.runPlayRequest(req)
}

func (s *Session) runPlayRequest(req *pendingRequest) {
	clientID, err := s.ensureClientID()
	if err != nil {
		s.clearRequest(req)
		return
	}

	for {
		s.mu.Lock()
		if !s.requestLiveLocked(req) {
			s.mu.Unlock()
			return
		}
		params := url.Values{}
		params.Set("formats", s.cfg.formatList())
		params.Set("client_id", clientID)
		params.Set("max_bitrate", strconv.Itoa(s.cfg.maxBitrate()))
		if s.placementID != "" {
			params.Set("placement_id", s.placementID)
		}
		if s.stationID != "" {
			params.Set("station_id", s.stationID)
		}
		s.mu.Unlock()

		resp, err := s.client.Post(s.ctx, "play", params)

		s.mu.Lock()
		if !s.requestLiveLocked(req) {
			// Another tune or station change superseded this request; the
			// response no longer matters, whatever it says.
			s.mu.Unlock()
			return
		}

		if err == nil && resp.Success {
			var pr api.PlayResponse
			if derr := resp.Decode(&pr); derr == nil {
				s.pendingReq = nil
				if s.current != nil {
					// Queue it up behind the current play.
					s.pending = &pr.Play
				} else {
					s.assignCurrentPlayLocked(&pr.Play, false)
				}
				s.mu.Unlock()
				return
			}
			// Mangled payload; treat like any other transient failure.
		} else if err == nil {
			switch resp.Err.Code {
			case api.CodeNoMoreMusic:
				s.pendingReq = nil
				if s.current != nil {
					// Exhaustion forecloses future plays only; the play in
					// progress is left alone.
					s.pending = nil
				} else {
					s.transitionLocked(func() { s.exhausted = true })
					s.emitPlaysExhausted()
				}
				s.mu.Unlock()
				return

			case api.CodeNotInUS:
				s.pendingReq = nil
				s.emitNotInRegion()
				s.mu.Unlock()
				return

			case api.CodeBadCredentials:
				s.pendingReq = nil
				s.failLocked(ErrBadCredentials)
				s.mu.Unlock()
				return
			}
		}

		// Transient failure.
		req.retryCount++
		if s.cfg.retriesExceeded(req.retryCount) {
			s.pendingReq = nil
			s.failLocked(ErrRetriesExhausted)
			s.mu.Unlock()
			return
		}
		delay := playRequestBaseDelay * time.Duration(1<<req.retryCount)
		s.mu.Unlock()

		if !s.sleep(delay) {
			return
		}
	}
}

// requestLiveLocked reports whether req is still the registered pending
// request. Callers hold mu.
func (s *Session) requestLiveLocked(req *pendingRequest) bool {
	return s.pendingReq != nil && s.pendingReq.token == req.token
}

func (s *Session) clearRequest(req *pendingRequest) {
	s.mu.Lock()
	if s.requestLiveLocked(req) {
		s.pendingReq = nil
	}
	s.mu.Unlock()
}
