package session

import (
	"errors"
	"time"

	"github.com/aerialfm/aerial-go/api"
)

const registerRetryDelay = time.Second

// errNotInRegion aborts a play request cycle after the not-in-region signal
// has been raised. Never surfaced to callers.
var errNotInRegion = errors.New("not in licensed region")

// ensureClientID returns the client identifier, registering one with the
// server if the identity store has none. Registration retries on a fixed
// cadence; a region rejection aborts, since registration in a disallowed
// region never succeeds.
func (s *Session) ensureClientID() (string, error) {
	s.mu.Lock()
	if s.clientID != "" {
		id := s.clientID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	if id, err := s.ids.Get(); err == nil && id != "" {
		s.mu.Lock()
		s.clientID = id
		s.mu.Unlock()
		return id, nil
	}

	for attempt := 0; ; attempt++ {
		resp, err := s.client.Post(s.ctx, "client", nil)

		if err == nil && resp.Success {
			var cr api.ClientResponse
			if derr := resp.Decode(&cr); derr != nil {
				return "", derr
			}

			// A persistence failure costs us a fresh registration next run,
			// nothing more.
			_ = s.ids.Set(cr.ClientID)

			s.mu.Lock()
			s.clientID = cr.ClientID
			s.emitClientRegistered(cr.ClientID)
			s.mu.Unlock()
			return cr.ClientID, nil
		}

		if err == nil {
			switch resp.Err.Code {
			case api.CodeNotInUS:
				s.mu.Lock()
				s.emitNotInRegion()
				s.mu.Unlock()
				return "", errNotInRegion
			case api.CodeBadCredentials:
				s.mu.Lock()
				s.failLocked(ErrBadCredentials)
				s.mu.Unlock()
				return "", ErrBadCredentials
			}
		}

		if s.cfg.retriesExceeded(attempt + 1) {
			s.mu.Lock()
			s.failLocked(ErrRetriesExhausted)
			s.mu.Unlock()
			return "", ErrRetriesExhausted
		}
		if !s.sleep(registerRetryDelay) {
			return "", s.ctx.Err()
		}
	}
}
