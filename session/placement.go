package session

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/aerialfm/aerial-go/api"
)

const placementRetryDelay = 500 * time.Millisecond

// resolvePlacement fetches the active placement and its station list. An
// empty placement id asks the server for the credential's default placement,
// whose id then becomes authoritative. Re-invoking with an already-loaded
// matching placement is a no-op. Retries indefinitely on generic failure;
// returns a fatal error when the placement does not exist.
func (s *Session) resolvePlacement() error {
	s.mu.Lock()
	id := s.placementID
	if id != "" && s.placement != nil && s.placement.ID == id {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	path := "placement"
	if id != "" {
		path = "placement/" + id
	}

	for attempt := 0; ; attempt++ {
		resp, err := s.client.Get(s.ctx, path, nil)

		s.mu.Lock()
		if s.closed || s.placementID != id {
			// A re-tune or placement change superseded this resolution.
			s.mu.Unlock()
			return nil
		}

		switch {
		case err == nil && resp.Success:
			var pr api.PlacementResponse
			if derr := resp.Decode(&pr); derr != nil {
				s.mu.Unlock()
				return derr
			}
			s.applyPlacementLocked(pr)
			s.mu.Unlock()
			return nil

		case err == nil && resp.Err.Code == api.CodeMissingObject:
			s.mu.Unlock()
			if id == "" {
				return fmt.Errorf("no default placement for these credentials: %w", ErrNoSuchPlacement)
			}
			return fmt.Errorf("placement %q: %w", id, ErrNoSuchPlacement)

		case err == nil && resp.Err.Code == api.CodeBadCredentials:
			s.mu.Unlock()
			return ErrBadCredentials
		}
		s.mu.Unlock()

		if s.cfg.retriesExceeded(attempt + 1) {
			return ErrRetriesExhausted
		}
		if !s.sleep(placementRetryDelay) {
			return nil
		}
	}
}

// callers hold mu
func (s *Session) applyPlacementLocked(pr api.PlacementResponse) {
	s.placement = &pr.Placement
	s.stations = pr.Stations

	if s.placementID != pr.Placement.ID {
		s.placementID = pr.Placement.ID
		s.emitPlacementChanged(pr.Placement.ID)
		s.emitPlacement(PlacementInfo{Placement: pr.Placement, Stations: pr.Stations})
	}

	// The active station must belong to the placement; default to the first
	// station otherwise.
	member := s.stationID != "" && lo.ContainsBy(pr.Stations, func(st api.Station) bool {
		return st.ID == s.stationID
	})
	if !member && len(pr.Stations) > 0 {
		s.stationID = pr.Stations[0].ID
		s.emitStationChanged(s.stationID)
	}

	s.emitStations(pr.Stations)
}
