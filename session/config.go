package session

import "strings"

// Config is the immutable session configuration. Live placement/station state
// is changed through SetPlacement/SetStation, not by mutating the config.
type Config struct {
	// Server overrides the API base URL. Empty selects the production
	// endpoint.
	Server string

	// Token and Secret authenticate the session.
	Token  string
	Secret string

	// Formats lists the acceptable audio formats, in preference order.
	Formats []string

	// MaxBitrate is the maximum acceptable bitrate in kbps.
	MaxBitrate int

	// PlacementID and StationID select the initial placement and station.
	// Empty means server-assigned default.
	PlacementID string
	StationID   string

	// RequestPlayOnChange controls whether SetPlacement/SetStation
	// immediately request a new play, or wait for an explicit Tune.
	RequestPlayOnChange bool

	// MaxRetries caps each retry loop. 0 retries forever.
	MaxRetries int
}

const (
	defaultFormats    = "ogg,mp3"
	defaultMaxBitrate = 128
)

func (c Config) validate() error {
	if c.Token == "" {
		return ErrNoToken
	}
	if c.Secret == "" {
		return ErrNoSecret
	}
	return nil
}

func (c Config) formatList() string {
	if len(c.Formats) == 0 {
		return defaultFormats
	}
	return strings.Join(c.Formats, ",")
}

func (c Config) maxBitrate() int {
	if c.MaxBitrate <= 0 {
		return defaultMaxBitrate
	}
	return c.MaxBitrate
}

// retriesExceeded reports whether a retry ceiling is configured and attempt
// has passed it.
func (c Config) retriesExceeded(attempt int) bool {
	return c.MaxRetries > 0 && attempt > c.MaxRetries
}
