package session

import "errors"

var (
	// ErrNoToken and ErrNoSecret are returned by Tune when credentials are
	// missing from the configuration.
	ErrNoToken  = errors.New("no token configured")
	ErrNoSecret = errors.New("no secret configured")

	// ErrBadCredentials means the server rejected the token/secret pair. The
	// session is unusable once this is reported.
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrNoSuchPlacement means the configured placement id does not exist, or
	// the credentials have no default placement.
	ErrNoSuchPlacement = errors.New("no such placement")

	// ErrNoActivePlay is returned by lifecycle reports that require a current
	// play.
	ErrNoActivePlay = errors.New("no active play")

	// ErrPlayNotStarted is returned when an operation requires the active
	// play to have been reported as started.
	ErrPlayNotStarted = errors.New("active play has not been started")

	// ErrRetriesExhausted means a retry ceiling was configured and reached.
	ErrRetriesExhausted = errors.New("retry limit reached")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)
