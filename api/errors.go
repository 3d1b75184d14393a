package api

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a server-reported error condition. Codes are stable
// across retries of the same request.
type ErrorCode int

const (
	// CodeBadCredentials means the token/secret pair was rejected. Fatal for
	// the whole session.
	CodeBadCredentials ErrorCode = 5
	// CodeMissingObject means the requested placement or station does not
	// exist.
	CodeMissingObject ErrorCode = 6
	// CodeNoMoreMusic means the server has no further eligible plays for the
	// station.
	CodeNoMoreMusic ErrorCode = 9
	// CodeNotInUS means the client is outside the licensed region.
	CodeNotInUS ErrorCode = 15
	// CodePlaybackStarted means a previous start call for this play already
	// succeeded. Treated as success by callers reporting a start.
	CodePlaybackStarted ErrorCode = 20
)

// Error is a structured error reported inside a response envelope.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error %d", e.Code)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// IsCode reports whether err carries the given server error code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
