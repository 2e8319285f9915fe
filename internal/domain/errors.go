package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSourceUnavailable marks a transient activity query failure.
// The orchestrator skips the tick and retries on the next interval.
var ErrSourceUnavailable = errors.New("activity source unavailable")

// ErrOutOfOrderClose is returned when a session close timestamp
// precedes the session's open timestamp. Never fatal; callers warn.
var ErrOutOfOrderClose = errors.New("session close precedes open")

// ErrSessionClosed is returned when mutating a session that has
// already been closed.
var ErrSessionClosed = errors.New("session already closed")

// EffectError reports a partial or total side-effect failure.
// Successfully applied sub-effects are never rolled back.
type EffectError struct {
	// Failed names the sub-effects that failed ("sites", "audio", ...).
	Failed []string
	Err    error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("effects failed (%s): %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *EffectError) Unwrap() error {
	return e.Err
}
