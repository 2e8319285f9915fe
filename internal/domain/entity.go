// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Classification is the verdict assigned to an observed application.
type Classification string

const (
	Productive  Classification = "productive"
	Distracting Classification = "distracting"
	Neutral     Classification = "neutral"
)

// FocusState is the orchestrator's state machine state.
type FocusState string

const (
	StateIdle   FocusState = "idle"
	StateActive FocusState = "active"
)

// ActivitySample is one observation of the foreground application.
// Produced on every poll tick; never persisted individually.
type ActivitySample struct {
	AppName     string
	WindowTitle string
	Timestamp   time.Time
}

// SessionID identifies a persisted session record.
type SessionID string

// Session is one contiguous interval of Active time with a
// representative application name. Closed sessions are immutable.
type Session struct {
	ID              SessionID
	AppName         string
	Mode            FocusState
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int64
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

// PolicyConfig holds the classification lists and the site block list.
// Loaded once at startup; read-only for the daemon's lifetime.
type PolicyConfig struct {
	ProductiveApps  []string
	DistractingApps []string
	BlockedSites    []string
}

// StatusSnapshot is the read-only view published by the orchestrator.
// External callers (CLI, GUI) only ever see copies of this; they never
// touch the orchestrator's own state.
type StatusSnapshot struct {
	State          FocusState    `json:"state"`
	CurrentApp     string        `json:"current_app"`
	SessionStart   time.Time     `json:"session_start"`
	Elapsed        time.Duration `json:"elapsed"`
	Degraded       bool          `json:"degraded"`
	SourceFailures int           `json:"source_failures"`
	LastError      string        `json:"last_error,omitempty"`
	PID            int           `json:"pid"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
