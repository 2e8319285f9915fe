package domain

import (
	"context"
	"time"
)

// ActivitySource queries the OS for the currently focused application.
// Implementations: X11 via xgb, process scan via gopsutil.
type ActivitySource interface {
	// Sample returns the current foreground application.
	// Transient failures wrap ErrSourceUnavailable.
	Sample(ctx context.Context) (ActivitySample, error)

	// Available returns true if this source can run on the current system.
	Available() bool

	// Name returns the source name for logging ("x11", "process").
	Name() string

	// Close releases any resources held by the source.
	Close() error
}

// SiteBlocker manages a marker-delimited block in the hosts file.
// All operations are idempotent so a crashed process can be cleaned
// up by a fresh one.
type SiteBlocker interface {
	// Block adds the given hostnames to the hosts file.
	Block(sites []string) error

	// Unblock removes exactly the marked entries, leaving unrelated
	// lines untouched.
	Unblock() error

	// IsBlocked reports whether a marker block is present, including
	// one left behind by a previous process.
	IsBlocked() (bool, error)
}

// DesktopSettings toggles OS-level distraction settings.
// Each toggle is independently failable and best-effort.
type DesktopSettings interface {
	// SetNotificationBanners shows or hides notification banners.
	SetNotificationBanners(ctx context.Context, show bool) error

	// SetAudioMuted mutes or unmutes the default audio sink.
	SetAudioMuted(ctx context.Context, muted bool) error

	// SetDockPinned pins or unpins the desktop dock.
	SetDockPinned(ctx context.Context, pinned bool) error
}

// Effector applies and reverts the focus-mode policy bundle.
// Both calls are idempotent: entering while already in focus or
// exiting while idle is a no-op success.
type Effector interface {
	// EnterFocus applies the block list and distraction settings.
	// A partial failure returns *EffectError but does not roll back
	// the sub-effects that succeeded.
	EnterFocus(ctx context.Context, blockedSites []string) error

	// ExitFocus reverts everything EnterFocus applied, including a
	// block left behind by a crashed process.
	ExitFocus(ctx context.Context) error
}

// SessionRepository is the append-only session store.
// The orchestrator is the only writer; viewers read through Recent.
type SessionRepository interface {
	// OpenSession creates a new open session record.
	OpenSession(appName string, mode FocusState, start time.Time) (SessionID, error)

	// CloseSession sets the end timestamp and derived duration.
	// Returns ErrOutOfOrderClose when end precedes the session start.
	// Closing an already-closed session is a no-op success, so a
	// failed close can always be retried.
	CloseSession(id SessionID, end time.Time) error

	// SetAppName retags the open session with a new application name.
	// Used when the user switches between distracting apps mid-session.
	// Returns ErrSessionClosed for closed sessions.
	SetAppName(id SessionID, appName string) error

	// Recent returns the most recently started sessions, newest first.
	Recent(limit int) ([]Session, error)

	// Close releases the underlying database connection.
	Close() error
}

// StatusPublisher persists status snapshots for other processes.
// Implementation: flock-guarded JSON file.
type StatusPublisher interface {
	// Publish atomically replaces the persisted snapshot.
	Publish(s StatusSnapshot) error

	// Load reads the last published snapshot, or nil if none exists.
	Load() (*StatusSnapshot, error)

	// Path returns the status file path (for tests and diagnostics).
	Path() string
}
