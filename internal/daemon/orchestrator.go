// Package daemon implements the focus orchestration loop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"focusguard/internal/domain"
	"focusguard/internal/policy"
)

// DefaultPollInterval is how often the foreground application is sampled.
const DefaultPollInterval = 3 * time.Second

// DefaultDegradedThreshold is how many consecutive source failures
// flip the degraded-status flag.
const DefaultDegradedThreshold = 5

// OrchestratorConfig holds orchestrator tuning knobs.
type OrchestratorConfig struct {
	PollInterval      time.Duration
	DegradedThreshold int
	BlockedSites      []string
}

// DefaultOrchestratorConfig returns default orchestrator configuration.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PollInterval:      DefaultPollInterval,
		DegradedThreshold: DefaultDegradedThreshold,
	}
}

type requestKind int

const (
	reqStop requestKind = iota // force Active -> Idle, keep polling
	reqShutdown                // cleanup and exit the loop
)

// Orchestrator is the focus-mode state machine. A single goroutine
// owns the FocusState and the open session; callers interact only
// through Start/Stop/Shutdown and read-only Status snapshots.
type Orchestrator struct {
	config   OrchestratorConfig
	source   domain.ActivitySource
	engine   *policy.Engine
	effector domain.Effector
	sessions domain.SessionRepository
	status   domain.StatusPublisher
	logger   *zap.Logger

	requests chan requestKind
	done     chan struct{}

	mu       sync.Mutex
	started  bool
	snapshot domain.StatusSnapshot

	// Loop-owned state. Only touched from the run goroutine.
	state        domain.FocusState
	sessionID    domain.SessionID
	sessionApp   string
	sessionStart time.Time
	srcFailures  int
	lastError    string
}

// NewOrchestrator creates an orchestrator. The status publisher may
// be nil when no cross-process status file is wanted (tests).
func NewOrchestrator(
	config OrchestratorConfig,
	source domain.ActivitySource,
	engine *policy.Engine,
	effector domain.Effector,
	sessions domain.SessionRepository,
	status domain.StatusPublisher,
	logger *zap.Logger,
) *Orchestrator {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.DegradedThreshold <= 0 {
		config.DegradedThreshold = DefaultDegradedThreshold
	}
	return &Orchestrator{
		config:   config,
		source:   source,
		engine:   engine,
		effector: effector,
		sessions: sessions,
		status:   status,
		logger:   logger,
		requests: make(chan requestKind, 4),
		done:     make(chan struct{}),
		state:    domain.StateIdle,
		snapshot: domain.StatusSnapshot{State: domain.StateIdle, PID: os.Getpid()},
	}
}

// Start schedules the poll loop goroutine and returns immediately.
// The loop runs until Shutdown or context cancellation.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true

	o.logger.Info("focus orchestrator starting",
		zap.Duration("poll_interval", o.config.PollInterval),
		zap.Int("blocked_sites", len(o.config.BlockedSites)))

	go o.run(ctx)
	return nil
}

// Stop requests deactivation: if focus mode is active it is reverted
// at the next loop iteration. The poll loop keeps running.
func (o *Orchestrator) Stop() {
	select {
	case o.requests <- reqStop:
	case <-o.done:
	}
}

// Shutdown halts the poll loop, forcing Active -> Idle cleanup first.
// It blocks until the loop has exited or ctx expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	select {
	case o.requests <- reqShutdown:
	case <-o.done:
		return nil
	}

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the poll loop has exited.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Status returns a copy of the latest published snapshot.
func (o *Orchestrator) Status() domain.StatusSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	// First sample immediately instead of waiting out a full interval.
	o.tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("context canceled, shutting down")
			o.halt(ctx)
			return

		case req := <-o.requests:
			switch req {
			case reqStop:
				if o.state == domain.StateActive {
					o.deactivate(ctx, time.Now(), "stop requested")
				}
				o.publish(time.Now())
			case reqShutdown:
				o.halt(ctx)
				return
			}

		case now := <-ticker.C:
			o.tick(ctx, now)
		}
	}
}

// halt runs the forced Active -> Idle cleanup path before the loop exits.
func (o *Orchestrator) halt(ctx context.Context) {
	if o.state == domain.StateActive {
		o.deactivate(ctx, time.Now(), "shutdown")
	}
	o.publish(time.Now())
	o.logger.Info("focus orchestrator stopped")
}

// tick runs one poll cycle: sample -> classify -> transition -> publish.
// Ticks are strictly sequential; the next one does not begin until
// this one's side effects have completed.
func (o *Orchestrator) tick(ctx context.Context, now time.Time) {
	sample, err := o.source.Sample(ctx)
	if err != nil {
		o.srcFailures++
		o.lastError = err.Error()
		if errors.Is(err, domain.ErrSourceUnavailable) {
			o.logger.Warn("activity source unavailable, skipping tick",
				zap.Int("consecutive_failures", o.srcFailures),
				zap.Error(err))
		} else {
			o.logger.Warn("activity sample failed, skipping tick", zap.Error(err))
		}
		// Retain the previous state and retry next interval.
		o.publish(now)
		return
	}

	if o.srcFailures > 0 {
		o.logger.Info("activity source recovered",
			zap.Int("failures_before_recovery", o.srcFailures))
	}
	o.srcFailures = 0
	o.lastError = ""

	class := o.engine.Classify(sample.AppName)

	switch o.state {
	case domain.StateIdle:
		if o.engine.ShouldActivate(class, now) {
			o.activate(ctx, sample, now)
		}

	case domain.StateActive:
		if o.engine.ShouldDeactivate(class, now) {
			o.deactivate(ctx, now, "activity no longer distracting")
		} else if class == domain.Distracting && sample.AppName != o.sessionApp {
			// Switching between two distracting apps does not open a
			// new session; the session tracks the most recent app.
			o.retagSession(sample.AppName)
		}
	}

	o.snapshotCurrentApp(sample.AppName)
	o.publish(now)
}

// activate performs Idle -> Active: open a session, then apply effects.
func (o *Orchestrator) activate(ctx context.Context, sample domain.ActivitySample, now time.Time) {
	o.logger.Info("entering focus mode",
		zap.String("app", sample.AppName),
		zap.String("window", sample.WindowTitle))

	id, err := o.sessions.OpenSession(sample.AppName, domain.StateActive, now)
	if err != nil {
		// Losing a log entry never blocks enforcement.
		o.logger.Warn("failed to open session", zap.Error(err))
	}
	o.sessionID = id
	o.sessionApp = sample.AppName
	o.sessionStart = now

	if err := o.effector.EnterFocus(ctx, o.config.BlockedSites); err != nil {
		var effErr *domain.EffectError
		if errors.As(err, &effErr) {
			o.logger.Warn("focus effects partially failed",
				zap.Strings("failed_effects", effErr.Failed),
				zap.Error(effErr.Err))
		} else {
			o.logger.Warn("focus effects failed", zap.Error(err))
		}
		o.lastError = err.Error()
	}

	o.state = domain.StateActive
}

// deactivate performs Active -> Idle: close the session, revert effects.
func (o *Orchestrator) deactivate(ctx context.Context, now time.Time, reason string) {
	o.logger.Info("exiting focus mode",
		zap.String("reason", reason),
		zap.String("app", o.sessionApp),
		zap.Duration("session_duration", now.Sub(o.sessionStart)))

	if o.sessionID != "" {
		if err := o.sessions.CloseSession(o.sessionID, now); err != nil {
			if errors.Is(err, domain.ErrOutOfOrderClose) {
				o.logger.Warn("session close rejected as out of order",
					zap.String("session_id", string(o.sessionID)))
			} else {
				o.logger.Warn("failed to close session", zap.Error(err))
			}
		}
	}

	if err := o.effector.ExitFocus(ctx); err != nil {
		var effErr *domain.EffectError
		if errors.As(err, &effErr) {
			o.logger.Warn("focus revert partially failed",
				zap.Strings("failed_effects", effErr.Failed),
				zap.Error(effErr.Err))
		} else {
			o.logger.Warn("focus revert failed", zap.Error(err))
		}
		o.lastError = err.Error()
	}

	o.state = domain.StateIdle
	o.sessionID = ""
	o.sessionApp = ""
	o.sessionStart = time.Time{}
}

// retagSession updates the open session's app name to the most
// recently observed distracting app.
func (o *Orchestrator) retagSession(appName string) {
	o.logger.Debug("distracting app changed mid-session",
		zap.String("from", o.sessionApp),
		zap.String("to", appName))

	o.sessionApp = appName
	if o.sessionID == "" {
		return
	}
	if err := o.sessions.SetAppName(o.sessionID, appName); err != nil {
		o.logger.Warn("failed to retag session", zap.Error(err))
	}
}

func (o *Orchestrator) snapshotCurrentApp(appName string) {
	o.mu.Lock()
	o.snapshot.CurrentApp = appName
	o.mu.Unlock()
}

// publish refreshes the in-memory snapshot and, when configured,
// mirrors it to the status file for other processes.
func (o *Orchestrator) publish(now time.Time) {
	o.mu.Lock()
	o.snapshot.State = o.state
	o.snapshot.SessionStart = o.sessionStart
	if o.state == domain.StateActive {
		o.snapshot.Elapsed = now.Sub(o.sessionStart)
	} else {
		o.snapshot.Elapsed = 0
	}
	o.snapshot.SourceFailures = o.srcFailures
	o.snapshot.Degraded = o.srcFailures >= o.config.DegradedThreshold
	o.snapshot.LastError = o.lastError
	o.snapshot.UpdatedAt = now
	snap := o.snapshot
	o.mu.Unlock()

	if o.status == nil {
		return
	}
	if err := o.status.Publish(snap); err != nil {
		o.logger.Warn("failed to publish status", zap.Error(err))
	}
}
