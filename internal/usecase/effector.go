// Package usecase contains application business logic.
package usecase

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"focusguard/internal/domain"
)

// SystemEffector applies and reverts the focus-mode policy bundle:
// the hosts-file block list plus the desktop distraction settings.
//
// Partial failure never rolls back: a hosts file we managed to write
// stays written even if the audio mute fails. Failing open on
// distraction blocking defeats the purpose, so "mostly blocked"
// beats "fully unblocked".
type SystemEffector struct {
	blocker  domain.SiteBlocker
	settings domain.DesktopSettings
	logger   *zap.Logger

	mu      sync.Mutex
	inFocus bool
}

// NewSystemEffector creates the composite effector.
func NewSystemEffector(
	blocker domain.SiteBlocker,
	settings domain.DesktopSettings,
	logger *zap.Logger,
) *SystemEffector {
	return &SystemEffector{
		blocker:  blocker,
		settings: settings,
		logger:   logger,
	}
}

// EnterFocus applies all sub-effects. Calling it while already in
// focus is a no-op success. On partial failure the error names the
// failed sub-effects; the caller decides whether to surface it.
func (e *SystemEffector) EnterFocus(ctx context.Context, blockedSites []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFocus {
		e.logger.Debug("enter focus requested while already in focus")
		return nil
	}

	var failed []string
	var errs error

	if err := e.blocker.Block(blockedSites); err != nil {
		e.logger.Warn("site blocking failed", zap.Error(err))
		failed = append(failed, "sites")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetNotificationBanners(ctx, false); err != nil {
		e.logger.Warn("notification toggle failed", zap.Error(err))
		failed = append(failed, "notifications")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetAudioMuted(ctx, true); err != nil {
		e.logger.Warn("audio mute failed", zap.Error(err))
		failed = append(failed, "audio")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetDockPinned(ctx, false); err != nil {
		e.logger.Warn("dock toggle failed", zap.Error(err))
		failed = append(failed, "dock")
		errs = multierr.Append(errs, err)
	}

	// Focus mode is considered entered even on partial failure; the
	// next exit/enter cycle re-issues every sub-effect anyway.
	e.inFocus = true

	if errs != nil {
		return &domain.EffectError{Failed: failed, Err: errs}
	}

	e.logger.Info("focus mode effects applied", zap.Int("blocked_sites", len(blockedSites)))
	return nil
}

// ExitFocus reverts all sub-effects. Calling it while idle is a no-op
// success, unless the hosts file still carries a marker block from a
// crashed process, in which case the revert runs anyway.
func (e *SystemEffector) ExitFocus(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.inFocus {
		blocked, err := e.blocker.IsBlocked()
		if err != nil {
			e.logger.Warn("could not check for leftover site block", zap.Error(err))
		}
		if !blocked {
			e.logger.Debug("exit focus requested while already idle")
			return nil
		}
		e.logger.Info("removing site block left by a previous run")
	}

	var failed []string
	var errs error

	if err := e.blocker.Unblock(); err != nil {
		e.logger.Warn("site unblocking failed", zap.Error(err))
		failed = append(failed, "sites")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetNotificationBanners(ctx, true); err != nil {
		e.logger.Warn("notification restore failed", zap.Error(err))
		failed = append(failed, "notifications")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetAudioMuted(ctx, false); err != nil {
		e.logger.Warn("audio unmute failed", zap.Error(err))
		failed = append(failed, "audio")
		errs = multierr.Append(errs, err)
	}
	if err := e.settings.SetDockPinned(ctx, true); err != nil {
		e.logger.Warn("dock restore failed", zap.Error(err))
		failed = append(failed, "dock")
		errs = multierr.Append(errs, err)
	}

	e.inFocus = false

	if errs != nil {
		return &domain.EffectError{Failed: failed, Err: errs}
	}

	e.logger.Info("focus mode effects reverted")
	return nil
}

// InFocus reports whether the effector believes focus effects are
// currently applied. Exposed for status reporting.
func (e *SystemEffector) InFocus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFocus
}

// Ensure SystemEffector implements domain.Effector.
var _ domain.Effector = (*SystemEffector)(nil)
