package infra

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"focusguard/internal/domain"
)

// GnomeSettings implements domain.DesktopSettings for GNOME desktops
// by shelling out to gsettings and pactl. Every toggle is best-effort
// and independently failable.
type GnomeSettings struct {
	logger *zap.Logger
	runner commandRunner
}

// commandRunner abstracts exec for tests.
type commandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", name, string(out))
	}
	return nil
}

// NewGnomeSettings creates the GNOME settings toggler.
func NewGnomeSettings(logger *zap.Logger) *GnomeSettings {
	return &GnomeSettings{logger: logger, runner: execRunner}
}

// NewGnomeSettingsWithRunner creates a toggler with a custom command
// runner (for tests).
func NewGnomeSettingsWithRunner(logger *zap.Logger, runner commandRunner) *GnomeSettings {
	return &GnomeSettings{logger: logger, runner: runner}
}

// SetNotificationBanners shows or hides notification banners.
func (g *GnomeSettings) SetNotificationBanners(ctx context.Context, show bool) error {
	g.logger.Debug("toggling notification banners", zap.Bool("show", show))
	return g.runner(ctx, "gsettings", "set",
		"org.gnome.desktop.notifications", "show-banners", strconv.FormatBool(show))
}

// SetAudioMuted mutes or unmutes the default sink.
func (g *GnomeSettings) SetAudioMuted(ctx context.Context, muted bool) error {
	g.logger.Debug("toggling audio mute", zap.Bool("muted", muted))
	flag := "0"
	if muted {
		flag = "1"
	}
	return g.runner(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", flag)
}

// SetDockPinned pins or unpins the dash-to-dock dock.
func (g *GnomeSettings) SetDockPinned(ctx context.Context, pinned bool) error {
	g.logger.Debug("toggling dock", zap.Bool("pinned", pinned))
	return g.runner(ctx, "gsettings", "set",
		"org.gnome.shell.extensions.dash-to-dock", "dock-fixed", strconv.FormatBool(pinned))
}

// Ensure GnomeSettings implements domain.DesktopSettings.
var _ domain.DesktopSettings = (*GnomeSettings)(nil)
