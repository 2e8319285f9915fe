package infra

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"

	"focusguard/internal/domain"
)

// ProcessSource implements domain.ActivitySource by scanning running
// processes with gopsutil. It is the fallback when no display server
// can be queried: it reports the most recently started process from a
// known set of desktop applications, with no window title.
type ProcessSource struct {
	knownApps []string
}

// desktopApps are process names treated as foreground candidates.
// The scan is a heuristic; the X11 source is always preferred.
var desktopApps = []string{
	"firefox", "chromium", "chrome", "brave",
	"code", "goland", "idea", "sublime_text",
	"steam", "spotify", "discord", "slack",
	"vlc", "mpv", "gimp", "libreoffice",
	"nautilus", "gnome-terminal", "konsole", "alacritty",
}

// NewProcessSource creates the process-scan fallback source.
func NewProcessSource() *ProcessSource {
	return &ProcessSource{knownApps: desktopApps}
}

// NewProcessSourceWithApps creates a source with a custom candidate
// list (for tests).
func NewProcessSourceWithApps(apps []string) *ProcessSource {
	return &ProcessSource{knownApps: apps}
}

// Name returns "process".
func (s *ProcessSource) Name() string {
	return "process"
}

// Available always returns true; a process table can always be read.
func (s *ProcessSource) Available() bool {
	return true
}

// Close is a no-op; the source holds no resources.
func (s *ProcessSource) Close() error {
	return nil
}

// Sample returns the most recently started known desktop application.
func (s *ProcessSource) Sample(ctx context.Context) (domain.ActivitySample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return domain.ActivitySample{}, errors.Wrap(domain.ErrSourceUnavailable, err.Error())
	}

	var bestName string
	var bestCreated int64

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // Process may have exited
		}

		if !s.isKnownApp(name) {
			continue
		}

		created, err := p.CreateTimeWithContext(ctx)
		if err != nil {
			continue
		}
		if created > bestCreated {
			bestCreated = created
			bestName = name
		}
	}

	if bestName == "" {
		return domain.ActivitySample{}, errors.Wrap(domain.ErrSourceUnavailable, "no known desktop application running")
	}

	return domain.ActivitySample{
		AppName:   strings.ToLower(bestName),
		Timestamp: time.Now(),
	}, nil
}

func (s *ProcessSource) isKnownApp(name string) bool {
	lower := strings.ToLower(name)
	for _, app := range s.knownApps {
		if strings.Contains(lower, app) {
			return true
		}
	}
	return false
}

// NewActivitySource picks the best available source: X11 when a
// display is reachable, the process scan otherwise.
func NewActivitySource() (domain.ActivitySource, error) {
	if src, err := NewX11Source(); err == nil {
		return src, nil
	}
	return NewProcessSource(), nil
}

// Ensure ProcessSource implements domain.ActivitySource.
var _ domain.ActivitySource = (*ProcessSource)(nil)
