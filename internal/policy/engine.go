// Package policy classifies observed applications and decides when
// focus mode should be requested.
package policy

import (
	"strings"
	"time"

	"focusguard/internal/domain"
)

// Engine classifies application names against the configured lists.
// Stateless per call; any debouncing lives in the orchestrator.
type Engine struct {
	distracting []string
	productive  []string
	schedule    Schedule
}

// NewEngine creates an engine from the policy config. Patterns are
// lowercased once at construction; matching is substring-based.
func NewEngine(cfg domain.PolicyConfig, schedule Schedule) *Engine {
	return &Engine{
		distracting: lowerAll(cfg.DistractingApps),
		productive:  lowerAll(cfg.ProductiveApps),
		schedule:    schedule,
	}
}

// Classify returns the verdict for an application name.
// The distracting list is checked first, so a name matching both
// lists always classifies as Distracting. First match wins.
func (e *Engine) Classify(appName string) domain.Classification {
	name := strings.ToLower(appName)

	for _, pattern := range e.distracting {
		if strings.Contains(name, pattern) {
			return domain.Distracting
		}
	}
	for _, pattern := range e.productive {
		if strings.Contains(name, pattern) {
			return domain.Productive
		}
	}
	return domain.Neutral
}

// ShouldActivate reports whether the latest sample warrants entering
// focus mode. A single Distracting sample is sufficient. A Productive
// sample also activates when a configured schedule window is open.
func (e *Engine) ShouldActivate(latest domain.Classification, now time.Time) bool {
	if latest == domain.Distracting {
		return true
	}
	if latest == domain.Productive && e.schedule.Contains(now) {
		return true
	}
	return false
}

// ShouldDeactivate reports whether the current sample warrants leaving
// focus mode: anything that is not Distracting, unless an open
// schedule window is holding a productive-app session in place.
func (e *Engine) ShouldDeactivate(current domain.Classification, now time.Time) bool {
	if current == domain.Distracting {
		return false
	}
	if current == domain.Productive && e.schedule.Contains(now) {
		return false
	}
	return true
}

func lowerAll(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
