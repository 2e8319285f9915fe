package policy

import (
	"fmt"
	"time"
)

// Window is one daily clock-time interval during which productive-app
// focus is held. End at or before Start wraps past midnight.
type Window struct {
	start int // minutes since midnight
	end   int
}

// ParseWindow parses "HH:MM"-"HH:MM" boundaries into a Window.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start %q: %w", start, err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end %q: %w", end, err)
	}
	if s == e {
		return Window{}, fmt.Errorf("window start and end are both %q", start)
	}
	return Window{start: s, end: e}, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether the clock time of now falls inside the window.
func (w Window) Contains(now time.Time) bool {
	m := now.Hour()*60 + now.Minute()
	if w.start < w.end {
		return m >= w.start && m < w.end
	}
	// Overnight window, e.g. 22:00-06:00.
	return m >= w.start || m < w.end
}

// Schedule is the set of configured focus windows. An empty schedule
// never matches, so productive apps alone never trigger focus mode.
type Schedule struct {
	windows []Window
}

// NewSchedule builds a schedule from parsed windows.
func NewSchedule(windows ...Window) Schedule {
	return Schedule{windows: windows}
}

// Contains reports whether any configured window is open at now.
func (s Schedule) Contains(now time.Time) bool {
	for _, w := range s.windows {
		if w.Contains(now) {
			return true
		}
	}
	return false
}

// Empty reports whether no windows are configured.
func (s Schedule) Empty() bool {
	return len(s.windows) == 0
}
