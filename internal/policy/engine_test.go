package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusguard/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(domain.PolicyConfig{
		DistractingApps: []string{"youtube", "steam", "chrome"},
		ProductiveApps:  []string{"code", "goland", "chrome-devtools"},
	}, Schedule{})
}

func TestEngine_Classify(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name    string
		appName string
		want    domain.Classification
	}{
		{"distracting exact", "youtube", domain.Distracting},
		{"distracting substring", "org.mozilla.youtube-viewer", domain.Distracting},
		{"distracting case insensitive", "YouTube", domain.Distracting},
		{"productive exact", "code", domain.Productive},
		{"productive substring", "vscode", domain.Productive},
		{"productive case insensitive", "GoLand", domain.Productive},
		{"unmatched", "gimp", domain.Neutral},
		{"empty", "", domain.Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Classify(tt.appName))
		})
	}
}

// A name matching both lists must classify as Distracting, even when
// the productive pattern is the more specific one.
func TestEngine_Classify_DistractingPrecedence(t *testing.T) {
	e := testEngine()

	// "chrome-devtools-extra" contains both "chrome" (distracting)
	// and "chrome-devtools" (productive).
	assert.Equal(t, domain.Distracting, e.Classify("chrome-devtools-extra"))
	assert.Equal(t, domain.Distracting, e.Classify("chrome-devtools"))
	assert.Equal(t, domain.Distracting, e.Classify("chrome"))
}

func TestEngine_Classify_IgnoresBlankPatterns(t *testing.T) {
	e := NewEngine(domain.PolicyConfig{
		DistractingApps: []string{"  ", ""},
		ProductiveApps:  []string{"code"},
	}, Schedule{})

	// Blank patterns would otherwise match every name.
	assert.Equal(t, domain.Neutral, e.Classify("gimp"))
	assert.Equal(t, domain.Productive, e.Classify("code"))
}

func TestEngine_ShouldActivate(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	assert.True(t, e.ShouldActivate(domain.Distracting, now))
	assert.False(t, e.ShouldActivate(domain.Productive, now))
	assert.False(t, e.ShouldActivate(domain.Neutral, now))
}

func TestEngine_ShouldActivate_ScheduleWindow(t *testing.T) {
	w, err := ParseWindow("09:00", "17:00")
	require.NoError(t, err)

	e := NewEngine(domain.PolicyConfig{
		ProductiveApps: []string{"code"},
	}, NewSchedule(w))

	inside := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

	assert.True(t, e.ShouldActivate(domain.Productive, inside))
	assert.False(t, e.ShouldActivate(domain.Productive, outside))
	// Neutral never activates, schedule or not.
	assert.False(t, e.ShouldActivate(domain.Neutral, inside))
}

func TestEngine_ShouldDeactivate(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	assert.False(t, e.ShouldDeactivate(domain.Distracting, now))
	assert.True(t, e.ShouldDeactivate(domain.Productive, now))
	assert.True(t, e.ShouldDeactivate(domain.Neutral, now))
}

func TestEngine_ShouldDeactivate_ScheduleHoldsProductive(t *testing.T) {
	w, err := ParseWindow("09:00", "17:00")
	require.NoError(t, err)

	e := NewEngine(domain.PolicyConfig{
		ProductiveApps: []string{"code"},
	}, NewSchedule(w))

	inside := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

	// The open window keeps a productive session in focus mode.
	assert.False(t, e.ShouldDeactivate(domain.Productive, inside))
	assert.True(t, e.ShouldDeactivate(domain.Productive, outside))
	// Neutral always deactivates.
	assert.True(t, e.ShouldDeactivate(domain.Neutral, inside))
}
