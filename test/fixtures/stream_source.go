// Package fixtures provides test doubles shared by integration tests.
package fixtures

import (
	"context"
	"sync"
	"time"

	"focusguard/internal/domain"
)

// StreamSource is a domain.ActivitySource that replays a fixed
// sequence of app names, one per sample. Once the sequence is
// exhausted it keeps returning the final entry.
type StreamSource struct {
	mu   sync.Mutex
	apps []string
	pos  int
}

// NewStreamSource creates a source over the given app name stream.
func NewStreamSource(apps ...string) *StreamSource {
	return &StreamSource{apps: apps}
}

// Sample returns the next app in the stream.
func (s *StreamSource) Sample(ctx context.Context) (domain.ActivitySample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.apps) == 0 {
		return domain.ActivitySample{}, domain.ErrSourceUnavailable
	}

	app := s.apps[s.pos]
	if s.pos < len(s.apps)-1 {
		s.pos++
	}

	return domain.ActivitySample{
		AppName:     app,
		WindowTitle: app + " - window",
		Timestamp:   time.Now(),
	}, nil
}

// Position returns how far into the stream the source has advanced.
func (s *StreamSource) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *StreamSource) Available() bool { return true }
func (s *StreamSource) Name() string    { return "stream" }
func (s *StreamSource) Close() error    { return nil }

var _ domain.ActivitySource = (*StreamSource)(nil)
