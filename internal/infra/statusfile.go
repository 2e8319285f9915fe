package infra

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"focusguard/internal/domain"
)

// StatusFile implements domain.StatusPublisher with a flock-guarded
// JSON file. The daemon is the only writer; the CLI reads it to
// answer `focusguard status` from another process.
type StatusFile struct {
	path string
}

// NewStatusFile creates a status publisher at the given path.
func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path}
}

// Path returns the status file path.
func (f *StatusFile) Path() string {
	return f.path
}

// Publish atomically replaces the persisted snapshot.
func (f *StatusFile) Publish(s domain.StatusSnapshot) error {
	unlock, err := f.lock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal status")
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write status file")
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace status file")
	}
	return nil
}

// Load reads the last published snapshot, or nil when none exists.
func (f *StatusFile) Load() (*domain.StatusSnapshot, error) {
	unlock, err := f.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read status file")
	}

	var s domain.StatusSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse status file")
	}
	return &s, nil
}

// Stale reports whether a snapshot's heartbeat is older than maxAge,
// meaning the daemon that wrote it is likely gone.
func Stale(s *domain.StatusSnapshot, maxAge time.Duration) bool {
	if s == nil {
		return true
	}
	return time.Since(s.UpdatedAt) > maxAge
}

func (f *StatusFile) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create status directory")
	}

	lockFile, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open status lock file")
	}
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, errors.Wrap(err, "failed to acquire status lock")
	}

	return func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
	}, nil
}

// Ensure StatusFile implements domain.StatusPublisher.
var _ domain.StatusPublisher = (*StatusFile)(nil)
