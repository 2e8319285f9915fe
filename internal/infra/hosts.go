// Package infra implements infrastructure concerns (activity sources,
// hosts file, desktop settings, session store, status file).
package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"focusguard/internal/domain"
)

// DefaultHostsPath is the system host-resolution override file.
const DefaultHostsPath = "/etc/hosts"

const (
	blockBegin = "# focusguard:begin"
	blockEnd   = "# focusguard:end"
)

// HostsBlocker manages a marker-delimited block of entries in the
// hosts file. The markers make every operation idempotent and let a
// fresh process detect and remove a block left by a crashed one.
type HostsBlocker struct {
	path string
}

// NewHostsBlocker creates a blocker for the system hosts file.
func NewHostsBlocker() *HostsBlocker {
	return &HostsBlocker{path: DefaultHostsPath}
}

// NewHostsBlockerWithPath creates a blocker for a specific file (for tests).
func NewHostsBlockerWithPath(path string) *HostsBlocker {
	return &HostsBlocker{path: path}
}

// Block writes the marker block with one IPv4 and one IPv6 entry per
// site. Any existing marker block is replaced, so calling Block twice
// yields the same file content as calling it once.
func (b *HostsBlocker) Block(sites []string) error {
	content, err := b.read()
	if err != nil {
		return err
	}

	kept := stripMarkerBlock(content)

	var sb strings.Builder
	sb.WriteString(kept)
	if !strings.HasSuffix(kept, "\n") && kept != "" {
		sb.WriteString("\n")
	}
	sb.WriteString(blockBegin + "\n")
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site == "" {
			continue
		}
		fmt.Fprintf(&sb, "127.0.0.1 %s\n", site)
		fmt.Fprintf(&sb, "::1 %s\n", site)
	}
	sb.WriteString(blockEnd + "\n")

	return b.write(sb.String())
}

// Unblock removes exactly the marker block, leaving every other line
// untouched. A file without a marker block is left as is.
func (b *HostsBlocker) Unblock() error {
	content, err := b.read()
	if err != nil {
		return err
	}

	if !strings.Contains(content, blockBegin) {
		return nil
	}

	return b.write(stripMarkerBlock(content))
}

// IsBlocked reports whether a marker block is present in the file,
// including one written by a previous process.
func (b *HostsBlocker) IsBlocked() (bool, error) {
	content, err := b.read()
	if err != nil {
		return false, err
	}
	return strings.Contains(content, blockBegin), nil
}

func (b *HostsBlocker) read() (string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read hosts file %s", b.path)
	}
	return string(data), nil
}

// write replaces the hosts file atomically: temp file in the same
// directory, sync, then rename. A crash mid-write leaves the old
// file intact.
func (b *HostsBlocker) write(content string) error {
	dir := filepath.Dir(b.path)
	tmpFile, err := os.CreateTemp(dir, ".focusguard-hosts-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp hosts file")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "failed to write temp hosts file")
	}
	if err = tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "failed to sync temp hosts file")
	}
	tmpFile.Close()

	if err = os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrap(err, "failed to chmod temp hosts file")
	}
	if err = os.Rename(tmpPath, b.path); err != nil {
		return errors.Wrapf(err, "failed to replace hosts file %s", b.path)
	}

	success = true
	return nil
}

// stripMarkerBlock removes the marker block (markers included) from
// the file content. A begin marker without a matching end marker
// truncates to end of file rather than leaving half a block behind.
func stripMarkerBlock(content string) string {
	begin := strings.Index(content, blockBegin)
	if begin == -1 {
		return content
	}

	rest := content[begin:]
	end := strings.Index(rest, blockEnd)
	if end == -1 {
		return content[:begin]
	}

	after := rest[end+len(blockEnd):]
	after = strings.TrimPrefix(after, "\n")
	return content[:begin] + after
}

// Ensure HostsBlocker implements domain.SiteBlocker.
var _ domain.SiteBlocker = (*HostsBlocker)(nil)
