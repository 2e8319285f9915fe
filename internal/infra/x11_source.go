package infra

import (
	"context"
	"encoding/binary"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"focusguard/internal/domain"
)

// X11Source implements domain.ActivitySource against an X server.
// It reads _NET_ACTIVE_WINDOW from the root window, then resolves the
// application name from WM_CLASS and the title from _NET_WM_NAME.
type X11Source struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

var x11Atoms = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// NewX11Source connects to the X server. Fails when no display is
// reachable; callers fall back to the process source.
func NewX11Source() (*X11Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	s := &X11Source{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom, len(x11Atoms)),
	}

	for _, name := range x11Atoms {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		s.atoms[name] = reply.Atom
	}

	return s, nil
}

// Name returns "x11".
func (s *X11Source) Name() string {
	return "x11"
}

// Available reports whether an X display is configured.
func (s *X11Source) Available() bool {
	return os.Getenv("DISPLAY") != ""
}

// Sample returns the currently focused application and window title.
func (s *X11Source) Sample(ctx context.Context) (domain.ActivitySample, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivitySample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	win, err := s.activeWindow()
	if err != nil {
		return domain.ActivitySample{}, errors.Wrap(domain.ErrSourceUnavailable, err.Error())
	}

	appName := s.windowClass(win)
	if appName == "" {
		return domain.ActivitySample{}, errors.Wrap(domain.ErrSourceUnavailable, "active window has no WM_CLASS")
	}

	return domain.ActivitySample{
		AppName:     appName,
		WindowTitle: s.windowTitle(win),
		Timestamp:   time.Now(),
	}, nil
}

// Close closes the X connection.
func (s *X11Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

func (s *X11Source) activeWindow() (xproto.Window, error) {
	if s.conn == nil {
		return 0, errors.New("x11 connection closed")
	}

	data, err := s.property(s.root, s.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, errors.New("no active window")
	}

	win := xproto.Window(binary.LittleEndian.Uint32(data))
	if win == 0 {
		return 0, errors.New("no active window")
	}
	return win, nil
}

// windowClass extracts the application name from WM_CLASS. The
// property holds two NUL-terminated strings (instance, class); the
// class is the stable application identifier.
func (s *X11Source) windowClass(win xproto.Window) string {
	data, err := s.property(win, s.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return ""
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	class := parts[len(parts)-1]
	return strings.ToLower(strings.TrimSpace(class))
}

func (s *X11Source) windowTitle(win xproto.Window) string {
	data, err := s.property(win, s.atoms["_NET_WM_NAME"], s.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = s.property(win, s.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (s *X11Source) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(s.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// Ensure X11Source implements domain.ActivitySource.
var _ domain.ActivitySource = (*X11Source)(nil)
