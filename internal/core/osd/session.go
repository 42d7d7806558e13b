// Package osd implements the connection core for a deployment share: the
// session holder, the session it installs and the lookup cache the session
// owns.
package osd

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Configuration is the effective configuration a session is opened with. It
// is resolved once per connect and never changes afterwards.
type Configuration struct {
	AutoConnect          bool
	ComputerNameTemplate string
	DefaultOU            string
	SharePath            string
}

// Conn is an open backend connection. A Session owns exactly one Conn and
// closes it when the session ends.
type Conn interface {
	Catalog
	// ConnectionString describes the backend for display. Secrets are redacted.
	ConnectionString() string
	Close() error
}

// Opener opens the backend described by a resolved configuration.
type Opener interface {
	Open(ctx context.Context, cfg Configuration) (Conn, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, cfg Configuration) (Conn, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, cfg Configuration) (Conn, error) {
	return f(ctx, cfg)
}

// Session is one active connection to a share.
type Session struct {
	config       Configuration
	sharePath    string
	connString   string
	nameTemplate string
	openedAt     time.Time
	cache        *LookupCache

	// mu serializes all use of conn.
	mu     sync.Mutex
	conn   Conn
	closed bool
}

func newSession(cfg Configuration, conn Conn, now func() time.Time) *Session {
	return &Session{
		config:       cfg,
		sharePath:    cfg.SharePath,
		connString:   conn.ConnectionString(),
		nameTemplate: cfg.ComputerNameTemplate,
		openedAt:     now(),
		cache:        newLookupCache(now),
		conn:         conn,
	}
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() Configuration { return s.config }

// SharePath returns the resolved root of the share.
func (s *Session) SharePath() string { return s.sharePath }

// ConnectionString returns the redacted backend connection string.
func (s *Session) ConnectionString() string { return s.connString }

// ComputerNameTemplate returns the template used for default computer names.
func (s *Session) ComputerNameTemplate() string { return s.nameTemplate }

// OpenedAt returns when the backend connection was opened.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// Cache returns the session's lookup cache.
func (s *Session) Cache() *LookupCache { return s.cache }

// Do runs fn with exclusive use of the backend connection. It fails with
// NotConnected once the session has been closed.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotConnected("use backend connection")
	}
	return fn(ctx, s.conn)
}

// RefreshCache repopulates the lookup cache from the backend.
func (s *Session) RefreshCache(ctx context.Context) error {
	return s.Do(ctx, func(ctx context.Context, conn Conn) error {
		return s.cache.Refresh(ctx, conn)
	})
}

// close releases the backend connection. It is safe to call more than once;
// only the first call reaches the driver. A panicking driver is reported as
// an error.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return closeConn(s.conn)
}

func closeConn(conn Conn) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend close panicked: %v", r)
		}
	}()
	return conn.Close()
}
