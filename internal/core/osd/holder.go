package osd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Resolver produces the effective configuration for a connect attempt.
type Resolver interface {
	Resolve() (Configuration, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func() (Configuration, error)

// Resolve calls f.
func (f ResolverFunc) Resolve() (Configuration, error) {
	return f()
}

// ConnectRequest holds the inputs of a connect attempt.
type ConnectRequest struct {
	Resolver Resolver
	// Force replaces an existing session instead of failing.
	Force bool
}

// DisconnectResult describes what a disconnect did. CloseErr is the
// non-fatal error returned by the backend while releasing the connection.
type DisconnectResult struct {
	WasConnected bool
	SharePath    string
	CloseErr     error
}

// Holder owns the single session slot. At most one Session is installed at
// any time; Connect and Disconnect are the only transitions.
type Holder struct {
	opener Opener
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Session
}

// NewHolder creates an empty holder that opens backends with opener.
func NewHolder(opener Opener, log zerolog.Logger) *Holder {
	return &Holder{
		opener: opener,
		log:    log,
		now:    time.Now,
	}
}

// IsConnected reports whether a session is installed.
func (h *Holder) IsConnected() bool {
	return h.Current() != nil
}

// Current returns the installed session or nil.
func (h *Holder) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Require is the guard every operation other than Connect runs first. It
// returns the installed session or a NotConnected error for op.
func (h *Holder) Require(op string) (*Session, error) {
	if sess := h.Current(); sess != nil {
		return sess, nil
	}
	return nil, ErrNotConnected(op)
}

// Connect resolves the configuration, opens the backend, installs a new
// session and fills its cache. Either a fully initialized session becomes
// current or the holder is left without one.
func (h *Holder) Connect(ctx context.Context, req ConnectRequest) (*Session, error) {
	if h.IsConnected() {
		if !req.Force {
			return nil, ErrAlreadyConnected()
		}
		h.log.Debug().Msg("force requested, replacing existing session")
		h.Disconnect(ctx)
	}

	cfg, err := req.Resolver.Resolve()
	if err != nil {
		return nil, err
	}

	h.log.Debug().Str("share", cfg.SharePath).Msg("opening backend")

	conn, err := h.opener.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend for %s: %w", cfg.SharePath, err)
	}

	sess := newSession(cfg, conn, h.now)

	if !h.install(sess) {
		h.release(sess)
		return nil, ErrAlreadyConnected()
	}

	if err := sess.RefreshCache(ctx); err != nil {
		h.uninstall(sess)
		h.release(sess)
		return nil, err
	}

	snap := sess.Cache().Snapshot()
	h.log.Info().
		Str("share", sess.SharePath()).
		Int("task_sequences", len(snap.TaskSequenceIDs)).
		Int("driver_groups", len(snap.DriverGroups)).
		Msg("connected")

	return sess, nil
}

// Disconnect clears the slot and then releases the backend connection. It
// never fails: a close error is logged at warn level and returned on the
// result. Disconnecting with no session is a no-op. The slot is cleared
// before the close so callers of Current are not held up by an operation
// still running on the old session.
func (h *Holder) Disconnect(ctx context.Context) DisconnectResult {
	h.mu.Lock()
	sess := h.current
	h.current = nil
	h.mu.Unlock()

	if sess == nil {
		return DisconnectResult{}
	}

	res := DisconnectResult{
		WasConnected: true,
		SharePath:    sess.SharePath(),
	}

	if err := sess.close(); err != nil {
		h.log.Warn().Err(err).Str("share", sess.SharePath()).Msg("failed to release backend connection")
		res.CloseErr = err
	}

	h.log.Debug().Str("share", res.SharePath).Msg("disconnected")
	return res
}

// install sets sess as current if the slot is empty.
func (h *Holder) install(sess *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return false
	}
	h.current = sess
	return true
}

// uninstall clears the slot if it still holds sess.
func (h *Holder) uninstall(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == sess {
		h.current = nil
	}
}

// release closes a session that never became (or no longer is) current.
func (h *Holder) release(sess *Session) {
	if err := sess.close(); err != nil {
		h.log.Warn().Err(err).Str("share", sess.SharePath()).Msg("failed to release backend connection")
	}
}
