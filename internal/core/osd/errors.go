package osd

import (
	"errors"
	"fmt"
)

// Kind classifies the errors raised by the connection core and the record
// commands built on it.
type Kind string

const (
	KindAlreadyConnected     Kind = "already_connected"
	KindNotConnected         Kind = "not_connected"
	KindConfiguration        Kind = "configuration"
	KindCacheRefresh         Kind = "cache_refresh"
	KindTaskSequenceNotFound Kind = "task_sequence_not_found"
	KindMakeModelNotFound    Kind = "make_model_not_found"
	KindComputerNotFound     Kind = "computer_not_found"
)

// Error is the single error type returned for every Kind. Share and ID are
// only set for the not-found kinds.
type Error struct {
	Kind  Kind
	Op    string
	Share string
	ID    string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := e.message()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) message() string {
	switch e.Kind {
	case KindAlreadyConnected:
		return "already connected; run 'osd disconnect' first, or use --force"
	case KindNotConnected:
		return "not connected; run 'osd connect' before any other command"
	case KindConfiguration:
		return "invalid configuration"
	case KindCacheRefresh:
		return "refresh lookup cache"
	case KindTaskSequenceNotFound:
		return fmt.Sprintf(`a task sequence with the ID "%s" was not found in the share "%s"`, e.ID, e.Share)
	case KindMakeModelNotFound:
		return fmt.Sprintf(`a model with the ID "%s" was not found in the share "%s"`, e.ID, e.Share)
	case KindComputerNotFound:
		return fmt.Sprintf(`a computer with the ID "%s" was not found in the share "%s"`, e.ID, e.Share)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// ErrAlreadyConnected returns the error for a connect attempt while a
// session is installed.
func ErrAlreadyConnected() error {
	return &Error{Kind: KindAlreadyConnected}
}

// ErrNotConnected returns the guard failure for op.
func ErrNotConnected(op string) error {
	return &Error{Kind: KindNotConnected, Op: op}
}

// ConfigurationError wraps a resolution or validation failure.
func ConfigurationError(err error) error {
	return &Error{Kind: KindConfiguration, Err: err}
}

// CacheRefreshError wraps the backend failure that aborted a refresh.
func CacheRefreshError(err error) error {
	return &Error{Kind: KindCacheRefresh, Err: err}
}

// NotFound builds one of the record-not-found errors.
func NotFound(kind Kind, share, id string) error {
	return &Error{Kind: kind, Share: share, ID: id}
}
