// Package drive defines deployment share drive aliases.
package drive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DefaultName is the alias suggested for the first registered share.
const DefaultName = "DS001"

// ErrNotFound is returned when a drive alias is not registered.
var ErrNotFound = errors.New("drive not found")

var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Drive maps a short alias onto a share path.
type Drive struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidateName checks that name can be used as an alias.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid drive name %q: must start with a letter and contain only letters, digits, '-' or '_'", name)
	}
	return nil
}

// Store defines persistence operations for drive aliases. Names compare
// case-insensitively.
type Store interface {
	// List returns all drives sorted by name.
	List(ctx context.Context) ([]Drive, error)
	// Get returns a drive by name. Returns ErrNotFound if not found.
	Get(ctx context.Context, name string) (Drive, error)
	// Save creates or updates a drive.
	Save(ctx context.Context, d Drive) error
	// Delete removes a drive by name. Returns ErrNotFound if not found.
	Delete(ctx context.Context, name string) error
}
