// Package prompt asks for missing command arguments on a terminal, offering
// the session's cached names as suggestions.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/cofl/osd/internal/styles"
)

// ErrNotInteractive is returned when a value is missing and stdin is not a
// terminal.
var ErrNotInteractive = errors.New("missing argument and stdin is not a terminal")

// Interactive reports whether stdin and stdout are both terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Field describes a single prompted value.
type Field struct {
	Title       string
	Placeholder string
	Suggestions []string
	// Optional allows an empty answer.
	Optional bool
}

// Asker collects values for fields. The huh-backed implementation is
// returned by Terminal.
type Asker interface {
	Ask(f Field) (string, error)
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(f Field) (string, error)

// Ask implements Asker.
func (fn AskerFunc) Ask(f Field) (string, error) { return fn(f) }

type terminal struct{}

// Terminal returns an Asker that runs a huh input on the terminal.
func Terminal() Asker { return terminal{} }

func (terminal) Ask(f Field) (string, error) {
	var value string

	input := huh.NewInput().
		Title(f.Title).
		Value(&value)

	if f.Placeholder != "" {
		input.Placeholder(f.Placeholder)
	}
	if len(f.Suggestions) > 0 {
		input.Suggestions(f.Suggestions)
	}
	if !f.Optional {
		input.Validate(requiredValidator(f.Title))
	}

	form := huh.NewForm(huh.NewGroup(input)).WithTheme(styles.FormTheme())
	if err := form.Run(); err != nil {
		return "", err
	}

	return strings.TrimSpace(value), nil
}

func requiredValidator(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// Value returns current when it is set. Otherwise it asks with a when
// interactive is true, and fails with ErrNotInteractive when it is not.
func Value(a Asker, interactive bool, current string, f Field) (string, error) {
	if current != "" {
		return current, nil
	}
	if !interactive || a == nil {
		if f.Optional {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", strings.ToLower(f.Title), ErrNotInteractive)
	}
	return a.Ask(f)
}
