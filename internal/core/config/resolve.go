package config

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/pkg/nametmpl"
)

// DriveResolver maps a drive alias onto a share path.
type DriveResolver interface {
	ResolveDrive(name string) (string, error)
}

// Source selects where the share path comes from. At most one field may be
// set; with none set the persisted share path is used.
type Source struct {
	Path          string
	Drive         string
	UseConfigured bool
}

func (s Source) active() int {
	n := 0
	if s.Path != "" {
		n++
	}
	if s.Drive != "" {
		n++
	}
	if s.UseConfigured {
		n++
	}
	return n
}

// Overrides are per-invocation values layered over the persisted
// configuration.
type Overrides struct {
	// DefaultOU is required unless the persisted configuration has one.
	DefaultOU string
	// ComputerNameTemplate: nil inherits, "" means no template.
	ComputerNameTemplate *string
}

// Resolver merges a persisted configuration with a source selector and
// overrides. Persisted is nil when no configuration was saved.
type Resolver struct {
	Persisted *Config
	Source    Source
	Overrides Overrides
	Drives    DriveResolver
}

// Resolve produces the effective configuration. Every failure is an
// osd ConfigurationError wrapping criterio field errors.
func (r Resolver) Resolve() (osd.Configuration, error) {
	var (
		errs criterio.FieldErrorsBuilder
		eff  osd.Configuration
	)

	if r.Source.active() > 1 {
		return eff, osd.ConfigurationError(criterio.NewFieldErrors(
			"source",
			fmt.Errorf("--path, --drive and --use-configured-path are mutually exclusive"),
		))
	}

	share, err := r.sharePath()
	if err != nil {
		errs = errs.Append(err.field, err.err)
	}
	eff.SharePath = share

	switch {
	case r.Overrides.DefaultOU != "":
		eff.DefaultOU = r.Overrides.DefaultOU
	case r.Persisted != nil && r.Persisted.DefaultOU != "":
		eff.DefaultOU = r.Persisted.DefaultOU
	default:
		errs = errs.Append("default_ou", fmt.Errorf("required: pass --default-ou or set default_ou in the configuration"))
	}

	switch {
	case r.Overrides.ComputerNameTemplate != nil:
		eff.ComputerNameTemplate = *r.Overrides.ComputerNameTemplate
	case r.Persisted != nil:
		eff.ComputerNameTemplate = r.Persisted.ComputerNameTemplate
	default:
		eff.ComputerNameTemplate = DefaultConfig().ComputerNameTemplate
	}
	if err := nametmpl.Validate(eff.ComputerNameTemplate, 1); err != nil {
		errs = errs.Append("computer_name_template", err)
	}

	if r.Persisted != nil {
		eff.AutoConnect = r.Persisted.AutoConnect
	}

	if err := errs.ToError(); err != nil {
		return osd.Configuration{}, osd.ConfigurationError(err)
	}
	return eff, nil
}

type fieldErr struct {
	field string
	err   error
}

func (r Resolver) sharePath() (string, *fieldErr) {
	switch {
	case r.Source.Path != "":
		path := strings.TrimSpace(r.Source.Path)
		if path == "" {
			return "", &fieldErr{"path", fmt.Errorf("cannot be blank")}
		}
		return path, nil

	case r.Source.Drive != "":
		if r.Drives == nil {
			return "", &fieldErr{"drive", fmt.Errorf("drive aliases are not available")}
		}
		path, err := r.Drives.ResolveDrive(r.Source.Drive)
		if err != nil {
			return "", &fieldErr{"drive", err}
		}
		return path, nil

	case r.Source.UseConfigured:
		if r.Persisted == nil || r.Persisted.SharePath == "" {
			return "", &fieldErr{"share_path", fmt.Errorf("no share path configured; run 'osd config set share_path=<path>'")}
		}
		return r.Persisted.SharePath, nil

	case r.Persisted != nil && r.Persisted.SharePath != "":
		return r.Persisted.SharePath, nil

	default:
		return "", &fieldErr{"share_path", fmt.Errorf("no share path: pass --path or --drive, or save share_path in the configuration")}
	}
}
