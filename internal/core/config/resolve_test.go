package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cofl/osd/internal/core/osd"
)

type mapDrives map[string]string

func (m mapDrives) ResolveDrive(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", errors.New("drive " + name + " not found")
}

func strPtr(s string) *string { return &s }

func persisted(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SharePath = `\\cfg\MDT`
	cfg.DefaultOU = "OU=Configured"
	cfg.ComputerNameTemplate = "CFG-{0}"
	cfg.AutoConnect = true
	cfg.persisted = true
	return &cfg
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, osd.IsKind(err, osd.KindConfiguration), "want configuration error, got %v", err)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	for _, fe := range fieldErrs {
		if fe.Field == field {
			return
		}
	}
	t.Fatalf("no field error for %q in %v", field, fieldErrs)
}

func TestResolve_ExplicitPath(t *testing.T) {
	r := Resolver{
		Source:    Source{Path: `\\share\MDT`},
		Overrides: Overrides{DefaultOU: "OU=X"},
	}

	eff, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, `\\share\MDT`, eff.SharePath)
	assert.Equal(t, "OU=X", eff.DefaultOU)
	assert.Equal(t, "MDT-Computer-{0}", eff.ComputerNameTemplate)
	assert.False(t, eff.AutoConnect)
}

func TestResolve_MissingOUWithoutPersistedConfig(t *testing.T) {
	r := Resolver{Source: Source{Path: `\\share\MDT`}}

	_, err := r.Resolve()
	requireFieldError(t, err, "default_ou")
}

func TestResolve_InheritsFromPersisted(t *testing.T) {
	r := Resolver{
		Persisted: persisted(t),
		Source:    Source{UseConfigured: true},
	}

	eff, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, osd.Configuration{
		AutoConnect:          true,
		ComputerNameTemplate: "CFG-{0}",
		DefaultOU:            "OU=Configured",
		SharePath:            `\\cfg\MDT`,
	}, eff)
}

func TestResolve_NoSourceUsesPersistedPath(t *testing.T) {
	r := Resolver{Persisted: persisted(t)}

	eff, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, `\\cfg\MDT`, eff.SharePath)
	assert.Equal(t, "OU=Configured", eff.DefaultOU)
}

func TestResolve_PartialFileIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto_connect: true\n"), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	require.True(t, cfg.Persisted())

	eff, err := Resolver{Persisted: cfg}.Resolve()
	requireFieldError(t, err, "share_path")
	requireFieldError(t, err, "default_ou")
	assert.Equal(t, osd.Configuration{}, eff)
}

func TestResolve_OverridesWinOverPersisted(t *testing.T) {
	r := Resolver{
		Persisted: persisted(t),
		Source:    Source{Path: `\\other\MDT`},
		Overrides: Overrides{DefaultOU: "OU=Override", ComputerNameTemplate: strPtr("LAB-{0}")},
	}

	eff, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, `\\other\MDT`, eff.SharePath)
	assert.Equal(t, "OU=Override", eff.DefaultOU)
	assert.Equal(t, "LAB-{0}", eff.ComputerNameTemplate)
}

func TestResolve_EmptyTemplateMeansNoTemplate(t *testing.T) {
	r := Resolver{
		Persisted: persisted(t),
		Source:    Source{UseConfigured: true},
		Overrides: Overrides{ComputerNameTemplate: strPtr("")},
	}

	eff, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "", eff.ComputerNameTemplate)
}

func TestResolve_Drive(t *testing.T) {
	drives := mapDrives{"DS001": `\\drive\MDT`}

	t.Run("known alias", func(t *testing.T) {
		r := Resolver{
			Source:    Source{Drive: "DS001"},
			Overrides: Overrides{DefaultOU: "OU=X"},
			Drives:    drives,
		}
		eff, err := r.Resolve()
		require.NoError(t, err)
		assert.Equal(t, `\\drive\MDT`, eff.SharePath)
	})

	t.Run("unknown alias", func(t *testing.T) {
		r := Resolver{
			Source:    Source{Drive: "DS404"},
			Overrides: Overrides{DefaultOU: "OU=X"},
			Drives:    drives,
		}
		_, err := r.Resolve()
		requireFieldError(t, err, "drive")
	})

	t.Run("no resolver", func(t *testing.T) {
		r := Resolver{
			Source:    Source{Drive: "DS001"},
			Overrides: Overrides{DefaultOU: "OU=X"},
		}
		_, err := r.Resolve()
		requireFieldError(t, err, "drive")
	})
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		r     Resolver
		field string
	}{
		{
			name: "mutually exclusive sources",
			r: Resolver{
				Source:    Source{Path: `\\a\MDT`, UseConfigured: true},
				Overrides: Overrides{DefaultOU: "OU=X"},
			},
			field: "source",
		},
		{
			name:  "no source and no persisted config",
			r:     Resolver{Overrides: Overrides{DefaultOU: "OU=X"}},
			field: "share_path",
		},
		{
			name: "use configured without persisted config",
			r: Resolver{
				Source:    Source{UseConfigured: true},
				Overrides: Overrides{DefaultOU: "OU=X"},
			},
			field: "share_path",
		},
		{
			name: "blank path",
			r: Resolver{
				Source:    Source{Path: "   "},
				Overrides: Overrides{DefaultOU: "OU=X"},
			},
			field: "path",
		},
		{
			name: "template with two slots",
			r: Resolver{
				Source:    Source{Path: `\\a\MDT`},
				Overrides: Overrides{DefaultOU: "OU=X", ComputerNameTemplate: strPtr("{0}-{1}")},
			},
			field: "computer_name_template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := tt.r.Resolve()
			requireFieldError(t, err, tt.field)
			assert.Equal(t, osd.Configuration{}, eff)
		})
	}
}

func TestResolve_ReportsAllMissingFields(t *testing.T) {
	_, err := Resolver{}.Resolve()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
}

func TestResolve_SatisfiesOsdResolver(t *testing.T) {
	var _ osd.Resolver = Resolver{}
}
