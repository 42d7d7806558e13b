package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/deploy"
	"github.com/cofl/osd/internal/prompt"
	"github.com/cofl/osd/internal/store/jsonfile"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Holder owns the process's single share session
	Holder *osd.Holder

	// Service runs record operations against the holder's session
	Service *deploy.Service

	// Drives is the drive alias registry
	Drives *jsonfile.Store

	// Asker prompts for missing arguments; nil disables prompting
	Asker prompt.Asker

	// Shell is set while commands run inside 'osd shell'. The session then
	// outlives a single command.
	Shell bool

	// NewApp builds a fresh command tree sharing these flags. Used by the
	// shell to dispatch each input line.
	NewApp func() *cli.Command
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "osd", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "osd")
}

// resolver builds the configuration resolver for a connect attempt. The
// persisted configuration only takes part when it was read from a file.
func (f *Flags) resolver(src config.Source, ov config.Overrides) config.Resolver {
	r := config.Resolver{
		Source:    src,
		Overrides: ov,
	}
	if f.Config != nil && f.Config.Persisted() {
		r.Persisted = f.Config
	}
	if f.Drives != nil {
		r.Drives = f.Drives
	}
	return r
}

// ensureConnected connects with the configured share when no session exists
// and auto_connect is enabled. Otherwise it does nothing and the command's
// own guard reports NotConnected.
func (f *Flags) ensureConnected(ctx context.Context) error {
	if f.Holder == nil || f.Holder.IsConnected() {
		return nil
	}
	if f.Config == nil || !f.Config.AutoConnect || !f.Config.Persisted() {
		return nil
	}

	req := osd.ConnectRequest{Resolver: f.resolver(config.Source{UseConfigured: true}, config.Overrides{})}
	if _, err := f.Holder.Connect(ctx, req); err != nil {
		return fmt.Errorf("auto-connect: %w", err)
	}
	return nil
}

// interactive reports whether missing arguments may be prompted for.
func (f *Flags) interactive() bool {
	return f.Asker != nil && prompt.Interactive()
}

// ask fills current from a prompt with suggestions from the session cache.
func (f *Flags) ask(current string, field prompt.Field, category osd.Category) (string, error) {
	if current == "" && category != "" && f.Service != nil {
		if suggestions, err := f.Service.Suggest(category, "", 0); err == nil {
			field.Suggestions = suggestions
		}
	}
	return prompt.Value(f.Asker, f.interactive(), current, field)
}

// connected wraps a record command action so that it auto-connects first.
func (f *Flags) connected(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if err := f.ensureConnected(ctx); err != nil {
			return err
		}
		return action(ctx, c)
	}
}
