package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/printer"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "show",
				Usage:       "Print the effective configuration file",
				UsageText:   "osd config show",
				Description: "Prints the configuration as YAML, including defaults for unset keys.",
				Action:      cmd.runShow,
			},
			{
				Name:      "set",
				Usage:     "Set configuration values",
				UsageText: "osd config set key=value [key=value...]",
				ArgsUsage: "key=value...",
				Description: "Updates keys and saves the configuration file. Valid keys: " +
					strings.Join(config.Keys, ", ") + ".",
				ShellComplete: func(_ context.Context, c *cli.Command) {
					for _, k := range config.Keys {
						_, _ = fmt.Fprintln(c.Root().Writer, k+"=")
					}
				},
				Action: cmd.runSet,
			},
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "osd config validate [options]",
				Description: "Validates the configuration file and reports settings that limit what osd can do.",
				Flags:       []cli.Flag{formatFlag(&cmd.format)},
				Action:      cmd.runValidate,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	if !cfg.Persisted() {
		printer.Ctx(ctx).Infof("No configuration file at %s; showing defaults", cfg.Path())
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = c.Root().Writer.Write(data)
	return err
}

func (cmd *ConfigCmd) runSet(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if c.Args().Len() == 0 {
		return fmt.Errorf("usage: osd config set key=value [key=value...]")
	}

	updated := *cfg
	for _, arg := range c.Args().Slice() {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", arg)
		}
		if err := updated.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}

	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := updated.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	*cfg = updated

	p := printer.Ctx(ctx)
	p.Successf("Saved %s", cfg.Path())
	if cmd.flags.Holder != nil && cmd.flags.Holder.IsConnected() {
		p.Infof("The current connection keeps its settings until you reconnect")
	}
	return nil
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.flags.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	err := cmd.flags.Config.Validate()
	warnings := cmd.flags.Config.Warnings()

	if cmd.format == "json" {
		return cmd.outputJSON(c, err, warnings)
	}

	return cmd.outputText(p, err, warnings)
}

func (cmd *ConfigCmd) outputJSON(c *cli.Command, validationErr error, warnings []config.ValidationWarning) error {
	type fieldError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	out := struct {
		Valid     bool                       `json:"valid"`
		Persisted bool                       `json:"persisted"`
		Errors    []fieldError               `json:"errors,omitempty"`
		Warnings  []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:     validationErr == nil,
		Persisted: cmd.flags.Config.Persisted(),
		Warnings:  warnings,
	}

	for _, fe := range extractFieldErrors(validationErr) {
		out.Errors = append(out.Errors, fieldError{Field: fe.Field, Message: fe.Err.Error()})
	}

	return writeJSON(c.Root().Writer, out)
}

// extractFieldErrors extracts field errors from a validation error.
func extractFieldErrors(err error) criterio.FieldErrors {
	if err == nil {
		return nil
	}
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs
	}
	return criterio.FieldErrors{{Err: err}}
}

func (cmd *ConfigCmd) outputText(p *printer.Printer, validationErr error, warnings []config.ValidationWarning) error {
	fieldErrs := extractFieldErrors(validationErr)

	if !cmd.flags.Config.Persisted() {
		p.Infof("No configuration file at %s; checking defaults", cmd.flags.Config.Path())
	}

	if len(fieldErrs) > 0 {
		p.Printf("Errors")
		for _, fe := range fieldErrs {
			if fe.Field != "" {
				p.Printf("  %s %s: %s", printer.Cross, fe.Field, fe.Err.Error())
			} else {
				p.Printf("  %s %s", printer.Cross, fe.Err.Error())
			}
		}
	}

	if len(warnings) > 0 {
		if len(fieldErrs) > 0 {
			p.Printf("")
		}
		p.Printf("Warnings")
		for _, warn := range warnings {
			msg := warn.Message
			if warn.Item != "" {
				msg = warn.Item + ": " + msg
			}
			p.Printf("  %s %s: %s", printer.Dot, warn.Category, msg)
		}
	}

	p.Printf("")
	if validationErr == nil {
		if len(warnings) > 0 {
			p.Successf("Configuration is valid (%d warning(s))", len(warnings))
		} else {
			p.Successf("Configuration is valid")
		}
		return nil
	}

	p.Errorf("%d error(s), %d warning(s)", len(fieldErrs), len(warnings))
	return cli.Exit("", 1)
}
