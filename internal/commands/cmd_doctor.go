package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/commands/doctor"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/share"
	"github.com/cofl/osd/internal/store/sqlstore"
)

type DoctorCmd struct {
	flags  *Flags
	format string
}

// NewDoctorCmd creates a new doctor command
func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your osd setup",
		UsageText:   "osd doctor [options]",
		Description: "Checks the configuration, the configured share and its database, and the drive registry. Opens its own database connection and leaves the current session alone.",
		Flags:       []cli.Flag{formatFlag(&cmd.format)},
		Action:      cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	open := func(ctx context.Context, desc share.Descriptor) (osd.Conn, error) {
		b, err := sqlstore.Open(ctx, desc)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	checks := []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config),
		doctor.NewShareCheck(cmd.flags.Config, open),
		doctor.NewDrivesCheck(cmd.flags.Drives),
	}

	results := doctor.RunAll(ctx, checks)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: failed == 0,
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	return writeJSON(c.Root().Writer, out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	for _, result := range results {
		p.Section(result.Name)

		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}

		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("Summary: %d passed, %d warnings, %d failed", passed, warned, failed)

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
