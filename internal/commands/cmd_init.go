package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/share"
	"github.com/cofl/osd/internal/store/sqlstore"
)

type InitCmd struct {
	flags  *Flags
	sample bool
	save   bool
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create a local share database",
		UsageText: "osd init <path> [--sample] [--save]",
		ArgsUsage: "<path>",
		Description: `Creates osd.db with the share schema at the root of a local share so that
osd can be used without a SQL Server deployment database.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "sample",
				Usage:       "load sample groups, driver groups and task sequences",
				Destination: &cmd.sample,
			},
			&cli.BoolFlag{
				Name:        "save",
				Usage:       "save the path as share_path in the configuration file",
				Destination: &cmd.save,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	root := c.Args().First()
	if root == "" {
		return fmt.Errorf("usage: osd init <path>")
	}

	path, err := sqlstore.Init(ctx, root)
	if err != nil {
		return err
	}
	p.Success("Initialized share database", path)

	if cmd.sample {
		b, err := sqlstore.Open(ctx, share.Descriptor{Driver: config.DriverSQLite, DSN: path})
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()

		if err := b.SeedSample(ctx); err != nil {
			return fmt.Errorf("load sample data: %w", err)
		}
		p.Successf("Loaded sample data")
	}

	if cmd.save {
		cfg := cmd.flags.Config
		cfg.SharePath = root
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		p.Successf("Saved share_path to %s", cfg.Path())
	}

	return nil
}
