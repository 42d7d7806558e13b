package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/printer"
)

type DriverGroupCmd struct {
	flags  *Flags
	match  string
	format string
}

// NewDriverGroupCmd creates a new drivergroup command
func NewDriverGroupCmd(flags *Flags) *DriverGroupCmd {
	return &DriverGroupCmd{flags: flags}
}

// Register adds the drivergroup command to the application
func (cmd *DriverGroupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "drivergroup",
		Aliases: []string{"dg"},
		Usage:   "Look up driver groups",
		Commands: []*cli.Command{
			{
				Name:        "ls",
				Usage:       "List driver groups",
				UsageText:   "osd drivergroup ls [--match GLOB]",
				Description: "Lists driver group names from the lookup cache. Run 'osd cache refresh' to pick up changes made elsewhere.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "glob pattern for group names",
						Destination: &cmd.match,
					},
					formatFlag(&cmd.format),
				},
				ShellComplete: cmd.flags.completeArg(osd.CategoryDriverGroup),
				Action:        cmd.flags.connected(cmd.runList),
			},
		},
	})

	return app
}

func (cmd *DriverGroupCmd) runList(ctx context.Context, c *cli.Command) error {
	groups, err := cmd.flags.Service.ListDriverGroups(cmd.match)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, groups)
	}

	if len(groups) == 0 {
		printer.Ctx(ctx).Infof("No driver groups found")
		return nil
	}
	for _, g := range groups {
		_, _ = fmt.Fprintln(out, g)
	}
	return nil
}
