package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/printer"
)

type ConnectCmd struct {
	flags *Flags

	path          string
	drive         string
	useConfigured bool
	defaultOU     string
	nameTemplate  string
	force         bool
}

// NewConnectCmd creates a new connect command
func NewConnectCmd(flags *Flags) *ConnectCmd {
	return &ConnectCmd{flags: flags}
}

// Register adds the connect command to the application
func (cmd *ConnectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a deployment share",
		UsageText: "osd connect [--path PATH | --drive NAME | --use-configured-path] [options]",
		Description: `Opens the share's database and fills the lookup cache.

Exactly one of --path, --drive and --use-configured-path may be given. With
none of them the share path comes from the saved configuration.

--default-ou is required unless the saved configuration has one. Pass
--computer-name-template "" to connect without a name template.

Only one share can be connected at a time; use --force to replace the
current connection.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "path",
				Aliases:     []string{"p"},
				Usage:       "share path",
				Destination: &cmd.path,
			},
			&cli.StringFlag{
				Name:        "drive",
				Aliases:     []string{"d"},
				Usage:       "registered drive alias (see 'osd drive ls')",
				Destination: &cmd.drive,
			},
			&cli.BoolFlag{
				Name:        "use-configured-path",
				Usage:       "use share_path from the configuration file",
				Destination: &cmd.useConfigured,
			},
			&cli.StringFlag{
				Name:        "default-ou",
				Usage:       "OU for new computer records",
				Destination: &cmd.defaultOU,
			},
			&cli.StringFlag{
				Name:        "computer-name-template",
				Usage:       `computer name template with one "{0}" slot; "" disables generated names`,
				Destination: &cmd.nameTemplate,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "disconnect the current share first",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ConnectCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	ov := config.Overrides{DefaultOU: cmd.defaultOU}
	if c.IsSet("computer-name-template") {
		tmpl := cmd.nameTemplate
		ov.ComputerNameTemplate = &tmpl
	}

	src := config.Source{
		Path:          cmd.path,
		Drive:         cmd.drive,
		UseConfigured: cmd.useConfigured,
	}

	if cmd.force && cmd.flags.Holder.IsConnected() {
		if prev := cmd.flags.Holder.Current(); prev != nil {
			p.Infof("Replacing connection to %s", prev.SharePath())
		}
	}

	sess, err := cmd.flags.Holder.Connect(ctx, osd.ConnectRequest{
		Resolver: cmd.flags.resolver(src, ov),
		Force:    cmd.force,
	})
	if err != nil {
		return err
	}

	snap := sess.Cache().Snapshot()
	p.Success("Connected to "+sess.SharePath(), sess.ConnectionString())
	p.Infof("%d task sequences, %d driver groups, %d make/model entries cached",
		len(snap.TaskSequenceIDs), len(snap.DriverGroups), len(snap.Models))

	if !cmd.flags.Shell {
		p.Infof("The connection closes when this command exits; use 'osd shell' to keep it open")
	}
	return nil
}
