package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/drive"
	"github.com/cofl/osd/internal/printer"
)

type DriveCmd struct {
	flags       *Flags
	description string
	format      string
}

// NewDriveCmd creates a new drive command
func NewDriveCmd(flags *Flags) *DriveCmd {
	return &DriveCmd{flags: flags}
}

// Register adds the drive command to the application
func (cmd *DriveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "drive",
		Usage: "Manage share drive aliases",
		Description: `Drive aliases name frequently used shares so that 'osd connect --drive NAME'
can be used instead of a full path.`,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register or update a drive alias",
				UsageText: "osd drive add <name> <path> [--description TEXT]",
				ArgsUsage: "<name> <path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "description",
						Usage:       "free-form note",
						Destination: &cmd.description,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "ls",
				Usage:     "List drive aliases",
				UsageText: "osd drive ls",
				Flags:     []cli.Flag{formatFlag(&cmd.format)},
				Action:    cmd.runList,
			},
			{
				Name:          "rm",
				Usage:         "Remove a drive alias",
				UsageText:     "osd drive rm <name>",
				ArgsUsage:     "<name>",
				ShellComplete: cmd.completeNames,
				Action:        cmd.runRemove,
			},
		},
	})

	return app
}

func (cmd *DriveCmd) runAdd(ctx context.Context, c *cli.Command) error {
	name, path := c.Args().Get(0), strings.TrimSpace(c.Args().Get(1))
	if name == "" || path == "" {
		return fmt.Errorf("usage: osd drive add <name> <path>")
	}

	d := drive.Drive{
		Name:        name,
		Path:        path,
		Description: cmd.description,
		CreatedAt:   time.Now(),
	}
	if existing, err := cmd.flags.Drives.Get(ctx, name); err == nil {
		d.CreatedAt = existing.CreatedAt
	}

	if err := cmd.flags.Drives.Save(ctx, d); err != nil {
		return fmt.Errorf("save drive: %w", err)
	}

	printer.Ctx(ctx).Successf("Drive %s -> %s", d.Name, d.Path)
	return nil
}

func (cmd *DriveCmd) runList(ctx context.Context, c *cli.Command) error {
	drives, err := cmd.flags.Drives.List(ctx)
	if err != nil {
		return fmt.Errorf("list drives: %w", err)
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, drives)
	}

	if len(drives) == 0 {
		printer.Ctx(ctx).Infof("No drives registered. Add one with 'osd drive add %s <path>'", drive.DefaultName)
		return nil
	}

	rows := make([][]any, 0, len(drives))
	for _, d := range drives {
		rows = append(rows, []any{d.Name, d.Path, d.Description})
	}
	return writeTable(out, "NAME\tPATH\tDESCRIPTION", rows)
}

func (cmd *DriveCmd) runRemove(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("usage: osd drive rm <name>")
	}

	err := cmd.flags.Drives.Delete(ctx, name)
	if errors.Is(err, drive.ErrNotFound) {
		return fmt.Errorf("drive %q is not registered", name)
	}
	if err != nil {
		return fmt.Errorf("remove drive: %w", err)
	}

	printer.Ctx(ctx).Successf("Removed drive %s", name)
	return nil
}

func (cmd *DriveCmd) completeNames(ctx context.Context, c *cli.Command) {
	drives, err := cmd.flags.Drives.List(ctx)
	if err != nil {
		return
	}
	for _, d := range drives {
		_, _ = fmt.Fprintln(c.Root().Writer, d.Name)
	}
}
