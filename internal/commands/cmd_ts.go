package commands

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/prompt"
)

type TaskSequenceCmd struct {
	flags  *Flags
	group  string
	match  string
	format string
}

// NewTaskSequenceCmd creates a new ts command
func NewTaskSequenceCmd(flags *Flags) *TaskSequenceCmd {
	return &TaskSequenceCmd{flags: flags}
}

// Register adds the ts command to the application
func (cmd *TaskSequenceCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "ts",
		Aliases: []string{"task-sequence"},
		Usage:   "Look up task sequences",
		Commands: []*cli.Command{
			{
				Name:          "get",
				Usage:         "Show a task sequence",
				UsageText:     "osd ts get <id>",
				ArgsUsage:     "<id>",
				Flags:         []cli.Flag{formatFlag(&cmd.format)},
				ShellComplete: cmd.flags.completeArg(osd.CategoryTaskSequence),
				Action:        cmd.flags.connected(cmd.runGet),
			},
			{
				Name:      "ls",
				Usage:     "List task sequences",
				UsageText: "osd ts ls [--group NAME] [--match GLOB]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "group",
						Aliases:     []string{"g"},
						Usage:       "only task sequences in this group",
						Destination: &cmd.group,
					},
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "glob pattern for task sequence IDs",
						Destination: &cmd.match,
					},
					formatFlag(&cmd.format),
				},
				Action: cmd.flags.connected(cmd.runList),
			},
		},
	})

	return app
}

func (cmd *TaskSequenceCmd) runGet(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.flags.Holder.Require("get task sequence"); err != nil {
		return err
	}

	id, err := cmd.flags.ask(c.Args().First(), prompt.Field{Title: "Task sequence ID"}, osd.CategoryTaskSequence)
	if err != nil {
		return err
	}

	ts, err := cmd.flags.Service.GetTaskSequence(ctx, id)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, ts)
	}

	return writeFields(out, [][2]string{
		{"ID", ts.ID},
		{"Name", ts.Name},
		{"Group", ts.Group},
		{"Version", ts.Version},
		{"Enabled", strconv.FormatBool(ts.Enabled)},
	})
}

func (cmd *TaskSequenceCmd) runList(ctx context.Context, c *cli.Command) error {
	list, err := cmd.flags.Service.ListTaskSequences(ctx, cmd.group, cmd.match)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, list)
	}

	if len(list) == 0 {
		printer.Ctx(ctx).Infof("No task sequences found")
		return nil
	}

	rows := make([][]any, 0, len(list))
	for _, ts := range list {
		rows = append(rows, []any{ts.ID, ts.Name, ts.Group, ts.Version, ts.Enabled})
	}
	return writeTable(out, "ID\tNAME\tGROUP\tVERSION\tENABLED", rows)
}
