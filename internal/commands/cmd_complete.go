package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
)

type CompleteCmd struct {
	flags *Flags
	limit int
}

// NewCompleteCmd creates a new complete command
func NewCompleteCmd(flags *Flags) *CompleteCmd {
	return &CompleteCmd{flags: flags}
}

// Register adds the complete command to the application
func (cmd *CompleteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "complete",
		Usage:     "Print cached names for completion",
		UsageText: "osd complete <category> [prefix] [--limit N]",
		ArgsUsage: "<category> [prefix]",
		Description: `Prints names from the lookup cache, best matches for prefix first.

Categories: task-sequence, task-sequence-group, driver-group, manufacturer, model.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of names (0 for all)",
				Destination: &cmd.limit,
			},
		},
		ShellComplete: completeCategories,
		Action:        cmd.flags.connected(cmd.run),
	})

	return app
}

func (cmd *CompleteCmd) run(_ context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("usage: osd complete <category> [prefix]")
	}

	category, err := osd.ParseCategory(c.Args().First())
	if err != nil {
		return err
	}

	values, err := cmd.flags.Service.Suggest(category, c.Args().Get(1), cmd.limit)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	for _, v := range values {
		_, _ = fmt.Fprintln(out, v)
	}
	return nil
}

// completeArg returns a shell completion hook printing the cached names of
// category.
func (f *Flags) completeArg(category osd.Category) cli.ShellCompleteFunc {
	return f.completeArgs(category)
}

// completeArgs returns a shell completion hook for positional arguments,
// one category per position.
func (f *Flags) completeArgs(categories ...osd.Category) cli.ShellCompleteFunc {
	return func(ctx context.Context, c *cli.Command) {
		pos := c.Args().Len()
		if pos >= len(categories) || f.Service == nil {
			return
		}
		if err := f.ensureConnected(ctx); err != nil {
			return
		}

		values, err := f.Service.Suggest(categories[pos], "", 0)
		if err != nil {
			return
		}
		for _, v := range values {
			_, _ = fmt.Fprintln(c.Root().Writer, v)
		}
	}
}
