package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/printer"
)

type CacheCmd struct {
	flags *Flags
}

// NewCacheCmd creates a new cache command
func NewCacheCmd(flags *Flags) *CacheCmd {
	return &CacheCmd{flags: flags}
}

// Register adds the cache command to the application
func (cmd *CacheCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "cache",
		Usage: "Inspect or refresh the lookup cache",
		Commands: []*cli.Command{
			{
				Name:        "refresh",
				Usage:       "Reload the lookup cache from the share",
				UsageText:   "osd cache refresh",
				Description: "Queries every category again. On failure the previous cache contents are kept.",
				Action:      cmd.flags.connected(cmd.runRefresh),
			},
			{
				Name:          "show",
				Usage:         "Print cached names",
				UsageText:     "osd cache show [category]",
				Description:   "Prints the cached names of one category, or a count per category when none is given.",
				ArgsUsage:     "[category]",
				ShellComplete: completeCategories,
				Action:        cmd.flags.connected(cmd.runShow),
			},
		},
	})

	return app
}

func (cmd *CacheCmd) runRefresh(ctx context.Context, _ *cli.Command) error {
	sess, err := cmd.flags.Holder.Require("refresh cache")
	if err != nil {
		return err
	}

	if err := sess.RefreshCache(ctx); err != nil {
		return err
	}

	snap := sess.Cache().Snapshot()
	printer.Ctx(ctx).Successf("Cache refreshed (version %d)", snap.Version)
	return nil
}

func (cmd *CacheCmd) runShow(_ context.Context, c *cli.Command) error {
	sess, err := cmd.flags.Holder.Require("show cache")
	if err != nil {
		return err
	}

	out := c.Root().Writer
	snap := sess.Cache().Snapshot()

	if c.Args().Len() == 0 {
		for _, cat := range osd.Categories {
			_, _ = fmt.Fprintf(out, "%-20s %d\n", cat, len(snap.Values(cat)))
		}
		return nil
	}

	cat, err := osd.ParseCategory(c.Args().First())
	if err != nil {
		return err
	}
	for _, v := range snap.Values(cat) {
		_, _ = fmt.Fprintln(out, v)
	}
	return nil
}

// completeCategories offers the cache category names.
func completeCategories(_ context.Context, c *cli.Command) {
	for _, cat := range osd.Categories {
		_, _ = fmt.Fprintln(c.Root().Writer, cat)
	}
}
