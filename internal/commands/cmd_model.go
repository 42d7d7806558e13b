package commands

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/core/record"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/prompt"
)

type ModelCmd struct {
	flags       *Flags
	driverGroup string
	match       string
	format      string
}

// NewModelCmd creates a new model command
func NewModelCmd(flags *Flags) *ModelCmd {
	return &ModelCmd{flags: flags}
}

// Register adds the model command to the application
func (cmd *ModelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "model",
		Usage: "Look up and create make/model entries",
		Commands: []*cli.Command{
			{
				Name:          "get",
				Usage:         "Show a make/model entry",
				UsageText:     "osd model get <make> <model>",
				ArgsUsage:     "<make> <model>",
				Flags:         []cli.Flag{formatFlag(&cmd.format)},
				ShellComplete: cmd.flags.completeArgs(osd.CategoryManufacturer, osd.CategoryModel),
				Action:        cmd.flags.connected(cmd.runGet),
			},
			{
				Name:      "new",
				Usage:     "Add a make/model entry",
				UsageText: "osd model new <make> <model> [--driver-group NAME]",
				ArgsUsage: "<make> <model>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "driver-group",
						Aliases:     []string{"g"},
						Usage:       "driver group deployed to this model",
						Destination: &cmd.driverGroup,
					},
					formatFlag(&cmd.format),
				},
				ShellComplete: cmd.flags.completeArgs(osd.CategoryManufacturer, osd.CategoryModel),
				Action:        cmd.flags.connected(cmd.runNew),
			},
			{
				Name:      "ls",
				Usage:     "List make/model entries",
				UsageText: "osd model ls [--match 'MAKE/MODEL']",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "glob pattern matched against make/model",
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

func (cmd *ModelCmd) makeAndModel(c *cli.Command) (string, string, error) {
	manufacturer, err := cmd.flags.ask(c.Args().Get(0), prompt.Field{Title: "Make"}, osd.CategoryManufacturer)
	if err != nil {
		return "", "", err
	}
	model, err := cmd.flags.ask(c.Args().Get(1), prompt.Field{Title: "Model"}, osd.CategoryModel)
	if err != nil {
		return "", "", err
	}
	return manufacturer, model, nil
}

func (cmd *ModelCmd) runGet(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.flags.Holder.Require("get make/model"); err != nil {
		return err
	}

	manufacturer, model, err := cmd.makeAndModel(c)
	if err != nil {
		return err
	}

	mm, err := cmd.flags.Service.GetMakeModel(ctx, manufacturer, model)
	if err != nil {
		return err
	}
	return cmd.print(c, mm)
}

func (cmd *ModelCmd) runNew(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.flags.Holder.Require("create make/model"); err != nil {
		return err
	}

	manufacturer, model, err := cmd.makeAndModel(c)
	if err != nil {
		return err
	}

	group, err := cmd.flags.ask(cmd.driverGroup, prompt.Field{Title: "Driver group", Optional: true}, osd.CategoryDriverGroup)
	if err != nil {
		return err
	}

	mm, err := cmd.flags.Service.CreateMakeModel(ctx, record.MakeModel{
		Make:        manufacturer,
		Model:       model,
		DriverGroup: group,
	})
	if err != nil {
		return err
	}

	if cmd.format != "json" {
		printer.Ctx(ctx).Successf("Created %s (ID %d)", mm.Key(), mm.ID)
	}
	return cmd.print(c, mm)
}

func (cmd *ModelCmd) print(c *cli.Command, mm record.MakeModel) error {
	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, mm)
	}
	return writeFields(out, [][2]string{
		{"ID", strconv.FormatInt(mm.ID, 10)},
		{"Make", mm.Make},
		{"Model", mm.Model},
		{"Driver group", mm.DriverGroup},
	})
}

func (cmd *ModelCmd) runList(ctx context.Context, c *cli.Command) error {
	list, err := cmd.flags.Service.ListMakeModels(ctx, cmd.match)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, list)
	}

	if len(list) == 0 {
		printer.Ctx(ctx).Infof("No make/model entries found")
		return nil
	}

	rows := make([][]any, 0, len(list))
	for _, mm := range list {
		rows = append(rows, []any{mm.ID, mm.Make, mm.Model, mm.DriverGroup})
	}
	return writeTable(out, "ID\tMAKE\tMODEL\tDRIVER GROUP", rows)
}
