package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/core/record"
	"github.com/cofl/osd/internal/deploy"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/prompt"
)

type ComputerCmd struct {
	flags  *Flags
	format string

	name   string
	serial string
	mac    string
	asset  string
	uuid   string
	ts     string
	ou     string
}

// NewComputerCmd creates a new computer command
func NewComputerCmd(flags *Flags) *ComputerCmd {
	return &ComputerCmd{flags: flags}
}

func (cmd *ComputerCmd) identityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "serial", Usage: "serial number", Destination: &cmd.serial},
		&cli.StringFlag{Name: "mac", Usage: "MAC address", Destination: &cmd.mac},
		&cli.StringFlag{Name: "asset", Usage: "asset tag", Destination: &cmd.asset},
		&cli.StringFlag{Name: "uuid", Usage: "SMBIOS UUID", Destination: &cmd.uuid},
	}
}

// Register adds the computer command to the application
func (cmd *ComputerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "computer",
		Usage: "Look up and create computer records",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a computer record by ID",
				UsageText: "osd computer get <id>",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{formatFlag(&cmd.format)},
				Action:    cmd.flags.connected(cmd.runGet),
			},
			{
				Name:        "find",
				Usage:       "Find a computer record by hardware identifier",
				UsageText:   "osd computer find [--serial S] [--mac M] [--asset A] [--uuid U]",
				Description: "Returns the first record matching any of the given identifiers.",
				Flags:       append(cmd.identityFlags(), formatFlag(&cmd.format)),
				Action:      cmd.flags.connected(cmd.runFind),
			},
			{
				Name:      "new",
				Usage:     "Add a computer record",
				UsageText: "osd computer new [--serial S] [--mac M] [--asset A] [--uuid U] [--name N] [--ts ID] [--ou OU]",
				Description: `Creates a computer identity. At least one hardware identifier is required.

Without --name the session's computer name template is filled with the asset
tag, the serial number or a random suffix, in that order. A session connected
without a template requires --name. Without --ou the session's default OU is
used.`,
				Flags: append(cmd.identityFlags(),
					&cli.StringFlag{Name: "name", Usage: "computer name", Destination: &cmd.name},
					&cli.StringFlag{Name: "ts", Usage: "task sequence ID", Destination: &cmd.ts},
					&cli.StringFlag{Name: "ou", Usage: "organizational unit", Destination: &cmd.ou},
					formatFlag(&cmd.format),
				),
				Action: cmd.flags.connected(cmd.runNew),
			},
		},
	})

	return app
}

func (cmd *ComputerCmd) runGet(ctx context.Context, c *cli.Command) error {
	arg := c.Args().First()
	if arg == "" {
		return fmt.Errorf("computer ID is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid computer ID %q: %w", arg, err)
	}

	comp, err := cmd.flags.Service.GetComputer(ctx, id)
	if err != nil {
		return err
	}
	return cmd.print(c, comp)
}

func (cmd *ComputerCmd) runFind(ctx context.Context, c *cli.Command) error {
	comp, err := cmd.flags.Service.FindComputer(ctx, record.ComputerQuery{
		SerialNumber: cmd.serial,
		MACAddress:   cmd.mac,
		AssetTag:     cmd.asset,
		UUID:         cmd.uuid,
	})
	if err != nil {
		return err
	}
	return cmd.print(c, comp)
}

func (cmd *ComputerCmd) runNew(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.flags.Holder.Require("create computer")
	if err != nil {
		return err
	}

	name := cmd.name
	if name == "" && sess.ComputerNameTemplate() == "" {
		name, err = cmd.flags.ask("", prompt.Field{Title: "Computer name"}, "")
		if err != nil {
			return err
		}
	}

	ts, err := cmd.flags.ask(cmd.ts, prompt.Field{Title: "Task sequence ID", Optional: true}, osd.CategoryTaskSequence)
	if err != nil {
		return err
	}

	comp, err := cmd.flags.Service.CreateComputer(ctx, deploy.NewComputer{
		Name:           name,
		AssetTag:       cmd.asset,
		SerialNumber:   cmd.serial,
		MACAddress:     cmd.mac,
		UUID:           cmd.uuid,
		TaskSequenceID: ts,
		OU:             cmd.ou,
	})
	if err != nil {
		return err
	}

	if cmd.format != "json" {
		printer.Ctx(ctx).Successf("Created computer %s (ID %d)", comp.Name, comp.ID)
	}
	return cmd.print(c, comp)
}

func (cmd *ComputerCmd) print(c *cli.Command, comp record.Computer) error {
	out := c.Root().Writer
	if cmd.format == "json" {
		return writeJSON(out, comp)
	}
	return writeFields(out, [][2]string{
		{"ID", strconv.FormatInt(comp.ID, 10)},
		{"Name", comp.Name},
		{"Asset tag", comp.AssetTag},
		{"Serial number", comp.SerialNumber},
		{"MAC address", comp.MACAddress},
		{"UUID", comp.UUID},
		{"Task sequence", comp.TaskSequenceID},
		{"OU", comp.OU},
	})
}
