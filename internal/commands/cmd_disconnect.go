package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/printer"
)

type DisconnectCmd struct {
	flags *Flags
}

// NewDisconnectCmd creates a new disconnect command
func NewDisconnectCmd(flags *Flags) *DisconnectCmd {
	return &DisconnectCmd{flags: flags}
}

// Register adds the disconnect command to the application
func (cmd *DisconnectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "disconnect",
		Usage:       "Disconnect from the current share",
		UsageText:   "osd disconnect",
		Description: "Releases the share connection and clears the lookup cache. Does nothing when not connected.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *DisconnectCmd) run(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	res := cmd.flags.Holder.Disconnect(ctx)
	switch {
	case !res.WasConnected:
		p.Infof("Not connected")
	case res.CloseErr != nil:
		p.Warnf("Disconnected from %s, but releasing the connection failed: %v", res.SharePath, res.CloseErr)
	default:
		p.Successf("Disconnected from %s", res.SharePath)
	}

	return nil
}
