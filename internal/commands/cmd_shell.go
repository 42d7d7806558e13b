package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/prompt"
	"github.com/cofl/osd/internal/styles"
)

var errExitShell = errors.New("exit shell")

type ShellCmd struct {
	flags *Flags
}

// NewShellCmd creates a new shell command
func NewShellCmd(flags *Flags) *ShellCmd {
	return &ShellCmd{flags: flags}
}

// Register adds the shell command to the application
func (cmd *ShellCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "shell",
		Usage:     "Run osd commands in one long-lived session",
		UsageText: "osd shell",
		Description: `Reads osd commands line by line and runs them in this process, so a
connection made with 'connect' stays open for the following commands.

Connects to the configured share on start when auto_connect is enabled, and
refreshes the lookup cache every cache.refresh_interval when it is set.
Type 'exit' or press Ctrl-D to disconnect and leave.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ShellCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Shell {
		return fmt.Errorf("already running in a shell")
	}
	if cmd.flags.NewApp == nil {
		return fmt.Errorf("shell is not available")
	}

	cmd.flags.Shell = true
	defer func() { cmd.flags.Shell = false }()

	p := printer.Ctx(ctx)
	interactive := prompt.Interactive()
	if interactive {
		_, _ = fmt.Fprintln(os.Stderr, styles.BannerStyle.Render(styles.Banner))
		_, _ = fmt.Fprintln(os.Stderr)
	}

	if err := cmd.flags.ensureConnected(ctx); err != nil {
		p.FatalError(err)
	} else if sess := cmd.flags.Holder.Current(); sess != nil {
		p.Successf("Connected to %s", sess.SharePath())
	}

	refreshCtx, stop := context.WithCancel(ctx)
	defer stop()
	if interval := cmd.flags.Config.Cache.RefreshInterval; interval > 0 {
		go cmd.flags.Holder.RefreshEvery(refreshCtx, interval)
	}

	var promptOut io.Writer
	if interactive {
		promptOut = os.Stderr
	}
	err := cmd.loop(ctx, c.Root().Reader, promptOut)

	stop()
	res := cmd.flags.Holder.Disconnect(ctx)
	switch {
	case res.CloseErr != nil:
		p.Warnf("Disconnected from %s, but releasing the connection failed: %v", res.SharePath, res.CloseErr)
	case res.WasConnected:
		p.Infof("Disconnected from %s", res.SharePath)
	}

	return err
}

// loop runs each line of in as an osd command until EOF or "exit". Command
// failures are printed and do not end the loop. The prompt is written to
// promptOut when it is not nil.
func (cmd *ShellCmd) loop(ctx context.Context, in io.Reader, promptOut io.Writer) error {
	p := printer.Ctx(ctx)
	scanner := bufio.NewScanner(in)

	for {
		if promptOut != nil {
			_, _ = fmt.Fprint(promptOut, "osd> ")
		}
		if !scanner.Scan() {
			break
		}

		err := cmd.exec(ctx, scanner.Text())
		var exitErr cli.ExitCoder
		switch {
		case errors.Is(err, errExitShell):
			return nil
		case errors.As(err, &exitErr) && exitErr.Error() == "":
		case err != nil:
			p.FatalError(err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if promptOut != nil {
		_, _ = fmt.Fprintln(promptOut)
	}
	return nil
}

func (cmd *ShellCmd) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if len(args) > 0 && args[0] == "osd" {
		args = args[1:]
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "exit", "quit":
		return errExitShell
	case "help":
		args = []string{"--help"}
	}

	app := cmd.flags.NewApp()
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return app.Run(ctx, append([]string{app.Name}, args...))
}
