package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type DocCmd struct {
	flags *Flags
	raw   bool
}

// NewDocCmd creates a new doc command
func NewDocCmd(flags *Flags) *DocCmd {
	return &DocCmd{flags: flags}
}

// Register adds the doc command to the application
func (cmd *DocCmd) Register(app *cli.Command) *cli.Command {
	rawFlag := &cli.BoolFlag{
		Name:        "raw",
		Usage:       "print markdown without rendering",
		Destination: &cmd.raw,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doc",
		Usage: "Usage guides",
		Description: `Prints usage guides for osd.

Use 'osd doc guide' for the connect/lookup/disconnect workflow.
Use 'osd doc errors' for what each error means and how to fix it.`,
		Commands: []*cli.Command{
			{
				Name:   "guide",
				Usage:  "Show the workflow guide",
				Flags:  []cli.Flag{rawFlag},
				Action: cmd.show(guideDoc),
			},
			{
				Name:   "errors",
				Usage:  "Show the error reference",
				Flags:  []cli.Flag{rawFlag},
				Action: cmd.show(errorsDoc),
			},
		},
	})
	return app
}

func (cmd *DocCmd) show(markdown string) cli.ActionFunc {
	return func(_ context.Context, c *cli.Command) error {
		return renderMarkdown(c.Root().Writer, markdown, cmd.raw)
	}
}

// renderMarkdown writes markdown styled for the terminal, or as is when raw
// is set or stdout is not a terminal.
func renderMarkdown(w io.Writer, markdown string, raw bool) error {
	fd := int(os.Stdout.Fd())
	if raw || !term.IsTerminal(fd) {
		_, err := fmt.Fprintln(w, markdown)
		return err
	}

	width := 100
	if cols, _, err := term.GetSize(fd); err == nil && cols > 0 && cols < width {
		width = cols
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}

const guideDoc = `# osd workflow

osd keeps **one** connection to a deployment share per process. Every
lookup and create command needs that connection.

## One-shot commands

Each ` + "`osd`" + ` invocation is its own process, so a connection made by
` + "`osd connect`" + ` ends when that command exits. Set ` + "`auto_connect`" + `
to connect with the configured share before each record command:

` + "```bash" + `
osd config set share_path='\\img-svr-01\MDT_Share$' default_ou='OU=Setup,DC=corp,DC=contoso,DC=com'
osd config set auto_connect=true
osd ts ls
` + "```" + `

## Interactive shell

` + "`osd shell`" + ` keeps the connection open across commands and refreshes
the lookup cache in the background when ` + "`cache.refresh_interval`" + ` is set:

` + "```text" + `
osd> connect --drive DS001 --default-ou OU=Setup,DC=corp,DC=contoso,DC=com
osd> ts get WIN11-STD
osd> computer new --asset A1234 --mac 00:11:22:33:44:55 --ts WIN11-STD
osd> disconnect
osd> exit
` + "```" + `

## Choosing the share

| Flag | Source |
|------|--------|
| ` + "`--path PATH`" + ` | the given path |
| ` + "`--drive NAME`" + ` | a registered alias (` + "`osd drive add`" + `) |
| ` + "`--use-configured-path`" + ` | ` + "`share_path`" + ` from the config file |
| none | ` + "`share_path`" + ` from the config file, when one exists |

Only one of the three flags may be given. ` + "`--default-ou`" + ` is required
unless the config file sets ` + "`default_ou`" + `.

## Computer names

New computers are named from the connection's template, e.g.
` + "`MDT-Computer-{0}`" + `. The slot is filled with the asset tag, the serial
number or a random suffix. Connect with ` + "`--computer-name-template \"\"`" + `
to require explicit ` + "`--name`" + ` values instead.

## Completion

` + "`osd complete <category> [prefix]`" + ` prints cached names ranked against
the prefix. Categories: ` + "`task-sequence`, `task-sequence-group`, `driver-group`, `manufacturer`, `model`" + `.
`

const errorsDoc = `# osd errors

| Error | Meaning | Fix |
|-------|---------|-----|
| already connected | a session exists | ` + "`osd disconnect`" + ` first, or ` + "`connect --force`" + ` |
| not connected | the command needs a session | ` + "`osd connect`" + `, or enable ` + "`auto_connect`" + ` |
| invalid configuration | flags and config file do not produce a usable configuration | read the listed fields |
| refresh lookup cache | a lookup query failed while connecting or refreshing | check the share database; a failed connect is rolled back |
| task sequence / model / computer not found | no record with that ID in the connected share | list with ` + "`ts ls`" + ` or ` + "`model ls`" + ` |

A failure while releasing a connection on ` + "`disconnect`" + ` is reported as a
warning. The session is discarded either way.
`
