package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/styles"
)

type StatusCmd struct {
	flags  *Flags
	format string
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags) *StatusCmd {
	return &StatusCmd{flags: flags}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "status",
		Usage:       "Show the current connection",
		UsageText:   "osd status [options]",
		Description: "Shows whether a share is connected, its effective configuration and the lookup cache state.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.flags.connected(cmd.run),
	})

	return app
}

type statusJSON struct {
	Connected            bool           `json:"connected"`
	SharePath            string         `json:"share_path,omitempty"`
	ConnectionString     string         `json:"connection_string,omitempty"`
	DefaultOU            string         `json:"default_ou,omitempty"`
	ComputerNameTemplate string         `json:"computer_name_template,omitempty"`
	ConnectedAt          *time.Time     `json:"connected_at,omitempty"`
	Cache                map[string]int `json:"cache,omitempty"`
	CacheVersion         uint64         `json:"cache_version,omitempty"`
	CacheRefreshedAt     *time.Time     `json:"cache_refreshed_at,omitempty"`
}

func (cmd *StatusCmd) run(_ context.Context, c *cli.Command) error {
	sess := cmd.flags.Holder.Current()

	if cmd.format == "json" {
		out := statusJSON{Connected: sess != nil}
		if sess != nil {
			openedAt := sess.OpenedAt()
			snap := sess.Cache().Snapshot()
			refreshedAt := snap.RefreshedAt

			out.SharePath = sess.SharePath()
			out.ConnectionString = sess.ConnectionString()
			out.DefaultOU = sess.Config().DefaultOU
			out.ComputerNameTemplate = sess.ComputerNameTemplate()
			out.ConnectedAt = &openedAt
			out.CacheVersion = snap.Version
			out.CacheRefreshedAt = &refreshedAt
			out.Cache = make(map[string]int, len(osd.Categories))
			for _, cat := range osd.Categories {
				out.Cache[string(cat)] = len(snap.Values(cat))
			}
		}

		return writeJSON(c.Root().Writer, out)
	}

	_, err := fmt.Fprintln(c.Root().Writer, renderStatus(sess))
	return err
}

func renderStatus(sess *osd.Session) string {
	if sess == nil {
		return styles.BoxStyle.Render(
			styles.DisconnectedStyle.Render("● not connected") + "\n" +
				styles.LabelStyle.Render("hint") + styles.ValueStyle.Render("osd connect --path <share>"),
		)
	}

	snap := sess.Cache().Snapshot()
	tmpl := sess.ComputerNameTemplate()
	if tmpl == "" {
		tmpl = "(none)"
	}

	rows := [][2]string{
		{"share", sess.SharePath()},
		{"database", sess.ConnectionString()},
		{"default OU", sess.Config().DefaultOU},
		{"name template", tmpl},
		{"connected", sess.OpenedAt().Format(time.RFC3339)},
		{"cache refreshed", snap.RefreshedAt.Format(time.RFC3339)},
	}
	for _, cat := range osd.Categories {
		rows = append(rows, [2]string{string(cat) + "s", fmt.Sprint(len(snap.Values(cat)))})
	}

	var b strings.Builder
	b.WriteString(styles.ConnectedStyle.Render("● connected"))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(styles.LabelStyle.Render(r[0]))
		b.WriteString(styles.ValueStyle.Render(r[1]))
	}

	return styles.BoxStyle.Render(b.String())
}
