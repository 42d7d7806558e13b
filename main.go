package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/commands"
	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/deploy"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/prompt"
	"github.com/cofl/osd/internal/store/jsonfile"
	"github.com/cofl/osd/internal/store/sqlstore"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	var (
		p     = printer.New(os.Stderr)
		ctx   = printer.NewContext(context.Background(), p)
		flags = &commands.Flags{}
	)

	flags.NewApp = func() *cli.Command { return newApp(flags) }
	app := flags.NewApp()

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr)
		printer.Ctx(ctx).FatalError(err)
		exitCode = 1
	}

	os.Exit(exitCode)
}

// newApp builds the command tree. The shell calls it once per input line;
// setup in Before only runs the first time.
func newApp(flags *commands.Flags) *cli.Command {
	app := &cli.Command{
		Name:      "osd",
		Usage:     "Manage an operating-system deployment share",
		UsageText: "osd [global options] command [command options]",
		Description: `osd connects to one deployment share at a time, looks up task sequences,
driver groups and make/model entries, and creates computer records.

Run 'osd connect --path <share> --default-ou <ou>' to check a share,
'osd shell' to keep a connection open across commands, and
'osd doc guide' for the full workflow.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("OSD_LOG_LEVEL"),
				Value:       valueOr(flags.LogLevel, "warn"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("OSD_LOG_FILE"),
				Value:       flags.LogFile,
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("OSD_CONFIG"),
				Value:       valueOr(flags.ConfigPath, commands.DefaultConfigPath()),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("OSD_DATA_DIR"),
				Value:       valueOr(flags.DataDir, commands.DefaultDataDir()),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if flags.Holder != nil {
				return ctx, nil
			}

			if err := setupLogger(flags.LogLevel, flags.LogFile); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			var (
				opener    = sqlstore.Opener{Database: cfg.Database}
				osdLogger = log.With().Str("component", "osd").Logger()
			)

			flags.Holder = osd.NewHolder(opener, osdLogger)
			flags.Service = deploy.New(flags.Holder, log.With().Str("component", "deploy").Logger())
			flags.Drives = jsonfile.New(cfg.DrivesFile())
			flags.Asker = prompt.Terminal()
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.Shell || flags.Holder == nil {
				return nil
			}

			// close failures are logged by the holder
			_ = flags.Holder.Disconnect(ctx)
			return nil
		},
	}

	app = commands.NewConnectCmd(flags).Register(app)
	app = commands.NewDisconnectCmd(flags).Register(app)
	app = commands.NewStatusCmd(flags).Register(app)
	app = commands.NewCacheCmd(flags).Register(app)
	app = commands.NewTaskSequenceCmd(flags).Register(app)
	app = commands.NewDriverGroupCmd(flags).Register(app)
	app = commands.NewModelCmd(flags).Register(app)
	app = commands.NewComputerCmd(flags).Register(app)
	app = commands.NewCompleteCmd(flags).Register(app)
	app = commands.NewDriveCmd(flags).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)
	app = commands.NewDocCmd(flags).Register(app)
	app = commands.NewShellCmd(flags).Register(app)

	return app
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func setupLogger(level string, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if logFile != "" {
		// Create log directory if it doesn't exist
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		output = io.MultiWriter(
			zerolog.ConsoleWriter{Out: os.Stderr},
			file,
		)
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}
