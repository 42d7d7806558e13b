package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/deploy"
	"github.com/cofl/osd/internal/printer"
	"github.com/cofl/osd/internal/share"
	"github.com/cofl/osd/internal/store/jsonfile"
	"github.com/cofl/osd/internal/store/sqlstore"
)

// sampleShare creates a share directory with a seeded local database.
func sampleShare(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	path, err := sqlstore.Init(ctx, root)
	require.NoError(t, err)

	b, err := sqlstore.Open(ctx, share.Descriptor{Driver: config.DriverSQLite, DSN: path})
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	require.NoError(t, b.SeedSample(ctx))

	return root
}

func newTestFlags(t *testing.T) *Flags {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"), dir)
	require.NoError(t, err)

	holder := osd.NewHolder(sqlstore.Opener{}, zerolog.New(io.Discard))
	t.Cleanup(func() { holder.Disconnect(context.Background()) })

	flags := &Flags{
		ConfigPath: cfg.Path(),
		DataDir:    dir,
		Config:     cfg,
		Holder:     holder,
		Service:    deploy.New(holder, zerolog.New(io.Discard)),
		Drives:     jsonfile.New(cfg.DrivesFile()),
	}
	flags.NewApp = func() *cli.Command { return newTestApp(flags) }
	return flags
}

func newTestApp(flags *Flags) *cli.Command {
	app := &cli.Command{Name: "osd"}

	app = NewConnectCmd(flags).Register(app)
	app = NewDisconnectCmd(flags).Register(app)
	app = NewStatusCmd(flags).Register(app)
	app = NewCacheCmd(flags).Register(app)
	app = NewTaskSequenceCmd(flags).Register(app)
	app = NewDriverGroupCmd(flags).Register(app)
	app = NewModelCmd(flags).Register(app)
	app = NewComputerCmd(flags).Register(app)
	app = NewCompleteCmd(flags).Register(app)
	app = NewDriveCmd(flags).Register(app)
	app = NewConfigCmd(flags).Register(app)
	app = NewInitCmd(flags).Register(app)
	app = NewDoctorCmd(flags).Register(app)
	app = NewDocCmd(flags).Register(app)
	app = NewShellCmd(flags).Register(app)

	return app
}

type output struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func run(t *testing.T, flags *Flags, args ...string) (*output, error) {
	t.Helper()
	out := &output{}

	app := newTestApp(flags)
	app.Writer = &out.stdout
	app.ErrWriter = &out.stderr
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	ctx := printer.NewContext(context.Background(), printer.New(&out.stderr))
	err := app.Run(ctx, append([]string{"osd"}, args...))
	return out, err
}

func connect(t *testing.T, flags *Flags, root string, extra ...string) {
	t.Helper()
	args := append([]string{"connect", "--path", root, "--default-ou", "OU=Test"}, extra...)
	_, err := run(t, flags, args...)
	require.NoError(t, err)
}

func TestConnectAndDisconnect(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	out, err := run(t, flags, "connect", "--path", root, "--default-ou", "OU=Test")
	require.NoError(t, err)
	assert.Contains(t, out.stderr.String(), "Connected to "+root)
	assert.Contains(t, out.stderr.String(), "3 task sequences")

	sess := flags.Holder.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "OU=Test", sess.Config().DefaultOU)
	assert.Equal(t, "MDT-Computer-{0}", sess.ComputerNameTemplate())

	_, err = run(t, flags, "connect", "--path", root, "--default-ou", "OU=Test")
	require.Error(t, err)
	assert.True(t, osd.IsKind(err, osd.KindAlreadyConnected))
	assert.Same(t, sess, flags.Holder.Current())

	_, err = run(t, flags, "connect", "--force", "--path", root, "--default-ou", "OU=Other")
	require.NoError(t, err)
	assert.Equal(t, "OU=Other", flags.Holder.Current().Config().DefaultOU)

	out, err = run(t, flags, "disconnect")
	require.NoError(t, err)
	assert.Contains(t, out.stderr.String(), "Disconnected from "+root)
	assert.False(t, flags.Holder.IsConnected())

	out, err = run(t, flags, "disconnect")
	require.NoError(t, err)
	assert.Contains(t, out.stderr.String(), "Not connected")
}

func TestConnect_ConfigurationErrors(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing default ou", args: []string{"connect", "--path", root}},
		{name: "two sources", args: []string{"connect", "--path", root, "--drive", "DS001", "--default-ou", "OU=X"}},
		{name: "no source and no config", args: []string{"connect", "--default-ou", "OU=X"}},
		{name: "unknown drive", args: []string{"connect", "--drive", "DS404", "--default-ou", "OU=X"}},
		{name: "bad template", args: []string{"connect", "--path", root, "--default-ou", "OU=X", "--computer-name-template", "{0}{1}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, flags, tt.args...)
			require.Error(t, err)
			assert.True(t, osd.IsKind(err, osd.KindConfiguration), "got %v", err)
			assert.False(t, flags.Holder.IsConnected())
		})
	}
}

func TestConnect_EmptyTemplate(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	connect(t, flags, root, "--computer-name-template", "")
	assert.Equal(t, "", flags.Holder.Current().ComputerNameTemplate())

	_, err := run(t, flags, "computer", "new", "--serial", "SN1")
	require.Error(t, err)

	out, err := run(t, flags, "computer", "new", "--serial", "SN1", "--name", "KIOSK-1")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "KIOSK-1")
}

func TestConnect_OpenFailureLeavesNoSession(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "connect", "--path", t.TempDir(), "--default-ou", "OU=X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "osd init")
	assert.False(t, flags.Holder.IsConnected())
}

func TestRecordCommands_RequireConnection(t *testing.T) {
	flags := newTestFlags(t)

	commands := [][]string{
		{"ts", "get", "WIN11-STD"},
		{"ts", "ls"},
		{"drivergroup", "ls"},
		{"model", "get", "Dell", "Latitude"},
		{"model", "ls"},
		{"computer", "get", "1"},
		{"computer", "find", "--serial", "SN1"},
		{"cache", "refresh"},
		{"cache", "show"},
		{"complete", "model"},
	}

	for _, args := range commands {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, flags, args...)
			require.Error(t, err)
			assert.True(t, osd.IsKind(err, osd.KindNotConnected), "got %v", err)
		})
	}
}

func TestTaskSequenceCommands(t *testing.T) {
	flags := newTestFlags(t)
	connect(t, flags, sampleShare(t))

	out, err := run(t, flags, "ts", "get", "WIN11-STD")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "Windows 11 Standard")

	_, err = run(t, flags, "ts", "get", "NOPE")
	require.Error(t, err)
	assert.True(t, osd.IsKind(err, osd.KindTaskSequenceNotFound))

	out, err = run(t, flags, "ts", "ls", "--group", "Workstations")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "WIN11-LAB")
	assert.NotContains(t, out.stdout.String(), "SRV2022")

	out, err = run(t, flags, "ts", "ls", "--match", "SRV*")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "SRV2022")
	assert.NotContains(t, out.stdout.String(), "WIN11-LAB")
}

func TestModelAndCompletion(t *testing.T) {
	flags := newTestFlags(t)
	connect(t, flags, sampleShare(t))

	_, err := run(t, flags, "model", "new", "--driver-group", "Dell Latitude 7440", "Dell Inc.", "Latitude 7440")
	require.NoError(t, err)

	out, err := run(t, flags, "model", "get", "--format", "json", "Dell Inc.", "Latitude 7440")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"driver_group": "Dell Latitude 7440"`)

	_, err = run(t, flags, "model", "get", "Dell Inc.", "Precision")
	assert.True(t, osd.IsKind(err, osd.KindMakeModelNotFound))

	out, err = run(t, flags, "complete", "model", "Lat")
	require.NoError(t, err)
	assert.Equal(t, "Latitude 7440\n", out.stdout.String())

	out, err = run(t, flags, "cache", "show", "manufacturer")
	require.NoError(t, err)
	assert.Equal(t, "Dell Inc.\n", out.stdout.String())

	_, err = run(t, flags, "complete", "colour")
	assert.Error(t, err)
}

func TestComputerCommands(t *testing.T) {
	flags := newTestFlags(t)
	connect(t, flags, sampleShare(t))

	out, err := run(t, flags, "computer", "new", "--format", "json", "--asset", "A1", "--mac", "00-11-22-33-44-55", "--ts", "WIN11-STD")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"name": "MDT-Computer-A1"`)
	assert.Contains(t, out.stdout.String(), `"ou": "OU=Test"`)

	out, err = run(t, flags, "computer", "find", "--mac", "00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "MDT-Computer-A1")

	_, err = run(t, flags, "computer", "get", "42")
	assert.True(t, osd.IsKind(err, osd.KindComputerNotFound))

	_, err = run(t, flags, "computer", "get", "abc")
	assert.Error(t, err)

	_, err = run(t, flags, "computer", "new", "--asset", "A2", "--ts", "NOPE")
	assert.True(t, osd.IsKind(err, osd.KindTaskSequenceNotFound))
}

func TestAutoConnect(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	require.NoError(t, flags.Config.Set("share_path", root))
	require.NoError(t, flags.Config.Set("default_ou", "OU=Auto"))
	require.NoError(t, flags.Config.Set("auto_connect", "true"))
	require.NoError(t, flags.Config.Save())

	out, err := run(t, flags, "ts", "ls")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "WIN11-STD")
	assert.Equal(t, "OU=Auto", flags.Holder.Current().Config().DefaultOU)
}

func TestConnect_UsesPersistedConfig(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	_, err := run(t, flags, "config", "set", "share_path="+root, "default_ou=OU=Saved")
	require.NoError(t, err)

	_, err = run(t, flags, "connect")
	require.NoError(t, err)
	assert.Equal(t, root, flags.Holder.Current().SharePath())
	assert.Equal(t, "OU=Saved", flags.Holder.Current().Config().DefaultOU)
}

func TestDriveCommands(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)

	_, err := run(t, flags, "drive", "add", "--description", "lab share", "DS001", root)
	require.NoError(t, err)

	out, err := run(t, flags, "drive", "ls")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "lab share")

	_, err = run(t, flags, "connect", "--drive", "ds001", "--default-ou", "OU=X")
	require.NoError(t, err)
	assert.Equal(t, root, flags.Holder.Current().SharePath())

	_, err = run(t, flags, "drive", "rm", "DS001")
	require.NoError(t, err)

	_, err = run(t, flags, "drive", "rm", "DS001")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "config", "set", "auto_connect=yes please")
	assert.Error(t, err)

	_, err = run(t, flags, "config", "set", "noequals")
	assert.Error(t, err)

	_, err = run(t, flags, "config", "set", "computer_name_template=LAB-{0}")
	require.NoError(t, err)
	assert.Equal(t, "LAB-{0}", flags.Config.ComputerNameTemplate)

	out, err := run(t, flags, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "LAB-{0}")

	out, err = run(t, flags, "config", "validate", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"valid": true`)
}

func TestInitCommand(t *testing.T) {
	flags := newTestFlags(t)
	root := filepath.Join(t.TempDir(), "share")

	_, err := run(t, flags, "init", "--sample", "--save", root)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, share.LocalDatabase))
	require.NoError(t, err)
	assert.Equal(t, root, flags.Config.SharePath)
	assert.True(t, flags.Config.Persisted())
}

func TestStatus(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "status", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"connected": false`)

	connect(t, flags, sampleShare(t))

	out, err = run(t, flags, "status", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"connected": true`)
	assert.Contains(t, out.stdout.String(), `"task-sequence": 3`)

	out, err = run(t, flags, "status")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "connected")
}

func TestDoctor(t *testing.T) {
	flags := newTestFlags(t)
	flags.Config.SharePath = sampleShare(t)

	out, err := run(t, flags, "doctor", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"healthy": true`)
	assert.Contains(t, out.stdout.String(), `"detail": "3 found"`)
	assert.False(t, flags.Holder.IsConnected())

	flags.Config.SharePath = filepath.Join(t.TempDir(), "missing")
	out, err = run(t, flags, "doctor", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), `"healthy": false`)
}

func TestDocRaw(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "doc", "guide", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out.stdout.String(), "osd connect")
}

func TestShell(t *testing.T) {
	flags := newTestFlags(t)
	root := sampleShare(t)
	shell := NewShellCmd(flags)
	flags.Shell = true

	var stderr bytes.Buffer
	ctx := printer.NewContext(context.Background(), printer.New(&stderr))

	input := strings.Join([]string{
		"# comment",
		"",
		"osd connect --path '" + root + "' --default-ou OU=Shell",
		"ts get NOPE",
		"cache refresh",
		"exit",
		"disconnect",
	}, "\n")

	err := shell.loop(ctx, strings.NewReader(input), nil)
	require.NoError(t, err)

	// the session outlives each line and exit stops before disconnect
	require.True(t, flags.Holder.IsConnected())
	assert.Equal(t, "OU=Shell", flags.Holder.Current().Config().DefaultOU)
	assert.Contains(t, stderr.String(), "Not Found")
	assert.Contains(t, stderr.String(), "Cache refreshed (version 2)")
}

func TestShell_ParseError(t *testing.T) {
	flags := newTestFlags(t)
	shell := NewShellCmd(flags)

	err := shell.exec(context.Background(), `connect --path "unterminated`)
	assert.Error(t, err)
}

func TestShell_Nested(t *testing.T) {
	flags := newTestFlags(t)
	flags.Shell = true

	_, err := run(t, flags, "shell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}
