// Package sqlstore implements the share backend on database/sql. SQL Server
// shares use go-mssqldb; local and test shares use SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/core/record"
	"github.com/cofl/osd/internal/share"
)

// Backend is an open connection to a share's database.
type Backend struct {
	db   *sql.DB
	desc share.Descriptor
}

var (
	_ osd.Conn     = (*Backend)(nil)
	_ record.Store = (*Backend)(nil)
)

// Open connects to the database described by desc and verifies it answers.
func Open(ctx context.Context, desc share.Descriptor) (*Backend, error) {
	dsn := desc.DSN

	switch desc.Driver {
	case config.DriverSQLite:
		var path string
		path, dsn = sqliteDSN(dsn)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open database %s: %w (run 'osd init' to create it)", path, err)
		}
	case config.DriverSQLServer:
	default:
		return nil, fmt.Errorf("unsupported driver %q", desc.Driver)
	}

	db, err := sql.Open(desc.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Backend{db: db, desc: desc}, nil
}

const busyTimeout = "_pragma=busy_timeout(5000)"

// sqliteDSN splits the database file out of a SQLite DSN and appends the busy
// timeout to its query parameters.
func sqliteDSN(dsn string) (path, withTimeout string) {
	path, _, hasQuery := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if hasQuery {
		return path, dsn + "&" + busyTimeout
	}
	return path, dsn + "?" + busyTimeout
}

// ConnectionString returns the backend DSN with credentials redacted.
func (b *Backend) ConnectionString() string {
	return share.Redact(b.desc.DSN)
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// bind rewrites ? placeholders to the driver's form.
func (b *Backend) bind(query string) string {
	if b.desc.Driver != config.DriverSQLServer {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("@p")
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// insertReturningID runs an INSERT of values into table and returns the new
// row's ID column.
func (b *Backend) insertReturningID(ctx context.Context, table string, columns []string, args ...any) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	cols := strings.Join(columns, ", ")

	var query string
	if b.desc.Driver == config.DriverSQLServer {
		query = fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.ID VALUES (%s)", table, cols, placeholders)
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING ID", table, cols, placeholders)
	}

	var id int64
	if err := b.db.QueryRowContext(ctx, b.bind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *Backend) queryColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, b.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TaskSequenceIDs lists task sequence IDs.
func (b *Backend) TaskSequenceIDs(ctx context.Context) ([]string, error) {
	return b.queryColumn(ctx, "SELECT ID FROM TaskSequences ORDER BY ID")
}

// TaskSequenceGroups lists task sequence group names.
func (b *Backend) TaskSequenceGroups(ctx context.Context) ([]string, error) {
	return b.queryColumn(ctx, "SELECT Name FROM TaskSequenceGroups ORDER BY Name")
}

// DriverGroups lists driver group names.
func (b *Backend) DriverGroups(ctx context.Context) ([]string, error) {
	return b.queryColumn(ctx, "SELECT Name FROM DriverGroups ORDER BY Name")
}

// Manufacturers lists the distinct makes of the make/model table.
func (b *Backend) Manufacturers(ctx context.Context) ([]string, error) {
	return b.queryColumn(ctx, "SELECT DISTINCT Make FROM MakeModelIdentity ORDER BY Make")
}

// Models lists the distinct models of the make/model table.
func (b *Backend) Models(ctx context.Context) ([]string, error) {
	return b.queryColumn(ctx, "SELECT DISTINCT Model FROM MakeModelIdentity ORDER BY Model")
}

const taskSequenceColumns = "ID, Name, GroupName, Version, Enabled"

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskSequence(s scanner) (record.TaskSequence, error) {
	var ts record.TaskSequence
	err := s.Scan(&ts.ID, &ts.Name, &ts.Group, &ts.Version, &ts.Enabled)
	return ts, err
}

// TaskSequence returns a task sequence by ID.
func (b *Backend) TaskSequence(ctx context.Context, id string) (record.TaskSequence, error) {
	row := b.db.QueryRowContext(ctx, b.bind("SELECT "+taskSequenceColumns+" FROM TaskSequences WHERE ID = ?"), id)

	ts, err := scanTaskSequence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ts, record.ErrNotFound
	}
	if err != nil {
		return ts, fmt.Errorf("query task sequence: %w", err)
	}
	return ts, nil
}

// TaskSequences lists task sequences, limited to group when it is set.
func (b *Backend) TaskSequences(ctx context.Context, group string) ([]record.TaskSequence, error) {
	query := "SELECT " + taskSequenceColumns + " FROM TaskSequences"
	var args []any
	if group != "" {
		query += " WHERE GroupName = ?"
		args = append(args, group)
	}
	query += " ORDER BY ID"

	rows, err := b.db.QueryContext(ctx, b.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query task sequences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []record.TaskSequence
	for rows.Next() {
		ts, err := scanTaskSequence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task sequence: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

const makeModelColumns = "ID, Make, Model, DriverGroup"

func scanMakeModel(s scanner) (record.MakeModel, error) {
	var mm record.MakeModel
	err := s.Scan(&mm.ID, &mm.Make, &mm.Model, &mm.DriverGroup)
	return mm, err
}

// MakeModel returns a make/model entry.
func (b *Backend) MakeModel(ctx context.Context, manufacturer, model string) (record.MakeModel, error) {
	row := b.db.QueryRowContext(ctx,
		b.bind("SELECT "+makeModelColumns+" FROM MakeModelIdentity WHERE Make = ? AND Model = ?"),
		manufacturer, model)

	mm, err := scanMakeModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mm, record.ErrNotFound
	}
	if err != nil {
		return mm, fmt.Errorf("query make/model: %w", err)
	}
	return mm, nil
}

// MakeModels lists all make/model entries.
func (b *Backend) MakeModels(ctx context.Context) ([]record.MakeModel, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+makeModelColumns+" FROM MakeModelIdentity ORDER BY Make, Model")
	if err != nil {
		return nil, fmt.Errorf("query make/models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []record.MakeModel
	for rows.Next() {
		mm, err := scanMakeModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan make/model: %w", err)
		}
		out = append(out, mm)
	}
	return out, rows.Err()
}

// CreateMakeModel inserts a make/model entry.
func (b *Backend) CreateMakeModel(ctx context.Context, mm record.MakeModel) (record.MakeModel, error) {
	id, err := b.insertReturningID(ctx, "MakeModelIdentity",
		[]string{"Make", "Model", "DriverGroup"},
		mm.Make, mm.Model, mm.DriverGroup)
	if err != nil {
		return mm, fmt.Errorf("insert make/model: %w", err)
	}
	mm.ID = id
	return mm, nil
}

const computerColumns = "ID, Description, AssetTag, SerialNumber, MacAddress, UUID, TaskSequenceID, MachineObjectOU"

func scanComputer(s scanner) (record.Computer, error) {
	var c record.Computer
	err := s.Scan(&c.ID, &c.Name, &c.AssetTag, &c.SerialNumber, &c.MACAddress, &c.UUID, &c.TaskSequenceID, &c.OU)
	return c, err
}

// Computer returns a computer by ID.
func (b *Backend) Computer(ctx context.Context, id int64) (record.Computer, error) {
	row := b.db.QueryRowContext(ctx, b.bind("SELECT "+computerColumns+" FROM ComputerIdentity WHERE ID = ?"), id)

	c, err := scanComputer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, record.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("query computer: %w", err)
	}
	return c, nil
}

// FindComputer returns the lowest-ID computer matching any set identifier
// of q.
func (b *Backend) FindComputer(ctx context.Context, q record.ComputerQuery) (record.Computer, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value != "" {
			conds = append(conds, column+" = ?")
			args = append(args, value)
		}
	}
	add("SerialNumber", q.SerialNumber)
	add("MacAddress", q.MACAddress)
	add("AssetTag", q.AssetTag)
	add("UUID", q.UUID)

	if len(conds) == 0 {
		return record.Computer{}, record.ErrNotFound
	}

	query := "SELECT " + computerColumns + " FROM ComputerIdentity WHERE " + strings.Join(conds, " OR ") + " ORDER BY ID"
	rows, err := b.db.QueryContext(ctx, b.bind(query), args...)
	if err != nil {
		return record.Computer{}, fmt.Errorf("query computer: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return record.Computer{}, fmt.Errorf("query computer: %w", err)
		}
		return record.Computer{}, record.ErrNotFound
	}

	c, err := scanComputer(rows)
	if err != nil {
		return c, fmt.Errorf("scan computer: %w", err)
	}
	return c, nil
}

// CreateComputer inserts a computer identity.
func (b *Backend) CreateComputer(ctx context.Context, c record.Computer) (record.Computer, error) {
	id, err := b.insertReturningID(ctx, "ComputerIdentity",
		[]string{"Description", "AssetTag", "SerialNumber", "MacAddress", "UUID", "TaskSequenceID", "MachineObjectOU"},
		c.Name, c.AssetTag, c.SerialNumber, c.MACAddress, c.UUID, c.TaskSequenceID, c.OU)
	if err != nil {
		return c, fmt.Errorf("insert computer: %w", err)
	}
	c.ID = id
	return c, nil
}
