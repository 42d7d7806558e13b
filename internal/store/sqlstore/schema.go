package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/share"
)

const schema = `
CREATE TABLE IF NOT EXISTS TaskSequences (
	ID TEXT PRIMARY KEY,
	Name TEXT NOT NULL DEFAULT '',
	GroupName TEXT NOT NULL DEFAULT '',
	Version TEXT NOT NULL DEFAULT '',
	Enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS TaskSequenceGroups (
	Name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS DriverGroups (
	Name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS MakeModelIdentity (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	Make TEXT NOT NULL,
	Model TEXT NOT NULL,
	DriverGroup TEXT NOT NULL DEFAULT '',
	UNIQUE (Make, Model)
);

CREATE TABLE IF NOT EXISTS ComputerIdentity (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	Description TEXT NOT NULL DEFAULT '',
	AssetTag TEXT NOT NULL DEFAULT '',
	SerialNumber TEXT NOT NULL DEFAULT '',
	MacAddress TEXT NOT NULL DEFAULT '',
	UUID TEXT NOT NULL DEFAULT '',
	TaskSequenceID TEXT NOT NULL DEFAULT '',
	MachineObjectOU TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_computer_serial ON ComputerIdentity(SerialNumber);
CREATE INDEX IF NOT EXISTS idx_computer_mac ON ComputerIdentity(MacAddress);
`

// Init creates a SQLite database with the share schema at the root of a
// share and returns its path. An existing database is left as is apart from
// missing tables.
func Init(ctx context.Context, root string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create share directory: %w", err)
	}

	path := filepath.Join(root, share.LocalDatabase)
	db, err := sql.Open(config.DriverSQLite, path)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return "", fmt.Errorf("initialize schema: %w", err)
	}
	return path, nil
}

// Sample rows loaded by SeedSample.
var (
	sampleGroups       = []string{"Servers", "Workstations"}
	sampleDriverGroups = []string{"Dell Latitude 7440", "HP EliteBook 840 G10", "Lenovo ThinkPad T14"}
	sampleSequences    = []struct{ ID, Name, Group, Version string }{
		{"SRV2022", "Windows Server 2022", "Servers", "1.0"},
		{"WIN11-STD", "Windows 11 Standard", "Workstations", "23H2"},
		{"WIN11-LAB", "Windows 11 Lab", "Workstations", "23H2"},
	}
)

// SeedSample loads a small set of groups, driver groups and task sequences
// into an empty database.
func (b *Backend) SeedSample(ctx context.Context) error {
	var n int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM TaskSequences").Scan(&n); err != nil {
		return fmt.Errorf("count task sequences: %w", err)
	}
	if n > 0 {
		return errors.New("database already has task sequences")
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range sampleGroups {
		if _, err := tx.ExecContext(ctx, b.bind("INSERT INTO TaskSequenceGroups (Name) VALUES (?)"), g); err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
	}
	for _, g := range sampleDriverGroups {
		if _, err := tx.ExecContext(ctx, b.bind("INSERT INTO DriverGroups (Name) VALUES (?)"), g); err != nil {
			return fmt.Errorf("insert driver group: %w", err)
		}
	}
	for _, ts := range sampleSequences {
		_, err := tx.ExecContext(ctx,
			b.bind("INSERT INTO TaskSequences (ID, Name, GroupName, Version, Enabled) VALUES (?, ?, ?, ?, ?)"),
			ts.ID, ts.Name, ts.Group, ts.Version, true)
		if err != nil {
			return fmt.Errorf("insert task sequence: %w", err)
		}
	}

	return tx.Commit()
}
