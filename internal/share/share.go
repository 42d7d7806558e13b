// Package share locates the database behind a deployment share.
package share

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cofl/osd/internal/core/config"
)

// LocalDatabase is the file name of a SQLite database at the share root.
const LocalDatabase = "osd.db"

// settingsFile is the share's database settings, relative to the share root.
var settingsFile = filepath.Join("Control", "Settings.xml")

// Descriptor identifies a backend database.
type Descriptor struct {
	Driver string
	DSN    string
}

// String returns the descriptor with credentials removed.
func (d Descriptor) String() string {
	return d.Driver + ": " + Redact(d.DSN)
}

type settings struct {
	XMLName  xml.Name `xml:"Settings"`
	Server   string   `xml:"Database.SQLServer"`
	Instance string   `xml:"Database.Instance"`
	Port     string   `xml:"Database.Port"`
	Name     string   `xml:"Database.Name"`
}

// Discover returns the database descriptor for the share at root. An
// explicit database configuration wins; otherwise the share's
// Control/Settings.xml names a SQL Server database, and a share without one
// falls back to a local osd.db.
func Discover(root string, db config.Database) (Descriptor, error) {
	if db.Driver != "" {
		dsn := db.DSN
		if dsn == "" && db.Driver == config.DriverSQLite {
			dsn = filepath.Join(root, LocalDatabase)
		}
		if dsn == "" {
			return Descriptor{}, fmt.Errorf("database.dsn is required for driver %s", db.Driver)
		}
		return Descriptor{Driver: db.Driver, DSN: dsn}, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return Descriptor{}, fmt.Errorf("open share %s: %w", root, err)
	}
	if !info.IsDir() {
		return Descriptor{}, fmt.Errorf("open share %s: not a directory", root)
	}

	data, err := os.ReadFile(filepath.Join(root, settingsFile))
	switch {
	case err == nil:
		s, err := parseSettings(data)
		if err != nil {
			return Descriptor{}, err
		}
		if s.Server != "" && s.Name != "" {
			return Descriptor{Driver: config.DriverSQLServer, DSN: s.dsn()}, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return Descriptor{}, fmt.Errorf("read share settings: %w", err)
	}

	local := filepath.Join(root, LocalDatabase)
	if _, err := os.Stat(local); err == nil {
		return Descriptor{Driver: config.DriverSQLite, DSN: local}, nil
	}

	return Descriptor{}, fmt.Errorf("share %s has no database configured; run 'osd init' or set database.driver", root)
}

func parseSettings(data []byte) (settings, error) {
	var s settings
	if err := xml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse share settings: %w", err)
	}
	s.Server = strings.TrimSpace(s.Server)
	s.Instance = strings.TrimSpace(s.Instance)
	s.Port = strings.TrimSpace(s.Port)
	s.Name = strings.TrimSpace(s.Name)
	return s, nil
}

func (s settings) dsn() string {
	host := s.Server
	if s.Port != "" {
		host = net.JoinHostPort(s.Server, s.Port)
	}

	u := url.URL{
		Scheme:   "sqlserver",
		Host:     host,
		RawQuery: url.Values{"database": {s.Name}}.Encode(),
	}
	if s.Instance != "" {
		u.Path = "/" + s.Instance
	}
	return u.String()
}

// Redact hides the password of a URL-form DSN. Other DSNs are returned
// unchanged.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
