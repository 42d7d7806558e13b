// Package record defines the deployment records stored on a share and the
// store interface used to read and create them.
package record

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// TaskSequence is a deployment workflow definition.
type TaskSequence struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Group   string `json:"group,omitempty"`
	Version string `json:"version,omitempty"`
	Enabled bool   `json:"enabled"`
}

// MakeModel is a hardware make/model entry and the driver group it
// deploys.
type MakeModel struct {
	ID          int64  `json:"id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	DriverGroup string `json:"driver_group,omitempty"`
}

// Key returns the make/model pair as one identifier.
func (m MakeModel) Key() string {
	return m.Make + "/" + m.Model
}

// Computer is a computer identity record.
type Computer struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AssetTag       string `json:"asset_tag,omitempty"`
	SerialNumber   string `json:"serial_number,omitempty"`
	MACAddress     string `json:"mac_address,omitempty"`
	UUID           string `json:"uuid,omitempty"`
	TaskSequenceID string `json:"task_sequence_id,omitempty"`
	OU             string `json:"ou,omitempty"`
}

// ComputerQuery finds a computer by any of its hardware identifiers. Empty
// fields are ignored; a match on any set field is returned.
type ComputerQuery struct {
	AssetTag     string
	SerialNumber string
	MACAddress   string
	UUID         string
}

// IsEmpty reports whether no identifier is set.
func (q ComputerQuery) IsEmpty() bool {
	return q.AssetTag == "" && q.SerialNumber == "" && q.MACAddress == "" && q.UUID == ""
}

// String returns the first set identifier, for messages.
func (q ComputerQuery) String() string {
	switch {
	case q.SerialNumber != "":
		return q.SerialNumber
	case q.MACAddress != "":
		return q.MACAddress
	case q.AssetTag != "":
		return q.AssetTag
	default:
		return q.UUID
	}
}

// Store defines record queries against a share's backend.
type Store interface {
	// TaskSequence returns a task sequence by ID. Returns ErrNotFound if not found.
	TaskSequence(ctx context.Context, id string) (TaskSequence, error)
	// TaskSequences lists task sequences, optionally limited to one group.
	TaskSequences(ctx context.Context, group string) ([]TaskSequence, error)
	// MakeModel returns a make/model entry. Returns ErrNotFound if not found.
	MakeModel(ctx context.Context, manufacturer, model string) (MakeModel, error)
	// MakeModels lists all make/model entries.
	MakeModels(ctx context.Context) ([]MakeModel, error)
	// CreateMakeModel inserts an entry and returns it with its ID set.
	CreateMakeModel(ctx context.Context, m MakeModel) (MakeModel, error)
	// Computer returns a computer by ID. Returns ErrNotFound if not found.
	Computer(ctx context.Context, id int64) (Computer, error)
	// FindComputer returns the first computer matching q. Returns ErrNotFound if none.
	FindComputer(ctx context.Context, q ComputerQuery) (Computer, error)
	// CreateComputer inserts a computer and returns it with its ID set.
	CreateComputer(ctx context.Context, c Computer) (Computer, error)
}
