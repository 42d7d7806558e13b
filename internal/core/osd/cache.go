package osd

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// Category names one of the identifier lists held by the lookup cache.
type Category string

const (
	CategoryTaskSequence      Category = "task-sequence"
	CategoryTaskSequenceGroup Category = "task-sequence-group"
	CategoryDriverGroup       Category = "driver-group"
	CategoryManufacturer      Category = "manufacturer"
	CategoryModel             Category = "model"
)

// Categories lists every cache category in display order.
var Categories = []Category{
	CategoryTaskSequence,
	CategoryTaskSequenceGroup,
	CategoryDriverGroup,
	CategoryManufacturer,
	CategoryModel,
}

// ParseCategory maps a user-supplied name onto a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Catalog is the read side of the backend the cache is filled from.
type Catalog interface {
	TaskSequenceIDs(ctx context.Context) ([]string, error)
	TaskSequenceGroups(ctx context.Context) ([]string, error)
	DriverGroups(ctx context.Context) ([]string, error)
	Manufacturers(ctx context.Context) ([]string, error)
	Models(ctx context.Context) ([]string, error)
}

// Snapshot is one published version of the cache. It is never mutated after
// publication.
type Snapshot struct {
	Version            uint64
	RefreshedAt        time.Time
	TaskSequenceIDs    []string
	TaskSequenceGroups []string
	DriverGroups       []string
	Manufacturers      []string
	Models             []string
}

// Values returns a copy of the list for c.
func (s *Snapshot) Values(c Category) []string {
	var v []string
	switch c {
	case CategoryTaskSequence:
		v = s.TaskSequenceIDs
	case CategoryTaskSequenceGroup:
		v = s.TaskSequenceGroups
	case CategoryDriverGroup:
		v = s.DriverGroups
	case CategoryManufacturer:
		v = s.Manufacturers
	case CategoryModel:
		v = s.Models
	}
	return slices.Clone(v)
}

// LookupCache holds the identifiers used for name suggestion. Readers load
// the current snapshot without locking; Refresh swaps all five lists at once.
type LookupCache struct {
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

func newLookupCache(now func() time.Time) *LookupCache {
	c := &LookupCache{now: now}
	c.current.Store(&Snapshot{})
	return c
}

// Snapshot returns the currently published snapshot.
func (c *LookupCache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Refresh queries every category from cat and publishes the result. On
// failure the previous snapshot stays in place and a CacheRefreshError is
// returned.
func (c *LookupCache) Refresh(ctx context.Context, cat Catalog) error {
	prev := c.current.Load()
	next := &Snapshot{Version: prev.Version + 1}

	queries := []struct {
		name string
		dst  *[]string
		fn   func(context.Context) ([]string, error)
	}{
		{"task sequences", &next.TaskSequenceIDs, cat.TaskSequenceIDs},
		{"task sequence groups", &next.TaskSequenceGroups, cat.TaskSequenceGroups},
		{"driver groups", &next.DriverGroups, cat.DriverGroups},
		{"manufacturers", &next.Manufacturers, cat.Manufacturers},
		{"models", &next.Models, cat.Models},
	}

	for _, q := range queries {
		values, err := q.fn(ctx)
		if err != nil {
			return CacheRefreshError(fmt.Errorf("query %s: %w", q.name, err))
		}
		if values == nil {
			values = []string{}
		}
		*q.dst = values
	}

	next.RefreshedAt = c.now()
	c.current.Store(next)
	return nil
}
