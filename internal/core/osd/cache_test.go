package osd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
}

func TestLookupCache_EmptyBeforeRefresh(t *testing.T) {
	c := newLookupCache(fixedNow)
	snap := c.Snapshot()

	assert.Equal(t, uint64(0), snap.Version)
	for _, cat := range Categories {
		assert.Empty(t, snap.Values(cat), cat)
	}
}

func TestLookupCache_Refresh(t *testing.T) {
	ctx := context.Background()
	backend := &fakeCatalog{
		taskSequences: []string{"TS1", "TS2"},
		driverGroups:  []string{"DG1"},
		manufacturers: []string{},
		models:        []string{},
		groups:        []string{"G1"},
	}

	c := newLookupCache(fixedNow)
	require.NoError(t, c.Refresh(ctx, backend))

	snap := c.Snapshot()
	assert.Equal(t, []string{"TS1", "TS2"}, snap.TaskSequenceIDs)
	assert.Equal(t, []string{"G1"}, snap.TaskSequenceGroups)
	assert.Equal(t, []string{"DG1"}, snap.DriverGroups)
	assert.Equal(t, []string{}, snap.Manufacturers)
	assert.Equal(t, []string{}, snap.Models)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, fixedNow(), snap.RefreshedAt)
}

func TestLookupCache_RefreshReplacesPriorContents(t *testing.T) {
	ctx := context.Background()
	backend := &fakeCatalog{
		taskSequences: []string{"OLD1", "OLD2", "OLD3"},
		models:        []string{"M1"},
	}

	c := newLookupCache(fixedNow)
	require.NoError(t, c.Refresh(ctx, backend))

	backend.taskSequences = []string{"NEW"}
	backend.models = nil
	require.NoError(t, c.Refresh(ctx, backend))

	snap := c.Snapshot()
	assert.Equal(t, []string{"NEW"}, snap.TaskSequenceIDs)
	assert.Empty(t, snap.Models)
}

func TestLookupCache_RefreshPassesDuplicatesThrough(t *testing.T) {
	backend := &fakeCatalog{taskSequences: []string{"B", "A", "B"}}
	c := newLookupCache(fixedNow)

	require.NoError(t, c.Refresh(context.Background(), backend))

	assert.Equal(t, []string{"B", "A", "B"}, c.Snapshot().TaskSequenceIDs)
}

func TestLookupCache_RefreshIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := &fakeCatalog{
		taskSequences: []string{"TS1", "TS2"},
		groups:        []string{"G1"},
		driverGroups:  []string{"DG1", "DG2"},
		manufacturers: []string{"Dell"},
		models:        []string{"Latitude 7440"},
	}

	c := newLookupCache(fixedNow)
	require.NoError(t, c.Refresh(ctx, backend))
	first := c.Snapshot()
	require.NoError(t, c.Refresh(ctx, backend))
	second := c.Snapshot()

	for _, cat := range Categories {
		assert.Equal(t, first.Values(cat), second.Values(cat), cat)
	}
}

func TestLookupCache_RefreshFailureKeepsPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := &fakeCatalog{
		taskSequences: []string{"TS1"},
		driverGroups:  []string{"DG1"},
	}

	c := newLookupCache(fixedNow)
	require.NoError(t, c.Refresh(ctx, backend))
	before := c.Snapshot()

	// the first query would succeed with new data; the third fails
	backend.taskSequences = []string{"TS9"}
	backend.failOn = "driver groups"

	err := c.Refresh(ctx, backend)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCacheRefresh))
	assert.ErrorIs(t, err, errBackend)

	assert.Same(t, before, c.Snapshot())
	assert.Equal(t, []string{"TS1"}, c.Snapshot().TaskSequenceIDs)
}

func TestLookupCache_ValuesReturnsCopy(t *testing.T) {
	backend := &fakeCatalog{taskSequences: []string{"TS1"}}
	c := newLookupCache(fixedNow)
	require.NoError(t, c.Refresh(context.Background(), backend))

	v := c.Snapshot().Values(CategoryTaskSequence)
	v[0] = "mutated"

	assert.Equal(t, []string{"TS1"}, c.Snapshot().Values(CategoryTaskSequence))
}

func TestLookupCache_ReadersDuringRefresh(t *testing.T) {
	backend := &fakeCatalog{
		taskSequences: []string{"TS1", "TS2"},
		models:        []string{"M1", "M2"},
	}
	c := newLookupCache(time.Now)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = c.Refresh(ctx, backend)
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := c.Snapshot()
				// both lists come from the same refresh
				assert.Equal(t, len(snap.TaskSequenceIDs), len(snap.Models))
			}
		}()
	}

	wg.Wait()
}

func TestParseCategory(t *testing.T) {
	for _, cat := range Categories {
		got, err := ParseCategory(string(cat))
		require.NoError(t, err)
		assert.Equal(t, cat, got)
	}

	_, err := ParseCategory("printer")
	assert.Error(t, err)
}
