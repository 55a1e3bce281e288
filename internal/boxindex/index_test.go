package boxindex_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadwork/bead/internal/boxfs"
	"github.com/beadwork/bead/internal/boxindex"
	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/meta"
	"github.com/beadwork/bead/internal/search"
	"github.com/beadwork/bead/testhelpers"
)

var (
	t1 = "20230101T010000000000+0000"
	t2 = "20230101T020000000000+0000"
	t3 = "20230101T030000000000+0000"
)

func drain(t *testing.T, stream func(func(boxindex.Progress, error) bool)) []boxindex.Progress {
	t.Helper()
	var records []boxindex.Progress
	for p, err := range stream {
		require.NoError(t, err)
		records = append(records, p)
	}
	return records
}

func indexedNames(t *testing.T, ix *boxindex.Index) []string {
	t.Helper()
	beads, err := ix.Beads(nil, "test")
	require.NoError(t, err)
	names := make([]string, 0, len(beads))
	for _, b := range beads {
		names = append(names, b.Name)
	}
	return names
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})

	ix := boxindex.New(dir)
	records := drain(t, ix.Rebuild())

	require.Len(t, records, 2)
	final := records[len(records)-1]
	assert.Equal(t, 2, final.Total)
	assert.Equal(t, 2, final.Processed)
	assert.Equal(t, 0, final.ErrorCount)
	assert.NoError(t, final.Err)

	assert.Equal(t, []string{"bead1", "bead2"}, indexedNames(t, ix))
}

func TestRebuild_CountsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "good", Kind: "k1", FreezeTime: t1})
	testhelpers.WriteJunk(t, dir, "bad.zip")

	ix := boxindex.New(dir)
	records := drain(t, ix.Rebuild())

	require.Len(t, records, 2)
	assert.Equal(t, 1, records[len(records)-1].ErrorCount)

	var badRecord *boxindex.Progress
	for i := range records {
		if records[i].Err != nil {
			badRecord = &records[i]
		}
	}
	require.NotNil(t, badRecord)
	assert.Contains(t, badRecord.Path, "bad.zip")

	assert.Equal(t, []string{"good"}, indexedNames(t, ix))
}

func TestRebuild_IsIndependentOfPriorState(t *testing.T) {
	dir := t.TempDir()
	path1 := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	// delete one file out-of-band, add another, rebuild again
	require.NoError(t, os.Remove(path1))
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	drain(t, ix.Rebuild())

	assert.Equal(t, []string{"bead2"}, indexedNames(t, ix))
}

func TestSync_AddsNewFiles(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	records := drain(t, ix.Sync())

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Path, "bead2")
	assert.Equal(t, []string{"bead1", "bead2"}, indexedNames(t, ix))
}

func TestSync_RemovesOrphanedEntries(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	path2 := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	require.NoError(t, os.Remove(path2))
	records := drain(t, ix.Sync())

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Path, "bead2")
	assert.Equal(t, []string{"bead1"}, indexedNames(t, ix))
}

func TestSync_MixedAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	path2 := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "doomed", Kind: "k2", FreezeTime: t2})
	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	require.NoError(t, os.Remove(path2))
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "fresh", Kind: "k3", FreezeTime: t3})

	records := drain(t, ix.Sync())
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[len(records)-1].Total)
	assert.Equal(t, []string{"bead1", "fresh"}, indexedNames(t, ix))

	// a second sync has nothing to do
	assert.Empty(t, drain(t, ix.Sync()))
}

func TestIndexOne_ReplacesOnReobservation(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})

	ix := boxindex.New(dir)
	require.NoError(t, ix.EnsureExists())
	require.NoError(t, ix.IndexOne(path))
	require.NoError(t, ix.IndexOne(path))

	assert.Equal(t, []string{"bead1"}, indexedNames(t, ix))
}

func TestBeads_Predicates(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "BEAD3", Kind: "k3", FreezeTime: t3})

	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	q := search.Query{}.WithKind("k2")
	beads, err := ix.Beads(q.Conditions, "test")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	assert.Equal(t, "bead2", beads[0].Name)
	assert.Equal(t, "test", beads[0].BoxName)

	q = search.Query{}.WithNewerThan(testhelpers.MustParse(t, t1))
	beads, err = ix.Beads(q.Conditions, "test")
	require.NoError(t, err)
	require.Len(t, beads, 2)
	// ascending freeze time
	assert.Equal(t, "bead2", beads[0].Name)
	assert.Equal(t, "BEAD3", beads[1].Name)

	q = search.Query{}.WithAtOrOlder(testhelpers.MustParse(t, t2))
	beads, err = ix.Beads(q.Conditions, "test")
	require.NoError(t, err)
	require.Len(t, beads, 2)
}

func TestBeads_InputsAreAttached(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{
		Name: "downstream", Kind: "k2", FreezeTime: t2,
		Inputs: []meta.InputSpec{
			{Name: "raw", Kind: "k1", ContentID: "cafe", FreezeTimeStr: t1},
		},
	})

	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	beads, err := ix.Beads(nil, "test")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	require.Len(t, beads[0].Inputs, 1)
	assert.Equal(t, "raw", beads[0].Inputs[0].Name)
	assert.Equal(t, "cafe", beads[0].Inputs[0].ContentID)
}

func TestFilePath(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})

	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())

	beads, err := ix.Beads(nil, "test")
	require.NoError(t, err)
	require.Len(t, beads, 1)

	resolved, err := ix.FilePath(beads[0].Name, beads[0].ContentID)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = ix.FilePath("bead1", "no-such-content")
	var lookup *beaderrors.LookupError
	require.ErrorAs(t, err, &lookup)
}

func TestIndexMatchesFilesystemResolver(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "BEAD3", Kind: "k3", FreezeTime: t3})
	testhelpers.WriteJunk(t, dir, "noise.zip")

	ix := boxindex.New(dir)
	drain(t, ix.Rebuild())
	fsResolver := boxfs.New(dir)

	queries := []search.Query{
		{},
		search.Query{}.WithName("bead2"),
		search.Query{}.WithKind("k3"),
		search.Query{}.WithNewerThan(testhelpers.MustParse(t, t1)),
		search.Query{}.WithAtOrNewer(testhelpers.MustParse(t, t2)).WithOlderThan(testhelpers.MustParse(t, t3)),
	}
	for _, q := range queries {
		fromIndex, err := ix.Beads(q.Conditions, "test")
		require.NoError(t, err)
		fromFS, err := fsResolver.Beads(q.Conditions, "test")
		require.NoError(t, err)

		require.Equal(t, len(fromIndex), len(fromFS))
		for i := range fromIndex {
			assert.Equal(t, fromIndex[i].Name, fromFS[i].Name)
			assert.Equal(t, fromIndex[i].ContentID, fromFS[i].ContentID)
			assert.Equal(t, fromIndex[i].Kind, fromFS[i].Kind)
			assert.Equal(t, fromIndex[i].FreezeTimeStr, fromFS[i].FreezeTimeStr)
		}
	}
}
