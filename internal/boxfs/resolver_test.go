package boxfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadwork/bead/internal/boxfs"
	beaderrors "github.com/beadwork/bead/internal/errors"
	"github.com/beadwork/bead/internal/search"
	"github.com/beadwork/bead/testhelpers"
)

var (
	t1 = "20230101T010000000000+0000"
	t2 = "20230101T020000000000+0000"
	t3 = "20230101T030000000000+0000"
)

func TestBeads_AllSortedByFreezeTime(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead2", Kind: "k2", FreezeTime: t2})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "BEAD3", Kind: "k3", FreezeTime: t3})

	beads, err := boxfs.New(dir).Beads(nil, "home")
	require.NoError(t, err)
	require.Len(t, beads, 3)
	assert.Equal(t, "bead1", beads[0].Name)
	assert.Equal(t, "bead2", beads[1].Name)
	assert.Equal(t, "BEAD3", beads[2].Name)
	assert.Equal(t, "home", beads[0].BoxName)
}

func TestBeads_SkipsJunkFiles(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	testhelpers.WriteJunk(t, dir, "some-non-bead-file")
	testhelpers.WriteJunk(t, dir, "junk.zip")

	beads, err := boxfs.New(dir).Beads(nil, "home")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	assert.Equal(t, "bead1", beads[0].Name)
}

func TestBeads_NameDirectedGlob(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "wanted", Kind: "k1", FreezeTime: t1})
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "other", Kind: "k2", FreezeTime: t2})

	q := search.Query{}.WithName("wanted")
	beads, err := boxfs.New(dir).Beads(q.Conditions, "home")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	assert.Equal(t, "wanted", beads[0].Name)
}

func TestBeads_DisagreeingNamesMatchNothing(t *testing.T) {
	dir := t.TempDir()
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})

	q := search.Query{}.WithName("bead1").WithName("bead2")
	beads, err := boxfs.New(dir).Beads(q.Conditions, "home")
	require.NoError(t, err)
	assert.Empty(t, beads)
}

func TestFilePath(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	archive := testhelpers.OpenArchive(t, path, "home")

	resolver := boxfs.New(dir)
	resolved, err := resolver.FilePath("bead1", archive.ContentID)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	// cached second lookup
	resolved, err = resolver.FilePath("bead1", archive.ContentID)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = resolver.FilePath("bead1", "no-such-content")
	var lookup *beaderrors.LookupError
	require.ErrorAs(t, err, &lookup)
}

func TestContentIDSurvivesRename(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "original", Kind: "k1", FreezeTime: t1})
	archive := testhelpers.OpenArchive(t, path, "home")

	renamed := filepath.Join(dir, "renamed_"+t1+".zip")
	require.NoError(t, os.Rename(path, renamed))

	q := search.Query{}.WithContentID(archive.ContentID)
	beads, err := boxfs.New(dir).Beads(q.Conditions, "home")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	// the name now follows the file, the content identity is unchanged
	assert.Equal(t, "renamed", beads[0].Name)
	assert.Equal(t, archive.ContentID, beads[0].ContentID)
}

func TestNoteArchive_PrimesTheCache(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})
	archive := testhelpers.OpenArchive(t, path, "home")

	resolver := boxfs.New(dir)
	require.NoError(t, resolver.NoteArchive(path))

	resolved, err := resolver.FilePath("bead1", archive.ContentID)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}
