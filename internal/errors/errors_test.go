package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidArchive(t *testing.T) {
	cause := fmt.Errorf("zip: not a valid zip file")
	err := NewInvalidArchive("/box/x.zip", "not a zip file", cause)

	assert.Contains(t, err.Error(), "/box/x.zip")
	assert.Contains(t, err.Error(), "not a zip file")
	assert.True(t, errors.Is(err, cause))

	var invalid *InvalidArchiveError
	require.True(t, errors.As(error(err), &invalid))
	assert.Equal(t, "/box/x.zip", invalid.Path)
}

func TestInvalidArchive_WithoutCause(t *testing.T) {
	err := NewInvalidArchive("/box/x.zip", "content id mismatch", nil)
	assert.Equal(t, "invalid archive /box/x.zip: content id mismatch", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestBoxError(t *testing.T) {
	err := NewBoxError("home", "directory /data does not exist")
	assert.Equal(t, `box "home": directory /data does not exist`, err.Error())
}

func TestBoxIndexError(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := NewBoxIndexError("query", cause)

	assert.Contains(t, err.Error(), "query")
	assert.True(t, errors.Is(err, cause))
}

func TestLookupError(t *testing.T) {
	err := NewLookupError("no beads found")
	assert.Equal(t, "no beads found", err.Error())

	formatted := NewLookupError("not enough beads found (requested index %d, found %d)", 5, 2)
	assert.Contains(t, formatted.Error(), "index 5")
}

func TestArgumentError(t *testing.T) {
	err := NewArgumentError("empty %s in query", "kind")
	assert.Equal(t, "empty kind in query", err.Error())
}

func TestCycleError(t *testing.T) {
	err := NewCycleError([]string{"a", "b"})
	assert.Equal(t, "dependency cycle among clusters: a, b", err.Error())
}
