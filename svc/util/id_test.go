package util

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenPasteID(t *testing.T) {
	id, err := GenPasteID(func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Len(t, id, IDLength)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(idChars, r), "unexpected rune %q", r)
	}
}

func TestGenPasteIDRetriesOnCollision(t *testing.T) {
	calls := 0
	id, err := GenPasteID(func(string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Len(t, id, IDLength)
	assert.Equal(t, 3, calls)
}

func TestGenPasteIDGivesUpAfterFiveCollisions(t *testing.T) {
	calls := 0
	_, err := GenPasteID(func(string) (bool, error) {
		calls++
		return true, nil
	})
	assert.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestGenPasteIDPropagatesExistsError(t *testing.T) {
	dbErr := errors.New("db down")
	_, err := GenPasteID(func(string) (bool, error) { return false, dbErr })
	assert.Equal(t, dbErr, err)
}

func TestGenPasteIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := GenPasteID(func(string) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
