package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Stats()
	require.NoError(t, err)
	for _, table := range []string{"contacts", "audit_log", "quarantine", "canary_events"} {
		count, ok := stats[table]
		assert.True(t, ok, "missing table %s", table)
		assert.Zero(t, count)
	}
}

func TestOpenEmptyDataDir(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.UpsertContact("alice", types.PlatformEmail, types.TrustTrusted, "Alice", ""))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	c, err := s.GetContact("alice", types.PlatformEmail)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, types.TrustTrusted, c.Trust)
}

func TestOpenExisting(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenExisting(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotInitialized))

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenExisting(dir)
	require.NoError(t, err)
	s.Close()
}
