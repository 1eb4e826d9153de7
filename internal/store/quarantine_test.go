package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/types"
)

func TestQuarantineLifecycle(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.AddQuarantine("mallory", types.PlatformWhatsApp, "first message", 0)
	require.NoError(t, err)
	id2, err := s.AddQuarantine("mallory", types.PlatformWhatsApp, "second message", 0)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	held, err := s.ListUnreviewedQuarantine(50)
	require.NoError(t, err)
	require.Len(t, held, 2)
	// Review queue drains oldest first.
	assert.Equal(t, id1, held[0].ID)
	assert.False(t, held[0].Reviewed)

	released, err := s.ReleaseQuarantine("mallory", types.PlatformWhatsApp)
	require.NoError(t, err)
	require.Len(t, released, 2)
	for _, m := range released {
		assert.True(t, m.Reviewed)
	}

	held, err = s.ListUnreviewedQuarantine(50)
	require.NoError(t, err)
	assert.Empty(t, held)

	// Released rows are retained, visible via the per-sender listing.
	all, err := s.ListQuarantineByIdentifier("mallory", types.PlatformWhatsApp)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReleaseQuarantineDrainedIsNoOp(t *testing.T) {
	s := newTestStore(t)

	released, err := s.ReleaseQuarantine("nobody", types.PlatformEmail)
	require.NoError(t, err)
	assert.Empty(t, released)

	_, err = s.AddQuarantine("mallory", types.PlatformEmail, "msg", 0)
	require.NoError(t, err)
	_, err = s.ReleaseQuarantine("mallory", types.PlatformEmail)
	require.NoError(t, err)

	// Second release after draining returns empty without touching rows.
	released, err = s.ReleaseQuarantine("mallory", types.PlatformEmail)
	require.NoError(t, err)
	assert.Empty(t, released)
}

func TestQuarantinePreviewTruncation(t *testing.T) {
	s := newTestStore(t)

	body := strings.Repeat("x", 500)
	id, err := s.AddQuarantine("mallory", types.PlatformEmail, body, 0)
	require.NoError(t, err)

	held, err := s.ListQuarantineByIdentifier("mallory", types.PlatformEmail)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, id, held[0].ID)
	assert.Equal(t, body, held[0].Body)
	assert.Equal(t, strings.Repeat("x", QuarantinePreviewChars)+"...", held[0].Preview)
}

func TestQuarantinePreviewConfigured(t *testing.T) {
	s := newTestStore(t)

	body := strings.Repeat("y", 100)
	_, err := s.AddQuarantine("mallory", types.PlatformEmail, body, 20)
	require.NoError(t, err)

	held, err := s.ListQuarantineByIdentifier("mallory", types.PlatformEmail)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, strings.Repeat("y", 20)+"...", held[0].Preview)
	assert.Equal(t, body, held[0].Body)
}

func TestQuarantineByID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddQuarantine("mallory", types.PlatformEmail, "msg", 0)
	require.NoError(t, err)

	msg, err := s.ReleaseQuarantineByID(id)
	require.NoError(t, err)
	assert.True(t, msg.Reviewed)

	_, err = s.ReleaseQuarantineByID(id + 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	require.NoError(t, s.DeleteQuarantineByID(id))
	err = s.DeleteQuarantineByID(id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDeleteQuarantineBySender(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddQuarantine("mallory", types.PlatformEmail, "one", 0)
	require.NoError(t, err)
	_, err = s.AddQuarantine("mallory", types.PlatformEmail, "two", 0)
	require.NoError(t, err)
	_, err = s.AddQuarantine("trent", types.PlatformEmail, "three", 0)
	require.NoError(t, err)

	n, err := s.DeleteQuarantine("mallory", types.PlatformEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := s.ListUnreviewedQuarantine(50)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "trent", remaining[0].Identifier)
}

func TestPurgeQuarantine(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddQuarantine("mallory", types.PlatformEmail, "msg", 0)
	require.NoError(t, err)

	old := time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
	_, err = s.db.Exec(
		"INSERT INTO quarantine (identifier, platform, preview, body, created_at, reviewed) VALUES (?, ?, ?, ?, ?, 1)",
		"ancient", "email", "stale", "stale", old,
	)
	require.NoError(t, err)

	purged, err := s.PurgeQuarantineOlderThan(7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	remaining, err := s.ListUnreviewedQuarantine(50)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "mallory", remaining[0].Identifier)
}
