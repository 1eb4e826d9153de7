package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/types"
)

func TestAppendAndQueryAudit(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendAudit("alice", types.PlatformEmail, types.DecisionAllow, "Contact is trusted"))
	require.NoError(t, s.AppendAudit("mallory", types.PlatformEmail, types.DecisionDeny, "Contact not in whitelist"))
	require.NoError(t, s.AppendAudit("eve", types.PlatformSignal, types.DecisionLimited, "Limited trust"))

	entries, err := s.QueryAudit(AuditFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first, by row id.
	assert.Equal(t, "eve", entries[0].Identifier)
	assert.Equal(t, "mallory", entries[1].Identifier)
	assert.Equal(t, "alice", entries[2].Identifier)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestAppendAuditRejectsUnknownDecision(t *testing.T) {
	s := newTestStore(t)

	err := s.AppendAudit("alice", types.PlatformEmail, "maybe", "reason")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestQueryAuditZeroLimit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendAudit("alice", types.PlatformEmail, types.DecisionAllow, "ok"))

	entries, err := s.QueryAudit(AuditFilter{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = s.QueryAudit(AuditFilter{Limit: -5})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueryAuditLimitAndDecision(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendAudit(fmt.Sprintf("sender-%d", i), types.PlatformEmail, types.DecisionDeny, "blocked"))
	}
	require.NoError(t, s.AppendAudit("alice", types.PlatformEmail, types.DecisionAllow, "ok"))

	entries, err := s.QueryAudit(AuditFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	denied, err := s.QueryAudit(AuditFilter{Limit: 100, Decision: types.DecisionDeny})
	require.NoError(t, err)
	require.Len(t, denied, 5)
	for _, e := range denied {
		assert.Equal(t, types.DecisionDeny, e.Decision)
	}
}

func TestQueryAuditSince(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendAudit("alice", types.PlatformEmail, types.DecisionAllow, "ok"))

	entries, err := s.QueryAudit(AuditFilter{Limit: 10, Since: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = s.QueryAudit(AuditFilter{Limit: 10, Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPurgeAudit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendAudit("alice", types.PlatformEmail, types.DecisionAllow, "ok"))

	// Backdate one row past the retention horizon.
	old := time.Now().UTC().AddDate(0, 0, -40).Format(time.RFC3339)
	_, err := s.db.Exec(
		"INSERT INTO audit_log (ts, identifier, platform, decision, reason) VALUES (?, ?, ?, ?, ?)",
		old, "ancient", "email", "deny", "stale",
	)
	require.NoError(t, err)

	purged, err := s.PurgeAuditOlderThan(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	entries, err := s.QueryAudit(AuditFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Identifier)

	_, err = s.PurgeAuditOlderThan(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}
