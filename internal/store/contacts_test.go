package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/types"
)

func TestUpsertContactRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertContact("alice@example.com", types.PlatformEmail, types.TrustTrusted, "Alice", "colleague"))

	c, err := s.GetContact("alice@example.com", types.PlatformEmail)
	require.NoError(t, err)
	require.NotNil(t, c)

	want := types.Contact{
		Identifier: "alice@example.com",
		Platform:   types.PlatformEmail,
		Trust:      types.TrustTrusted,
		Name:       "Alice",
		Notes:      "colleague",
	}
	if diff := cmp.Diff(want, *c, cmpopts.IgnoreFields(types.Contact{}, "CreatedAt")); diff != "" {
		t.Errorf("contact mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, c.CreatedAt.IsZero())
}

func TestUpsertContactValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name       string
		identifier string
		platform   types.Platform
		trust      types.TrustLevel
	}{
		{"EmptyIdentifier", "", types.PlatformEmail, types.TrustTrusted},
		{"BadPlatform", "alice", "carrier-pigeon", types.TrustTrusted},
		{"BadTrust", "alice", types.PlatformEmail, "vip"},
		{"UnknownTrustNotStorable", "alice", types.PlatformEmail, types.TrustUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpsertContact(tt.identifier, tt.platform, tt.trust, "", "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidInput))
		})
	}
}

func TestUpsertContactOverwritesTrust(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertContact("bob", types.PlatformTelegram, types.TrustLimited, "Bob", "intern"))
	require.NoError(t, s.UpsertContact("bob", types.PlatformTelegram, types.TrustTrusted, "", ""))

	c, err := s.GetContact("bob", types.PlatformTelegram)
	require.NoError(t, err)
	require.NotNil(t, c)
	// Trust always follows the latest upsert; empty name and notes
	// preserve the stored values.
	assert.Equal(t, types.TrustTrusted, c.Trust)
	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, "intern", c.Notes)
}

func TestUpsertContactReplacesNonEmptyFields(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertContact("bob", types.PlatformTelegram, types.TrustLimited, "Bob", ""))
	require.NoError(t, s.UpsertContact("bob", types.PlatformTelegram, types.TrustLimited, "Robert", "promoted"))

	c, err := s.GetContact("bob", types.PlatformTelegram)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Robert", c.Name)
	assert.Equal(t, "promoted", c.Notes)
}

func TestGetContactByteExact(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertContact("Alice", types.PlatformEmail, types.TrustTrusted, "", ""))

	for _, lookup := range []string{"alice", " Alice", "Alice ", "ALICE"} {
		c, err := s.GetContact(lookup, types.PlatformEmail)
		require.NoError(t, err)
		assert.Nil(t, c, "lookup %q must not match", lookup)
	}

	c, err := s.GetContact("Alice", types.PlatformEmail)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGetContactPlatformScoped(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertContact("carol", types.PlatformSignal, types.TrustSovereign, "", ""))

	c, err := s.GetContact("carol", types.PlatformDiscord)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDeleteContact(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertContact("dave", types.PlatformSlack, types.TrustLimited, "", ""))

	deleted, err := s.DeleteContact("dave", types.PlatformSlack)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteContact("dave", types.PlatformSlack)
	require.NoError(t, err)
	assert.False(t, deleted)

	c, err := s.GetContact("dave", types.PlatformSlack)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestListContactsFilters(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertContact("a", types.PlatformEmail, types.TrustTrusted, "", ""))
	require.NoError(t, s.UpsertContact("b", types.PlatformEmail, types.TrustLimited, "", ""))
	require.NoError(t, s.UpsertContact("c", types.PlatformSignal, types.TrustTrusted, "", ""))

	all, err := s.ListContacts("", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	emails, err := s.ListContacts(types.PlatformEmail, "")
	require.NoError(t, err)
	assert.Len(t, emails, 2)

	trusted, err := s.ListContacts("", types.TrustTrusted)
	require.NoError(t, err)
	assert.Len(t, trusted, 2)

	both, err := s.ListContacts(types.PlatformEmail, types.TrustLimited)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "b", both[0].Identifier)
}
