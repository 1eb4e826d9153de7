// Package trust implements the contact registry and its decision
// semantics: the whitelist CRUD surface plus the check contract consumed
// by the inbound pipeline.
package trust

import (
	"wasp/internal/store"
	"wasp/internal/types"
)

// Check reasons, emitted verbatim into audit entries and API responses.
const (
	ReasonNotInWhitelist = "Contact not in whitelist"
	ReasonLimited        = "Limited trust — agent may view but should not act"
	ReasonTrusted        = "Contact is trusted"
)

// Registry answers whitelist questions on top of the store.
type Registry struct {
	store *store.Store
}

// NewRegistry creates a registry over an opened store.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s}
}

// Upsert inserts or updates a contact. Trust is overwritten on conflict;
// name and notes follow preserve-on-null.
func (r *Registry) Upsert(identifier string, platform types.Platform, trust types.TrustLevel, name, notes string) error {
	return r.store.UpsertContact(identifier, platform, trust, name, notes)
}

// Remove deletes a contact, reporting whether a row existed.
func (r *Registry) Remove(identifier string, platform types.Platform) (bool, error) {
	return r.store.DeleteContact(identifier, platform)
}

// Get returns the contact row, or nil when none exists.
func (r *Registry) Get(identifier string, platform types.Platform) (*types.Contact, error) {
	return r.store.GetContact(identifier, platform)
}

// List returns contacts newest-first with optional filters.
func (r *Registry) List(platform types.Platform, trust types.TrustLevel) ([]types.Contact, error) {
	return r.store.ListContacts(platform, trust)
}

// Check decides whether a sender's messages may reach the model.
// Identifiers are compared byte-exact; callers that want to accept
// multiple written forms must enter all forms. Allowed=true does not
// imply tool capability; that is a separate per-turn decision.
func (r *Registry) Check(identifier string, platform types.Platform) (types.CheckResult, error) {
	contact, err := r.store.GetContact(identifier, platform)
	if err != nil {
		return types.CheckResult{}, err
	}
	if contact == nil {
		return types.CheckResult{
			Allowed: false,
			Trust:   types.TrustUnknown,
			Reason:  ReasonNotInWhitelist,
		}, nil
	}
	if contact.Trust == types.TrustLimited {
		return types.CheckResult{
			Allowed: true,
			Trust:   types.TrustLimited,
			Reason:  ReasonLimited,
		}, nil
	}
	return types.CheckResult{
		Allowed: true,
		Trust:   contact.Trust,
		Reason:  ReasonTrusted,
	}, nil
}

// Decision maps a check result to its audit decision label.
func Decision(res types.CheckResult) types.Decision {
	switch {
	case !res.Allowed:
		return types.DecisionDeny
	case res.Trust == types.TrustLimited:
		return types.DecisionLimited
	default:
		return types.DecisionAllow
	}
}
