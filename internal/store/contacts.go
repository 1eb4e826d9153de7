package store

import (
	"database/sql"
	"fmt"

	"wasp/internal/logging"
	"wasp/internal/types"
)

// UpsertContact inserts or updates a contact. On conflict the trust
// level is always overwritten; name and notes are updated only when the
// new value is non-empty (preserve-on-null).
func (s *Store) UpsertContact(identifier string, platform types.Platform, trust types.TrustLevel, name, notes string) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier required", types.ErrInvalidInput)
	}
	if !platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", types.ErrInvalidInput, platform)
	}
	if !trust.Valid() {
		return fmt.Errorf("%w: unknown trust level %q", types.ErrInvalidInput, trust)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO contacts (identifier, platform, trust, name, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier, platform) DO UPDATE SET
		   trust = excluded.trust,
		   name  = CASE WHEN excluded.name  = '' THEN contacts.name  ELSE excluded.name  END,
		   notes = CASE WHEN excluded.notes = '' THEN contacts.notes ELSE excluded.notes END`,
		identifier, string(platform), string(trust), name, notes, now(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert contact: %v", types.ErrStorageFailure, err)
	}

	logging.Store("contact upserted: %s/%s trust=%s", identifier, platform, trust)
	return nil
}

// GetContact returns the contact row, or nil when none exists.
// Identifiers are compared byte-exact; no normalization of case,
// whitespace, or Unicode is applied.
func (s *Store) GetContact(identifier string, platform types.Platform) (*types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c types.Contact
	var platformRaw, trustRaw, createdRaw string
	err := s.db.QueryRow(
		`SELECT identifier, platform, trust, name, notes, created_at
		 FROM contacts WHERE identifier = ? AND platform = ?`,
		identifier, string(platform),
	).Scan(&c.Identifier, &platformRaw, &trustRaw, &c.Name, &c.Notes, &createdRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get contact: %v", types.ErrStorageFailure, err)
	}

	c.Platform = types.Platform(platformRaw)
	c.Trust = types.TrustLevel(trustRaw)
	c.CreatedAt = parseTime(createdRaw)
	return &c, nil
}

// DeleteContact removes a contact, reporting whether a row was deleted.
func (s *Store) DeleteContact(identifier string, platform types.Platform) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM contacts WHERE identifier = ? AND platform = ?",
		identifier, string(platform),
	)
	if err != nil {
		return false, fmt.Errorf("%w: delete contact: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete contact: %v", types.ErrStorageFailure, err)
	}
	return n > 0, nil
}

// ListContacts returns contacts newest-first, optionally filtered by
// platform and/or trust (zero values mean no filter).
func (s *Store) ListContacts(platform types.Platform, trust types.TrustLevel) ([]types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT identifier, platform, trust, name, notes, created_at FROM contacts"
	var conds []string
	var args []interface{}
	if platform != "" {
		conds = append(conds, "platform = ?")
		args = append(args, string(platform))
	}
	if trust != "" {
		conds = append(conds, "trust = ?")
		args = append(args, string(trust))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC, identifier ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list contacts: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()

	var contacts []types.Contact
	for rows.Next() {
		var c types.Contact
		var platformRaw, trustRaw, createdRaw string
		if err := rows.Scan(&c.Identifier, &platformRaw, &trustRaw, &c.Name, &c.Notes, &createdRaw); err != nil {
			return nil, fmt.Errorf("%w: scan contact: %v", types.ErrStorageFailure, err)
		}
		c.Platform = types.Platform(platformRaw)
		c.Trust = types.TrustLevel(trustRaw)
		c.CreatedAt = parseTime(createdRaw)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list contacts: %v", types.ErrStorageFailure, err)
	}
	return contacts, nil
}
