package store

import (
	"fmt"
	"time"

	"wasp/internal/types"
)

// AuditFilter narrows an audit query. Limit is mandatory at the call
// site; limit 0 returns zero rows by contract.
type AuditFilter struct {
	Limit    int
	Decision types.Decision
	Since    time.Time
}

// AppendAudit writes one immutable decision record. Entries are never
// updated; retention is by age-based purge only.
func (s *Store) AppendAudit(identifier string, platform types.Platform, decision types.Decision, reason string) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: unknown decision %q", types.ErrInvalidInput, decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO audit_log (ts, identifier, platform, decision, reason)
		 VALUES (?, ?, ?, ?, ?)`,
		now(), identifier, string(platform), string(decision), reason,
	)
	if err != nil {
		return fmt.Errorf("%w: append audit: %v", types.ErrStorageFailure, err)
	}
	return nil
}

// QueryAudit returns entries newest-first. Timestamps may collide under
// concurrent writers; the store-assigned row id is the only monotone
// identifier, so ordering uses it.
func (s *Store) QueryAudit(filter AuditFilter) ([]types.AuditEntry, error) {
	if filter.Limit <= 0 {
		return []types.AuditEntry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, ts, identifier, platform, decision, reason FROM audit_log"
	var conds []string
	var args []interface{}
	if filter.Decision != "" {
		conds = append(conds, "decision = ?")
		args = append(args, string(filter.Decision))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query audit: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()

	entries := []types.AuditEntry{}
	for rows.Next() {
		var e types.AuditEntry
		var tsRaw, platformRaw, decisionRaw string
		if err := rows.Scan(&e.ID, &tsRaw, &e.Identifier, &platformRaw, &decisionRaw, &e.Reason); err != nil {
			return nil, fmt.Errorf("%w: scan audit: %v", types.ErrStorageFailure, err)
		}
		e.Timestamp = parseTime(tsRaw)
		e.Platform = types.Platform(platformRaw)
		e.Decision = types.Decision(decisionRaw)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query audit: %v", types.ErrStorageFailure, err)
	}
	return entries, nil
}

// PurgeAuditOlderThan removes entries older than the given age in days,
// returning the number of rows removed.
func (s *Store) PurgeAuditOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: negative purge age", types.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM audit_log WHERE ts < ?", cutoff(days))
	if err != nil {
		return 0, fmt.Errorf("%w: purge audit: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: purge audit: %v", types.ErrStorageFailure, err)
	}
	return n, nil
}
