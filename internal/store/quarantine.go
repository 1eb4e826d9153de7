package store

import (
	"database/sql"
	"fmt"

	"wasp/internal/logging"
	"wasp/internal/types"
)

// QuarantinePreviewChars is the default bound on the stored preview of a
// held message.
const QuarantinePreviewChars = 100

// AddQuarantine holds a blocked inbound message for review, returning
// the assigned row id. The preview is truncated to previewChars; zero or
// negative selects the default.
func (s *Store) AddQuarantine(identifier string, platform types.Platform, body string, previewChars int) (int64, error) {
	if previewChars <= 0 {
		previewChars = QuarantinePreviewChars
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO quarantine (identifier, platform, preview, body, created_at, reviewed)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		identifier, string(platform), types.Truncate(body, previewChars), body, now(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: quarantine message: %v", types.ErrStorageFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: quarantine message: %v", types.ErrStorageFailure, err)
	}

	logging.Gateway("message quarantined: id=%d sender=%s/%s", id, identifier, platform)
	return id, nil
}

// ListUnreviewedQuarantine returns held messages awaiting review,
// oldest-first so the review queue drains in arrival order.
func (s *Store) ListUnreviewedQuarantine(limit int) ([]types.QuarantinedMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, identifier, platform, preview, body, created_at, reviewed
		 FROM quarantine WHERE reviewed = 0 ORDER BY id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list quarantine: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanQuarantine(rows)
}

// ListQuarantineByIdentifier returns every held message for one sender,
// reviewed or not.
func (s *Store) ListQuarantineByIdentifier(identifier string, platform types.Platform) ([]types.QuarantinedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, identifier, platform, preview, body, created_at, reviewed
		 FROM quarantine WHERE identifier = ? AND platform = ? ORDER BY id ASC`,
		identifier, string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list quarantine: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanQuarantine(rows)
}

// ReleaseQuarantine marks all unreviewed messages from a sender as
// reviewed and returns them. Rows are retained for audit; deletion is a
// separate explicit operation. Releasing an already-drained sender
// returns an empty slice and performs no mutation.
func (s *Store) ReleaseQuarantine(identifier string, platform types.Platform) ([]types.QuarantinedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id, identifier, platform, preview, body, created_at, reviewed
		 FROM quarantine WHERE identifier = ? AND platform = ? AND reviewed = 0 ORDER BY id ASC`,
		identifier, string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}
	released, err := scanQuarantine(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return []types.QuarantinedMessage{}, nil
	}

	_, err = tx.Exec(
		"UPDATE quarantine SET reviewed = 1 WHERE identifier = ? AND platform = ? AND reviewed = 0",
		identifier, string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}

	for i := range released {
		released[i].Reviewed = true
	}
	logging.Gateway("quarantine released: %d message(s) from %s/%s", len(released), identifier, platform)
	return released, nil
}

// ReleaseQuarantineByID marks one held message as reviewed.
func (s *Store) ReleaseQuarantineByID(id int64) (*types.QuarantinedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m types.QuarantinedMessage
	var platformRaw, createdRaw string
	var reviewed int
	err := s.db.QueryRow(
		`SELECT id, identifier, platform, preview, body, created_at, reviewed
		 FROM quarantine WHERE id = ?`, id,
	).Scan(&m.ID, &m.Identifier, &platformRaw, &m.Preview, &m.Body, &createdRaw, &reviewed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: quarantine entry %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}

	if _, err := s.db.Exec("UPDATE quarantine SET reviewed = 1 WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("%w: release quarantine: %v", types.ErrStorageFailure, err)
	}

	m.Platform = types.Platform(platformRaw)
	m.CreatedAt = parseTime(createdRaw)
	m.Reviewed = true
	return &m, nil
}

// DeleteQuarantineByID removes one held message outright.
func (s *Store) DeleteQuarantineByID(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM quarantine WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: delete quarantine: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete quarantine: %v", types.ErrStorageFailure, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: quarantine entry %d", types.ErrNotFound, id)
	}
	return nil
}

// DeleteQuarantine removes every held message for a sender, returning
// the number of rows removed.
func (s *Store) DeleteQuarantine(identifier string, platform types.Platform) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM quarantine WHERE identifier = ? AND platform = ?",
		identifier, string(platform),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: delete quarantine: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete quarantine: %v", types.ErrStorageFailure, err)
	}
	return n, nil
}

// PurgeQuarantineOlderThan removes held messages older than the given
// age in days regardless of review state.
func (s *Store) PurgeQuarantineOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: negative purge age", types.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM quarantine WHERE created_at < ?", cutoff(days))
	if err != nil {
		return 0, fmt.Errorf("%w: purge quarantine: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: purge quarantine: %v", types.ErrStorageFailure, err)
	}
	return n, nil
}

func scanQuarantine(rows *sql.Rows) ([]types.QuarantinedMessage, error) {
	messages := []types.QuarantinedMessage{}
	for rows.Next() {
		var m types.QuarantinedMessage
		var platformRaw, createdRaw string
		var reviewed int
		if err := rows.Scan(&m.ID, &m.Identifier, &platformRaw, &m.Preview, &m.Body, &createdRaw, &reviewed); err != nil {
			return nil, fmt.Errorf("%w: scan quarantine: %v", types.ErrStorageFailure, err)
		}
		m.Platform = types.Platform(platformRaw)
		m.CreatedAt = parseTime(createdRaw)
		m.Reviewed = reviewed != 0
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan quarantine: %v", types.ErrStorageFailure, err)
	}
	return messages, nil
}
