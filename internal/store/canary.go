package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"wasp/internal/types"
)

// AddCanaryEvent persists one injection-telemetry row. Pattern and verb
// lists keep their match order.
func (s *Store) AddCanaryEvent(ev types.CanaryEvent) error {
	patterns, err := json.Marshal(orEmpty(ev.Patterns))
	if err != nil {
		return fmt.Errorf("%w: encode patterns: %v", types.ErrStorageFailure, err)
	}
	verbs, err := json.Marshal(orEmpty(ev.Verbs))
	if err != nil {
		return fmt.Errorf("%w: encode verbs: %v", types.ErrStorageFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO canary_events (identifier, platform, score, patterns, verbs, preview, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Identifier, string(ev.Platform), ev.Score, string(patterns), string(verbs), ev.Preview, now(),
	)
	if err != nil {
		return fmt.Errorf("%w: add canary event: %v", types.ErrStorageFailure, err)
	}
	return nil
}

// ListCanaryEvents returns telemetry rows newest-first.
func (s *Store) ListCanaryEvents(limit int) ([]types.CanaryEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, identifier, platform, score, patterns, verbs, preview, created_at
		 FROM canary_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list canary events: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()

	events := []types.CanaryEvent{}
	for rows.Next() {
		var ev types.CanaryEvent
		var platformRaw, patternsRaw, verbsRaw, createdRaw string
		if err := rows.Scan(&ev.ID, &ev.Identifier, &platformRaw, &ev.Score, &patternsRaw, &verbsRaw, &ev.Preview, &createdRaw); err != nil {
			return nil, fmt.Errorf("%w: scan canary event: %v", types.ErrStorageFailure, err)
		}
		ev.Platform = types.Platform(platformRaw)
		ev.CreatedAt = parseTime(createdRaw)
		_ = json.Unmarshal([]byte(patternsRaw), &ev.Patterns)
		_ = json.Unmarshal([]byte(verbsRaw), &ev.Verbs)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list canary events: %v", types.ErrStorageFailure, err)
	}
	return events, nil
}

// CanaryStats aggregates the telemetry table for the CLI stats view.
type CanaryStats struct {
	Count       int64              `json:"count"`
	MeanScore   float64            `json:"mean_score"`
	TopPatterns []CanaryPatternHit `json:"top_patterns"`
}

// CanaryPatternHit is one pattern's hit count.
type CanaryPatternHit struct {
	Pattern string `json:"pattern"`
	Count   int64  `json:"count"`
}

// GetCanaryStats computes row count, mean score, and per-pattern hit
// counts across all telemetry rows.
func (s *Store) GetCanaryStats() (*CanaryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &CanaryStats{}
	err := s.db.QueryRow("SELECT COUNT(*), COALESCE(AVG(score), 0) FROM canary_events").
		Scan(&stats.Count, &stats.MeanScore)
	if err != nil {
		return nil, fmt.Errorf("%w: canary stats: %v", types.ErrStorageFailure, err)
	}

	rows, err := s.db.Query("SELECT patterns FROM canary_events")
	if err != nil {
		return nil, fmt.Errorf("%w: canary stats: %v", types.ErrStorageFailure, err)
	}
	defer rows.Close()

	hits := make(map[string]int64)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var patterns []string
		if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
			continue
		}
		for _, p := range patterns {
			hits[p]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: canary stats: %v", types.ErrStorageFailure, err)
	}

	for pattern, count := range hits {
		stats.TopPatterns = append(stats.TopPatterns, CanaryPatternHit{Pattern: pattern, Count: count})
	}
	sort.Slice(stats.TopPatterns, func(i, j int) bool {
		if stats.TopPatterns[i].Count != stats.TopPatterns[j].Count {
			return stats.TopPatterns[i].Count > stats.TopPatterns[j].Count
		}
		return stats.TopPatterns[i].Pattern < stats.TopPatterns[j].Pattern
	})
	return stats, nil
}

// PurgeCanaryOlderThan removes telemetry rows older than the given age
// in days.
func (s *Store) PurgeCanaryOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: negative purge age", types.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM canary_events WHERE created_at < ?", cutoff(days))
	if err != nil {
		return 0, fmt.Errorf("%w: purge canary: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: purge canary: %v", types.ErrStorageFailure, err)
	}
	return n, nil
}

// ClearCanary drops all telemetry rows.
func (s *Store) ClearCanary() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM canary_events")
	if err != nil {
		return 0, fmt.Errorf("%w: clear canary: %v", types.ErrStorageFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: clear canary: %v", types.ErrStorageFailure, err)
	}
	return n, nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
