// Package canary implements the injection heuristic: a telemetry-only
// scorer for prompt-injection tells in message content. It never changes
// an allow/block outcome; its purpose is visibility, including anomalous
// behavior from trusted senders. It is not a classifier of intent:
// technical discussion of injection is a known, accepted false-positive
// class.
package canary

import (
	"regexp"
	"strings"
	"time"

	"wasp/internal/types"
)

// PreviewChars is the default bound on the stored message preview.
const PreviewChars = 200

// pattern is one compiled regex family. All patterns are case-insensitive
// and RE2-compiled, so evaluation is linear in input length; there is no
// backtracking construct to blow up on adversarial input.
type pattern struct {
	name string
	re   *regexp.Regexp
}

var patterns = []pattern{
	{"ignore_instructions", regexp.MustCompile(`(?i)ignore\s+(previous|all|prior)\s+instructions`)},
	{"disregard_safety", regexp.MustCompile(`(?i)disregard\s+(previous|safety|rules)`)},
	{"system_tag", regexp.MustCompile(`(?i)\[(system|admin|root)\]`)},
	{"from_authority", regexp.MustCompile(`(?i)(from|by):\s*(system|admin)`)},
	{"admin_mode", regexp.MustCompile(`(?i)you\s+are\s+now\s+in\s+(admin|root|god)\s+mode`)},
	{"enable_mode", regexp.MustCompile(`(?i)enable\s+(debug|admin)\s+mode`)},
	{"close_tag", regexp.MustCompile(`(?i)</(system|instructions|prompt)>`)},
	{"new_instructions", regexp.MustCompile(`(?i)new\s+instructions\s*:`)},
	{"urgent_action", regexp.MustCompile(`(?i)urgent[^\n]{0,80}action\s+required`)},
	{"must_action", regexp.MustCompile(`(?i)must\s+(forward|send|execute|delete)`)},
	{"jailbreak", regexp.MustCompile(`(?i)\b(DAN|jailbreak|bypass\s+filters)\b`)},
	{"pretend_mode", regexp.MustCompile(`(?i)pretend\s+you\s+are\s+(unrestricted|evil|a\s+hacker|hacker)`)},
}

// sensitiveVerbs match with word boundaries; each adds 0.1 to the score
// with the total verb contribution capped at 0.3.
var sensitiveVerbs = regexp.MustCompile(`(?i)\b(forward|send|email|share|upload|delete|remove|destroy|execute|run|install|download|transfer|payment|purchase|grant|allow|authorize)\b`)

// Scoring constants.
const (
	patternWeight = 0.3
	verbWeight    = 0.1
	verbCap       = 0.3
)

// Result is one analysis outcome.
type Result struct {
	Score      float64   `json:"score"`
	Patterns   []string  `json:"patterns"`
	Verbs      []string  `json:"verbs"`
	Identifier string    `json:"identifier"`
	Platform   string    `json:"platform"`
	Timestamp  time.Time `json:"timestamp"`
}

// Analyzer scores message content. Stateless beyond its configuration;
// safe for concurrent use (package regexes are compiled once and
// read-only).
type Analyzer struct {
	threshold    float64
	previewChars int
}

// NewAnalyzer creates a scorer that reports Persist=true at or above the
// given score threshold. Previews on emitted events are truncated to
// previewChars; zero or negative selects the default.
func NewAnalyzer(threshold float64, previewChars int) *Analyzer {
	if previewChars <= 0 {
		previewChars = PreviewChars
	}
	return &Analyzer{threshold: threshold, previewChars: previewChars}
}

// Analyze scores content. Empty content scores zero with no matches.
func (a *Analyzer) Analyze(content, identifier string, platform types.Platform) Result {
	res := Result{
		Patterns:   []string{},
		Verbs:      []string{},
		Identifier: identifier,
		Platform:   string(platform),
		Timestamp:  time.Now().UTC(),
	}
	if content == "" {
		return res
	}

	score := 0.0
	for _, p := range patterns {
		if p.re.MatchString(content) {
			res.Patterns = append(res.Patterns, p.name)
			score += patternWeight
		}
	}

	verbScore := 0.0
	seen := make(map[string]bool)
	for _, match := range sensitiveVerbs.FindAllString(content, -1) {
		verb := strings.ToLower(match)
		if seen[verb] {
			continue
		}
		seen[verb] = true
		res.Verbs = append(res.Verbs, verb)
		verbScore += verbWeight
	}
	if verbScore > verbCap {
		verbScore = verbCap
	}
	score += verbScore

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	res.Score = score
	return res
}

// Persist reports whether a result clears the telemetry threshold.
func (a *Analyzer) Persist(res Result) bool {
	return res.Score >= a.threshold && res.Score > 0
}

// Event converts a result into a storable telemetry row, truncating the
// preview to the configured bound.
func (a *Analyzer) Event(res Result, content string) types.CanaryEvent {
	return types.CanaryEvent{
		Identifier: res.Identifier,
		Platform:   types.Platform(res.Platform),
		Score:      res.Score,
		Patterns:   res.Patterns,
		Verbs:      res.Verbs,
		Preview:    types.Truncate(content, a.previewChars),
		CreatedAt:  res.Timestamp,
	}
}
