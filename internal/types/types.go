// Package types holds the shared vocabulary of the gateway: platforms,
// trust levels, decisions, and the error taxonomy. Everything here is a
// value type; no package state.
package types

import (
	"fmt"
	"time"
)

// Platform identifies the messaging channel a contact belongs to.
// The set is closed: ad-hoc platform strings are rejected at the edges.
type Platform string

const (
	PlatformWhatsApp Platform = "whatsapp"
	PlatformTelegram Platform = "telegram"
	PlatformEmail    Platform = "email"
	PlatformDiscord  Platform = "discord"
	PlatformSlack    Platform = "slack"
	PlatformSignal   Platform = "signal"
	PlatformWebchat  Platform = "webchat"
)

// DefaultPlatform is assumed when a surface accepts an optional
// platform and none is supplied.
const DefaultPlatform = PlatformWhatsApp

// Platforms lists every accepted platform.
var Platforms = []Platform{
	PlatformWhatsApp,
	PlatformTelegram,
	PlatformEmail,
	PlatformDiscord,
	PlatformSlack,
	PlatformSignal,
	PlatformWebchat,
}

// Valid reports whether p is one of the enumerated platforms.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform validates a raw platform string.
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(raw)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, raw)
	}
	return p, nil
}

// TrustLevel is an ordered capability label. Absence of a contact is the
// implicit fourth state, TrustUnknown, with strictly lowest capability.
type TrustLevel string

const (
	TrustSovereign TrustLevel = "sovereign"
	TrustTrusted   TrustLevel = "trusted"
	TrustLimited   TrustLevel = "limited"

	// TrustUnknown is never stored; it is the decision-time label for
	// senders with no contact row.
	TrustUnknown TrustLevel = ""
)

// Valid reports whether t is a storable trust level.
func (t TrustLevel) Valid() bool {
	switch t {
	case TrustSovereign, TrustTrusted, TrustLimited:
		return true
	}
	return false
}

// ParseTrust validates a raw trust string.
func ParseTrust(raw string) (TrustLevel, error) {
	t := TrustLevel(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown trust level %q", ErrInvalidInput, raw)
	}
	return t, nil
}

// ActsFreely reports whether the label grants unrestricted tool access.
func (t TrustLevel) ActsFreely() bool {
	return t == TrustSovereign || t == TrustTrusted
}

// Decision is the outcome label written to the audit log.
type Decision string

const (
	DecisionAllow   Decision = "allow"
	DecisionDeny    Decision = "deny"
	DecisionLimited Decision = "limited"
)

// Valid reports whether d is an auditable decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAllow, DecisionDeny, DecisionLimited:
		return true
	}
	return false
}

// Contact is one whitelist row, unique by (Identifier, Platform).
type Contact struct {
	Identifier string     `json:"identifier"`
	Platform   Platform   `json:"platform"`
	Trust      TrustLevel `json:"trust"`
	Name       string     `json:"name,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CheckResult is the contract consumed by the inbound pipeline.
// Allowed=true means the message may reach the model; tool capability is
// a separate decision made per turn.
type CheckResult struct {
	Allowed bool       `json:"allowed"`
	Trust   TrustLevel `json:"trust,omitempty"`
	Reason  string     `json:"reason"`
}

// AuditEntry is one immutable decision record.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Identifier string    `json:"identifier"`
	Platform   Platform  `json:"platform"`
	Decision   Decision  `json:"decision"`
	Reason     string    `json:"reason"`
}

// QuarantinedMessage is a blocked inbound message held for review.
type QuarantinedMessage struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Platform   Platform  `json:"platform"`
	Preview    string    `json:"preview"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	Reviewed   bool      `json:"reviewed"`
}

// CanaryEvent is one persisted injection-telemetry row.
type CanaryEvent struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Platform   Platform  `json:"platform"`
	Score      float64   `json:"score"`
	Patterns   []string  `json:"patterns"`
	Verbs      []string  `json:"verbs"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
// Quarantine and telemetry previews go through here.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
