// Package policy implements the tool access engine. The engine is pure:
// it holds immutable configuration and no mutable state, so identical
// inputs always produce identical decisions.
package policy

import (
	"fmt"

	"wasp/internal/types"
)

// Decision is the outcome of one tool-call evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine evaluates tool calls against the configured lists and the
// caller's turn trust.
type Engine struct {
	dangerous   map[string]bool
	safe        map[string]bool
	defaultDeny bool
}

// NewEngine builds an engine from the configured tool lists. If a tool
// appears in both lists, dangerous wins: overlap can only tighten the
// configuration, never loosen it. defaultDeny flips the posture for
// unlisted tools from allow to block.
func NewEngine(dangerousTools, safeTools []string, defaultDeny bool) *Engine {
	e := &Engine{
		dangerous:   make(map[string]bool, len(dangerousTools)),
		safe:        make(map[string]bool, len(safeTools)),
		defaultDeny: defaultDeny,
	}
	for _, tool := range dangerousTools {
		e.dangerous[tool] = true
	}
	for _, tool := range safeTools {
		e.safe[tool] = true
	}
	return e
}

// Evaluate decides whether a tool call may proceed given the turn trust.
// Trusted and sovereign senders pass with no further checks. Everyone
// else is allowed safe tools, blocked from dangerous tools, and gets the
// configured default for unlisted names.
func (e *Engine) Evaluate(toolName string, trust types.TrustLevel) Decision {
	if trust.ActsFreely() {
		return Decision{Allowed: true, Reason: "sender is trusted"}
	}

	if e.safe[toolName] && !e.dangerous[toolName] {
		return Decision{Allowed: true, Reason: fmt.Sprintf("tool %s is safe-listed", toolName)}
	}
	if e.dangerous[toolName] {
		return Decision{Allowed: false, Reason: fmt.Sprintf("tool %s blocked for untrusted sender", toolName)}
	}
	if e.defaultDeny {
		return Decision{Allowed: false, Reason: fmt.Sprintf("tool %s unlisted and default-deny is on", toolName)}
	}
	// Unlisted tools default to allowed. Known softness: tools added to
	// the host must be classified explicitly or they pass this gate.
	return Decision{Allowed: true, Reason: fmt.Sprintf("tool %s is unlisted", toolName)}
}
