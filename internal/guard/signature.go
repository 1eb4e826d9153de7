// Package guard enforces the outbound identity marker: agent-generated
// messages on configured channels must carry the configured signature,
// appended or blocked per policy.
package guard

import (
	"fmt"
	"strings"

	"wasp/internal/config"
	"wasp/internal/types"
)

// Actions for a missing signature.
const (
	ActionAppend = "append"
	ActionBlock  = "block"
)

// Result is the outcome of one outbound inspection.
type Result struct {
	Content  string
	Modified bool
	Blocked  bool
	Reason   string
}

// Signature inspects outbound agent messages.
type Signature struct {
	enabled   bool
	signature string
	prefix    string
	action    string
	channels  map[string]bool
}

// NewSignature builds the guard from validated configuration. An enabled
// guard without a signature is a startup failure, never a first-use one;
// Validate catches it before any request is accepted.
func NewSignature(cfg config.SignatureConfig) (*Signature, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	g := &Signature{
		enabled:   cfg.Enabled,
		signature: cfg.Signature,
		prefix:    cfg.SignaturePrefix,
		action:    cfg.Action,
		channels:  make(map[string]bool, len(cfg.Channels)),
	}
	if g.action == "" {
		g.action = ActionAppend
	}
	for _, ch := range cfg.Channels {
		g.channels[ch] = true
	}
	return g, nil
}

// Validate checks guard configuration at process start.
func Validate(cfg config.SignatureConfig) error {
	if cfg.Enabled && cfg.Signature == "" {
		return fmt.Errorf("%w: signature guard enabled without a signature", types.ErrMisconfigured)
	}
	switch cfg.Action {
	case "", ActionAppend, ActionBlock:
		return nil
	}
	return fmt.Errorf("%w: signature action %q", types.ErrMisconfigured, cfg.Action)
}

// Inspect applies the guard to one outbound message. Disabled guard,
// unenumerated channel, or non-agent origin pass through untouched. A
// message already carrying the signature is never modified twice.
func (g *Signature) Inspect(content, channel string, fromAgent bool) Result {
	if !g.enabled || !fromAgent || !g.channels[channel] {
		return Result{Content: content}
	}
	if strings.Contains(content, g.signature) {
		return Result{Content: content}
	}

	if g.action == ActionBlock {
		return Result{Content: content, Blocked: true, Reason: "missing signature"}
	}
	return Result{
		Content:  content + "\n\n" + g.prefix + g.signature,
		Modified: true,
	}
}
