// Package gateway is the host-runtime adapter: the four callbacks the
// host invokes around its message and tool pipelines. It wires the
// contact registry, session state, policy engine, quarantine, signature
// guard, and injection telemetry into the two shared-state pipelines.
package gateway

import (
	"fmt"

	"go.uber.org/zap"

	"wasp/internal/canary"
	"wasp/internal/config"
	"wasp/internal/guard"
	"wasp/internal/logging"
	"wasp/internal/policy"
	"wasp/internal/session"
	"wasp/internal/store"
	"wasp/internal/trust"
	"wasp/internal/types"
)

// InboundMessage is what the host hands over for each inbound event.
type InboundMessage struct {
	Content    string
	Sender     string
	Channel    types.Platform
	SessionKey string
}

// InboundOutcome reports the side effects of one inbound event. The
// inbound callback cannot veto delivery; this is observational.
type InboundOutcome struct {
	Check        types.CheckResult
	Quarantined  bool
	QuarantineID int64
	CanaryScore  float64
}

// ToolDecision is the strict-gate outcome for one tool call.
type ToolDecision struct {
	Block  bool   `json:"block"`
	Reason string `json:"reason,omitempty"`
}

// OutboundDecision is the signature-guard outcome for one outbound send.
type OutboundDecision struct {
	Content  string `json:"content"`
	Modified bool   `json:"modified"`
	Block    bool   `json:"block"`
	Reason   string `json:"reason,omitempty"`
}

// Gateway binds the enforcement core to a host runtime. One instance per
// process; safe for concurrent callbacks across sessions.
type Gateway struct {
	cfg      *config.Config
	store    *store.Store
	registry *trust.Registry
	sessions *session.Manager
	engine   *policy.Engine
	analyzer *canary.Analyzer
	sig      *guard.Signature
	log      *zap.Logger
}

// New wires a gateway from validated configuration and an opened store.
// Misconfiguration (notably the signature guard) fails here, before any
// callback fires.
func New(cfg *config.Config, st *store.Store, log *zap.Logger) (*Gateway, error) {
	sig, err := guard.NewSignature(cfg.Signature)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		cfg:      cfg,
		store:    st,
		registry: trust.NewRegistry(st),
		sessions: session.NewManager(),
		engine:   policy.NewEngine(cfg.Policy.DangerousTools, cfg.Policy.SafeTools, cfg.Policy.DefaultDeny),
		analyzer: canary.NewAnalyzer(cfg.Canary.Threshold, cfg.Canary.PreviewChars),
		sig:      sig,
		log:      log,
	}, nil
}

// Registry exposes the contact registry for admin surfaces.
func (g *Gateway) Registry() *trust.Registry {
	return g.registry
}

// Store exposes the underlying store for admin surfaces.
func (g *Gateway) Store() *store.Store {
	return g.store
}

// Sessions exposes the session manager. Test and diagnostic use.
func (g *Gateway) Sessions() *session.Manager {
	return g.sessions
}

// HandleInbound processes one inbound message: contact lookup, audit
// write, optional quarantine, turn binding, then injection telemetry.
// Exactly one audit row is written per call.
func (g *Gateway) HandleInbound(msg InboundMessage) (InboundOutcome, error) {
	if !msg.Channel.Valid() {
		return InboundOutcome{}, fmt.Errorf("%w: unknown platform %q", types.ErrInvalidInput, msg.Channel)
	}

	res, err := g.registry.Check(msg.Sender, msg.Channel)
	if err != nil {
		return InboundOutcome{}, err
	}
	outcome := InboundOutcome{Check: res}

	if err := g.store.AppendAudit(msg.Sender, msg.Channel, trust.Decision(res), res.Reason); err != nil {
		return outcome, err
	}

	if !res.Allowed && g.cfg.Quarantine.Enabled && msg.Content != "" {
		id, err := g.store.AddQuarantine(msg.Sender, msg.Channel, msg.Content, g.cfg.Quarantine.PreviewChars)
		if err != nil {
			return outcome, err
		}
		outcome.Quarantined = true
		outcome.QuarantineID = id
	}

	// The turn is bound even for denied senders: a tool call scheduled by
	// this turn must see unknown trust, not a stale prior binding.
	g.sessions.SetTurn(msg.SessionKey, res.Trust, msg.Sender, msg.Channel)

	scored := g.analyzer.Analyze(msg.Content, msg.Sender, msg.Channel)
	outcome.CanaryScore = scored.Score
	if g.analyzer.Persist(scored) {
		if err := g.store.AddCanaryEvent(g.analyzer.Event(scored, msg.Content)); err != nil {
			// Telemetry must not break the inbound path.
			g.log.Warn("canary telemetry write failed", zap.Error(err))
		} else {
			logging.Get(logging.CategoryCanary).Info(
				"telemetry: sender=%s/%s score=%.2f patterns=%v",
				msg.Sender, msg.Channel, scored.Score, scored.Patterns)
		}
	}

	logging.Gateway("inbound: sender=%s/%s session=%s decision=%s",
		msg.Sender, msg.Channel, session.Normalize(msg.SessionKey), trust.Decision(res))
	return outcome, nil
}

// PreToolCall is the strict gate: it reads the trust label bound to the
// session and asks the policy engine whether the tool may run. Exactly
// one audit row is written per decision.
func (g *Gateway) PreToolCall(toolName, sessionKey string) (ToolDecision, error) {
	turn := g.sessions.GetTurn(sessionKey)
	decision := g.engine.Evaluate(toolName, turn.Trust)

	identifier := turn.Sender
	if identifier == "" {
		identifier = "unknown"
	}
	auditDecision := types.DecisionAllow
	if !decision.Allowed {
		auditDecision = types.DecisionDeny
	}
	if err := g.store.AppendAudit(identifier, turn.Platform, auditDecision, decision.Reason); err != nil {
		return ToolDecision{}, err
	}

	logging.Get(logging.CategoryPolicy).Info("tool=%s session=%s trust=%q allowed=%v",
		toolName, session.Normalize(sessionKey), turn.Trust, decision.Allowed)

	if decision.Allowed {
		return ToolDecision{}, nil
	}
	return ToolDecision{Block: true, Reason: decision.Reason}, nil
}

// PreOutbound applies the signature guard to one outbound send.
func (g *Gateway) PreOutbound(content, channel string, fromAgent bool) OutboundDecision {
	res := g.sig.Inspect(content, channel, fromAgent)
	if res.Blocked {
		return OutboundDecision{Content: content, Block: true, Reason: res.Reason}
	}
	return OutboundDecision{Content: res.Content, Modified: res.Modified}
}

// EndTurn clears the session's turn state.
func (g *Gateway) EndTurn(sessionKey string) {
	g.sessions.ClearTurn(sessionKey)
}
