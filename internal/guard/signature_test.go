package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/config"
	"wasp/internal/types"
)

func enabledConfig() config.SignatureConfig {
	return config.SignatureConfig{
		Enabled:   true,
		Signature: "Δ",
		Action:    ActionAppend,
		Channels:  []string{"whatsapp", "email"},
	}
}

func TestInspectDisabledPassesThrough(t *testing.T) {
	g, err := NewSignature(config.SignatureConfig{})
	require.NoError(t, err)

	res := g.Inspect("hello", "whatsapp", true)
	assert.Equal(t, "hello", res.Content)
	assert.False(t, res.Modified)
	assert.False(t, res.Blocked)
}

func TestInspectAppends(t *testing.T) {
	g, err := NewSignature(enabledConfig())
	require.NoError(t, err)

	res := g.Inspect("hello", "whatsapp", true)
	assert.True(t, res.Modified)
	assert.False(t, res.Blocked)
	assert.Equal(t, "hello\n\nΔ", res.Content)
}

func TestInspectAppendWithPrefix(t *testing.T) {
	cfg := enabledConfig()
	cfg.SignaturePrefix = "-- "
	g, err := NewSignature(cfg)
	require.NoError(t, err)

	res := g.Inspect("hello", "email", true)
	assert.Equal(t, "hello\n\n-- Δ", res.Content)
}

func TestInspectIdempotent(t *testing.T) {
	g, err := NewSignature(enabledConfig())
	require.NoError(t, err)

	first := g.Inspect("hello", "whatsapp", true)
	require.True(t, first.Modified)

	// The signed message passes a second inspection untouched.
	second := g.Inspect(first.Content, "whatsapp", true)
	assert.False(t, second.Modified)
	assert.Equal(t, first.Content, second.Content)
}

func TestInspectSkipsNonAgentAndUnlistedChannels(t *testing.T) {
	g, err := NewSignature(enabledConfig())
	require.NoError(t, err)

	res := g.Inspect("hello", "whatsapp", false)
	assert.Equal(t, "hello", res.Content)
	assert.False(t, res.Modified)

	res = g.Inspect("hello", "telegram", true)
	assert.Equal(t, "hello", res.Content)
	assert.False(t, res.Modified)
}

func TestInspectBlockAction(t *testing.T) {
	cfg := enabledConfig()
	cfg.Action = ActionBlock
	g, err := NewSignature(cfg)
	require.NoError(t, err)

	res := g.Inspect("hello", "whatsapp", true)
	assert.True(t, res.Blocked)
	assert.Equal(t, "missing signature", res.Reason)
	assert.Equal(t, "hello", res.Content)

	// An already-signed message is not blocked.
	res = g.Inspect("hello Δ", "whatsapp", true)
	assert.False(t, res.Blocked)
}

func TestValidate(t *testing.T) {
	err := Validate(config.SignatureConfig{Enabled: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMisconfigured))

	err = Validate(config.SignatureConfig{Enabled: true, Signature: "Δ", Action: "rewrite"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMisconfigured))

	require.NoError(t, Validate(config.SignatureConfig{Enabled: true, Signature: "Δ"}))
	require.NoError(t, Validate(config.SignatureConfig{}))
}
