package types

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePlatform(t *testing.T) {
	for _, p := range Platforms {
		got, err := ParsePlatform(string(p))
		if err != nil {
			t.Fatalf("ParsePlatform(%q) failed: %v", p, err)
		}
		if got != p {
			t.Errorf("ParsePlatform(%q) = %q", p, got)
		}
	}

	for _, raw := range []string{"", "sms", "WhatsApp", "whatsapp "} {
		if _, err := ParsePlatform(raw); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParsePlatform(%q) should fail with ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestParseTrust(t *testing.T) {
	for _, level := range []TrustLevel{TrustSovereign, TrustTrusted, TrustLimited} {
		got, err := ParseTrust(string(level))
		if err != nil {
			t.Fatalf("ParseTrust(%q) failed: %v", level, err)
		}
		if got != level {
			t.Errorf("ParseTrust(%q) = %q", level, got)
		}
	}

	for _, raw := range []string{"", "unknown", "Sovereign", "admin"} {
		if _, err := ParseTrust(raw); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseTrust(%q) should fail with ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestActsFreely(t *testing.T) {
	if !TrustSovereign.ActsFreely() || !TrustTrusted.ActsFreely() {
		t.Error("sovereign and trusted must act freely")
	}
	if TrustLimited.ActsFreely() || TrustUnknown.ActsFreely() {
		t.Error("limited and unknown must not act freely")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"Short", "hello", 100, "hello"},
		{"Exact", "hello", 5, "hello"},
		{"Cut", "hello world", 5, "hello..."},
		{"Empty", "", 10, ""},
		{"ZeroMax", "hello", 0, ""},
		{"Unicode", strings.Repeat("é", 10), 3, "ééé..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
