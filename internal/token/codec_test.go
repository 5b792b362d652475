package token_test

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/rentloop/auth-service/internal/token"
)

func TestGeneratePlain_URLSafe(t *testing.T) {
	plain, err := token.GeneratePlain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if escaped := url.QueryEscape(plain); escaped != plain {
		t.Errorf("token %q is not URL-safe (escapes to %q)", plain, escaped)
	}
}

func TestGeneratePlain_CarriesFullEntropy(t *testing.T) {
	plain, err := token.GeneratePlain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(plain)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) < 32 {
		t.Errorf("token carries %d bytes of randomness, want at least 32", len(raw))
	}
}

func TestGeneratePlain_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		plain, err := token.GeneratePlain()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[plain]; dup {
			t.Fatalf("duplicate token generated: %q", plain)
		}
		seen[plain] = struct{}{}
	}
}

func TestHash_Deterministic(t *testing.T) {
	plain, err := token.GeneratePlain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a, b := token.Hash(plain), token.Hash(plain); a != b {
		t.Errorf("hash is not deterministic: %q != %q", a, b)
	}
}

func TestHash_DistinguishesInputs(t *testing.T) {
	if token.Hash("a") == token.Hash("b") {
		t.Error("different inputs produced the same digest")
	}
}
