package security

import (
	"testing"
	"time"
)

func TestJwtRoundtrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	tok, exp, err := Generate(opts, "u100", "employer")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("exp in the past: %v", exp)
	}

	uid, role, err := Verify(opts, tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "u100" || role != "employer" {
		t.Fatalf("claims = %q %q", uid, role)
	}
}

func TestJwtRejectsWrongSecret(t *testing.T) {
	tok, _, err := Generate(DefaultOptions([]byte("secret-a")), "u1", "seeker")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := Verify(DefaultOptions([]byte("secret-b")), tok); err == nil {
		t.Fatalf("token verified with wrong secret")
	}
}

func TestJwtRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.TTL = -time.Minute
	tok, _, err := Generate(opts, "u1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := Verify(opts, tok); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestJwtUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.Alg = "RS256"
	if _, _, err := Generate(opts, "u1", ""); err == nil {
		t.Fatalf("RS256 accepted")
	}
}
