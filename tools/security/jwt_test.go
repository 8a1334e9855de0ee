package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	token, exp, err := Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", exp)
	}
	got, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "user-42" {
		t.Fatalf("subject = %q", got)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatalf("token signed with a different key must not verify")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.TTL = time.Nanosecond
	token, _, err := Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // exp has one-second resolution
	if _, err := Verify(opts, token); err == nil {
		t.Fatalf("expired token must not verify")
	}
}

func TestUnsupportedAlg(t *testing.T) {
	opts := Options{Secret: []byte("x"), Alg: "RS256"}
	if _, _, err := Generate(opts, "u"); err == nil {
		t.Fatalf("RSA alg must be rejected")
	}
}
