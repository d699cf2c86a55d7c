package auth

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	state := EncodeState("user-123")
	got, err := DecodeState(state)
	if err != nil {
		t.Fatalf("DecodeState failed: %v", err)
	}
	if got != "user-123" {
		t.Errorf("decoded user id = %q, want %q", got, "user-123")
	}
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	if _, err := DecodeState("!!not-base64!!"); err == nil {
		t.Error("expected error for invalid state encoding")
	}
	if _, err := DecodeState(""); err == nil {
		t.Error("expected error for empty state")
	}
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewVerifier("test-secret")
	body := []byte(`{"type":"event_callback"}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	if err := v.Verify(ts, v.Sign(ts, body), body); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	v := NewVerifier("test-secret")
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := v.Sign(ts, []byte(`{"text":"original"}`))

	err := v.Verify(ts, sig, []byte(`{"text":"tampered"}`))
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("tampered body: got %v, want ErrBadSignature", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewVerifier("other-secret")
	v := NewVerifier("test-secret")
	body := []byte(`{}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	err := v.Verify(ts, signer.Sign(ts, body), body)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("wrong secret: got %v, want ErrBadSignature", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	v := NewVerifier("test-secret")
	body := []byte(`{}`)

	// Valid signature, but signed six minutes ago.
	ts := strconv.FormatInt(time.Now().Add(-6*time.Minute).Unix(), 10)
	err := v.Verify(ts, v.Sign(ts, body), body)
	if !errors.Is(err, ErrStaleTimestamp) {
		t.Errorf("stale timestamp: got %v, want ErrStaleTimestamp", err)
	}
}

func TestVerifyAcceptsInsideFreshnessWindow(t *testing.T) {
	v := NewVerifier("test-secret")
	body := []byte(`{}`)

	ts := strconv.FormatInt(time.Now().Add(-4*time.Minute).Unix(), 10)
	if err := v.Verify(ts, v.Sign(ts, body), body); err != nil {
		t.Errorf("4-minute-old request rejected: %v", err)
	}
}

func TestVerifyRejectsNonNumericTimestamp(t *testing.T) {
	v := NewVerifier("test-secret")
	err := v.Verify("yesterday", "v0=abc", []byte(`{}`))
	if !errors.Is(err, ErrBadTimestamp) {
		t.Errorf("non-numeric timestamp: got %v, want ErrBadTimestamp", err)
	}
}

func TestVerifySkippedWithoutSecret(t *testing.T) {
	v := NewVerifier("")
	if v.Enabled() {
		t.Error("verifier should report disabled without a secret")
	}
	if err := v.Verify("", "", []byte(`{}`)); err != nil {
		t.Errorf("degraded mode should accept anything, got %v", err)
	}
}

func TestSignatureFormat(t *testing.T) {
	v := NewVerifier("s")
	sig := v.Sign("123", []byte("body"))
	var version string
	if _, err := fmt.Sscanf(sig, "v0=%s", &version); err != nil {
		t.Errorf("signature %q does not carry the v0 prefix", sig)
	}
}
