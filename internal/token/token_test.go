package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func TestIssueAndVerify(t *testing.T) {
	c := NewCodec([]byte(testSecret), 2*time.Minute)

	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("unexpected email claim: got=%q want=%q", claims.Email, "a@x.com")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatalf("missing iat/exp claims: %+v", claims)
	}
}

func TestVerify_ExpiredFails(t *testing.T) {
	// negative TTL yields an already-expired token without sleeping
	c := NewCodec([]byte(testSecret), -1*time.Second)
	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := c.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_TTLBoundary(t *testing.T) {
	c := NewCodec([]byte(testSecret), 2*time.Second)
	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	// T-1s: still valid
	if _, err := c.Verify(tok); err != nil {
		t.Fatalf("token should verify before expiry: %v", err)
	}
	// T+1s: rejected
	time.Sleep(3 * time.Second)
	if _, err := c.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	c := NewCodec([]byte(testSecret), 2*time.Minute)
	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	other := NewCodec([]byte("different-secret-xxxxxxxxxxxxxxxxxx"), 2*time.Minute)
	if _, err := other.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken with wrong secret, got %v", err)
	}
}

func TestVerify_TamperedSignatureFails(t *testing.T) {
	c := NewCodec([]byte(testSecret), 5*time.Minute)
	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	// flip one character of the signature segment
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	if _, err := c.Verify(strings.Join(parts, ".")); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestVerify_TamperedPayloadFails(t *testing.T) {
	c := NewCodec([]byte(testSecret), 5*time.Minute)
	tok, err := c.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tok, ".")
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	payload := strings.Replace(string(payloadBytes), "a@x.com", "b@y.com", -1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))
	if _, err := c.Verify(strings.Join(parts, ".")); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered payload, got %v", err)
	}
}

func TestVerify_MalformedFails(t *testing.T) {
	c := NewCodec([]byte(testSecret), 5*time.Minute)
	for _, raw := range []string{"", "not.a.jwt", "onlyonepart", "a.b", "a.b.c.d"} {
		if _, err := c.Verify(raw); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

// Unsigned alg=none tokens must never pass.
func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"email":"a@x.com","iss":"planfill","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	c := NewCodec([]byte(testSecret), 5*time.Minute)
	if _, err := c.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for alg=none token, got %v", err)
	}
}
