package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestVerifyValidToken(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	issuedAt := time.Unix(1700000000, 0)

	signed, _, err := tm.Issue("user-123", issuedAt)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	v := NewVerifier(tm, fixedClock(issuedAt.Add(30*time.Minute)))
	claims, outcome := v.Verify(signed)
	if outcome != OutcomeValid {
		t.Fatalf("outcome = %v, want valid", outcome)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	ttl := time.Hour
	tm := newTestManager(t, ttl)
	issuedAt := time.Unix(1700000000, 0)

	signed, _, err := tm.Issue("user-123", issuedAt)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// One second before expiry the token is still valid; at exactly
	// issuedAt+ttl it is expired.
	if _, outcome := NewVerifier(tm, fixedClock(issuedAt.Add(ttl-time.Second))).Verify(signed); outcome != OutcomeValid {
		t.Fatalf("just before expiry: outcome = %v, want valid", outcome)
	}
	if _, outcome := NewVerifier(tm, fixedClock(issuedAt.Add(ttl))).Verify(signed); outcome != OutcomeExpired {
		t.Fatalf("at expiry: outcome = %v, want expired", outcome)
	}
	if _, outcome := NewVerifier(tm, fixedClock(issuedAt.Add(2*ttl))).Verify(signed); outcome != OutcomeExpired {
		t.Fatalf("after expiry: outcome = %v, want expired", outcome)
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	issuedAt := time.Unix(1700000000, 0)

	signed, _, err := tm.Issue("user-123", issuedAt)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, outcome := NewVerifier(tm, fixedClock(issuedAt.Add(-time.Minute))).Verify(signed); outcome != OutcomeNotYetValid {
		t.Fatalf("before nbf: outcome = %v, want not yet valid", outcome)
	}
	if _, outcome := NewVerifier(tm, fixedClock(issuedAt)).Verify(signed); outcome != OutcomeValid {
		t.Fatalf("at nbf: outcome = %v, want valid", outcome)
	}
}

func TestVerifyMalformedWinsOverExpired(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	issuedAt := time.Unix(1700000000, 0)

	signed, _, err := tm.Issue("user-123", issuedAt)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Tamper with a token that is also long expired: structural
	// validity is checked first, so the report is malformed.
	mutated := []byte(signed)
	mid := len(mutated) / 2
	if mutated[mid] == 'A' {
		mutated[mid] = 'B'
	} else {
		mutated[mid] = 'A'
	}

	v := NewVerifier(tm, fixedClock(issuedAt.Add(48*time.Hour)))
	if claims, outcome := v.Verify(string(mutated)); outcome != OutcomeMalformed || claims != nil {
		t.Fatalf("outcome = %v claims = %v, want malformed with nil claims", outcome, claims)
	}
}

func TestVerifyMalformedStructure(t *testing.T) {
	tm := newTestManager(t, time.Hour)
	v := NewVerifier(tm, nil)

	// Authentic signature but no subject claim.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, outcome := v.Verify(signed); outcome != OutcomeMalformed {
		t.Fatalf("outcome = %v, want malformed", outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeValid:       "valid",
		OutcomeExpired:     "expired",
		OutcomeNotYetValid: "not_yet_valid",
		OutcomeMalformed:   "malformed",
	}
	for outcome, want := range cases {
		if got := outcome.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", outcome, got, want)
		}
	}
}
