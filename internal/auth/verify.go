package auth

import "time"

// Outcome is the terminal result of a single verification call.
type Outcome int

const (
	// OutcomeMalformed means the signature or structure is invalid. It
	// always wins: a tampered token is never reported as merely expired.
	OutcomeMalformed Outcome = iota
	// OutcomeExpired means the signature is good but now >= exp.
	OutcomeExpired
	// OutcomeNotYetValid means the signature is good but now < nbf.
	OutcomeNotYetValid
	// OutcomeValid means the signature is good and nbf <= now < exp.
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotYetValid:
		return "not_yet_valid"
	default:
		return "malformed"
	}
}

// Verifier applies temporal validation policy to decoded tokens. All
// verifications share one clock so concurrent decisions made in the same
// instant agree with each other.
type Verifier struct {
	codec *TokenManager
	clock func() time.Time
}

// NewVerifier builds a verifier over the given codec. A nil clock defaults
// to time.Now.
func NewVerifier(codec *TokenManager, clock func() time.Time) *Verifier {
	if clock == nil {
		clock = time.Now
	}
	return &Verifier{codec: codec, clock: clock}
}

// Verify decodes the token and judges it against the current clock.
// Claims are returned for every outcome except OutcomeMalformed.
func (v *Verifier) Verify(tokenStr string) (*Claims, Outcome) {
	claims, err := v.codec.Decode(tokenStr)
	if err != nil {
		return nil, OutcomeMalformed
	}
	return claims, v.judge(claims, v.clock())
}

func (v *Verifier) judge(claims *Claims, now time.Time) Outcome {
	now = now.UTC()
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return OutcomeNotYetValid
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return OutcomeExpired
	}
	return OutcomeValid
}
