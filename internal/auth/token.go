package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lukeeterna/dropevolution-api/internal/domain"
)

// ErrTokenMalformed indicates a token whose signature or structure is
// invalid. Temporal validity is not the codec's concern; see Verifier.
var ErrTokenMalformed = errors.New("malformed token")

// ErrMissingSecret indicates the codec was built without a signing key.
var ErrMissingSecret = errors.New("signing key not configured")

// TokenManager encodes and decodes signed bearer tokens. It performs no
// I/O and applies no expiry policy: Decode checks the signature and the
// structural shape of the claims only.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a codec for the given HS256 key and token TTL.
// An empty secret is a configuration error; callers must treat it as
// fatal at startup rather than fall back to a default key.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Claims describes the JWT payload embedded in every issued token.
type Claims struct {
	jwt.RegisteredClaims
}

// Issue builds and signs a token for the subject at the given instant.
// Claims satisfy nbf = iat < exp, with a fresh jti for future revocation.
func (tm *TokenManager) Issue(subject string, now time.Time) (string, *domain.Token, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", nil, errors.New("subject is required")
	}

	now = now.UTC()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, err
	}
	meta := &domain.Token{
		ID:        claims.ID,
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	return signed, meta, nil
}

// Decode verifies the signature and structural well-formedness of a token
// and returns its claims. Expiry is deliberately not judged here, so the
// claims of an expired-but-authentic token still come back; the Verifier
// applies temporal policy.
func (tm *TokenManager) Decode(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenMalformed
		}
		return tm.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if err := validateShape(claims); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// validateShape checks required claims and their ordering: nbf <= iat < exp.
func validateShape(claims *Claims) error {
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return errors.New("timestamps missing")
	}
	if !claims.IssuedAt.Time.Before(claims.ExpiresAt.Time) {
		return errors.New("expiry precedes issued-at")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(claims.IssuedAt.Time) {
		return errors.New("not-before follows issued-at")
	}
	return nil
}
