package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lukeeterna/dropevolution-api/internal/domain"
	"github.com/lukeeterna/dropevolution-api/internal/ratelimit"
	apperrors "github.com/lukeeterna/dropevolution-api/pkg/util"
)

const principalKey = "auth_principal"

// ErrPrincipalNotFound is returned by resolvers when no account exists for
// a token's subject.
var ErrPrincipalNotFound = errors.New("principal not found")

// IdentityResolver looks up the principal behind a verified subject. This
// is the only blocking call the admission pipeline makes.
type IdentityResolver interface {
	ResolvePrincipal(ctx context.Context, subject string) (*domain.Principal, error)
}

// Admission is the per-request admission pipeline: extract bearer token,
// verify it, resolve the principal, apply the rate limit, then hand off to
// the downstream handler. Every rejection is terminal and surfaces as
// exactly one APIError; retries are the client's responsibility.
type Admission struct {
	verifier *Verifier
	resolver IdentityResolver
	limits   *ratelimit.Registry
	enabled  bool
	clock    func() time.Time
}

// NewAdmission wires the pipeline. The registry may be nil or disabled, in
// which case rate limiting is skipped. A nil clock defaults to time.Now.
func NewAdmission(verifier *Verifier, resolver IdentityResolver, limits *ratelimit.Registry, enabled bool, clock func() time.Time) *Admission {
	if clock == nil {
		clock = time.Now
	}
	return &Admission{
		verifier: verifier,
		resolver: resolver,
		limits:   limits,
		enabled:  enabled && limits != nil,
		clock:    clock,
	}
}

// RouteOptions parameterize the pipeline per route group.
type RouteOptions struct {
	// AuthRequired rejects requests carrying no token. Public routes
	// leave it false; a token presented on a public route is still
	// verified if present.
	AuthRequired bool
	// Category picks the limiter budget for the route's path.
	Category ratelimit.Category
}

// Middleware returns the fiber handler enforcing admission for a route.
func (m *Admission) Middleware(opts RouteOptions) fiber.Handler {
	if opts.Category == "" {
		opts.Category = ratelimit.CategoryDefault
	}
	return func(c *fiber.Ctx) error {
		token, err := extractBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		if token == "" && opts.AuthRequired {
			return apperrors.NewAuthenticationRequired("authentication required")
		}

		var principal *domain.Principal
		if token != "" {
			claims, outcome := m.verifier.Verify(token)
			switch outcome {
			case OutcomeMalformed:
				return apperrors.NewTokenInvalid("invalid token", map[string]any{"reason": "malformed"})
			case OutcomeNotYetValid:
				return apperrors.NewTokenInvalid("token not yet valid", map[string]any{"reason": "not_yet_valid"})
			case OutcomeExpired:
				return apperrors.NewTokenExpired("token expired", map[string]any{"reason": "expired"})
			}

			principal, err = m.resolve(c.UserContext(), claims.Subject)
			if err != nil {
				return err
			}
		}

		if m.enabled {
			decision := m.limits.For(opts.Category).Allow(clientKey(c, principal), m.clock())
			setRateHeaders(c, decision)
			if !decision.Allowed {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(decision.ResetIn()))
				return apperrors.NewRateLimitExceeded(decision.ResetIn())
			}
		}

		if principal != nil {
			c.Locals(principalKey, principal)
		}
		return c.Next()
	}
}

func (m *Admission) resolve(ctx context.Context, subject string) (*domain.Principal, error) {
	principal, err := m.resolver.ResolvePrincipal(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"subject": subject})
		}
		return nil, apperrors.ToAPIError(err)
	}
	if !principal.Active {
		return nil, apperrors.NewPermissionDenied("account is inactive")
	}
	return principal, nil
}

// clientKey picks the identity under which rate limit counters are kept:
// the authenticated subject when one was resolved, the network origin
// otherwise.
func clientKey(c *fiber.Ctx, principal *domain.Principal) string {
	if principal != nil {
		return "user:" + principal.Subject
	}
	return "ip:" + c.IP()
}

func setRateHeaders(c *fiber.Ctx, d ratelimit.Decision) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// extractBearer pulls the token out of an Authorization header. An empty
// header yields an empty token and no error; whether that is fatal depends
// on the route's AuthRequired flag.
func extractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewTokenInvalid("invalid authorization header", map[string]any{"reason": "scheme"})
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperrors.NewTokenInvalid("invalid authorization header", map[string]any{"reason": "empty"})
	}
	return token, nil
}

// PrincipalFromContext retrieves the principal stashed by the pipeline.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
