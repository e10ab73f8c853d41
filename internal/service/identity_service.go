package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lukeeterna/dropevolution-api/internal/auth"
	"github.com/lukeeterna/dropevolution-api/internal/domain"
	"github.com/lukeeterna/dropevolution-api/internal/repository"
)

// IdentityService resolves token subjects into principals. Lookups go
// through a short-TTL Redis cache; an unreachable cache degrades to direct
// database reads, never to a request failure.
type IdentityService struct {
	users  repository.UserRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdentityService builds the resolver. The cache client may be nil.
func NewIdentityService(users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *IdentityService {
	return &IdentityService{users: users, cache: cache, ttl: ttl, logger: logger}
}

type cachedPrincipal struct {
	Subject string   `json:"subject"`
	Active  bool     `json:"active"`
	Roles   []string `json:"roles"`
}

// ResolvePrincipal implements auth.IdentityResolver.
func (s *IdentityService) ResolvePrincipal(ctx context.Context, subject string) (*domain.Principal, error) {
	if principal := s.fromCache(ctx, subject); principal != nil {
		return principal, nil
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}

	principal := &domain.Principal{
		Subject: user.ID,
		Active:  user.Active,
		Roles:   user.Roles,
	}
	s.toCache(ctx, subject, principal)
	return principal, nil
}

func (s *IdentityService) fromCache(ctx context.Context, subject string) *domain.Principal {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(subject)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("principal cache read failed", zap.Error(err))
		}
		return nil
	}
	var cached cachedPrincipal
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil
	}
	return &domain.Principal{Subject: cached.Subject, Active: cached.Active, Roles: cached.Roles}
}

func (s *IdentityService) toCache(ctx context.Context, subject string, principal *domain.Principal) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cachedPrincipal{
		Subject: principal.Subject,
		Active:  principal.Active,
		Roles:   principal.Roles,
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(subject), raw, s.ttl).Err(); err != nil {
		s.logger.Debug("principal cache write failed", zap.Error(err))
	}
}

// Invalidate drops a cached principal, e.g. after an account status change.
func (s *IdentityService) Invalidate(ctx context.Context, subject string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(subject)).Err(); err != nil {
		s.logger.Debug("principal cache invalidate failed", zap.Error(err))
	}
}

func cacheKey(subject string) string {
	return "principal:" + subject
}
