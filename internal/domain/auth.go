package domain

import "time"

// Token carries metadata about an issued bearer token. The signed string
// itself is opaque; once issued a token is never mutated, only re-issued.
type Token struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the resolved identity behind a verified token. It lives for
// the duration of a single request.
type Principal struct {
	Subject string
	Active  bool
	Roles   []string
}

// HasRole reports whether the principal carries the given capability tag.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
