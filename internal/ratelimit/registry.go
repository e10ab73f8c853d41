package ratelimit

import "time"

// Category selects which limiter applies to a route. Selection is by
// request path at route registration time, never by caller identity.
type Category string

const (
	// CategoryAuth covers credential-handling endpoints, which get a
	// stricter budget to slow down brute-force attempts.
	CategoryAuth Category = "auth"
	// CategoryDefault covers all other traffic.
	CategoryDefault Category = "default"
)

// Registry owns the per-category limiter instances. It is constructed once
// at startup, handed into the admission middleware, and closed with the
// service.
type Registry struct {
	auth *Limiter
	def  *Limiter
}

// NewRegistry builds both limiters over a shared window size.
func NewRegistry(maxAuth, maxDefault int, window time.Duration) *Registry {
	return &Registry{
		auth: New(maxAuth, window),
		def:  New(maxDefault, window),
	}
}

// For returns the limiter bound to the category.
func (r *Registry) For(category Category) *Limiter {
	if category == CategoryAuth {
		return r.auth
	}
	return r.def
}

// Close stops both limiters' janitors.
func (r *Registry) Close() {
	r.auth.Close()
	r.def.Close()
}
