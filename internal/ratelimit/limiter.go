package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

// Decision reports the outcome of a single admission check, with the
// values needed to populate rate limit response headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// ResetIn returns the whole seconds until the window resets, suitable for
// the Retry-After header.
func (d Decision) ResetIn() int {
	return int(d.RetryAfter / time.Second)
}

const shardCount = 64

// Limiter is an in-process sliding-window rate limiter. Counters are kept
// per client key and pruned lazily on access; keys that stop sending
// traffic are swept by a background janitor once idle for a full window.
//
// State lives only in memory: a restart empties every window. That is the
// single-instance deployment assumption; horizontal scaling needs a shared
// counter store instead.
type Limiter struct {
	window time.Duration
	max    int

	shards [shardCount]*shard

	stopOnce sync.Once
	stop     chan struct{}
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*entry
}

type entry struct {
	// timestamps of admitted requests inside the trailing window, oldest
	// first; everything stored satisfies now - ts < window.
	timestamps []time.Time
	lastSeen   time.Time
}

// New builds a limiter allowing max requests per key within the trailing
// window and starts its janitor. Callers own the limiter's lifecycle and
// must Close it on shutdown.
func New(max int, window time.Duration) *Limiter {
	l := &Limiter{
		window: window,
		max:    max,
		stop:   make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i] = &shard{windows: make(map[string]*entry)}
	}
	go l.janitor()
	return l
}

// Allow records a request for key at the given instant if the key has
// capacity left, and reports the decision. Calls for the same key are
// serialized by the shard lock; different keys proceed in parallel.
func (l *Limiter) Allow(key string, now time.Time) Decision {
	s := l.shards[shardIndex(key)]

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.windows[key]
	if !ok {
		e = &entry{}
		s.windows[key] = e
	}
	e.lastSeen = now

	// Drop timestamps that have aged out of the trailing window.
	cutoff := now.Add(-l.window)
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	resetIn := l.window
	if len(e.timestamps) > 0 {
		resetIn = l.window - now.Sub(e.timestamps[0])
	}

	if len(e.timestamps) >= l.max {
		return Decision{
			Allowed:    false,
			Limit:      l.max,
			Remaining:  0,
			RetryAfter: resetIn,
			ResetAt:    now.Add(resetIn),
		}
	}

	e.timestamps = append(e.timestamps, now)
	return Decision{
		Allowed:    true,
		Limit:      l.max,
		Remaining:  l.max - len(e.timestamps),
		RetryAfter: resetIn,
		ResetAt:    now.Add(resetIn),
	}
}

// Close stops the janitor. The limiter remains usable afterwards but idle
// keys are no longer swept.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// sweep removes keys that have been idle for at least a full window, so
// the key map does not grow without bound over long uptimes.
func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.window)
	for _, s := range l.shards {
		s.mu.Lock()
		for key, e := range s.windows {
			if !e.lastSeen.After(cutoff) {
				delete(s.windows, key)
			}
		}
		s.mu.Unlock()
	}
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
