// Package session keeps recent conversation turns per chat so follow-up
// messages reach the backend with their context.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/stellarlinkco/planit/internal/llm"
)

const (
	DefaultMaxSessions = 1000
	DefaultMaxTurns    = 20
	DefaultTTL         = 6 * time.Hour
)

// Store is an in-memory, bounded turn history keyed by session. Only the
// newest maxTurns turns of a session are kept, idle sessions expire after the
// TTL and the least recently used ones are evicted past maxSessions.
type Store struct {
	mu       sync.Mutex
	cache    otter.Cache[string, []llm.Turn]
	maxTurns int
}

func NewStore(maxSessions, maxTurns int, ttl time.Duration) (*Store, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := otter.MustBuilder[string, []llm.Turn](maxSessions).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build session cache: %w", err)
	}
	return &Store{cache: cache, maxTurns: maxTurns}, nil
}

// History returns a copy of the session's turns, oldest first. An empty key
// never has history.
func (s *Store) History(key string) []llm.Turn {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, _ := s.cache.Get(key)
	return append([]llm.Turn(nil), turns...)
}

// Append adds turns to the session and trims it to the newest maxTurns.
// Appends to an empty key are dropped.
func (s *Store) Append(key string, turns ...llm.Turn) {
	if key == "" || len(turns) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, _ := s.cache.Get(key)
	next := make([]llm.Turn, 0, len(cur)+len(turns))
	next = append(next, cur...)
	next = append(next, turns...)
	if over := len(next) - s.maxTurns; over > 0 {
		next = next[over:]
	}
	s.cache.Set(key, next)
}

func (s *Store) Close() {
	s.cache.Close()
}
