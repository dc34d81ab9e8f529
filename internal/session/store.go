package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxDrafts bounds the cache so an abuse burst cannot grow it without
// limit; evicting a draft only cancels an abandoned flow.
const maxDrafts = 8192

// lockStripes bounds lock memory the same way maxDrafts bounds draft
// memory. Users sharing a stripe serialize against each other, which
// only costs a little contention, never correctness.
const lockStripes = 256

// Store keeps one Draft per active user. Drafts are created lazily,
// dropped on terminal transitions, and evicted after the idle TTL so a
// flow abandoned without an explicit cancel cannot leave a stale draft
// behind forever.
type Store struct {
	drafts *expirable.LRU[int64, *Draft]
	locks  [lockStripes]sync.Mutex
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		drafts: expirable.NewLRU[int64, *Draft](maxDrafts, nil, ttl),
	}
}

// Get returns the user's draft, creating an empty one on first touch.
// Re-adding on every access restarts the idle TTL.
func (s *Store) Get(userID int64) *Draft {
	if d, ok := s.drafts.Get(userID); ok {
		s.drafts.Add(userID, d)
		return d
	}

	d := &Draft{State: StateIdle}
	s.drafts.Add(userID, d)
	return d
}

// Peek returns the draft without creating one.
func (s *Store) Peek(userID int64) (*Draft, bool) {
	return s.drafts.Peek(userID)
}

// Drop destroys the user's draft. Safe to call when none exists.
func (s *Store) Drop(userID int64) {
	s.drafts.Remove(userID)
}

// Len reports how many drafts are alive, for operator visibility.
func (s *Store) Len() int {
	return s.drafts.Len()
}

// Lock returns the user's stripe mutex. The dispatcher holds it for the
// whole unit of work so events for one user are processed strictly in
// arrival order. Striping keeps the lock set a fixed size no matter how
// many users ever send an event.
func (s *Store) Lock(userID int64) *sync.Mutex {
	return &s.locks[uint64(userID)%lockStripes]
}
