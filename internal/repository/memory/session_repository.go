package memory

import (
	"sync"
	"time"

	"ai-finance-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type sessionEntry struct {
	turn    sync.Mutex
	mu      sync.RWMutex
	session *store.Session
}

// SessionRepository keeps conversation histories in process memory.
// Entries never expire and are lost on restart.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionRepository) entry(sessionID string) *sessionEntry {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*sessionEntry)
	}
	now := time.Now()
	e := &sessionEntry{session: &store.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now}}
	// Add fails when another goroutine created the entry first
	if err := r.cache.Add(sessionID, e, cache.NoExpiration); err != nil {
		x, _ := r.cache.Get(sessionID)
		return x.(*sessionEntry)
	}
	return e
}

// Lock serializes turns within one session and returns the matching unlock.
// Turns of different sessions never contend.
func (r *SessionRepository) Lock(sessionID string) func() {
	e := r.entry(sessionID)
	e.turn.Lock()
	return e.turn.Unlock
}

// Get returns a snapshot of the session, creating it when absent.
func (r *SessionRepository) Get(sessionID string) *store.Session {
	e := r.entry(sessionID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Clone()
}

// Exists reports whether the session has been created.
func (r *SessionRepository) Exists(sessionID string) bool {
	_, found := r.cache.Get(sessionID)
	return found
}

func (r *SessionRepository) History(sessionID string) []store.Message {
	return r.Get(sessionID).History
}

// Append adds messages to the end of the session history in order.
func (r *SessionRepository) Append(sessionID string, messages ...store.Message) {
	e := r.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	for _, m := range messages {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		e.session.History = append(e.session.History, m)
	}
	e.session.UpdatedAt = now
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
