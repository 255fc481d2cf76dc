package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/domain"
)

type storeEntry struct {
	room      *domain.Room
	expiresAt time.Time
}

// Store is a threadsafe in-memory room store with per-entry expiry.
// Get does not extend lifetime; only Set and Touch reset the timer.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[domain.RoomID]*storeEntry
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[domain.RoomID]*storeEntry),
	}
}

func (s *Store) Get(id domain.RoomID) (*domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.room, true
}

func (s *Store) Has(id domain.RoomID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// Set inserts or replaces a room and resets its expiry timer.
func (s *Store) Set(id domain.RoomID, room *domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &storeEntry{room: room, expiresAt: time.Now().Add(s.ttl)}
	log.Debug().Str("module", "core.store").Str("room", string(id)).Msg("room stored")
}

// Touch resets the expiry timer of an existing entry without replacing it.
// Mutating a room through a shared reference never extends its lifetime;
// callers that want the extension say so by calling Touch.
func (s *Store) Touch(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.expiresAt = time.Now().Add(s.ttl)
	return true
}

// SweepExpired removes every entry due at now and returns their keys, each
// exactly once. The caller publishes the expiry notifications.
func (s *Store) SweepExpired(now time.Time) []domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []domain.RoomID
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			expired = append(expired, id)
			log.Info().Str("module", "core.store").Str("room", string(id)).Msg("room expired")
		}
	}
	return expired
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
