package session

import (
	"sync"
	"time"
)

// deckState is one session's mutable deck context. All fields are
// guarded by mu; the manager locks it around every read-modify-write so
// two near-simultaneous interactions on the same session cannot
// interleave.
type deckState struct {
	mu    sync.Mutex
	deck  []string // remaining cards, front at index 0
	drawn []string // cards out of the deck since the last shuffle, in draw order
	undo  []string // most recent draw plus any clarifiers; always a suffix of drawn
}

// Store owns all per-process session state: deck contexts keyed by
// session id, live readings keyed by reading id, and each owner's
// single most-recent completed reading. It is rebuilt empty on process
// restart; sessions are advisory.
type Store struct {
	mu            sync.Mutex
	decks         map[string]*deckState
	readings      map[string]*Reading
	lastCompleted map[string]CompletedReading
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		decks:         make(map[string]*deckState),
		readings:      make(map[string]*Reading),
		lastCompleted: make(map[string]CompletedReading),
	}
}

// deckFor returns the session's deck context, creating an empty one on
// first access. The caller locks the returned state before use; lazy
// shuffling happens there, under the per-session lock.
func (s *Store) deckFor(sessionID string) *deckState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.decks[sessionID]
	if !ok {
		ds = &deckState{}
		s.decks[sessionID] = ds
	}
	return ds
}

// addReading registers a live reading.
func (s *Store) addReading(r *Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[r.ID] = r
}

// reading looks up a live reading by id.
func (s *Store) reading(id string) (*Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readings[id]
	return r, ok
}

// dropExpired removes readings whose controls have expired. Called
// opportunistically; expired readings are also rejected at reveal time
// regardless of whether the sweep has run.
func (s *Store) dropExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.readings {
		if now.After(r.ExpiresAt) {
			delete(s.readings, id)
		}
	}
}

// setLastCompleted records an owner's most recent completed reading,
// overwriting any previous one. There is no queue.
func (s *Store) setLastCompleted(ownerID string, cr CompletedReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCompleted[ownerID] = cr
}

// LastCompleted returns the owner's most recent completed reading.
func (s *Store) LastCompleted(ownerID string) (CompletedReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cr, ok := s.lastCompleted[ownerID]
	return cr, ok
}
