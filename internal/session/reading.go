package session

import (
	"sync"
	"time"
)

// Reading is one drawn hand mid-reveal. Cards, Positions and Reversed
// are parallel, length-matched, and immutable after the draw; only the
// revealed set mutates, under mu.
type Reading struct {
	ID            string
	SessionID     string
	OwnerID       string
	Kind          string
	Question      string
	TargetSubject string
	Cards         []string
	Positions     []string
	Reversed      []bool
	CreatedAt     time.Time
	ExpiresAt     time.Time

	mu        sync.Mutex
	revealed  map[int]bool
	completed bool
}

// DrawnCard is one slot of a completed reading's projection.
type DrawnCard struct {
	Name     string
	Position string
	Reversed bool
}

// CompletedReading is the projection handed to the owner's most-recent
// slot once every card is revealed. It is the only form of a reading
// that outlives its interactive control.
type CompletedReading struct {
	Timestamp     time.Time
	Kind          string
	Question      string
	TargetSubject string
	Cards         []DrawnCard
}

// Slot describes one card control: its position label and whether it
// has been revealed.
type Slot struct {
	Position string
	Revealed bool
}

// reveal marks index i revealed. It returns whether this reveal
// completed the reading. Re-revealing is rejected with
// ErrAlreadyRevealed and changes nothing; reveals after expiry are
// rejected with ErrSessionExpired.
func (r *Reading) reveal(i int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.After(r.ExpiresAt) {
		return false, ErrSessionExpired
	}
	if i < 0 || i >= len(r.Cards) {
		return false, validationErrorf("card index %d out of range", i)
	}
	if r.revealed[i] {
		return false, ErrAlreadyRevealed
	}
	r.revealed[i] = true
	if len(r.revealed) == len(r.Cards) && !r.completed {
		r.completed = true
		return true, nil
	}
	return false, nil
}

// RevealedIndexes returns the set of revealed indexes as a bitmap
// parallel to Cards.
func (r *Reading) RevealedIndexes() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.Cards))
	for i := range out {
		out[i] = r.revealed[i]
	}
	return out
}

// Slots returns the position label and reveal flag for every card, for
// control rendering.
func (r *Reading) Slots() []Slot {
	revealed := r.RevealedIndexes()
	out := make([]Slot, len(r.Cards))
	for i := range out {
		out[i] = Slot{Position: r.Positions[i], Revealed: revealed[i]}
	}
	return out
}

// Completed reports whether every card has been revealed.
func (r *Reading) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// projection assembles the completed-reading record. Only called after
// the completing reveal.
func (r *Reading) projection(now time.Time) CompletedReading {
	cards := make([]DrawnCard, len(r.Cards))
	for i := range r.Cards {
		cards[i] = DrawnCard{
			Name:     r.Cards[i],
			Position: r.Positions[i],
			Reversed: r.Reversed[i],
		}
	}
	return CompletedReading{
		Timestamp:     now,
		Kind:          r.Kind,
		Question:      r.Question,
		TargetSubject: r.TargetSubject,
		Cards:         cards,
	}
}
