package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcanaland/oraclebot/internal/catalog"
)

// Reading kinds. Spread readings carry the spread id prefixed with
// "spread:"; custom layouts use KindCustom.
const (
	KindAdHoc  = "draw"
	KindCustom = "custom"

	SpreadKindPrefix = "spread:"
)

// Draw bounds: ad-hoc draws are capped at maxAdHocDraw; spread draws
// are bounded by their position count instead.
const maxAdHocDraw = 5

// RevealTTL is how long a reading's controls stay live after the draw.
const RevealTTL = 5 * time.Minute

// DrawRequest describes one draw. Positions must already be resolved
// (spread positions or default labels) and its length is the draw count.
type DrawRequest struct {
	SessionID     string
	OwnerID       string
	Kind          string
	Positions     []string
	Question      string
	TargetSubject string
}

// DrawResult is a fresh reading plus whether the deck was implicitly
// reshuffled to satisfy the draw, so the caller can surface it.
type DrawResult struct {
	Reading    *Reading
	Reshuffled bool
	Remaining  int
}

// RevealResult reports one accepted reveal.
type RevealResult struct {
	Card      string
	Position  string
	Reversed  bool
	Completed bool
}

// Counts is a session's deck bookkeeping, for deck-info surfaces.
type Counts struct {
	Total     int
	Remaining int
	Drawn     int
}

// Manager runs deck lifecycle and reveal state for all sessions. All
// mutation goes through the store's per-session locks.
type Manager struct {
	store   *Store
	catalog *catalog.Catalog
	logger  *slog.Logger

	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager wires a manager around a store and catalog. A nil logger
// defaults to slog.Default().
func NewManager(store *Store, cat *catalog.Catalog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:   store,
		catalog: cat,
		logger:  logger,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Store exposes the underlying session store.
func (m *Manager) Store() *Store { return m.store }

// Catalog exposes the card catalog the manager draws from.
func (m *Manager) Catalog() *catalog.Catalog { return m.catalog }

// shuffledCatalog returns a fresh full-catalog permutation.
func (m *Manager) shuffledCatalog() []string {
	names := m.catalog.Names()
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	m.rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return names
}

// coinFlip returns true with probability one half.
func (m *Manager) coinFlip() bool {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(2) == 1
}

// ensureDeck lazily initializes ds.deck with a shuffled permutation.
// Caller holds ds.mu.
func (m *Manager) ensureDeck(ds *deckState) {
	if ds.deck == nil && ds.drawn == nil {
		ds.deck = m.shuffledCatalog()
	}
}

// reshuffleLocked replaces the deck with a fresh permutation and clears
// the drawn pile and undo buffer. Caller holds ds.mu.
func (m *Manager) reshuffleLocked(ds *deckState) {
	ds.deck = m.shuffledCatalog()
	ds.drawn = nil
	ds.undo = nil
}

// Shuffle resets a session's deck. Any pending undo is lost.
func (m *Manager) Shuffle(sessionID string) {
	ds := m.store.deckFor(sessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	m.reshuffleLocked(ds)
	m.logger.Info("deck shuffled", "session", sessionID)
}

// Counts reports the session's deck bookkeeping.
func (m *Manager) Counts(sessionID string) Counts {
	ds := m.store.deckFor(sessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	m.ensureDeck(ds)
	return Counts{
		Total:     m.catalog.Size(),
		Remaining: len(ds.deck),
		Drawn:     len(ds.drawn),
	}
}

// DeckOrder returns the session's remaining deck, front first. Intended
// for tests and diagnostics; the order is the draw order.
func (m *Manager) DeckOrder(sessionID string) []string {
	ds := m.store.deckFor(sessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	m.ensureDeck(ds)
	out := make([]string, len(ds.deck))
	copy(out, ds.deck)
	return out
}

// Draw removes count cards from the deck front, reshuffling first when
// the deck cannot cover the draw, and opens a new reading over them.
// The undo buffer is replaced wholesale with the drawn cards.
func (m *Manager) Draw(req DrawRequest) (DrawResult, error) {
	count := len(req.Positions)
	if count < 1 {
		return DrawResult{}, validationErrorf("nothing to draw")
	}
	if req.Kind == KindAdHoc && count > maxAdHocDraw {
		return DrawResult{}, validationErrorf("draw between 1 and %d cards", maxAdHocDraw)
	}
	if count > m.catalog.Size() {
		return DrawResult{}, validationErrorf("the deck only holds %d cards", m.catalog.Size())
	}
	if req.SessionID == "" {
		return DrawResult{}, validationErrorf("missing session id")
	}

	ds := m.store.deckFor(req.SessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	m.ensureDeck(ds)

	reshuffled := false
	if len(ds.deck) < count {
		m.reshuffleLocked(ds)
		reshuffled = true
	}

	cards := make([]string, count)
	copy(cards, ds.deck[:count])
	ds.deck = ds.deck[count:]
	ds.drawn = append(ds.drawn, cards...)
	ds.undo = append([]string(nil), cards...)

	reversed := make([]bool, count)
	for i := range reversed {
		reversed[i] = m.coinFlip()
	}

	now := m.now()
	r := &Reading{
		ID:            uuid.NewString(),
		SessionID:     req.SessionID,
		OwnerID:       req.OwnerID,
		Kind:          req.Kind,
		Question:      req.Question,
		TargetSubject: req.TargetSubject,
		Cards:         cards,
		Positions:     append([]string(nil), req.Positions...),
		Reversed:      reversed,
		CreatedAt:     now,
		ExpiresAt:     now.Add(RevealTTL),
		revealed:      make(map[int]bool),
	}
	m.store.dropExpired(now)
	m.store.addReading(r)

	m.logger.Info("cards drawn",
		"session", req.SessionID,
		"reading", r.ID,
		"kind", req.Kind,
		"count", count,
		"reshuffled", reshuffled,
		"remaining", len(ds.deck))

	return DrawResult{Reading: r, Reshuffled: reshuffled, Remaining: len(ds.deck)}, nil
}

// ClarifierResult is one clarifier card, drawn face-up.
type ClarifierResult struct {
	Card       string
	Reversed   bool
	Reshuffled bool
	Remaining  int
}

// DrawClarifier draws one extra card under the same
// reshuffle-on-exhaustion rule and appends it to the session's undo
// buffer, so a later undo returns the whole reading including its
// clarifier.
func (m *Manager) DrawClarifier(sessionID string) (ClarifierResult, error) {
	if sessionID == "" {
		return ClarifierResult{}, validationErrorf("missing session id")
	}
	ds := m.store.deckFor(sessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	m.ensureDeck(ds)

	reshuffled := false
	if len(ds.deck) < 1 {
		m.reshuffleLocked(ds)
		reshuffled = true
	}

	card := ds.deck[0]
	ds.deck = ds.deck[1:]
	ds.drawn = append(ds.drawn, card)
	ds.undo = append(ds.undo, card)

	m.logger.Info("clarifier drawn", "session", sessionID, "card", card, "reshuffled", reshuffled)

	return ClarifierResult{
		Card:       card,
		Reversed:   m.coinFlip(),
		Reshuffled: reshuffled,
		Remaining:  len(ds.deck),
	}, nil
}

// Undo reinserts the undo buffer at the deck front in original draw
// order and clears the buffer. Returns the restored card names.
func (m *Manager) Undo(sessionID string) ([]string, error) {
	ds := m.store.deckFor(sessionID)
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if len(ds.undo) == 0 {
		return nil, ErrNoUndoAvailable
	}

	restored := append([]string(nil), ds.undo...)
	ds.deck = append(restored, ds.deck...)
	// The undo buffer is always the tail of the drawn pile.
	ds.drawn = ds.drawn[:len(ds.drawn)-len(ds.undo)]
	ds.undo = nil

	m.logger.Info("draw undone", "session", sessionID, "restored", len(restored))
	return append([]string(nil), restored...), nil
}

// UndoAndShuffle undoes the last draw, then reshuffles the whole deck.
func (m *Manager) UndoAndShuffle(sessionID string) ([]string, error) {
	restored, err := m.Undo(sessionID)
	if err != nil {
		return nil, err
	}
	m.Shuffle(sessionID)
	return restored, nil
}

// Reading looks up a live reading by id.
func (m *Manager) Reading(id string) (*Reading, error) {
	r, ok := m.store.reading(id)
	if !ok {
		return nil, ErrUnknownReading
	}
	return r, nil
}

// Reveal applies one reveal click to a reading. On the completing
// reveal the finished projection lands in the owner's most-recent slot.
func (m *Manager) Reveal(readingID string, index int) (RevealResult, error) {
	r, ok := m.store.reading(readingID)
	if !ok {
		return RevealResult{}, ErrUnknownReading
	}

	now := m.now()
	completed, err := r.reveal(index, now)
	if err != nil {
		return RevealResult{}, err
	}

	if completed {
		m.store.setLastCompleted(r.OwnerID, r.projection(now))
		m.logger.Info("reading complete", "reading", r.ID, "owner", r.OwnerID, "cards", len(r.Cards))
	}

	return RevealResult{
		Card:      r.Cards[index],
		Position:  r.Positions[index],
		Reversed:  r.Reversed[index],
		Completed: completed,
	}, nil
}
