// Package spread defines reading layouts: the built-in spreads and
// validation for caller-supplied custom position labels.
package spread

import (
	"fmt"
	"sort"
	"strings"
)

// MaxCustomPositions bounds caller-supplied spreads.
const MaxCustomPositions = 10

// Spread is a named reading layout.
type Spread struct {
	ID        string
	Name      string
	Positions []string
}

var builtins = map[string]Spread{
	"past_present_future": {
		ID:        "past_present_future",
		Name:      "Past • Present • Future",
		Positions: []string{"Past", "Present", "Future"},
	},
	"mind_body_spirit": {
		ID:        "mind_body_spirit",
		Name:      "Mind • Body • Spirit",
		Positions: []string{"Mind", "Body", "Spirit"},
	},
	"situation_action_outcome": {
		ID:        "situation_action_outcome",
		Name:      "Situation • Action • Outcome",
		Positions: []string{"Situation", "Action", "Outcome"},
	},
}

// Get looks up a built-in spread by id.
func Get(id string) (Spread, error) {
	s, ok := builtins[id]
	if !ok {
		return Spread{}, fmt.Errorf("spread: unknown spread %q", id)
	}
	out := s
	out.Positions = append([]string(nil), s.Positions...)
	return out, nil
}

// IDs returns the built-in spread ids in lexical order.
func IDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Custom builds a spread from caller-supplied position labels. Labels
// are trimmed; empty labels and out-of-range counts are rejected.
func Custom(positions []string) (Spread, error) {
	if len(positions) < 1 || len(positions) > MaxCustomPositions {
		return Spread{}, fmt.Errorf("spread: need between 1 and %d positions, got %d", MaxCustomPositions, len(positions))
	}
	cleaned := make([]string, 0, len(positions))
	for i, p := range positions {
		p = strings.TrimSpace(p)
		if p == "" {
			return Spread{}, fmt.Errorf("spread: position %d is empty", i+1)
		}
		cleaned = append(cleaned, p)
	}
	return Spread{
		ID:        "custom",
		Name:      strings.Join(cleaned, " • "),
		Positions: cleaned,
	}, nil
}

// DefaultPositions labels an ad-hoc draw: "Card 1" through "Card n".
func DefaultPositions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Card %d", i+1)
	}
	return out
}
