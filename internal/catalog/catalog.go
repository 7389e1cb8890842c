// Package catalog holds the fixed oracle card table and the rules for
// resolving a card's image source and presented meaning.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Card is an immutable catalog entry.
type Card struct {
	Name           string
	UprightMeaning string
}

// CardBackKey is the reserved image key for the shared card back.
const CardBackKey = "card-back"

// reversedAnnotation is appended to the upright meaning when a card is
// drawn reversed. Reversed meanings are not stored separately.
const reversedAnnotation = "Reversed: this energy is blocked, inverted, or turned inward."

// defaultCards is the built-in major-arcana table. The Hierophant is
// deliberately absent; the deck this catalog mirrors never carried it.
var defaultCards = []Card{
	{"The Fool", "New beginnings, innocence, spontaneity, free spirit"},
	{"The Magician", "Manifestation, resourcefulness, power, inspired action"},
	{"The High Priestess", "Intuition, sacred knowledge, divine feminine, subconscious"},
	{"The Empress", "Femininity, beauty, nature, abundance, nurturing"},
	{"The Emperor", "Authority, structure, control, fatherhood"},
	{"The Lovers", "Love, harmony, relationships, values alignment"},
	{"The Chariot", "Control, willpower, success, determination"},
	{"Strength", "Courage, inner strength, patience, compassion"},
	{"The Hermit", "Soul searching, introspection, inner guidance, solitude"},
	{"Wheel of Fortune", "Good luck, karma, life cycles, destiny"},
	{"Justice", "Fairness, truth, cause and effect, law"},
	{"The Hanged Man", "Pause, surrender, letting go, new perspective"},
	{"Death", "Endings, transformation, transition, letting go"},
	{"Temperance", "Balance, moderation, patience, purpose"},
	{"The Devil", "Shadow self, attachment, addiction, restriction"},
	{"The Tower", "Sudden change, upheaval, chaos, revelation"},
	{"The Star", "Hope, faith, purpose, renewal, spirituality"},
	{"The Moon", "Illusion, fear, anxiety, subconscious, intuition"},
	{"The Sun", "Positivity, fun, warmth, success, vitality"},
	{"Judgement", "Reflection, reckoning, inner calling, absolution"},
	{"The World", "Completion, accomplishment, travel, fulfillment"},
}

// Catalog is a read-only card table.
type Catalog struct {
	cards   []Card
	byName  map[string]int
	ordered []string
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultCards)
	if err != nil {
		// The built-in table is validated by tests; a bad entry here is
		// a programming error.
		panic(err)
	}
	return c
}

// New builds a catalog from the given cards, validating names and
// meanings.
func New(cards []Card) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("catalog: no cards")
	}
	c := &Catalog{
		byName: make(map[string]int, len(cards)),
	}
	for i, card := range cards {
		name := strings.TrimSpace(card.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: card %d has an empty name", i)
		}
		if strings.TrimSpace(card.UprightMeaning) == "" {
			return nil, fmt.Errorf("catalog: card %q has an empty meaning", name)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate card %q", name)
		}
		c.byName[name] = i
		c.cards = append(c.cards, Card{Name: name, UprightMeaning: strings.TrimSpace(card.UprightMeaning)})
		c.ordered = append(c.ordered, name)
	}
	return c, nil
}

// catalogFile is the TOML override format: one [[cards]] block per card.
type catalogFile struct {
	Cards []struct {
		Name    string `toml:"name"`
		Meaning string `toml:"meaning"`
	} `toml:"cards"`
}

// LoadFile loads a custom catalog from a TOML file.
func LoadFile(path string) (*Catalog, error) {
	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}
	cards := make([]Card, 0, len(file.Cards))
	for _, c := range file.Cards {
		cards = append(cards, Card{Name: c.Name, UprightMeaning: c.Meaning})
	}
	return New(cards)
}

// LoadFileOrDefault loads the override file when path is non-empty and
// the file exists, otherwise the built-in table.
func LoadFileOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(path)
}

// Size returns the number of cards in the catalog.
func (c *Catalog) Size() int { return len(c.cards) }

// Names returns every card name in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// SortedNames returns every card name in lexical order, for listings.
func (c *Catalog) SortedNames() []string {
	out := c.Names()
	sort.Strings(out)
	return out
}

// Has reports whether the catalog contains the named card.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Meaning returns the presented meaning for a card, applying the fixed
// reversed annotation when reversed is set.
func (c *Catalog) Meaning(name string, reversed bool) (string, error) {
	i, ok := c.byName[name]
	if !ok {
		return "", fmt.Errorf("catalog: unknown card %q", name)
	}
	meaning := c.cards[i].UprightMeaning
	if reversed {
		return meaning + "\n\n" + reversedAnnotation, nil
	}
	return meaning, nil
}

// ImageKey derives the image source identifier for a card name:
// lowercase, spaces replaced with hyphens, decorative bullets stripped.
func ImageKey(name string) string {
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, " ", "-")
	key = strings.ReplaceAll(key, "•", "")
	return strings.TrimSpace(key)
}
