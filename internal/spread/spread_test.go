package spread

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	ids := IDs()
	assert.Equal(t, []string{"mind_body_spirit", "past_present_future", "situation_action_outcome"}, ids)

	s, err := Get("past_present_future")
	require.NoError(t, err)
	assert.Equal(t, []string{"Past", "Present", "Future"}, s.Positions)

	_, err = Get("celtic_cross")
	assert.Error(t, err)
}

func TestGetReturnsACopy(t *testing.T) {
	s, err := Get("mind_body_spirit")
	require.NoError(t, err)
	s.Positions[0] = "mutated"

	again, err := Get("mind_body_spirit")
	require.NoError(t, err)
	assert.Equal(t, "Mind", again.Positions[0])
}

func TestCustom(t *testing.T) {
	s, err := Custom([]string{" You ", "Them", "The Bridge"})
	require.NoError(t, err)
	assert.Equal(t, []string{"You", "Them", "The Bridge"}, s.Positions)
	assert.Equal(t, "You • Them • The Bridge", s.Name)

	_, err = Custom(nil)
	assert.Error(t, err)

	_, err = Custom([]string{"a", "  ", "c"})
	assert.Error(t, err)

	eleven := strings.Split("a b c d e f g h i j k", " ")
	_, err = Custom(eleven)
	assert.Error(t, err)
}

func TestDefaultPositions(t *testing.T) {
	assert.Equal(t, []string{"Card 1", "Card 2", "Card 3"}, DefaultPositions(3))
	assert.Empty(t, DefaultPositions(0))
}
