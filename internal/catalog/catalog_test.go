package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, 21, c.Size())
	assert.True(t, c.Has("The Fool"))
	assert.True(t, c.Has("The World"))
	assert.False(t, c.Has("The Hierophant"))

	names := c.Names()
	require.Len(t, names, 21)
	assert.Equal(t, "The Fool", names[0])
	assert.Equal(t, "The World", names[20])
}

func TestNewRejectsBadTables(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Card{{Name: "  ", UprightMeaning: "x"}})
	assert.Error(t, err)

	_, err = New([]Card{{Name: "The Sun", UprightMeaning: ""}})
	assert.Error(t, err)

	_, err = New([]Card{
		{Name: "The Sun", UprightMeaning: "a"},
		{Name: "The Sun", UprightMeaning: "b"},
	})
	assert.Error(t, err)
}

func TestMeaning(t *testing.T) {
	c := Default()

	upright, err := c.Meaning("The Fool", false)
	require.NoError(t, err)
	assert.Equal(t, "New beginnings, innocence, spontaneity, free spirit", upright)

	reversed, err := c.Meaning("The Fool", true)
	require.NoError(t, err)
	assert.Contains(t, reversed, upright)
	assert.Contains(t, reversed, "Reversed:")

	_, err = c.Meaning("The Hierophant", false)
	assert.Error(t, err)
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "the-fool", ImageKey("The Fool"))
	assert.Equal(t, "wheel-of-fortune", ImageKey("Wheel of Fortune"))
	assert.Equal(t, "the-sun", ImageKey("The Sun • "))
	assert.Equal(t, "card-back", CardBackKey)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.toml")
	data := `
[[cards]]
name = "The Comet"
meaning = "Sudden insight"

[[cards]]
name = "The Tide"
meaning = "Cycles, return, patience"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())
	assert.True(t, c.Has("The Comet"))

	m, err := c.Meaning("The Tide", false)
	require.NoError(t, err)
	assert.Equal(t, "Cycles, return, patience", m)
}

func TestLoadFileOrDefault(t *testing.T) {
	c, err := LoadFileOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 21, c.Size())

	c, err = LoadFileOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 21, c.Size())
}
