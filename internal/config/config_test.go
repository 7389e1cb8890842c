package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8<<20, cfg.AttachmentLimit)
	assert.Equal(t, 16, cfg.CardGap)
	assert.Equal(t, ":8089", cfg.ListenAddr)
	assert.NotEmpty(t, cfg.ImageBaseURL)
	assert.Empty(t, cfg.JournalToken)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
image_base_url = "https://cards.example.com/art"
attachment_limit = 1048576
card_gap = 8
journal_url = "https://store.example.com/journal.json"
listen_addr = ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://cards.example.com/art", cfg.ImageBaseURL)
	assert.Equal(t, 1<<20, cfg.AttachmentLimit)
	assert.Equal(t, 8, cfg.CardGap)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	// Unset fields keep their defaults.
	assert.Equal(t, 1920, cfg.MaxCompositeWidth)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`journal_url = "https://file.example.com/j.json"`), 0644))

	t.Setenv("ORACLE_JOURNAL_URL", "https://env.example.com/j.json")
	t.Setenv("ORACLE_JOURNAL_TOKEN", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/j.json", cfg.JournalURL)
	assert.Equal(t, "hunter2", cfg.JournalToken)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`attachment_limit = -1`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
