// Package config loads the bot configuration: a TOML file under the
// XDG config home, with environment overrides for secrets and
// deploy-time settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// defaultImageBaseURL is where the stock card art lives.
const defaultImageBaseURL = "https://raw.githubusercontent.com/Digital-Void-divo/Oracle-of-the-Moon/main/card_images"

// Config is the application configuration.
type Config struct {
	// CatalogPath points at an optional TOML card-table override.
	CatalogPath string `toml:"catalog" env:"ORACLE_CATALOG"`

	// ImageBaseURL is the card art source root.
	ImageBaseURL string `toml:"image_base_url" env:"ORACLE_IMAGE_BASE_URL"`

	// AttachmentLimit is the platform attachment ceiling in bytes.
	AttachmentLimit int `toml:"attachment_limit"`

	// CardGap is the composite inter-card spacing in pixels.
	CardGap int `toml:"card_gap"`

	// MaxCompositeWidth bounds the composite before encoding.
	MaxCompositeWidth int `toml:"max_composite_width"`

	// CacheSize bounds the decoded-image LRU.
	CacheSize int `toml:"cache_size"`

	// JournalURL addresses the shared remote journal document.
	JournalURL string `toml:"journal_url" env:"ORACLE_JOURNAL_URL"`

	// JournalToken is the write credential for the journal. Environment
	// only; it never belongs in the config file.
	JournalToken string `toml:"-" env:"ORACLE_JOURNAL_TOKEN"`

	// ListenAddr is the gateway bind address.
	ListenAddr string `toml:"listen_addr" env:"ORACLE_LISTEN_ADDR"`
}

// defaults returns the stock configuration.
func defaults() Config {
	return Config{
		ImageBaseURL:      defaultImageBaseURL,
		AttachmentLimit:   8 << 20,
		CardGap:           16,
		MaxCompositeWidth: 1920,
		CacheSize:         128,
		ListenAddr:        ":8089",
	}
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or its default.
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetConfigFilePath returns the default config file location.
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "oraclebot", "config.toml")
}

// Load reads the config file at path (the default location when path
// is empty), then applies environment overrides. A missing file is not
// an error; the defaults carry it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = GetConfigFilePath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if cfg.AttachmentLimit <= 0 {
		return nil, fmt.Errorf("config: attachment_limit must be positive")
	}
	if cfg.ImageBaseURL == "" {
		return nil, fmt.Errorf("config: image_base_url must be set")
	}
	return &cfg, nil
}
