package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"boardx/internal/board"
)

// Config holds all configuration settings
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Viewport    ViewportConfig    `mapstructure:"viewport"`
	Interaction InteractionConfig `mapstructure:"interaction"`
	Layout      LayoutConfig      `mapstructure:"layout"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Log         LogConfig         `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ViewportConfig struct {
	BufferMargin float64       `mapstructure:"buffer_margin"` // world units loaded beyond each edge
	Debounce     time.Duration `mapstructure:"debounce"`      // minimum gap between reloads
}

type InteractionConfig struct {
	DoubleClick time.Duration `mapstructure:"double_click"`
}

type LayoutConfig struct {
	MaxLabelWidth   float64 `mapstructure:"max_label_width"`
	PlaceholderText string  `mapstructure:"placeholder_text"`
}

type MaintenanceConfig struct {
	CheckpointSchedule string `mapstructure:"checkpoint_schedule"` // cron expression
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".local", "share", "boardx", "boardx.db"),
		},
		Viewport: ViewportConfig{
			BufferMargin: 300,
			Debounce:     100 * time.Millisecond,
		},
		Interaction: InteractionConfig{
			DoubleClick: 350 * time.Millisecond,
		},
		Layout: LayoutConfig{
			MaxLabelWidth:   300,
			PlaceholderText: "Edit this text",
		},
		Maintenance: MaintenanceConfig{
			CheckpointSchedule: "@every 10m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, or from config.yaml in the standard
// locations when path is empty. A missing file is not an error. BOARDX_*
// environment variables override file values (BOARDX_VIEWPORT_BUFFER_MARGIN, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("viewport.buffer_margin", cfg.Viewport.BufferMargin)
	v.SetDefault("viewport.debounce", cfg.Viewport.Debounce)
	v.SetDefault("interaction.double_click", cfg.Interaction.DoubleClick)
	v.SetDefault("layout.max_label_width", cfg.Layout.MaxLabelWidth)
	v.SetDefault("layout.placeholder_text", cfg.Layout.PlaceholderText)
	v.SetDefault("maintenance.checkpoint_schedule", cfg.Maintenance.CheckpointSchedule)
	v.SetDefault("log.level", cfg.Log.Level)

	v.SetEnvPrefix("BOARDX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "boardx"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the board cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return fmt.Errorf("config: database.path is empty")
	case c.Viewport.BufferMargin < 0:
		return fmt.Errorf("config: viewport.buffer_margin must not be negative")
	case c.Viewport.Debounce <= 0:
		return fmt.Errorf("config: viewport.debounce must be positive")
	case c.Interaction.DoubleClick <= 0:
		return fmt.Errorf("config: interaction.double_click must be positive")
	case c.Layout.MaxLabelWidth <= 0:
		return fmt.Errorf("config: layout.max_label_width must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// BoardOptions returns the interaction settings for board.Controller.
func (c *Config) BoardOptions() board.Options {
	return board.Options{
		BufferMargin:     c.Viewport.BufferMargin,
		DebounceInterval: c.Viewport.Debounce,
		DoubleClick:      c.Interaction.DoubleClick,
		MaxLabelWidth:    c.Layout.MaxLabelWidth,
	}
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
