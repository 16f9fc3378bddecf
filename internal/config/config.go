package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config represents the global ~/.quill/config.toml.
type Config struct {
	DefaultSession string   `toml:"default_session" validate:"omitempty,max=64"`
	Composer       Composer `toml:"composer"`
	Uploads        Uploads  `toml:"uploads"`
	Outbox         Outbox   `toml:"outbox"`
	Hooks          Hooks    `toml:"hooks"`
}

// Composer holds message composer behavior.
type Composer struct {
	DraftDebounce       time.Duration `toml:"draft_debounce" validate:"gte=0"`
	InlineErrorFlash    time.Duration `toml:"inline_error_flash" validate:"gte=0"`
	MaxMessageLength    int           `toml:"max_message_length" validate:"gte=1"`
	NotifyAllThreshold  int           `toml:"notify_all_threshold" validate:"gte=0"`
	ConfirmNotifyAll    bool          `toml:"confirm_notify_all"`
	TimezonesEnabled    bool          `toml:"timezones_enabled"`
	Locale              string        `toml:"locale"`
	CtrlSend            bool          `toml:"ctrl_send"`
	AllowedGroupMention []string      `toml:"allowed_group_mentions"`
	HistorySize         int           `toml:"history_size" validate:"gte=1"`
	SendUnknownCommands bool          `toml:"send_unknown_commands"`
}

// Uploads holds attachment upload limits.
type Uploads struct {
	MaxConcurrent int   `toml:"max_concurrent" validate:"gte=1"`
	MaxFileSize   int64 `toml:"max_file_size" validate:"gte=1"`
}

// Outbox holds daemon delivery pacing.
type Outbox struct {
	PollInterval time.Duration `toml:"poll_interval" validate:"gt=0"`
	SendsPerSec  float64       `toml:"sends_per_sec" validate:"gt=0"`
	Burst        int           `toml:"burst" validate:"gte=1"`
}

// Hooks configures built-in pre-post hooks.
type Hooks struct {
	StripHTML      bool              `toml:"strip_html"`
	CommandAliases map[string]string `toml:"command_aliases"`
}

// Default returns the configuration used when no file exists or a field is left unset.
func Default() *Config {
	return &Config{
		Composer: Composer{
			DraftDebounce:      500 * time.Millisecond,
			InlineErrorFlash:   time.Second,
			MaxMessageLength:   16383,
			NotifyAllThreshold: 5,
			ConfirmNotifyAll:   true,
			TimezonesEnabled:   true,
			Locale:             "en",
			HistorySize:        200,
			// Unknown triggers such as "/tmp/x is full" are sent as text.
			SendUnknownCommands: true,
		},
		Uploads: Uploads{
			MaxConcurrent: 3,
			MaxFileSize:   100 << 20,
		},
		Outbox: Outbox{
			PollInterval: 500 * time.Millisecond,
			SendsPerSec:  2,
			Burst:        5,
		},
		Hooks: Hooks{
			StripHTML: true,
		},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns nil and an error if the file is missing or invalid.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
