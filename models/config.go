package models

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rohanthewiz/serr"
)

// Config holds the application configuration. All values are loaded from
// environment variables to keep deployment configuration external to the
// binary.
type Config struct {
	// DataDir is where the note database and key-value state live.
	DataDir string `env:"NOTESYNC_DATA_DIR" envDefault:"./data"`

	// SyncDir is watched for incoming sync files and receives created ones.
	SyncDir string `env:"NOTESYNC_SYNC_DIR" envDefault:"./sync"`

	// ConflictThreshold is the clock-skew tolerance when comparing merge
	// timestamps. Two same-id notes whose timestamps differ by more than
	// this are reported as a conflict. This is a heuristic, not a
	// correctness guarantee.
	ConflictThreshold time.Duration `env:"NOTESYNC_CONFLICT_THRESHOLD" envDefault:"1s"`

	// Strategy is the default conflict-resolution strategy.
	Strategy string `env:"NOTESYNC_STRATEGY" envDefault:"newest_wins"`

	// LogLevel sets the logger verbosity (debug, info, warn, error).
	LogLevel string `env:"NOTESYNC_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads configuration from environment variables,
// applying defaults for anything unset.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, serr.Wrap(err, "failed to parse environment configuration")
	}
	return cfg, nil
}

// Validate checks the configuration before any component starts, failing
// fast on misconfiguration rather than discovering it mid-operation.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return serr.New("NOTESYNC_DATA_DIR must not be empty")
	}
	if c.SyncDir == "" {
		return serr.New("NOTESYNC_SYNC_DIR must not be empty")
	}
	if c.ConflictThreshold <= 0 {
		return serr.New("NOTESYNC_CONFLICT_THRESHOLD must be positive")
	}
	if !ValidStrategy(c.Strategy) {
		return serr.New("NOTESYNC_STRATEGY must be one of newest_wins, merge_all, manual")
	}
	return nil
}
