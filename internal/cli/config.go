package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the TOML configuration for a mining run. Every field has a
// working default; a config file only needs to name what it overrides.
type Config struct {
	// Token authenticates against the hosting API. The GITHUB_TOKEN
	// environment variable takes effect when the field is empty.
	Token string `toml:"token"`
	// Query selects repositories to discover.
	Query string `toml:"query"`
	// Limit caps how many repositories discovery returns.
	Limit int `toml:"limit"`
	// OutputDir receives the exported run files.
	OutputDir string `toml:"output_dir"`

	Mining MiningConfig `toml:"mining"`
}

// MiningConfig tunes the per-repository scan.
type MiningConfig struct {
	DaysBack      int    `toml:"days_back"`
	LimitCommits  int    `toml:"limit_commits"`
	MaxCandidates int    `toml:"max_candidates"`
	Workers       int    `toml:"workers"`
	FileLimit     int    `toml:"file_limit"`
	Strategy      string `toml:"strategy"`
	Snapshots     bool   `toml:"snapshots"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Query:     "language:javascript stars:>500",
		Limit:     100,
		OutputDir: "results",
		Mining: MiningConfig{
			DaysBack:      365,
			LimitCommits:  50,
			MaxCandidates: 1,
			Workers:       4,
			FileLimit:     200,
			Strategy:      "structural",
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// tries depmine.toml in the working directory; a missing file is not an
// error, it just means pure defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if path == "" {
		path = appName + ".toml"
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	if cfg.Mining.Strategy != "structural" && cfg.Mining.Strategy != "keyword" {
		return cfg, fmt.Errorf("load config %s: unknown strategy %q", path, cfg.Mining.Strategy)
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}
	return cfg
}
