package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.Mining.DaysBack)
	assert.Equal(t, 1, cfg.Mining.MaxCandidates)
	assert.Equal(t, "structural", cfg.Mining.Strategy)
	assert.Equal(t, "results", cfg.OutputDir)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depmine.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
query = "language:typescript stars:>2000"
limit = 25

[mining]
days_back = 90
strategy = "keyword"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "language:typescript stars:>2000", cfg.Query)
	assert.Equal(t, 25, cfg.Limit)
	assert.Equal(t, 90, cfg.Mining.DaysBack)
	assert.Equal(t, "keyword", cfg.Mining.Strategy)
	// Unset fields keep their defaults.
	assert.Equal(t, 50, cfg.Mining.LimitCommits)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depmine.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mining]
strategy = "quantum"
`), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.Token)
}
