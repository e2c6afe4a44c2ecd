// Package cli implements the depmine command-line interface.
//
// This package provides commands for discovering repositories worth
// mining, running the full dependency-removal mining pipeline, checking
// a package against the vulnerability database, and managing the HTTP
// response cache. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - discover: Search and survey repositories that qualify for mining
//   - mine: Run the full pipeline and export candidate records
//   - vulns: Look up known advisories for a single npm package
//   - cache: Manage the HTTP response cache
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/AndreHyodo/depmine/pkg/buildinfo"
	"github.com/AndreHyodo/depmine/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "depmine"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "depmine",
		Short:        "Depmine mines repositories for dependency removals",
		Long:         `Depmine scans popular repositories for commits that removed an npm dependency, measures how code complexity changed around each removal, and correlates removals with known vulnerability advisories.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.surveyCommand())
	root.AddCommand(c.mineCommand())
	root.AddCommand(c.vulnsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depmine/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory (~/.local/share/depmine/) used for
// the persisted vulnerability table.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
