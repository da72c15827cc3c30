// Package cli implements the fretsheet command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fretsheet/internal/config"
	"github.com/matzehuels/fretsheet/pkg/buildinfo"
	"github.com/matzehuels/fretsheet/pkg/cache"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "fretsheet"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file and reports unknown keys as warnings.
func (c *CLI) loadConfig() error {
	cfg, warnings, err := config.Load(c.configPath)
	for _, w := range warnings {
		c.Logger.Warn(w)
	}
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Store and Runner Factories
// =============================================================================

// openStore connects to the configured sheet store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	opts := c.Config.StoreOptions()
	c.Logger.Debug("opening store", "backend", opts.Backend)
	st, err := store.Open(ctx, opts)
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s store", opts.Backend)
	}
	return st, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":"), c.Logger)
	if ttl, _ := c.Config.Cache.TTLValue(); ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

// newCache opens the configured cache. An unusable file cache directory
// degrades to no caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.DialRedisCache(ctx, c.Config.Cache.RedisAddr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis cache at %s", c.Config.Cache.RedisAddr)
		}
		return rc, nil
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("file cache unavailable", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/fretsheet/).
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
