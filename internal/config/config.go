// Package config loads fretsheet's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/fretsheet/config.toml, falling back to
// ~/.config/fretsheet/config.toml. A missing file yields [Default]; keys the
// file sets override defaults, and FRETSHEET_* environment variables override
// both.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultServerAddr is the listen address of `fretsheet serve`.
const DefaultServerAddr = "127.0.0.1:8080"

// Config is the full configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Export ExportConfig `toml:"export"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects where sheets are saved.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir,omitempty"`
	MongoURI      string `toml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
}

// CacheConfig selects where rendered layouts and artifacts are cached.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
	// TTL overrides the per-entry lifetimes, e.g. "72h". Empty keeps them.
	TTL string `toml:"ttl,omitempty"`
}

// ExportConfig holds defaults for `fretsheet export`.
type ExportConfig struct {
	Formats []string `toml:"formats"`
	Style   string   `toml:"style"`
	Scale   float64  `toml:"scale"`
}

// ServerConfig configures `fretsheet serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{Backend: string(store.BackendFile), MongoDatabase: store.DefaultMongoDatabase},
		Cache: CacheConfig{Backend: CacheFile},
		Export: ExportConfig{
			Formats: []string{pipeline.FormatPDF},
			Style:   pipeline.DefaultStyle,
			Scale:   pipeline.DefaultScale,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fretsheet", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locate home directory")
	}
	return filepath.Join(home, ".config", "fretsheet", "config.toml"), nil
}

// Load reads path (or the default location when path is empty), then applies
// environment overrides and validates the result. Unknown keys are returned
// as warnings rather than errors.
func Load(path string) (Config, []string, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil, err
		}
		path = p
	}

	var warnings []string
	meta, err := toml.DecodeFile(path, &cfg)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: failed to parse TOML", path)
	default:
		for _, key := range meta.Undecoded() {
			warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", path, key.String()))
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, warnings, err
	}
	return cfg, warnings, nil
}

// applyEnv overrides settings from FRETSHEET_* variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FRETSHEET_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("FRETSHEET_STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := getenv("FRETSHEET_MONGO_URI"); v != "" {
		c.Store.MongoURI = v
	}
	if v := getenv("FRETSHEET_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
		if c.Cache.RedisAddr == "" {
			c.Cache.RedisAddr = v
		}
	}
	if v := getenv("FRETSHEET_CACHE"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("FRETSHEET_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("FRETSHEET_EXPORT_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Export.Scale = f
		}
	}
}

// Validate checks enumerations and export defaults.
func (c Config) Validate() error {
	switch store.Backend(c.Store.Backend) {
	case store.BackendFile, store.BackendMongo, store.BackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.backend: unknown backend %q (must be one of: file, mongo, redis)", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: unknown backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if _, err := c.Cache.TTLValue(); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Export.Formats); err != nil {
		return err
	}
	if err := pipeline.ValidateStyle(c.Export.Style); err != nil {
		return err
	}
	if err := pipeline.ValidateScale(c.Export.Scale); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.addr cannot be empty")
	}
	return nil
}

// TTLValue parses the cache TTL. Zero means "use the built-in lifetimes".
func (c CacheConfig) TTLValue() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "cache.ttl: invalid duration %q", c.TTL)
	}
	return d, nil
}

// StoreOptions converts the store section for [store.Open].
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       store.Backend(c.Store.Backend),
		Dir:           c.Store.Dir,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		RedisAddr:     c.Store.RedisAddr,
	}
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}

// Write saves c to path, creating parent directories. An existing file is
// only replaced when overwrite is set.
func Write(path string, c Config, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists", path)
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create config directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
