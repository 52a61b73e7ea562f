package rvm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the runtime configuration for rvmctl/server: where the on-disk
// result cache lives and the server's listen address. DefaultArgs is parsed
// from the default_args table, but no command applies it to a resolution.
// Structured the same way the teacher's
// manifest.Manifest is (a toml-tagged struct plus a Load that fills in
// defaults after parsing).
type Config struct {
	Cache        CacheConfig            `toml:"cache"`
	Server       ServerConfig           `toml:"server"`
	DefaultArgs  map[string][]string    `toml:"default_args"`

	// Dir is the directory containing the loaded rvm.toml file.
	Dir string `toml:"-"`
}

// CacheConfig configures the handle-keyed result cache (see cache.go).
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ServerConfig configures the connect-go server in cmd/rvmctl's "serve"
// subcommand.
type ServerConfig struct {
	Address string `toml:"address"`
}

// DefaultConfig returns the configuration used when no rvm.toml is found.
func DefaultConfig() *Config {
	return &Config{
		Cache:  CacheConfig{Enabled: false, Path: ".rvm/cache.cbor"},
		Server: ServerConfig{Address: ":8085"},
	}
}

// LoadConfig parses an rvm.toml file from the given directory, falling back
// to DefaultConfig if none exists.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, "rvm.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("rvm: cannot read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("rvm: parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("rvm: cannot resolve path %s: %w", dir, err)
	}
	return cfg, nil
}

// CachePath returns the path to the configured on-disk cache file: Cache.Path
// itself when it is absolute, otherwise Cache.Path joined onto Dir. Dir is
// empty when no rvm.toml was loaded, and the result is then relative to the
// working directory.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(c.Dir, c.Cache.Path)
}
