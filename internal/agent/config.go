// Package agent implements the client side of configuration sync: the
// reconciler that converges local files with the authoritative store.
package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the agent's validated configuration. It is loaded once at
// startup and passed by reference; there is no process-global state.
type Config struct {
	Hostname      string `toml:"hostname"`
	Port          int    `toml:"port"`
	URI           string `toml:"uri"`
	APIKey        string `toml:"api_key"`
	EncryptionKey string `toml:"encryption_key"`
	SyncLogFile   string `toml:"sync_log_file"`
}

// DefaultConfig returns a starter config for genconfig.
func DefaultConfig() *Config {
	return &Config{
		Hostname:    "localhost",
		Port:        8000,
		URI:         "/cmdb",
		SyncLogFile: "sync.log",
	}
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields that every command needs. The API key is
// checked where it is used; register runs before one exists.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("missing hostname")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.URI == "" {
		return errors.New("missing uri")
	}
	return nil
}

// WriteTo renders the config as TOML at path, creating parent directories.
func (c *Config) WriteTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// URL builds a verb URL: http://hostname:port{uri}{path}, with the URI
// and path slash-normalized.
func (c *Config) URL(path string) string {
	uri := c.URI
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	if path != "" {
		uri = strings.TrimSuffix(uri, "/")
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
	}
	return fmt.Sprintf("http://%s:%d%s%s", c.Hostname, c.Port, uri, path)
}
