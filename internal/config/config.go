package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gravitrone/replydesk/internal/api"
)

// EnvAPIBase overrides base_url when set.
const EnvAPIBase = "REPLYDESK_API_BASE"

const (
	defaultPageSize = 50
	defaultLogName  = "replydesk.log"
)

// Config holds CLI configuration stored at ~/.replydesk/config.
type Config struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	DefaultKB      string `yaml:"default_kb,omitempty"`
	PageSize       int    `yaml:"page_size,omitempty"`
	LogFile        string `yaml:"log_file,omitempty"`
	BulkInterval   string `yaml:"bulk_interval,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	VimKeys        bool   `yaml:"vim_keys,omitempty"`
}

// Dir returns the config directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".replydesk")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config")
}

// LoadEnv loads KEY=value pairs from a .env file into the process
// environment. A missing file is not an error; variables already set win.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the config file, fills defaults and applies the environment
// override. A missing file yields the defaults.
func Load() (*Config, error) {
	path := Path()
	cfg := &Config{}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("stat config: %w", err)
	default:
		perm := info.Mode().Perm()
		if perm != 0600 {
			return nil, fmt.Errorf("config permissions too open: %04o (want 0600)", perm)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if base := strings.TrimSpace(os.Getenv(EnvAPIBase)); base != "" {
		cfg.BaseURL = base
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = api.DefaultBaseURL
	}
	if c.PageSize == 0 {
		c.PageSize = defaultPageSize
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(Dir(), defaultLogName)
	}
}

// Validate rejects values the client cannot use.
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > api.MaxCommentLimit {
		return fmt.Errorf("config page_size %d out of range 1..%d", c.PageSize, api.MaxCommentLimit)
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Interval returns the minimum spacing between bulk suggestion requests.
func (c *Config) Interval() (time.Duration, error) {
	return parseDuration("bulk_interval", c.BulkInterval)
}

// Timeout returns the per-request HTTP timeout; zero means none.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("request_timeout", c.RequestTimeout)
}

func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config %s: must not be negative", field)
	}
	return d, nil
}

// Save writes the config to disk with secure permissions.
func (c *Config) Save() error {
	path := Path()
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
