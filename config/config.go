// Package config loads ftpseek settings from a YAML or TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/montrey/ftpseek/remote"
	"github.com/montrey/ftpseek/search"
)

// Environment variables that override the config file.
const (
	EnvHost     = "FTPSEEK_HOST"
	EnvUser     = "FTPSEEK_USER"
	EnvPassword = "FTPSEEK_PASSWORD"
)

// Config represents ftpseek configuration options
type Config struct {
	// Host is the FTP server name or address
	Host string `yaml:"host" toml:"host"`

	// Port is the control connection port
	Port int `yaml:"port" toml:"port"`

	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`

	// TLS enables explicit FTPS (AUTH TLS)
	TLS                bool `yaml:"tls" toml:"tls"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`

	// Start is the directory the search begins in; empty means the login directory
	Start string `yaml:"start" toml:"start"`

	// IgnoredDirs are regular expression fragments for directories to skip
	IgnoredDirs []string `yaml:"ignored_dirs" toml:"ignored_dirs"`

	// IgnoreFile is a local gitignore-style file with more directories to skip
	IgnoreFile string `yaml:"ignore_file" toml:"ignore_file"`

	MaxDepth int `yaml:"max_depth" toml:"max_depth"`

	// Workers is the number of parallel FTP sessions (1 = sequential)
	Workers int `yaml:"workers" toml:"workers"`

	// Rate caps directory listings per second across all sessions (0 = unlimited)
	Rate float64 `yaml:"rate" toml:"rate"`

	// Timeout bounds connecting to the server
	Timeout time.Duration `yaml:"timeout" toml:"-"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path" toml:"db_path"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Port:     remote.DefaultPort,
		User:     "anonymous",
		Password: "anonymous@",
		MaxDepth: search.DefaultMaxDepth,
		Workers:  1,
		Timeout:  30 * time.Second,
		LogLevel: "info",
		DBPath:   defaultDBPath(),
	}
}

// DefaultPath is ~/.config/ftpseek/config.yaml, or "" without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ftpseek", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ftpseek.db"
	}
	return filepath.Join(home, ".local", "share", "ftpseek", "ftpseek.db")
}

// fileConfig mirrors Config with the timeout kept as a duration string.
type fileConfig struct {
	Host               string   `yaml:"host" toml:"host"`
	Port               int      `yaml:"port" toml:"port"`
	User               string   `yaml:"user" toml:"user"`
	Password           string   `yaml:"password" toml:"password"`
	TLS                bool     `yaml:"tls" toml:"tls"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`
	Start              string   `yaml:"start" toml:"start"`
	IgnoredDirs        []string `yaml:"ignored_dirs" toml:"ignored_dirs"`
	IgnoreFile         string   `yaml:"ignore_file" toml:"ignore_file"`
	MaxDepth           int      `yaml:"max_depth" toml:"max_depth"`
	Workers            int      `yaml:"workers" toml:"workers"`
	Rate               float64  `yaml:"rate" toml:"rate"`
	Timeout            string   `yaml:"timeout" toml:"timeout"`
	LogLevel           string   `yaml:"log_level" toml:"log_level"`
	LogFile            string   `yaml:"log_file" toml:"log_file"`
	DBPath             string   `yaml:"db_path" toml:"db_path"`
}

// LoadConfig loads configuration from the specified file path. Files ending
// in .toml are read as TOML, anything else as YAML.
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = yaml.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.merge(fc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge applies non-zero values from the file over the defaults. Booleans
// can only be switched on from a file.
func (c *Config) merge(fc fileConfig) error {
	if fc.Host != "" {
		c.Host = fc.Host
	}
	if fc.Port != 0 {
		c.Port = fc.Port
	}
	if fc.User != "" {
		c.User = fc.User
	}
	if fc.Password != "" {
		c.Password = fc.Password
	}
	if fc.TLS {
		c.TLS = true
	}
	if fc.InsecureSkipVerify {
		c.InsecureSkipVerify = true
	}
	if fc.Start != "" {
		c.Start = fc.Start
	}
	if len(fc.IgnoredDirs) > 0 {
		c.IgnoredDirs = fc.IgnoredDirs
	}
	if fc.IgnoreFile != "" {
		c.IgnoreFile = fc.IgnoreFile
	}
	if fc.MaxDepth != 0 {
		c.MaxDepth = fc.MaxDepth
	}
	if fc.Workers != 0 {
		c.Workers = fc.Workers
	}
	if fc.Rate != 0 {
		c.Rate = fc.Rate
	}
	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", fc.Timeout, err)
		}
		c.Timeout = timeout
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	return nil
}

// ApplyEnv overrides connection settings from FTPSEEK_* variables.
func (c *Config) ApplyEnv() {
	if env := strings.TrimSpace(os.Getenv(EnvHost)); env != "" {
		c.Host = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvUser)); env != "" {
		c.User = env
	}
	if env := os.Getenv(EnvPassword); env != "" {
		c.Password = env
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Port <= 0 || c.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxDepth < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth))
	}
	if c.Workers < 1 {
		errs = multierror.Append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Rate < 0 {
		errs = multierror.Append(errs, fmt.Errorf("rate must not be negative, got %g", c.Rate))
	}
	if c.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errs.ErrorOrNil()
}

// Credentials returns the connection settings for remote.Dial.
func (c *Config) Credentials() remote.Credentials {
	return remote.Credentials{
		Host:               c.Host,
		Port:               c.Port,
		User:               c.User,
		Password:           c.Password,
		TLS:                c.TLS,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            c.Timeout,
	}
}
