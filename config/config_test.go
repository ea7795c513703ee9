package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montrey/ftpseek/search"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 21, cfg.Port)
	assert.Equal(t, "anonymous", cfg.User)
	assert.Equal(t, search.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
host: ftp.example.org
user: reader
tls: true
start: /pub
ignored_dirs:
  - node_modules
  - '\.git$'
max_depth: 6
workers: 4
rate: 2.5
timeout: 45s
log_level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ftp.example.org", cfg.Host)
	assert.Equal(t, 21, cfg.Port, "port keeps its default")
	assert.Equal(t, "reader", cfg.User)
	assert.Equal(t, "anonymous@", cfg.Password, "password keeps its default")
	assert.True(t, cfg.TLS)
	assert.Equal(t, "/pub", cfg.Start)
	assert.Equal(t, []string{"node_modules", `\.git$`}, cfg.IgnoredDirs)
	assert.Equal(t, 6, cfg.MaxDepth)
	assert.Equal(t, 4, cfg.Workers)
	assert.InDelta(t, 2.5, cfg.Rate, 0.0001)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
host = "mirror.example.org"
port = 2121
ignored_dirs = ["tmp"]
timeout = "5s"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mirror.example.org", cfg.Host)
	assert.Equal(t, 2121, cfg.Port)
	assert.Equal(t, []string{"tmp"}, cfg.IgnoredDirs)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed yaml", "config.yaml", "host: [unclosed"},
		{"malformed toml", "config.toml", "host = "},
		{"bad timeout", "config.yaml", "timeout: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHost, " env.example.org ")
	t.Setenv(EnvUser, "envuser")
	t.Setenv(EnvPassword, "s3cret ")

	cfg := DefaultConfig()
	cfg.Host = "file.example.org"
	cfg.ApplyEnv()

	assert.Equal(t, "env.example.org", cfg.Host)
	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, "s3cret ", cfg.Password)
}

func TestValidateAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 70000
	cfg.Workers = 0
	cfg.MaxDepth = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 70000")
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "max_depth")
	assert.Contains(t, err.Error(), "log_level")
}

func TestCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "ftp.example.org"
	cfg.TLS = true

	creds := cfg.Credentials()
	assert.Equal(t, "ftp.example.org:21", creds.Addr())
	assert.True(t, creds.TLS)
	assert.Equal(t, cfg.Timeout, creds.Timeout)
}
