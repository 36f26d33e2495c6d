package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Toggl contains the upstream time-tracker connection settings.
type Toggl struct {
	APIToken   string `toml:"api_token"`
	Workspace  int64  `toml:"workspace"`
	APIURL     string `toml:"api_url"`
	ReportsURL string `toml:"reports_url"`
}

// Odoo contains the accounting backend connection settings.
type Odoo struct {
	URL      string `toml:"url"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Ledger contains upload-history storage settings.
type Ledger struct {
	Path string `toml:"path"`
}

// Fetch contains entry fetching and smoothing settings.
type Fetch struct {
	Clients         []string `toml:"clients"`
	Projects        []string `toml:"projects"`
	ProjectsExclude []string `toml:"projects_exclude"`
	Tags            []string `toml:"tags"`
	TagsExclude     []string `toml:"tags_exclude"`
	SnapSeconds     float64  `toml:"snap_seconds"`
}

// Convert contains conversion-run settings.
type Convert struct {
	DatetimeMiddle bool     `toml:"datetime_middle"`
	NightlyCutoff  float64  `toml:"nightly_cutoff"`
	MustMatch      bool     `toml:"must_match"`
	Merge          bool     `toml:"merge"`
	MergeKeys      []string `toml:"merge_keys"`
}

// Report contains run-summary settings.
type Report struct {
	HoursPerWorkday float64 `toml:"hours_per_workday"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for tally.
//
// Configuration sections by subsystem:
//   - Toggl: time-tracker API token, workspace and endpoints
//   - Odoo: accounting backend URL, database and credentials
//   - Ledger: upload-history storage location
//   - Fetch: entry filters and boundary snapping
//   - Convert: conversion-run behaviour (merge, date handling)
//   - Report: run-summary arithmetic
//   - Logging: log format and level
type Config struct {
	Toggl   Toggl   `toml:"toggl"`
	Odoo    Odoo    `toml:"odoo"`
	Ledger  Ledger  `toml:"ledger"`
	Fetch   Fetch   `toml:"fetch"`
	Convert Convert `toml:"convert"`
	Report  Report  `toml:"report"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tally/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tally.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the ledger and log file directories when
// configured.
func (c *Config) EnsureDirectories() error {
	paths := []string{c.Ledger.Path, c.Logging.File}
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if dir := filepath.Dir(path); strings.TrimSpace(dir) != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create directory %q: %w", dir, err)
			}
		}
	}
	return nil
}

// RequireToggl ensures the tracker credentials needed for fetching are set.
func (c *Config) RequireToggl() error {
	if strings.TrimSpace(c.Toggl.APIToken) == "" {
		return errors.New("toggl.api_token is required (or set TALLY_TOGGL_TOKEN)")
	}
	if c.Toggl.Workspace <= 0 {
		return errors.New("toggl.workspace is required")
	}
	return nil
}

// RequireOdoo ensures the backend credentials needed for uploading are set.
func (c *Config) RequireOdoo() error {
	switch {
	case strings.TrimSpace(c.Odoo.URL) == "":
		return errors.New("odoo.url is required")
	case strings.TrimSpace(c.Odoo.Database) == "":
		return errors.New("odoo.database is required")
	case strings.TrimSpace(c.Odoo.Username) == "":
		return errors.New("odoo.username is required")
	case strings.TrimSpace(c.Odoo.Password) == "":
		return errors.New("odoo.password is required (or set TALLY_ODOO_PASSWORD)")
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
