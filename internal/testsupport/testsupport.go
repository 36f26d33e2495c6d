// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"tally/internal/config"
	"tally/internal/ledger"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with a unique temp ledger per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "ledger.db")
	cfg.Toggl.APIToken = "test-token"
	cfg.Toggl.Workspace = 1
	cfg.Odoo.URL = "https://odoo.test"
	cfg.Odoo.Database = "test"
	cfg.Odoo.Username = "tester"
	cfg.Odoo.Password = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// MustOpenLedger opens the config's ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Ledger {
	t.Helper()

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		led.Close()
	})
	return led
}
