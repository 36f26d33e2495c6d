package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	ledgerPath := filepath.Join(dir, "ledger.db")
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[toggl]
api_token = "test-token"
workspace = 7

[odoo]
url = "https://odoo.example.com"
database = "test"
username = "tester"
password = "secret"

[ledger]
path = %q

[logging]
level = "error"
`, ledgerPath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return configPath
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
