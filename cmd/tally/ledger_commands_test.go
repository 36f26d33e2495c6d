package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tally/internal/convert"
	"tally/internal/ledger"
	"tally/internal/upload"
)

func seedLedger(t *testing.T, dir string) {
	t.Helper()
	led, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer led.Close()

	ctx := context.Background()
	if err := led.Record(ctx, upload.ModelTimesheet, 501, convert.NewRefSet(101, 102)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := led.Record(ctx, upload.ModelTask, 42, convert.NewRefSet(103)); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestLedgerShowListsModels(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	seedLedger(t, dir)

	out, _, err := runCLI(t, []string{"ledger", "show"}, configPath)
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	requireContains(t, out, upload.ModelTimesheet)
	requireContains(t, out, upload.ModelTask)
	requireContains(t, out, "501")
	requireContains(t, out, "[101 102]")
}

func TestLedgerShowSingleModel(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	seedLedger(t, dir)

	out, _, err := runCLI(t, []string{"ledger", "show", "--model", upload.ModelTask}, configPath)
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	requireContains(t, out, upload.ModelTask)
	requireContains(t, out, "42")
	if strings.Contains(out, upload.ModelTimesheet) {
		t.Fatalf("expected only %s records, got:\n%s", upload.ModelTask, out)
	}
}

func TestLedgerShowEmpty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, _, err := runCLI(t, []string{"ledger", "show"}, configPath)
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	requireContains(t, out, "Ledger is empty")
}

func TestLedgerCheck(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	seedLedger(t, dir)

	out, _, err := runCLI(t, []string{"ledger", "check"}, configPath)
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	requireContains(t, out, "Ledger is consistent")
}
