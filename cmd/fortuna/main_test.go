package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fortuna/internal/generation"
	"fortuna/internal/workflow"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
workspace_dir = %q
output_dir = %q
log_dir = %q
ledger_path = %q

[generation]
api_key = "test"
`,
		filepath.Join(base, "workspace"),
		filepath.Join(base, "videos"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "ledger.db"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output missing target path: %q", out)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "[generation]") {
		t.Fatal("sample config missing generation section")
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
}

func TestProduceRequiresSignOrAll(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCommand(t, "--config", cfgPath, "produce"); err == nil {
		t.Fatal("expected flag validation error")
	}
	if _, err := runCommand(t, "--config", cfgPath, "produce", "--sign", "aries", "--all"); err == nil {
		t.Fatal("expected error for both --sign and --all")
	}
	if _, err := runCommand(t, "--config", cfgPath, "produce", "--sign", "ophiuchus"); err == nil {
		t.Fatal("expected error for unknown sign")
	}
}

func TestHistoryEmptyLedger(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No productions recorded yet") {
		t.Fatalf("unexpected history output: %q", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "nothing to send") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseTask(t *testing.T) {
	cases := map[string]string{
		"":        generation.TaskDaily,
		"daily":   generation.TaskDaily,
		"Monthly": generation.TaskMonthly,
		"YEARLY":  generation.TaskYearly,
		"remedy":  generation.TaskRemedy,
		"auto":    workflow.TaskAuto,
	}
	for input, want := range cases {
		got, err := parseTask(input)
		if err != nil {
			t.Fatalf("parseTask(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("parseTask(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := parseTask("weekly"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestParseDate(t *testing.T) {
	date, err := parseDate("2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local)
	if !date.Equal(want) {
		t.Fatalf("parseDate = %v, want %v", date, want)
	}

	if _, err := parseDate("05/03/2026"); err == nil {
		t.Fatal("expected error for unsupported format")
	}

	today, err := parseDate("")
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(today) > time.Minute {
		t.Fatalf("blank date should default to now, got %v", today)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Sign", "Task"},
		[][]string{{"aries", "Daily"}, {"leo", "Remedy"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	if !strings.Contains(out, "aries") || !strings.Contains(out, "Remedy") {
		t.Fatalf("table output missing rows: %q", out)
	}
}
