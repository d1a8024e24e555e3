package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/reckon/internal/repl"
)

// writeConfig writes a TOML config rooted in its own temp directory and
// returns the config path and the base directory.
func writeConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := "base_dir = " + tomlQuote(base) + "\n" + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, base
}

// tomlQuote quotes a string for TOML.
func tomlQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}

func runSession(t *testing.T, a *App, commands ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := repl.NewScannerReader(strings.NewReader(strings.Join(commands, "\n")+"\n"), &out)
	if err := a.RunWith(in, &out); err != nil {
		t.Fatalf("RunWith() error: %v", err)
	}
	return out.String()
}

func TestAppSession(t *testing.T) {
	path, base := writeConfig(t, "auto_save = false\n")

	a, err := New(Options{ConfigPath: path, NoWatch: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	output := runSession(t, a, "add", "10", "5", "history", "exit")
	if !strings.Contains(output, "Result: 15") {
		t.Errorf("output missing result:\n%s", output)
	}
	if !strings.Contains(output, "1. Addition(10, 5) = 15") {
		t.Errorf("output missing history line:\n%s", output)
	}

	a.Shutdown()

	// Logging observer wrote to the configured log file.
	data, err := os.ReadFile(filepath.Join(base, "logs", "calculator.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "calculation added") {
		t.Error("log file missing calculation event")
	}
}

func TestAppAutoSave(t *testing.T) {
	path, base := writeConfig(t, "auto_save = true\n")

	a, err := New(Options{ConfigPath: path, NoWatch: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	runSession(t, a, "add", "2", "3", "exit")

	// The auto-save observer persisted without an explicit save command.
	historyPath := filepath.Join(base, "history", "calculator_history.csv")
	data, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("auto-saved history missing: %v", err)
	}
	if !strings.Contains(string(data), "Addition,2,3,5") {
		t.Errorf("auto-saved history missing entry:\n%s", data)
	}

	// Shutdown with auto-save writes the JSON snapshot.
	a.Shutdown()
	if _, err := os.Stat(filepath.Join(base, "history", "calculator_snapshot.json")); err != nil {
		t.Errorf("shutdown snapshot missing: %v", err)
	}
}

func TestAppPluginOperations(t *testing.T) {
	base := t.TempDir()
	pluginPath := filepath.Join(base, "ops.lua")
	if err := os.WriteFile(pluginPath, []byte(`register("avg", function(a, b) return (a + b) / 2 end)`), 0o644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(base, "config.toml")
	content := "base_dir = " + tomlQuote(base) + "\nauto_save = false\nplugin_file = " + tomlQuote(pluginPath) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{ConfigPath: path, NoWatch: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	output := runSession(t, a, "avg", "10", "20", "exit")
	if !strings.Contains(output, "Result: 15") {
		t.Errorf("plugin operation failed:\n%s", output)
	}
}

func TestAppBrokenPluginNonFatal(t *testing.T) {
	base := t.TempDir()
	pluginPath := filepath.Join(base, "broken.lua")
	if err := os.WriteFile(pluginPath, []byte("register("), 0o644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(base, "config.toml")
	content := "base_dir = " + tomlQuote(base) + "\nplugin_file = " + tomlQuote(pluginPath) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{ConfigPath: path, NoWatch: true})
	if err != nil {
		t.Fatalf("broken plugin should not block startup: %v", err)
	}
	a.Shutdown()
}

func TestAppFlagOverrides(t *testing.T) {
	path, _ := writeConfig(t, "max_history_size = 50\n")

	a, err := New(Options{ConfigPath: path, MaxHistorySize: 2, NoWatch: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	runSession(t, a, "add", "1", "0", "add", "2", "0", "add", "3", "0", "exit")
	if got := a.Calculator().HistoryLen(); got != 2 {
		t.Errorf("HistoryLen() = %d, want flag-overridden bound 2", got)
	}
}

func TestAppInvalidConfigFatal(t *testing.T) {
	path, _ := writeConfig(t, "max_history_size = -1\n")

	if _, err := New(Options{ConfigPath: path, NoWatch: true}); err == nil {
		t.Error("invalid configuration should be fatal at construction")
	}
}
