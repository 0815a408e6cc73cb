package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	requireContains(t, string(data), "[catalog]")
}

func TestConfigInitRefusesExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	cfgPath := writeTestConfig(t, "https://catalog.example")

	out, _, err := runCLI(t, []string{"config", "show"}, cfgPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "base_url = ")
	requireContains(t, out, "https://catalog.example")
	requireContains(t, out, cfgPath)
}
