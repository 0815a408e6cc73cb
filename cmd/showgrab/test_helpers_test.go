package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a minimal config pointing every path into a temp
// directory and returns its location.
func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[catalog]
base_url = %q

[output]
dir = %q

[cache]
enabled = true
path = %q

[history]
enabled = true
path = %q

[logging]
format = "json"
level = "error"
`,
		baseURL,
		filepath.Join(base, "out"),
		filepath.Join(base, "cache", "discovery.json"),
		filepath.Join(base, "history", "history.db"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

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

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
