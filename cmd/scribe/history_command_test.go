package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeHistoryConfig(t *testing.T, dir, journalPath string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(
		"[paths]\nstaging_dir = %q\nlog_dir = %q\n\n[journal]\nenabled = true\npath = %q\n",
		filepath.Join(dir, "staging"),
		filepath.Join(dir, "logs"),
		journalPath,
	)
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestHistoryEmptyJournalNamesDatabase(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	cfgPath := writeHistoryConfig(t, dir, journalPath)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "history"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), journalPath) {
		t.Fatalf("empty-journal notice should name the database:\n%s", out.String())
	}
}
