package deps

import (
	"testing"

	"scribe/internal/config"
)

func TestForConfigIncludesUVXOnlyForLocal(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Transcription.Backend = config.BackendRemote
	requirements := ForConfig(&cfg)
	for _, req := range requirements {
		if req.Command == "uvx" {
			t.Fatal("remote backend should not require uvx")
		}
	}

	cfg.Transcription.Backend = config.BackendLocal
	requirements = ForConfig(&cfg)
	found := false
	for _, req := range requirements {
		if req.Command == "uvx" {
			found = true
		}
	}
	if !found {
		t.Fatal("local backend should require uvx")
	}
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	t.Parallel()
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "posix shell"},
		{Name: "Ghost", Command: "definitely-not-a-real-binary-xyz"},
		{Name: "Blank", Command: "   "},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Fatalf("missing binary should carry detail: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Fatalf("blank command should be unconfigured: %+v", statuses[2])
	}
}
