package agents

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManagerDefaults(t *testing.T) {
	pm := NewPromptManager("")
	for _, name := range []string{
		"query_analysis", "destination_research", "flight_search",
		"accommodation_search", "transportation_planning",
		"activity_planning", "budget_management",
	} {
		if pm.Get(name) == "" {
			t.Errorf("no default prompt for %s", name)
		}
	}
	if pm.Get("unknown_agent") != "" {
		t.Error("unknown agent should have no prompt")
	}
}

func TestPromptManagerFileOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "You are a very specific flight expert."
	if err := os.WriteFile(filepath.Join(dir, "flight_search.md"), []byte(custom+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pm := NewPromptManager(dir)
	if got := pm.Get("flight_search"); got != custom {
		t.Errorf("prompt = %q, want the file override", got)
	}
	// Agents without an override file keep the default.
	if got := pm.Get("query_analysis"); !strings.Contains(got, "travel requests") {
		t.Errorf("prompt = %q, want the built-in default", got)
	}
}

func TestPromptManagerCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "budget_management.md")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}

	pm := NewPromptManager(dir)
	if got := pm.Get("budget_management"); got != "first" {
		t.Fatalf("prompt = %q", got)
	}
	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := pm.Get("budget_management"); got != "first" {
		t.Errorf("prompt = %q, want the cached value", got)
	}
}
