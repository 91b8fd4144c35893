package replies

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	c, err := Load("", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Text("greeting") == "greeting" {
		t.Error("greeting key should resolve from the embedded defaults")
	}
	if got := len(c.Suggestions("default")); got == 0 {
		t.Error("default suggestion set should not be empty")
	}
}

func TestText_FormatsArgs(t *testing.T) {
	c, _ := Load("", testLogger())

	got := c.Text("cancel_confirm_question", "ORD-42")
	if got != "You're about to cancel order ORD-42. Should I go ahead?" {
		t.Errorf("unexpected formatted text: %s", got)
	}
}

func TestText_UnknownKeyReturnsKey(t *testing.T) {
	c, _ := Load("", testLogger())
	if got := c.Text("no_such_key"); got != "no_such_key" {
		t.Errorf("unknown key should echo back, got %s", got)
	}
}

func TestSuggestions_FallsBackToDefault(t *testing.T) {
	c, _ := Load("", testLogger())
	if got := c.Suggestions("no_such_set"); len(got) == 0 {
		t.Error("unknown set should fall back to default")
	}
}

func TestLoad_OverlayDirectoryOverridesKeys(t *testing.T) {
	dir := t.TempDir()
	overlay := "replies:\n  greeting: \"Howdy!\"\nsuggestions:\n  default:\n    - \"Only option\"\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Text("greeting"); got != "Howdy!" {
		t.Errorf("overlay should win, got %s", got)
	}
	// Untouched keys keep their defaults.
	if got := c.Text("apology"); got == "apology" {
		t.Error("non-overridden keys should keep defaults")
	}
	if got := c.Suggestions("default"); len(got) != 1 || got[0] != "Only option" {
		t.Errorf("overlay suggestions should win, got %v", got)
	}
}

func TestLoad_MissingDirUsesDefaults(t *testing.T) {
	c, err := Load("/definitely/not/here", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Text("greeting") == "greeting" {
		t.Error("missing overlay dir should fall back to defaults")
	}
}
