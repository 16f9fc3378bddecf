package session

import (
	"testing"

	"github.com/matheus3301/quill/internal/config"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("QUILL_HOME", t.TempDir())
	t.Setenv("QUILL_SESSION", "")

	if got := Resolve(""); got != DefaultSessionName {
		t.Errorf("Resolve() without config = %q, want %q", got, DefaultSessionName)
	}

	cfg := config.Default()
	cfg.DefaultSession = "office"
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "office" {
		t.Errorf("Resolve() with config = %q, want office", got)
	}

	t.Setenv("QUILL_SESSION", "env")
	if got := Resolve(""); got != "env" {
		t.Errorf("Resolve() with env = %q, want env", got)
	}

	if got := Resolve("flag"); got != "flag" {
		t.Errorf("Resolve(flag) = %q, want flag", got)
	}
}
