package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{ActingEmail: "ada@example.com"}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "estate", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ActingEmail != cfg.ActingEmail {
		t.Errorf("acting_email = %q, want %q", loaded.ActingEmail, cfg.ActingEmail)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.ActingEmail != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestGetActingEmailPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{ActingEmail: "config@example.com"}); err != nil {
		t.Fatal(err)
	}

	flagAs = ""
	t.Cleanup(func() { flagAs = "" })

	t.Setenv("ESTATE_AS", "")
	if got := getActingEmail(); got != "config@example.com" {
		t.Errorf("from config = %q", got)
	}

	t.Setenv("ESTATE_AS", "env@example.com")
	if got := getActingEmail(); got != "env@example.com" {
		t.Errorf("from env = %q", got)
	}

	flagAs = "flag@example.com"
	if got := getActingEmail(); got != "flag@example.com" {
		t.Errorf("from flag = %q", got)
	}
}

func TestGetActingEmailEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESTATE_AS", "")
	flagAs = ""

	if got := getActingEmail(); got != "" {
		t.Errorf("acting email = %q, want empty", got)
	}
}

func TestUseStoresNormalizedEmail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := executeCommand("use", "  Ada@Example.com "); err != nil {
		t.Fatalf("use: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ActingEmail != "ada@example.com" {
		t.Errorf("acting_email = %q", cfg.ActingEmail)
	}

	if _, err := executeCommand("use", "--clear"); err != nil {
		t.Fatalf("use --clear: %v", err)
	}
	cfg, _ = loadConfig()
	if cfg.ActingEmail != "" {
		t.Errorf("acting_email after clear = %q", cfg.ActingEmail)
	}
}

func TestGetServerURLPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	flagServer = ""
	t.Cleanup(func() { flagServer = "" })

	t.Setenv("ESTATE_SERVER", "")
	if got := getServerURL(); got != "" {
		t.Errorf("default = %q, want empty", got)
	}

	if _, err := executeCommand("use", "--server", "http://config:8080"); err != nil {
		t.Fatalf("use --server: %v", err)
	}
	flagServer = ""
	if got := getServerURL(); got != "http://config:8080" {
		t.Errorf("from config = %q", got)
	}

	t.Setenv("ESTATE_SERVER", "http://env:1234")
	if got := getServerURL(); got != "http://env:1234" {
		t.Errorf("from env = %q", got)
	}
}
