package internal

import (
	"log/slog"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestApplicationConfig_LevelMapping(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		cfg := ApplicationConfig{LogLevel: name}
		if got := cfg.Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestApplicationConfig_UnknownLevelFails(t *testing.T) {
	cfg := ApplicationConfig{LogLevel: "loud"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log level should fail validation")
	}
}

func TestConfig_EmptyLedgerPathFails(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Ledger.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty ledger path should fail validation")
	}
}

func TestConfig_EmptySQLitePathFails(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty sqlite path should fail validation")
	}
}

func TestConfig_EmptyInboxPathFails(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Inbox.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty inbox path should fail validation")
	}
}
