package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "environment: test\nserver:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// the stream client appends /stream?streams=..., so the default
	// must be the bare host
	if cfg.Binance.StreamURL != "wss://stream.binance.com:9443" {
		t.Fatalf("stream url %q, want bare host", cfg.Binance.StreamURL)
	}
	if strings.HasSuffix(cfg.Binance.StreamURL, "/ws") {
		t.Fatalf("stream url %q must not carry a path", cfg.Binance.StreamURL)
	}

	if len(cfg.Binance.Hosts) == 0 {
		t.Fatal("expected default binance hosts")
	}
	if cfg.Binance.KlineLimit != 168 {
		t.Fatalf("kline limit %d, want 168", cfg.Binance.KlineLimit)
	}
	if cfg.Monitor.ReferenceAsset != "BTC" {
		t.Fatalf("reference asset %q, want BTC", cfg.Monitor.ReferenceAsset)
	}
	if cfg.Signals.ATRPeriod != 14 {
		t.Fatalf("atr period %d, want 14", cfg.Signals.ATRPeriod)
	}
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 8080\n")); err == nil {
		t.Fatal("missing environment must fail validation")
	}
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatal("missing server port must fail validation")
	}
	if _, err := Load(writeConfig(t, "environment: test\nserver:\n  port: 8080\ntelegram:\n  enabled: true\n")); err == nil {
		t.Fatal("enabled telegram without a bot token must fail validation")
	}
}
