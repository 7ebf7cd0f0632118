package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr == "" {
		t.Error("default addr empty")
	}
	if cfg.Store.DatabasePath == "" {
		t.Error("default database path empty")
	}
	if cfg.AI.Provider != "rest" {
		t.Errorf("default provider = %q, want rest", cfg.AI.Provider)
	}
	if cfg.Billing.TrialDays != 7 {
		t.Errorf("default trial days = %d, want 7", cfg.Billing.TrialDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultConfig().Server.Addr {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reviewrouter.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9000"
	cfg.AI.Provider = "sdk"
	cfg.Logging.Level = "debug"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Addr != ":9000" {
		t.Errorf("addr = %q", loaded.Server.Addr)
	}
	if loaded.AI.Provider != "sdk" {
		t.Errorf("provider = %q", loaded.AI.Provider)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("log level = %q", loaded.Logging.Level)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewrouter.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.AI.Provider != "rest" {
		t.Errorf("provider = %q, want default preserved", cfg.AI.Provider)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewrouter.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REVIEWROUTER_ADDR", ":1234")
	t.Setenv("REVIEWROUTER_DB", "/tmp/override.db")
	t.Setenv("REVIEWROUTER_LOG_LEVEL", "warn")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("PRICE_ID_BASIC_MONTHLY", "price_basic")
	t.Setenv("PRICE_ID_PRO_MONTHLY", "price_pro")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":1234" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.DatabasePath != "/tmp/override.db" {
		t.Errorf("db = %q", cfg.Store.DatabasePath)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Billing.SecretKey != "sk_test_env" || cfg.Billing.WebhookSecret != "whsec_env" {
		t.Error("stripe secrets not overridden")
	}
	if cfg.Billing.PriceBasicMonthly != "price_basic" || cfg.Billing.PriceProMonthly != "price_pro" {
		t.Error("price ids not overridden")
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewrouter.yaml")
	cfg := DefaultConfig()
	cfg.Billing.SecretKey = "sk_from_file"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_from_env")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Billing.SecretKey != "sk_from_env" {
		t.Errorf("secret = %q, want env value", loaded.Billing.SecretKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Provider = "quantum"
	if err := cfg.Validate(); err == nil {
		t.Error("invalid provider should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Server.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty addr should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Store.DatabasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty database path should fail validation")
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetAITimeout(); got != 30*time.Second {
		t.Errorf("ai timeout = %v", got)
	}
	if got := cfg.GetForwardingTimeout(); got != 15*time.Second {
		t.Errorf("forwarding timeout = %v", got)
	}

	cfg.AI.Timeout = "not-a-duration"
	if got := cfg.GetAITimeout(); got != 30*time.Second {
		t.Errorf("bad duration should fall back, got %v", got)
	}
}
