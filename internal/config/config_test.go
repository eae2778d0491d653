package config

import (
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":                "postgres://localhost:5432/agora",
		"REDIS_URL":                   "redis://localhost:6379/0",
		"APP_ENV":                     "",
		"PORT":                        "",
		"SHIPPING_DEFAULT_ZONE_CODE":  "",
		"SHIPPING_COD_FEE":            "",
		"SHIPPING_SNAPSHOT_CACHE_TTL": "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	if err != nil {
		t.Fatalf("LoadForTests: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("AppEnv = %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr())
	}
	if cfg.CODFee != "2.00" {
		t.Fatalf("CODFee = %s", cfg.CODFee)
	}
	if cfg.SnapshotCacheTTL != 30*time.Second {
		t.Fatalf("SnapshotCacheTTL = %s", cfg.SnapshotCacheTTL)
	}
	if cfg.DefaultZoneCode != "" {
		t.Fatalf("DefaultZoneCode = %q, want empty (hard-fail policy)", cfg.DefaultZoneCode)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error when DATABASE_URL missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["SHIPPING_DEFAULT_ZONE_CODE"] = "ATH"
	env["SHIPPING_COD_FEE"] = "1.50"
	env["SHIPPING_SNAPSHOT_CACHE_TTL"] = "2m"
	env["PORT"] = "9090"
	cfg, err := LoadForTests(env)
	if err != nil {
		t.Fatalf("LoadForTests: %v", err)
	}
	if cfg.DefaultZoneCode != "ATH" || cfg.CODFee != "1.50" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SnapshotCacheTTL != 2*time.Minute {
		t.Fatalf("SnapshotCacheTTL = %s", cfg.SnapshotCacheTTL)
	}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr())
	}
}
