package config

import (
	"testing"
	"time"
)

func TestLoadTableDefaults(t *testing.T) {
	cfg, err := LoadTable()
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if cfg.EntryFee != 1000 || cfg.MaxSeats != 8 {
		t.Fatalf("unexpected table rules: %+v", cfg)
	}
	if cfg.PresenceTimeout != 30*time.Second {
		t.Fatalf("PresenceTimeout = %v, want 30s", cfg.PresenceTimeout)
	}
	if cfg.RoomCodeLength != 5 || cfg.RoomCodeTries != 10 {
		t.Fatalf("unexpected room code config: %+v", cfg)
	}
}

func TestLoadTableOverrides(t *testing.T) {
	t.Setenv("TABLE_ENTRY_FEE", "250")
	t.Setenv("TABLE_PRESENCE_TIMEOUT", "45s")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "9")

	cfg, err := LoadTable()
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if cfg.EntryFee != 250 || cfg.PresenceTimeout != 45*time.Second || cfg.MaxAttempts != 9 {
		t.Fatalf("unexpected table config: %+v", cfg)
	}
}

func TestLoadTableRejectsBadDuration(t *testing.T) {
	t.Setenv("TABLE_PRESENCE_TIMEOUT", "soon")

	if _, err := LoadTable(); err == nil {
		t.Fatal("LoadTable() expected error")
	}
}

func TestLoadRedisAndPaymentDefaults(t *testing.T) {
	redisCfg, err := LoadRedis()
	if err != nil {
		t.Fatalf("LoadRedis() error = %v", err)
	}
	if redisCfg.Addr != "" || redisCfg.Window != 10*time.Second {
		t.Fatalf("unexpected redis config: %+v", redisCfg)
	}
	payCfg, err := LoadPayment()
	if err != nil {
		t.Fatalf("LoadPayment() error = %v", err)
	}
	if payCfg.SignatureTolSecs != 300 {
		t.Fatalf("SignatureTolSecs = %d, want 300", payCfg.SignatureTolSecs)
	}
}

func TestLoadAppComposes(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Table.EntryFee != 1000 {
		t.Fatalf("unexpected app config: %+v", cfg)
	}
}
