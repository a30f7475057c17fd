package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPERATOR_WALLET", "operator")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Collateral.Kind != "virtual" {
		t.Errorf("expected virtual collateral, got %s", cfg.Collateral.Kind)
	}
	if cfg.Oracle.Timeout != 10*time.Second {
		t.Errorf("expected 10s oracle timeout, got %v", cfg.Oracle.Timeout)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected no kafka brokers, got %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"OPERATOR_WALLET": "op"}},
		{"missing operator", map[string]string{"JWT_SECRET": "s"}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "OPERATOR_WALLET": "op", "DB_DRIVER": "mysql"}},
		{"spl without mint", map[string]string{"JWT_SECRET": "s", "OPERATOR_WALLET": "op", "COLLATERAL_KIND": "spl"}},
		{"http oracle without url", map[string]string{"JWT_SECRET": "s", "OPERATOR_WALLET": "op", "ORACLE_KIND": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"JWT_SECRET", "OPERATOR_WALLET", "DB_DRIVER", "COLLATERAL_KIND", "ORACLE_KIND"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	got := getEnvList("KAFKA_BROKERS", "")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("unexpected brokers: %v", got)
	}
}
