package postgres

import (
	"testing"
)

func TestClientOptions(t *testing.T) {
	cfg := &ClientConfig{}
	opts := []ClientOption{
		WithHost("db.internal"),
		WithPort(6432),
		WithDatabase("signals"),
		WithCredentials("svc", "secret"),
		WithSSLMode("require"),
		WithPoolSize(2, 25),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Host != "db.internal" || cfg.Port != 6432 || cfg.Database != "signals" {
		t.Fatalf("connection fields: %+v", cfg)
	}
	if cfg.User != "svc" || cfg.Password != "secret" || cfg.SSLMode != "require" {
		t.Fatalf("credential fields: %+v", cfg)
	}
	if cfg.MinConns != 2 || cfg.MaxConns != 25 {
		t.Fatalf("pool sized min=%d max=%d, want 2 and 25", cfg.MinConns, cfg.MaxConns)
	}
}
