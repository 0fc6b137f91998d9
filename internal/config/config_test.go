package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_STORE_PATH", "/tmp/forge-test.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
store:
  path: ${TEST_STORE_PATH}
game:
  generation_cost: 25
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("port=%d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Path != "/tmp/forge-test.db" {
		t.Fatalf("store path=%q, env var not expanded", cfg.Store.Path)
	}
	if cfg.Game.GenerationCost != 25 {
		t.Fatalf("generation cost=%d, want 25", cfg.Game.GenerationCost)
	}

	// Unset fields pick up defaults
	if cfg.Game.InitialTokens != 100 {
		t.Fatalf("initial tokens=%d, want default 100", cfg.Game.InitialTokens)
	}
	if cfg.Generator.Timeout != 10*time.Second {
		t.Fatalf("generator timeout=%v, want default 10s", cfg.Generator.Timeout)
	}
	if cfg.Kafka.Topic != "creature-forge-events" {
		t.Fatalf("kafka topic=%q, want default", cfg.Kafka.Topic)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("load of missing file succeeded")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Fatalf("port=%d, want 8080", cfg.Server.Port)
	}
	if cfg.Game.DefaultPageSize != 8 {
		t.Fatalf("page size=%d, want 8", cfg.Game.DefaultPageSize)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Fatalf("sync interval=%v, want 5m", cfg.Sync.Interval)
	}
}
