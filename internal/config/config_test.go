package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
engine:
  nats_url: "nats://localhost:4222"
  packets_subject: "sentry.packets.parsed"
  verdicts_subject: "sentry.verdicts"
  num_workers: 2
  model_dir: "models"
  flow:
    idle_timeout: "60s"
    scan_interval: "5s"
    flush_min_packets: 3
    flush_max_age: "120s"
  store:
    capacity: 500
  clickhouse:
    enabled: true
    host: "ch.internal"
    port: 9000
  api:
    listen_addr: ":8080"
probe:
  interface: "eth0"
  nats_url: "nats://localhost:4222"
  subject: "sentry.packets.parsed"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Engine.NumWorkers != 2 {
		t.Errorf("NumWorkers = %d, want 2", cfg.Engine.NumWorkers)
	}
	if cfg.Engine.Flow.IdleTimeout != "60s" || cfg.Engine.Flow.FlushMinPackets != 3 {
		t.Errorf("Flow config = %+v", cfg.Engine.Flow)
	}
	if !cfg.Engine.ClickHouse.Enabled || cfg.Engine.ClickHouse.Host != "ch.internal" {
		t.Errorf("ClickHouse config = %+v", cfg.Engine.ClickHouse)
	}
	if cfg.Probe.Interface != "eth0" {
		t.Errorf("Probe interface = %q, want eth0", cfg.Probe.Interface)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
