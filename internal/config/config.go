package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FlowConfig holds the flow registry and lifecycle scheduler settings.
// Durations are strings parsed with time.ParseDuration at construction time.
type FlowConfig struct {
	IdleTimeout     string `yaml:"idle_timeout"`
	ScanInterval    string `yaml:"scan_interval"`
	FlushMinPackets int    `yaml:"flush_min_packets"`
	FlushMaxAge     string `yaml:"flush_max_age"`
}

// ClickHouseConfig holds the connection settings for the event writer.
type ClickHouseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Database      string `yaml:"database"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval string `yaml:"flush_interval"`
}

// StoreConfig bounds the in-memory event store.
type StoreConfig struct {
	Capacity int `yaml:"capacity"`
}

// APIConfig holds the HTTP API server settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// EngineConfig is the configuration of the detection engine daemon.
type EngineConfig struct {
	NATSURL             string           `yaml:"nats_url"`
	PacketsSubject      string           `yaml:"packets_subject"`
	VerdictsSubject     string           `yaml:"verdicts_subject"`
	NumWorkers          int              `yaml:"num_workers"`
	SizeOfPacketChannel int              `yaml:"size_of_packet_channel"`
	ModelDir            string           `yaml:"model_dir"`
	Flow                FlowConfig       `yaml:"flow"`
	Store               StoreConfig      `yaml:"store"`
	ClickHouse          ClickHouseConfig `yaml:"clickhouse"`
	API                 APIConfig        `yaml:"api"`
}

// ProbeConfig is the configuration of the capture probe daemon.
type ProbeConfig struct {
	Interface string `yaml:"interface"`
	NATSURL   string `yaml:"nats_url"`
	Subject   string `yaml:"subject"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Probe  ProbeConfig  `yaml:"probe"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
