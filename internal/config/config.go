package config

import (
	"os"
	"time"

	"escape-room-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Ledger modes accepted in configuration.
const (
	LedgerModeNoop = "noop"
	LedgerModeAMQP = "amqp"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		ID  string `yaml:"id"`
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Game   domain.Rules `yaml:"game"`
	Ledger struct {
		Mode            string `yaml:"mode"`
		AMQPURL         string `yaml:"amqp_url"`
		Exchange        string `yaml:"exchange"`
		ContractAddress string `yaml:"contract_address"`
		ChainID         int64  `yaml:"chain_id"`
		Timeout         string `yaml:"timeout"`
	} `yaml:"ledger"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns a configuration that runs fully in memory.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Catalog.ID = "default"
	cfg.Catalog.TTL = "10m"
	cfg.Game = domain.DefaultRules()
	cfg.Ledger.Mode = LedgerModeNoop
	cfg.Ledger.Exchange = "escape.ledger"
	cfg.Ledger.Timeout = "5s"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
