package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file and returns the validated Config with raw bytes.
// KnownFields(true) rejects typos and unused keys.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes. Omitted sections fall back to
// the built-in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode strategy config: %w", err)
	}

	def := Default()
	if cfg.Meta.StrategyID == "" {
		cfg.Meta = def.Meta
	}
	if len(cfg.Events) == 0 {
		cfg.Events = def.Events
	}
	if len(cfg.Universe.Tickers) == 0 {
		cfg.Universe = def.Universe
	}
	if cfg.Backtest.MomentumDays == 0 {
		cfg.Backtest.MomentumDays = def.Backtest.MomentumDays
	}
	if cfg.Backtest.PortfolioSize == 0 {
		cfg.Backtest.PortfolioSize = def.Backtest.PortfolioSize
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, _, err := Load(path)
	return cfg, err
}

// Hash generates a SHA256 hash of the Config (canonical JSON)
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
