// Package config holds operator-level configuration for a Maestro process.
//
// This is infrastructure config set by whoever deploys Maestro, not end-user
// state. Everything here maps to an env var with the MAESTRO_ prefix
// (e.g. "redis_url" -> MAESTRO_REDIS_URL) or to a YAML field in
// maestro.config.yaml. End-user data (notes, tasks) lives in the notebook
// database under DataDir.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyListenAddr        = "listen_addr"
	KeyDataDir           = "data_dir"
	KeyRedisURL          = "redis_url"
	KeyStoreTimeoutMS    = "store_timeout_ms"
	KeyPlanTTLMinutes    = "plan_ttl_minutes"
	KeyIdempotencyTTLSec = "idempotency_ttl_sec"
	KeyGlobalRPM         = "global_rpm"
	KeyOpenAIAPIKey      = "openai_api_key"
	KeyIntentsPath       = "intents_path"
)

// Defaults. Redis has no default address: when unset, Maestro runs on the
// in-process store only (single-node mode).
const (
	DefaultListenAddr        = ":8080"
	DefaultStoreTimeoutMS    = 2000
	DefaultPlanTTLMinutes    = 10
	DefaultIdempotencyTTLSec = 86400
	DefaultGlobalRPM         = 600
)

// Config is the resolved configuration for a Maestro process.
type Config struct {
	ListenAddr        string        // HTTP listen address
	DataDir           string        // Base directory for local state (~/.maestro)
	RedisURL          string        // Shared store address (host:port); empty = single-node mode
	StoreTimeout      time.Duration // Per-operation bound on shared-store calls
	PlanTTL           time.Duration // How long an unconfirmed plan stays claimable
	IdempotencyTTL    time.Duration // Reservation and cached-result lifetime
	GlobalRPM         int           // Coarse whole-process requests/minute guard
	OpenAIAPIKey      string        // Optional: enables the LLM-backed summarizer
	IntentsPath       string        // Optional: intent pattern overrides (YAML)
}

// NotebookDBPath returns the full path to the notebook SQLite database.
func (c *Config) NotebookDBPath() string {
	return filepath.Join(c.DataDir, "notebook.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// SingleNode reports whether no shared store is configured. Rate limiting and
// idempotency are then only correct within this process.
func (c *Config) SingleNode() bool {
	return c.RedisURL == ""
}

func init() {
	viper.SetEnvPrefix("MAESTRO")
	viper.AutomaticEnv()
	viper.SetDefault(KeyListenAddr, DefaultListenAddr)
	viper.SetDefault(KeyStoreTimeoutMS, DefaultStoreTimeoutMS)
	viper.SetDefault(KeyPlanTTLMinutes, DefaultPlanTTLMinutes)
	viper.SetDefault(KeyIdempotencyTTLSec, DefaultIdempotencyTTLSec)
	viper.SetDefault(KeyGlobalRPM, DefaultGlobalRPM)
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     viper.GetString(KeyListenAddr),
		DataDir:        resolveDataDir(),
		RedisURL:       viper.GetString(KeyRedisURL),
		StoreTimeout:   time.Duration(viper.GetInt(KeyStoreTimeoutMS)) * time.Millisecond,
		PlanTTL:        time.Duration(viper.GetInt(KeyPlanTTLMinutes)) * time.Minute,
		IdempotencyTTL: time.Duration(viper.GetInt(KeyIdempotencyTTLSec)) * time.Second,
		GlobalRPM:      viper.GetInt(KeyGlobalRPM),
		OpenAIAPIKey:   viper.GetString(KeyOpenAIAPIKey),
		IntentsPath:    viper.GetString(KeyIntentsPath),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".maestro"
	}
	return filepath.Join(home, ".maestro")
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout_ms must be positive")
	}
	if c.PlanTTL <= 0 {
		return fmt.Errorf("plan_ttl_minutes must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency_ttl_sec must be positive")
	}
	if c.GlobalRPM <= 0 {
		return fmt.Errorf("global_rpm must be positive")
	}
	return nil
}
