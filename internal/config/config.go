// Package config loads the service configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that parses from the usual "90s" notation in
// YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RuntimeConfig configures the reasoning runtime client.
type RuntimeConfig struct {
	// APIKey is normally left empty in the file and supplied via
	// OPENAI_API_KEY.
	APIKey       string   `yaml:"api_key"`
	AssistantID  string   `yaml:"assistant_id"`
	Model        string   `yaml:"model"`
	PollInterval Duration `yaml:"poll_interval"`
	PollTimeout  Duration `yaml:"poll_timeout"`
}

// RetrievalConfig configures the search backend. Scopes maps each supported
// scope name to its index UID.
type RetrievalConfig struct {
	Host string `yaml:"host"`
	// APIKey is normally left empty in the file and supplied via
	// MEILI_API_KEY.
	APIKey   string            `yaml:"api_key"`
	Embedder string            `yaml:"embedder"`
	Scopes   map[string]string `yaml:"scopes"`
}

// StoreConfig selects and configures the conversation record store.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis-backed store and distributed lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Runtime: RuntimeConfig{
			Model:        "gpt-4o",
			PollInterval: Duration(time.Second),
			PollTimeout:  Duration(90 * time.Second),
		},
		Retrieval: RetrievalConfig{
			Host:     "http://localhost:7700",
			Embedder: "default",
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path, layering it over Default and then
// applying environment overrides. A missing file is not an error; the
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers secret and deployment overrides from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Runtime.APIKey = v
	}
	if v := os.Getenv("COUNSEL_ASSISTANT_ID"); v != "" {
		cfg.Runtime.AssistantID = v
	}
	if v := os.Getenv("MEILI_API_KEY"); v != "" {
		cfg.Retrieval.APIKey = v
	}
	if v := os.Getenv("MEILI_HOST"); v != "" {
		cfg.Retrieval.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
}

// Validate checks the fields every deployment needs. Retrieval scopes are
// allowed to be empty: the orchestrator then answers without evidence.
func (c Config) Validate() error {
	if c.Runtime.APIKey == "" {
		return fmt.Errorf("runtime.api_key is required (or set OPENAI_API_KEY)")
	}
	if c.Runtime.AssistantID == "" {
		return fmt.Errorf("runtime.assistant_id is required (run provision first)")
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", "memory", "redis", c.Store.Backend)
	}
	if c.Runtime.PollInterval <= 0 {
		return fmt.Errorf("runtime.poll_interval must be positive")
	}
	if c.Runtime.PollTimeout <= c.Runtime.PollInterval {
		return fmt.Errorf("runtime.poll_timeout must exceed runtime.poll_interval")
	}
	return nil
}
