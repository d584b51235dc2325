package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Speech    SpeechConfig    `yaml:"speech"`
	Program   ProgramConfig   `yaml:"program"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SpeechConfig selects the speech backend: "console" prints and paces
// locally, "http" talks to a TTS sidecar at URL.
type SpeechConfig struct {
	Mode           string `yaml:"mode"`
	URL            string `yaml:"url"`
	WordsPerMinute int    `yaml:"words_per_minute"`
	CacheDir       string `yaml:"cache_dir"`
}

type ProgramConfig struct {
	Path string `yaml:"path"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPCALL_ and underscore-separated paths:
//
//	REPCALL_SERVER_HOST, REPCALL_SERVER_PORT,
//	REPCALL_DB_HOST, REPCALL_DB_PORT, REPCALL_DB_NAME,
//	REPCALL_DB_USER, REPCALL_DB_PASSWORD, REPCALL_DB_SSLMODE,
//	REPCALL_AUTH_API_KEY, REPCALL_SPEECH_MODE, REPCALL_SPEECH_URL,
//	REPCALL_PROGRAM_PATH
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCALL_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCALL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCALL_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPCALL_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPCALL_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPCALL_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPCALL_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPCALL_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPCALL_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPCALL_SPEECH_MODE"); v != "" {
		cfg.Speech.Mode = v
	}
	if v := os.Getenv("REPCALL_SPEECH_URL"); v != "" {
		cfg.Speech.URL = v
	}
	if v := os.Getenv("REPCALL_PROGRAM_PATH"); v != "" {
		cfg.Program.Path = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Program.Path == "" {
		return fmt.Errorf("program.path is required")
	}
	switch c.Speech.Mode {
	case "", "console":
	case "http":
		if c.Speech.URL == "" {
			return fmt.Errorf("speech.url is required when speech.mode is http")
		}
	default:
		return fmt.Errorf("speech.mode must be console or http, got %q", c.Speech.Mode)
	}
	return nil
}
