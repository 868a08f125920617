package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BaseURL              string `yaml:"base_url"`
		TimeoutSeconds       int    `yaml:"timeout_seconds"`
		StaffCacheTTLSeconds int    `yaml:"staff_cache_ttl_seconds"`
	} `yaml:"api"`

	Booking struct {
		BusinessID            string `yaml:"business_id"`
		SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
	} `yaml:"booking"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		// RequiredRole restricts the dashboard to one role; empty
		// accepts any valid token role.
		RequiredRole    string `yaml:"required_role"`
		SessionTTLHours int    `yaml:"session_ttl_hours"`
	} `yaml:"auth"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 10
	}

	return &cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) StaffCacheTTL() time.Duration {
	if c.API.StaffCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.StaffCacheTTLSeconds) * time.Second
}

func (c *Config) WizardSessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) AdminSessionTTL() time.Duration {
	if c.Auth.SessionTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}
