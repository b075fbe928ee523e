package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Reaper    ReaperConfig    `koanf:"reaper"`
	LLM       LLMConfig       `koanf:"llm"`
	Auth      AuthConfig      `koanf:"auth"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type SessionConfig struct {
	TTLSeconds   int `koanf:"ttl_seconds"`
	HistoryLimit int `koanf:"history_limit"`
}

type RateLimitConfig struct {
	Requests      int `koanf:"requests"`
	WindowSeconds int `koanf:"window_seconds"`
}

type ReaperConfig struct {
	IntervalSeconds int `koanf:"interval_seconds"`
}

type LLMConfig struct {
	APIKey           string `koanf:"api_key"`
	Model            string `koanf:"model"`
	TimeoutSeconds   int    `koanf:"timeout_seconds"`
	MaxContextTokens int    `koanf:"max_context_tokens"`
}

type AuthConfig struct {
	// Tokens is a comma-separated list of token:user pairs.
	Tokens string `koanf:"tokens"`
}

// Load reads configuration from an optional YAML file and VETCHAT_-prefixed
// environment variables. Environment variables win over the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables: VETCHAT_SESSION_TTL_SECONDS -> session.ttl_seconds.
	// Only the first underscore separates section from key.
	if err := k.Load(env.Provider("VETCHAT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "VETCHAT_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":              8080,
		"redis.addr":               "localhost:6379",
		"session.ttl_seconds":      86400,
		"session.history_limit":    12,
		"ratelimit.requests":       30,
		"ratelimit.window_seconds": 3600,
		"reaper.interval_seconds":  1800,
		"llm.model":                "gemini-1.5-flash",
		"llm.timeout_seconds":      20,
		"llm.max_context_tokens":   3000,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SessionTTL returns the session TTL as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// RateLimitWindow returns the rate limit window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// ReaperInterval returns the purge loop cadence as a duration.
func (c *Config) ReaperInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalSeconds) * time.Second
}

// LLMTimeout returns the model call deadline as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// AuthTokens parses the token:user pairs into a map. Malformed entries are
// skipped.
func (c *Config) AuthTokens() map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(c.Auth.Tokens, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		if !ok || token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	return tokens
}
