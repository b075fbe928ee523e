package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("SessionTTL() = %v, want 24h", cfg.SessionTTL())
	}
	if cfg.Session.HistoryLimit != 12 {
		t.Errorf("Session.HistoryLimit = %d, want 12", cfg.Session.HistoryLimit)
	}
	if cfg.RateLimit.Requests != 30 {
		t.Errorf("RateLimit.Requests = %d, want 30", cfg.RateLimit.Requests)
	}
	if cfg.RateLimitWindow() != time.Hour {
		t.Errorf("RateLimitWindow() = %v, want 1h", cfg.RateLimitWindow())
	}
	if cfg.LLM.Model != "gemini-1.5-flash" {
		t.Errorf("LLM.Model = %q, want gemini-1.5-flash", cfg.LLM.Model)
	}
	if cfg.LLM.MaxContextTokens != 3000 {
		t.Errorf("LLM.MaxContextTokens = %d, want 3000", cfg.LLM.MaxContextTokens)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VETCHAT_SERVER_PORT", "9090")
	t.Setenv("VETCHAT_SESSION_TTL_SECONDS", "600")
	t.Setenv("VETCHAT_LLM_API_KEY", "test-key")
	t.Setenv("VETCHAT_RATELIMIT_WINDOW_SECONDS", "120")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.SessionTTL() != 10*time.Minute {
		t.Errorf("SessionTTL() = %v, want 10m", cfg.SessionTTL())
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("LLM.APIKey = %q, want test-key", cfg.LLM.APIKey)
	}
	if cfg.RateLimitWindow() != 2*time.Minute {
		t.Errorf("RateLimitWindow() = %v, want 2m", cfg.RateLimitWindow())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vetchat.yaml")
	data := []byte(`
server:
  port: 7070
redis:
  addr: redis.internal:6379
llm:
  model: gemini-1.5-pro
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q, want redis.internal:6379", cfg.Redis.Addr)
	}
	if cfg.LLM.Model != "gemini-1.5-pro" {
		t.Errorf("LLM.Model = %q, want gemini-1.5-pro", cfg.LLM.Model)
	}
	// Untouched keys keep defaults.
	if cfg.Session.HistoryLimit != 12 {
		t.Errorf("Session.HistoryLimit = %d, want 12", cfg.Session.HistoryLimit)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vetchat.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("VETCHAT_SERVER_PORT", "9091")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("Server.Port = %d, want 9091", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("Load() with missing file should fail")
	}
}

func TestAuthTokens(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  map[string]string
		count int
	}{
		{"empty", "", map[string]string{}, 0},
		{"single", "tok1:alice", map[string]string{"tok1": "alice"}, 1},
		{"multiple", "tok1:alice, tok2:bob", map[string]string{"tok1": "alice", "tok2": "bob"}, 2},
		{"malformed skipped", "tok1:alice,badpair,:noone,tok3:", map[string]string{"tok1": "alice"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Auth: AuthConfig{Tokens: tt.raw}}
			got := cfg.AuthTokens()
			if len(got) != tt.count {
				t.Fatalf("AuthTokens() returned %d entries, want %d", len(got), tt.count)
			}
			for token, user := range tt.want {
				if got[token] != user {
					t.Errorf("AuthTokens()[%q] = %q, want %q", token, got[token], user)
				}
			}
		})
	}
}
