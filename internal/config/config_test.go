package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL",
		"LOG_PRETTY", "SWAGGER_ENABLED", "DB_PATH", "MAX_MESSAGE_RUNES",
		"JWT_SECRET", "JWT_TTL", "GEN_PROVIDER", "HF_API_URL", "HF_API_TOKEN",
		"EMOTION_MODEL", "GENERATOR_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "GEN_TIMEOUT", "ML_WARMUP", "CLASSIFY_MAX_RUNES",
		"RATE_RPS", "RATE_BURST",
		"CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"IDEMPOTENCY_TTL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME",
		"OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.MaxMessageRunes != 2000 {
		t.Errorf("MaxMessageRunes = %d", cfg.MaxMessageRunes)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Models.Provider != "huggingface" {
		t.Errorf("Provider = %q", cfg.Models.Provider)
	}
	if cfg.Models.GenTimeout != 60*time.Second {
		t.Errorf("GenTimeout = %v", cfg.Models.GenTimeout)
	}
	if cfg.Models.ClassifyMaxRunes != 512 {
		t.Errorf("ClassifyMaxRunes = %d", cfg.Models.ClassifyMaxRunes)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Errorf("rate = %v/%d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if cfg.OTEL.Enabled {
		t.Error("OTEL must default to disabled")
	}
	if len(cfg.CORS.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("RATE_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want normalized warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want fallback release", cfg.GinMode)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != want[0] || cfg.CORS.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateRPS != 2.5 {
		t.Errorf("RateRPS = %v", cfg.RateRPS)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string][2]string{
		"bad log level":        {"LOG_LEVEL", "verbose"},
		"bad provider":         {"GEN_PROVIDER", "llamafarm"},
		"zero message cap":     {"MAX_MESSAGE_RUNES", "0"},
		"zero classify budget": {"CLASSIFY_MAX_RUNES", "0"},
		"cap below budget":     {"MAX_MESSAGE_RUNES", "100"},
		"zero burst":           {"RATE_BURST", "0"},
		"negative rps":         {"RATE_RPS", "-1"},
		"sample ratio too big": {"OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s: expected validation error", kv[0], kv[1])
			}
		})
	}
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEN_PROVIDER", "openai")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when GEN_PROVIDER=openai without OPENAI_API_KEY")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Models.Provider)
	}
}
