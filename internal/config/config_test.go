package config

import (
	"testing"
	"time"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "CHAT_API_URL", "CHAT_API_TIMEOUT",
		"WIDGET_TITLE", "WIDGET_POSITION", "WIDGET_LOCALE", "WIDGET_WELCOME", "CHARACTER_ALIASES",
		"SESSION_TTL", "SESSION_SWEEP_INTERVAL",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
	if cfg.ChatAPI.URL != "http://localhost:8000/chat" {
		t.Fatalf("unexpected chat api url %s", cfg.ChatAPI.URL)
	}
	if cfg.ChatAPI.Timeout != 2*time.Minute {
		t.Fatalf("unexpected timeout %s", cfg.ChatAPI.Timeout)
	}
	if cfg.Widget.Position != "bottom-left" || cfg.Widget.Locale != "fr" || cfg.Widget.Title != "Pink Chatbot" {
		t.Fatalf("unexpected widget config %+v", cfg.Widget)
	}
	if cfg.Widget.Aliases != nil {
		t.Fatalf("expected no alias overrides, got %v", cfg.Widget.Aliases)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("unexpected session ttl %s", cfg.Session.TTL)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Burst != 5 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CHAT_API_URL", "https://chat.example.com/api/pinkchat")
	t.Setenv("CHAT_API_TIMEOUT", "15s")
	t.Setenv("WIDGET_POSITION", "Bottom-Right")
	t.Setenv("CHARACTER_ALIASES", "inspector=Dreyfus, Charles ; panther=pink")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
	if cfg.ChatAPI.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ChatAPI.Timeout)
	}
	if cfg.Widget.Position != "bottom-right" {
		t.Fatalf("unexpected position %s", cfg.Widget.Position)
	}
	inspector := cfg.Widget.Aliases[chat.CharacterInspector]
	if len(inspector) != 2 || inspector[0] != "dreyfus" || inspector[1] != "charles" {
		t.Fatalf("unexpected inspector aliases %v", inspector)
	}
	if cfg.RateLimit.Enabled {
		t.Fatal("expected rate limit disabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":              "80 80",
		"CHAT_API_URL":      "localhost:8000/chat",
		"CHAT_API_TIMEOUT":  "soon",
		"WIDGET_POSITION":   "middle",
		"CHARACTER_ALIASES": "clouseau=inspector",
		"SESSION_TTL":       "forever",
		"RATE_LIMIT_BURST":  "0",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
