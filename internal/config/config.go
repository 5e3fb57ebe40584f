package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	ChatAPI   ChatAPIConfig
	Widget    WidgetConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chatAPI, err := loadChatAPIConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		ChatAPI:   chatAPI,
		Widget:    widget,
		Session:   session,
		RateLimit: rateLimit,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := parseListEnv("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// ChatAPIConfig 描述远端聊天接口。
type ChatAPIConfig struct {
	URL     string
	Timeout time.Duration
}

func loadChatAPIConfig() (ChatAPIConfig, error) {
	timeout, err := parseDurationEnv("CHAT_API_TIMEOUT", 2*time.Minute)
	if err != nil {
		return ChatAPIConfig{}, err
	}
	if timeout < 0 {
		return ChatAPIConfig{}, fmt.Errorf("invalid CHAT_API_TIMEOUT value: must not be negative")
	}

	url := getEnvOrDefault("CHAT_API_URL", "http://localhost:8000/chat")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ChatAPIConfig{}, fmt.Errorf("invalid CHAT_API_URL value %q: must be an http(s) url", url)
	}

	return ChatAPIConfig{URL: url, Timeout: timeout}, nil
}

// WidgetConfig 描述前端挂件的展示配置。
type WidgetConfig struct {
	Title    string
	Position string
	Locale   string
	Welcome  string
	Aliases  map[chat.Character][]string
}

var widgetPositions = map[string]bool{
	"bottom-left":  true,
	"bottom-right": true,
	"top-left":     true,
	"top-right":    true,
}

func loadWidgetConfig() (WidgetConfig, error) {
	position := strings.ToLower(getEnvOrDefault("WIDGET_POSITION", "bottom-left"))
	if !widgetPositions[position] {
		return WidgetConfig{}, fmt.Errorf("invalid WIDGET_POSITION value: %q", position)
	}

	aliases, err := parseCharacterAliases(os.Getenv("CHARACTER_ALIASES"))
	if err != nil {
		return WidgetConfig{}, err
	}

	return WidgetConfig{
		Title:    getEnvOrDefault("WIDGET_TITLE", "Pink Chatbot"),
		Position: position,
		Locale:   getEnvOrDefault("WIDGET_LOCALE", "fr"),
		Welcome:  strings.TrimSpace(os.Getenv("WIDGET_WELCOME")),
		Aliases:  aliases,
	}, nil
}

// SessionConfig 控制空闲会话的回收。
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	interval, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{TTL: ttl, SweepInterval: interval}, nil
}

// RateLimitConfig 描述每个客户端的请求限流。
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	enabled, err := parseBoolEnv("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return RateLimitConfig{}, err
	}

	rps := 2.0
	if override, err := parseOptionalFloatEnv("RATE_LIMIT_RPS"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		rps = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		burst = *override
	}

	if enabled && (rps <= 0 || burst < 1) {
		return RateLimitConfig{}, fmt.Errorf("invalid rate limit: RATE_LIMIT_RPS must be > 0 and RATE_LIMIT_BURST >= 1")
	}

	return RateLimitConfig{Enabled: enabled, RequestsPerSecond: rps, Burst: burst}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// parseCharacterAliases 解析 "inspector=inspector,dreyfus;panther=panther,pink"。
func parseCharacterAliases(raw string) (map[chat.Character][]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[chat.Character][]string)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid CHARACTER_ALIASES entry %q: expected character=alias,...", entry)
		}

		character := chat.Character(strings.ToLower(strings.TrimSpace(name)))
		switch character {
		case chat.CharacterPanther, chat.CharacterInspector:
		default:
			return nil, fmt.Errorf("invalid CHARACTER_ALIASES entry %q: unknown character %q", entry, character)
		}

		var aliases []string
		for _, alias := range strings.Split(list, ",") {
			if alias = strings.ToLower(strings.TrimSpace(alias)); alias != "" {
				aliases = append(aliases, alias)
			}
		}
		if len(aliases) == 0 {
			return nil, fmt.Errorf("invalid CHARACTER_ALIASES entry %q: no aliases", entry)
		}
		out[character] = aliases
	}
	return out, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
