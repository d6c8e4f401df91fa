package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	DatabaseURL       string
	SessionSecret     string
	AuthSecret        string
	AuthTTL           time.Duration
	GinMode           string
	LogLevel          string
	Location          *time.Location
	BootstrapEmail    string
	BootstrapName     string
	BootstrapPassword string
}

// Load 先读取可选的 .env 文件，再从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 已存在的环境变量不会被 .env 覆盖。
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv 只从环境变量读取配置。
func FromEnv() (AppConfig, error) {
	port := env("PORT", "8080")

	listenAddr := env("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	sessionSecret := env("SESSION_SECRET", "babytracker-dev-secret")
	authSecret := env("AUTH_SECRET", sessionSecret)

	authTTL := 7 * 24 * time.Hour
	if raw := env("AUTH_TTL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return AppConfig{}, fmt.Errorf("invalid AUTH_TTL %q", raw)
		}
		authTTL = parsed
	}

	location := time.UTC
	if name := env("TIMEZONE", ""); name != "" {
		loaded, err := time.LoadLocation(name)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
		}
		location = loaded
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      env("DATABASE_PATH", "babytracker.db"),
		DatabaseURL:       env("DATABASE_URL", ""),
		SessionSecret:     sessionSecret,
		AuthSecret:        authSecret,
		AuthTTL:           authTTL,
		GinMode:           env("GIN_MODE", "release"),
		LogLevel:          strings.ToLower(env("LOG_LEVEL", "info")),
		Location:          location,
		BootstrapEmail:    env("BOOTSTRAP_EMAIL", ""),
		BootstrapName:     env("BOOTSTRAP_NAME", ""),
		BootstrapPassword: env("BOOTSTRAP_PASSWORD", ""),
	}, nil
}

// Development 表示是否以调试模式运行。
func (c AppConfig) Development() bool {
	return c.GinMode == "debug"
}

func env(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
