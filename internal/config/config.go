package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the gradebook service.
type Config struct {
	AppName                  string
	AppEnv                   string
	AppPort                  string
	AllowedOrigins           string
	LogLevel                 string
	DatabaseURL              string
	RedisURL                 string
	NATSURL                  string
	JWTSecret                string
	StatsCacheTTL            time.Duration
	EventChannelBase         string
	RejectLateWhenDisallowed bool
	GradingRateLimit         int
	GradingRateWindow        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from GRADEBOOK_* environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "GEMA Gradebook")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("events.channel_base", "gradebook:events")
	v.SetDefault("submissions.reject_late_when_disallowed", false)
	v.SetDefault("grading.rate_limit", 30)
	v.SetDefault("grading.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid stats cache ttl %q", v.GetString("stats.cache_ttl"))
	}

	window, err := time.ParseDuration(v.GetString("grading.rate_window"))
	if err != nil || window <= 0 {
		return Config{}, fmt.Errorf("invalid grading rate window %q", v.GetString("grading.rate_window"))
	}

	cfg := Config{
		AppName:                  v.GetString("app.name"),
		AppEnv:                   v.GetString("app.env"),
		AppPort:                  v.GetString("app.port"),
		AllowedOrigins:           v.GetString("app.allowed_origins"),
		LogLevel:                 strings.ToLower(v.GetString("log.level")),
		DatabaseURL:              v.GetString("database.url"),
		RedisURL:                 v.GetString("redis.url"),
		NATSURL:                  v.GetString("nats.url"),
		JWTSecret:                v.GetString("jwt.secret"),
		StatsCacheTTL:            ttl,
		EventChannelBase:         v.GetString("events.channel_base"),
		RejectLateWhenDisallowed: v.GetBool("submissions.reject_late_when_disallowed"),
		GradingRateLimit:         v.GetInt("grading.rate_limit"),
		GradingRateWindow:        window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.GradingRateLimit <= 0 {
		cfg.GradingRateLimit = 30
	}

	return cfg, nil
}
