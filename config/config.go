package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Firebase FirebaseConfig
	Circle   CircleConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

// CircleConfig holds the live-sharing and alerting knobs. Every UPDATE frame
// carries the viewer's complete visible-location list; there is no
// incremental-diff mode to configure.
type CircleConfig struct {
	HeartbeatInterval        time.Duration
	ProximityThresholdMeters float64
	AlertSuppressionWindow   time.Duration
}

type EventsConfig struct {
	Workers   int
	QueueSize int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8087"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DB_DSN", "kindred:kindred@tcp(localhost:3306)/kindred?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "kindred",
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: env("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		Circle: CircleConfig{
			HeartbeatInterval:        time.Duration(envInt("HEARTBEAT_INTERVAL_SEC", 30)) * time.Second,
			ProximityThresholdMeters: float64(envInt("PROXIMITY_THRESHOLD_M", 500)),
			AlertSuppressionWindow:   time.Duration(envInt("ALERT_SUPPRESSION_HOURS", 24)) * time.Hour,
		},
		Events: EventsConfig{
			Workers:   4,
			QueueSize: 256,
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
