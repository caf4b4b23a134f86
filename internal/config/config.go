package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Minio     MinioConfig
	Email     EmailConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Production bool
}

type ServerConfig struct {
	Port          string
	AllowedOrigin string
}

type MongoConfig struct {
	URI      string
	Database string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	From      string
	StaffAddr string
	UseTLS    bool
	FrontendURL string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	ResetTTL  time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "5000"),
			AllowedOrigin: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017/autoparc"),
			Database: getEnv("MONGO_DB", "autoparc"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "autoparc"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		Email: EmailConfig{
			SMTPHost:    getEnv("EMAIL_HOST", "localhost"),
			SMTPPort:    getInt("EMAIL_PORT", 1025),
			SMTPUser:    getEnv("EMAIL_USER", ""),
			SMTPPass:    getEnv("EMAIL_PASS", ""),
			From:        getEnv("EMAIL_FROM", "noreply@autoparc.fr"),
			StaffAddr:   getEnv("EMAIL_STAFF", "contact@autoparc.fr"),
			UseTLS:      getBool("EMAIL_USE_TLS", false),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			TokenTTL:  getDuration("JWT_TTL", 4*time.Hour),
			ResetTTL:  getDuration("PASSWORD_RESET_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Max:    getInt("RATE_LIMIT_MAX_REQUESTS", 100),
			Window: getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Production: getEnv("APP_ENV", "development") == "production",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
