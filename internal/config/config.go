package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string

	// Object store
	S3Endpoint               string
	S3Region                 string
	S3Bucket                 string
	S3AccessKeyID            string
	S3SecretAccessKey        string
	S3ServiceAccessKeyID     string
	S3ServiceSecretAccessKey string
	S3UsePathStyle           bool

	UploadURLTTL       time.Duration
	SignedURLTTL       time.Duration
	UploadTicketSecret string

	RunMigrations bool

	LogDir      string
	LogMaxFiles int

	// Public endpoint requests per minute per client IP
	PublicRateLimit int

	Debug bool
}

// Load reads configuration from the environment. Malformed numeric or
// duration values are reported rather than silently defaulted.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: supabaseURL + "/auth/v1/.well-known/jwks.json",
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     getTablePrefix(env),

		S3Endpoint:               getEnv("S3_ENDPOINT", ""),
		S3Region:                 getEnv("S3_REGION", "us-east-1"),
		S3Bucket:                 getEnv("S3_BUCKET", "files"),
		S3AccessKeyID:            getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:        getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3ServiceAccessKeyID:     getEnv("S3_SERVICE_ACCESS_KEY_ID", ""),
		S3ServiceSecretAccessKey: getEnv("S3_SERVICE_SECRET_ACCESS_KEY", ""),

		UploadTicketSecret: getEnv("UPLOAD_TICKET_SECRET", ""),
		LogDir:             getEnv("LOG_DIR", ""),
	}

	var err error
	if cfg.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", true); err != nil {
		return nil, err
	}
	if cfg.UploadURLTTL, err = getDuration("UPLOAD_URL_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SignedURLTTL, err = getDuration("SIGNED_URL_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RunMigrations, err = getBool("RUN_MIGRATIONS", env != "prod"); err != nil {
		return nil, err
	}
	if cfg.LogMaxFiles, err = getInt("LOG_MAX_FILES", 10); err != nil {
		return nil, err
	}
	if cfg.PublicRateLimit, err = getInt("PUBLIC_RATE_LIMIT", 600); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG", env != "prod"); err != nil {
		return nil, err
	}

	if cfg.UploadURLTTL <= 0 || cfg.SignedURLTTL <= 0 {
		return nil, fmt.Errorf("UPLOAD_URL_TTL and SIGNED_URL_TTL must be positive")
	}
	if cfg.PublicRateLimit <= 0 {
		return nil, fmt.Errorf("PUBLIC_RATE_LIMIT must be positive")
	}

	return cfg, nil
}

// getTablePrefix returns TABLE_PREFIX, or one derived from the environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
