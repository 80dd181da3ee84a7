package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	PublicURL   string // Advertised in the OpenAPI document when set
	CORSOrigins []string
	Env         string

	// S3 Storage
	S3 S3Config

	// Payment submission
	Submission SubmissionConfig
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
	ProofURLExpiry  time.Duration
}

// SubmissionConfig throttles payment submissions per loan owner
type SubmissionConfig struct {
	RatePerMinute int
	Burst         int
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from .env, an optional config file named by
// REPAY_CONFIG and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("REPAY_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		Auth0Domain:    v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:  v.GetString("AUTH0_AUDIENCE"),
		Port:           v.GetString("PORT"),
		PublicURL:      v.GetString("PUBLIC_URL"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		Env:            v.GetString("ENV"),
		S3: S3Config{
			Region:          v.GetString("S3_REGION"),
			Bucket:          v.GetString("S3_BUCKET"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        v.GetString("S3_ENDPOINT"), // Empty = use AWS, set for MinIO/LocalStack
			ProofURLExpiry:  v.GetDuration("PROOF_URL_EXPIRY"),
		},
		Submission: SubmissionConfig{
			RatePerMinute: v.GetInt("SUBMIT_RATE_PER_MINUTE"),
			Burst:         v.GetInt("SUBMIT_BURST"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("AUTH0_DOMAIN", "")
	v.SetDefault("AUTH0_AUDIENCE", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("PUBLIC_URL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "lunas-proofs")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("PROOF_URL_EXPIRY", "15m")
	v.SetDefault("SUBMIT_RATE_PER_MINUTE", 30)
	v.SetDefault("SUBMIT_BURST", 5)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return errors.New("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return errors.New("AUTH0_AUDIENCE is required")
	}
	if c.S3.ProofURLExpiry <= 0 {
		return errors.New("PROOF_URL_EXPIRY must be a positive duration")
	}
	if c.Submission.RatePerMinute <= 0 || c.Submission.Burst <= 0 {
		return errors.New("SUBMIT_RATE_PER_MINUTE and SUBMIT_BURST must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
