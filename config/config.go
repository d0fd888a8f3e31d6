// Package config loads the service settings from the environment.
// A .env file in the working directory is read first when present; variables
// already set in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blob providers understood by BlobProvider.
const (
	ProviderGCS = "gcs"
	ProviderR2  = "r2"
)

// Config captures environment-driven settings for the API.
type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	CookieSecure       bool
	CookieDomain       string

	AllowedOrigins []string
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []string
	StoreTimeout   time.Duration

	BlobProvider          string
	GCSBucket             string
	GCSCredentialsFile    string
	R2Bucket              string
	R2AccountID           string
	R2AccessKeyID         string
	R2SecretAccessKey     string
	R2Endpoint            string
	R2PublicDomain        string
	MaxUploadSizeMB       int64
	AllowedFileExtensions []string
	AllowedMimeTypes      []string

	ReadQueryMaxLimit     int64
	DefaultReadQueryLimit int64

	NATSURL   string
	LogLevel  string
	LogFormat string

	AuthRateLimit int
	AuthRateBurst int
}

const (
	defaultPort          = "8080"
	defaultDatabase      = "clipnest"
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 10 * 24 * time.Hour
	defaultStoreTimeout  = 10 * time.Second
	defaultMaxUploadMB   = 100
	defaultMaxLimit      = 50
	defaultLimit         = 10
	defaultAuthRateLimit = 20
	defaultAuthRateBurst = 5
)

// LoadDotEnv reads .env when it exists. A missing file is not an error.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}
}

// Load reads the environment and returns a validated Config.
func Load() (Config, error) {
	LoadDotEnv()
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", defaultPort),
		MongoURI:     os.Getenv("MONGODB_URI"),
		DatabaseName: getEnv("DATABASE_NAME", defaultDatabase),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		CookieSecure:       parseBool(getEnv("COOKIE_SECURE", "true")),
		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),

		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		BlobProvider:       strings.ToLower(strings.TrimSpace(os.Getenv("BLOB_PROVIDER"))),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("CREDENTIALS_FILE_LOCATION"),
		R2Bucket:           os.Getenv("R2_BUCKET"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Endpoint:         os.Getenv("R2_ENDPOINT"),
		R2PublicDomain:     os.Getenv("R2_PUBLIC_DOMAIN"),
		AllowedFileExtensions: splitListDefault(os.Getenv("ALLOWED_FILE_EXTENSIONS"),
			[]string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".mp4", ".webm", ".mov"}),
		AllowedMimeTypes: splitListDefault(os.Getenv("ALLOWED_MIME_TYPES"),
			[]string{"image/jpeg", "image/png", "image/webp", "image/gif", "video/mp4", "video/webm", "video/quicktime"}),

		NATSURL:   os.Getenv("NATS_URL"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.AccessTokenTTL, err = ttlFromEnv("ACCESS_TOKEN_TTL", "ACCESS_TOKEN_TTL_MINUTES", time.Minute, defaultAccessTTL); err != nil {
		return cfg, err
	}
	if cfg.RefreshTokenTTL, err = ttlFromEnv("REFRESH_TOKEN_TTL", "REFRESH_TOKEN_TTL_DAYS", 24*time.Hour, defaultRefreshTTL); err != nil {
		return cfg, err
	}
	if cfg.StoreTimeout, err = durationFromEnv("STORE_TIMEOUT", defaultStoreTimeout); err != nil {
		return cfg, err
	}
	if cfg.MaxUploadSizeMB, err = int64FromEnv("MAX_UPLOAD_SIZE_MB", defaultMaxUploadMB); err != nil {
		return cfg, err
	}
	if cfg.ReadQueryMaxLimit, err = int64FromEnv("READ_QUERY_MAX_LIMIT", defaultMaxLimit); err != nil {
		return cfg, err
	}
	if cfg.DefaultReadQueryLimit, err = int64FromEnv("DEFAULT_READ_QUERY_LIMIT", defaultLimit); err != nil {
		return cfg, err
	}
	rateLimit, err := int64FromEnv("AUTH_RATE_LIMIT", defaultAuthRateLimit)
	if err != nil {
		return cfg, err
	}
	rateBurst, err := int64FromEnv("AUTH_RATE_BURST", defaultAuthRateBurst)
	if err != nil {
		return cfg, err
	}
	cfg.AuthRateLimit, cfg.AuthRateBurst = int(rateLimit), int(rateBurst)

	if cfg.R2Endpoint == "" && cfg.R2AccountID != "" {
		cfg.R2Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.DefaultReadQueryLimit <= 0 || c.ReadQueryMaxLimit < c.DefaultReadQueryLimit {
		return errors.New("DEFAULT_READ_QUERY_LIMIT must be positive and not above READ_QUERY_MAX_LIMIT")
	}
	switch c.BlobProvider {
	case "":
	case ProviderGCS:
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required when BLOB_PROVIDER=gcs")
		}
	case ProviderR2:
		if c.R2Bucket == "" || c.R2Endpoint == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2PublicDomain == "" {
			return errors.New("R2_BUCKET, R2_ENDPOINT (or R2_ACCOUNT_ID), R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_PUBLIC_DOMAIN are required when BLOB_PROVIDER=r2")
		}
	default:
		return fmt.Errorf("unknown BLOB_PROVIDER %q", c.BlobProvider)
	}
	return nil
}

// MaxUploadBytes is MaxUploadSizeMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitListDefault(v string, fallback []string) []string {
	if list := splitList(v); len(list) > 0 {
		return list
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ttlFromEnv prefers the duration variable and falls back to the legacy
// bare-number variable counted in unit.
func ttlFromEnv(key, legacyKey string, unit, fallback time.Duration) (time.Duration, error) {
	if v := getEnv(key, ""); v != "" {
		return durationFromEnv(key, fallback)
	}
	v := getEnv(legacyKey, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", legacyKey, err)
	}
	return time.Duration(n) * unit, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
