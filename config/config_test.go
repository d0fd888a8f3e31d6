package config

import (
	"strings"
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setSecrets(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, defaultPort)
	}
	if cfg.AccessTokenTTL != defaultAccessTTL || cfg.RefreshTokenTTL != defaultRefreshTTL {
		t.Errorf("unexpected ttls %v / %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if !cfg.CookieSecure {
		t.Error("cookies should be secure by default")
	}
	if cfg.BlobProvider != "" {
		t.Errorf("BlobProvider = %q, want empty", cfg.BlobProvider)
	}
	if cfg.MaxUploadBytes() != defaultMaxUploadMB<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
}

func TestFromEnvSecrets(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		wantErr string
	}{
		{"missing access", "", "r", "ACCESS_TOKEN_SECRET"},
		{"missing refresh", "a", "", "REFRESH_TOKEN_SECRET"},
		{"same secret", "same", "same", "must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ACCESS_TOKEN_SECRET", tt.access)
			t.Setenv("REFRESH_TOKEN_SECRET", tt.refresh)
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTokenTTLForms(t *testing.T) {
	setSecrets(t)
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "30")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 48*time.Hour {
		t.Errorf("RefreshTokenTTL = %v", cfg.RefreshTokenTTL)
	}

	t.Setenv("ACCESS_TOKEN_TTL", "-1m")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestListsAndProviders(t *testing.T) {
	setSecrets(t)
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("BLOB_PROVIDER", "R2")
	t.Setenv("R2_BUCKET", "media")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_PUBLIC_DOMAIN", "https://files.example.com")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.R2Endpoint != "https://acct.r2.cloudflarestorage.com" {
		t.Errorf("R2Endpoint = %q", cfg.R2Endpoint)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}

	t.Setenv("R2_PUBLIC_DOMAIN", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without R2_PUBLIC_DOMAIN")
	}

	t.Setenv("BLOB_PROVIDER", "ftp")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
