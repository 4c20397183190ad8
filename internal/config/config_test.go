package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_SIGNING_SECRET", "testsecret123456789012345678901234")
	t.Setenv("ALLOWLIST_PATH", "testdata/allowlist.txt")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_URL", "https://planfill.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Auth.SigningSecret == "" || cfg.Auth.AllowlistPath == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	// trailing slash must be stripped so URL building stays predictable
	if cfg.Server.BaseURL != "https://planfill.example.com" {
		t.Fatalf("BaseURL not normalized: %q", cfg.Server.BaseURL)
	}
	if cfg.Auth.SessionTTL.Seconds() != 600 {
		t.Fatalf("unexpected default session TTL: %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.PollInterval.Seconds() != 2 {
		t.Fatalf("unexpected default poll interval: %v", cfg.Auth.PollInterval)
	}
}

func TestLoadConfig_MissingSecretFails(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("AUTH_SIGNING_SECRET")
	t.Setenv("AUTH_SIGNING_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when AUTH_SIGNING_SECRET is unset")
	}
}

func TestLoadConfig_MissingAllowlistFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWLIST_PATH", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when ALLOWLIST_PATH is unset")
	}
}

func TestLoadConfig_InsecureModeSkipsClientCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("ALLOW_INSECURE_OAUTH", "true")
	defer os.Unsetenv("ALLOW_INSECURE_OAUTH")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.OAuth.AllowInsecure {
		t.Fatalf("expected AllowInsecure to be set")
	}
}

func TestLoadConfig_CORSAllowList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOW", "chrome-extension://abc, http://localhost:3000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Server.CORSAllow) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.Server.CORSAllow)
	}
	if cfg.Server.CORSAllow[1] != "http://localhost:3000" {
		t.Fatalf("CORS origin not trimmed: %q", cfg.Server.CORSAllow[1])
	}
}
