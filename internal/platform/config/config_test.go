package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(nil), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Catalog.Path != "" {
		t.Errorf("expected embedded catalog by default, got path %q", cfg.Catalog.Path)
	}
	if cfg.Catalog.FeaturedCount != 4 {
		t.Errorf("unexpected default featured count: %d", cfg.Catalog.FeaturedCount)
	}
	if cfg.Notifications.Duration != 1500*time.Millisecond {
		t.Errorf("unexpected default notification duration: %s", cfg.Notifications.Duration)
	}
	if cfg.Wishlist.StorageKey != "wishlist" {
		t.Errorf("unexpected default wishlist key: %s", cfg.Wishlist.StorageKey)
	}
	if cfg.Session.CookieName != "shopease_session" {
		t.Errorf("unexpected default session cookie: %s", cfg.Session.CookieName)
	}
	if cfg.Session.SigningSecret != "" {
		t.Errorf("expected sign-in disabled by default")
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("unexpected default session ttl: %s", cfg.Session.TTL)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"SHOP_SERVER_PORT":            "9090",
		"SHOP_SERVER_READ_TIMEOUT":    "20s",
		"SHOP_SERVER_WRITE_TIMEOUT":   "25s",
		"SHOP_SERVER_IDLE_TIMEOUT":    "2m",
		"SHOP_LOG_LEVEL":              "DEBUG",
		"SHOP_CATALOG_PATH":           "/srv/products.json",
		"SHOP_CATALOG_FEATURED_COUNT": "6",
		"SHOP_NOTIFICATION_DURATION":  "3s",
		"SHOP_WISHLIST_STORAGE_KEY":   "favourites",
		"SHOP_SESSION_COOKIE":         "sid",
		"SHOP_SESSION_SECRET":         "hunter2",
		"SHOP_SESSION_TTL":            "1h",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second || cfg.Server.WriteTimeout != 25*time.Second || cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected server timeouts: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level lowered to debug, got %s", cfg.Logging.Level)
	}
	if cfg.Catalog.Path != "/srv/products.json" || cfg.Catalog.FeaturedCount != 6 {
		t.Errorf("unexpected catalog config: %+v", cfg.Catalog)
	}
	if cfg.Notifications.Duration != 3*time.Second {
		t.Errorf("unexpected notification duration: %s", cfg.Notifications.Duration)
	}
	if cfg.Wishlist.StorageKey != "favourites" {
		t.Errorf("unexpected wishlist key: %s", cfg.Wishlist.StorageKey)
	}
	if cfg.Session.CookieName != "sid" || cfg.Session.SigningSecret != "hunter2" || cfg.Session.TTL != time.Hour {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	env := map[string]string{
		"SHOP_SERVER_READ_TIMEOUT":    "soon",
		"SHOP_CATALOG_FEATURED_COUNT": "lots",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("expected unparseable duration to fall back, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Catalog.FeaturedCount != 4 {
		t.Errorf("expected unparseable int to fall back, got %d", cfg.Catalog.FeaturedCount)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"SHOP_NOTIFICATION_DURATION": "-1s",
		"SHOP_WISHLIST_STORAGE_KEY":  "   ",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	fields := validation.Fields()
	want := map[string]bool{"Notifications.Duration": false, "Wishlist.StorageKey": false}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s reported invalid, got %v", field, fields)
		}
	}
}

func TestLoadDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# local overrides\nexport SHOP_SERVER_PORT=7070\nSHOP_LOG_LEVEL=\"warn\"\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("unable to write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envFile), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected dotenv port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected dotenv level warn, got %s", cfg.Logging.Level)
	}

	// An explicit env map wins over the dotenv file.
	cfg, err = Load(WithEnvFile(envFile), WithoutSystemEnv(), WithEnvMap(map[string]string{"SHOP_SERVER_PORT": "6060"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected env map to take precedence, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingDotEnvIsNotAnError(t *testing.T) {
	if _, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv()); err != nil {
		t.Fatalf("expected missing dotenv file to be ignored, got %v", err)
	}
}
