package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if got := cfg.OrderAPI.Timeout; got != 10*time.Second {
		t.Fatalf("expected default order api timeout 10s, got %v", got)
	}

	if !cfg.Fees.TaxRate.Equal(decimal.RequireFromString("0.08")) {
		t.Fatalf("unexpected default tax rate %s", cfg.Fees.TaxRate)
	}
	if !cfg.Fees.DeliveryFee.Equal(decimal.RequireFromString("2.99")) {
		t.Fatalf("unexpected default delivery fee %s", cfg.Fees.DeliveryFee)
	}

	if cfg.Tracking.TopicPrefix != "order_" {
		t.Fatalf("unexpected topic prefix %q", cfg.Tracking.TopicPrefix)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNegativeFees(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvFeeDelivery, "-1.00")

	if _, err := Load(); err == nil {
		t.Fatal("expected negative delivery fee to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvOrderAPIBaseURL, "http://localhost:5000")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
