package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIRESTORE_PROJECT_ID": "toddy-dev",
		"API_AUTH_SESSION_SECRET":  "test-session-secret",
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(baseEnv()), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firebase.ProjectID != "toddy-dev" {
		t.Errorf("expected firebase project to default to firestore project, got %s", cfg.Firebase.ProjectID)
	}
	if cfg.Pubsub.ProjectID != "toddy-dev" {
		t.Errorf("expected pubsub project to default to firebase project, got %s", cfg.Pubsub.ProjectID)
	}
	if cfg.Pubsub.Topic != defaultPubsubTopic {
		t.Errorf("unexpected default pubsub topic: %s", cfg.Pubsub.Topic)
	}
	if cfg.UPI.PayeeAddress != defaultUPIPayee {
		t.Errorf("unexpected default payee: %s", cfg.UPI.PayeeAddress)
	}
	if cfg.UPI.MerchantName != defaultMerchantName {
		t.Errorf("unexpected default merchant: %s", cfg.UPI.MerchantName)
	}
	if cfg.Shop.Latitude != defaultShopLatitude || cfg.Shop.Longitude != defaultShopLongitude {
		t.Errorf("unexpected default shop coordinates: %f,%f", cfg.Shop.Latitude, cfg.Shop.Longitude)
	}
	if cfg.Payment.SettleDelay != time.Second {
		t.Errorf("unexpected default settle delay: %s", cfg.Payment.SettleDelay)
	}
	if cfg.Payment.FailureTimeout != 5*time.Minute {
		t.Errorf("unexpected default failure timeout: %s", cfg.Payment.FailureTimeout)
	}
	if cfg.Auth.FallbackUsername != "owner" || cfg.Auth.FallbackPassword != "toddy123" {
		t.Errorf("unexpected fallback credentials: %s/%s", cfg.Auth.FallbackUsername, cfg.Auth.FallbackPassword)
	}
	if cfg.Auth.SessionTTL != defaultSessionTTL {
		t.Errorf("unexpected default session ttl: %s", cfg.Auth.SessionTTL)
	}
	if cfg.Geocoder.BaseURL != defaultGeocoderURL {
		t.Errorf("unexpected default geocoder url: %s", cfg.Geocoder.BaseURL)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("unexpected default log level: %s", cfg.Observability.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["API_SERVER_PORT"] = "9090"
	env["API_SHOP_LATITUDE"] = "17.385"
	env["API_SHOP_LONGITUDE"] = "78.4867"
	env["API_UPI_ID"] = "shop@upi"
	env["API_PAYMENT_FAILURE_TIMEOUT"] = "2m"
	env["API_AUTH_SESSION_TTL"] = "1h"
	env["API_LOG_LEVEL"] = "DEBUG"

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port override, got %s", cfg.Server.Port)
	}
	if cfg.Shop.Latitude != 17.385 || cfg.Shop.Longitude != 78.4867 {
		t.Errorf("expected shop coordinate override, got %f,%f", cfg.Shop.Latitude, cfg.Shop.Longitude)
	}
	if cfg.UPI.PayeeAddress != "shop@upi" {
		t.Errorf("expected payee override, got %s", cfg.UPI.PayeeAddress)
	}
	if cfg.Payment.FailureTimeout != 2*time.Minute {
		t.Errorf("expected failure timeout override, got %s", cfg.Payment.FailureTimeout)
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Errorf("expected session ttl override, got %s", cfg.Auth.SessionTTL)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected lowered log level, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	want := map[string]bool{"Firestore.ProjectID": false, "Auth.SessionSecret": false}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields %v", field, fields)
		}
	}
}

func TestLoadRejectsMalformedPayee(t *testing.T) {
	env := baseEnv()
	env["API_UPI_ID"] = "not-a-upi-address"

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "API_SERVER_PORT=7070\nexport API_UPI_ID=\"dotenv@upi\"\n# comment\nAPI_LOG_LEVEL=warn\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env := baseEnv()
	env["API_SERVER_PORT"] = "9090"

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(envFile))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Explicit map beats the dotenv file.
	if cfg.Server.Port != "9090" {
		t.Errorf("expected explicit port to win, got %s", cfg.Server.Port)
	}
	if cfg.UPI.PayeeAddress != "dotenv@upi" {
		t.Errorf("expected dotenv payee, got %s", cfg.UPI.PayeeAddress)
	}
	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("expected dotenv log level, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoadMissingDotEnvIgnored(t *testing.T) {
	cfg, err := Load(WithEnvMap(baseEnv()), WithoutSystemEnv(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
}
