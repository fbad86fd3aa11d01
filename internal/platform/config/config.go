package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultUPIPayee     = "6302564464@pthdfc"
	defaultMerchantName = "Nagula Shiva Sai"

	defaultShopLatitude  = 18.64110
	defaultShopLongitude = 78.87335
	defaultShopAddress   = "JVRF+996 Kallu manduva kodimial, Sandralapally X Rd, Sandralapally, Telangana 505501"
	defaultShopPhone     = "6302564464"

	defaultSettleDelay    = time.Second
	defaultFailureTimeout = 5 * time.Minute
	defaultProbeWindow    = 1200 * time.Millisecond

	defaultOwnerUsername = "owner"
	defaultOwnerPassword = "toddy123"
	defaultSessionTTL    = 12 * time.Hour

	defaultGeocoderURL       = "https://nominatim.openstreetmap.org"
	defaultGeocoderUserAgent = "toddy-orders/1.0"

	defaultPubsubTopic = "order-events"

	defaultLogLevel = "info"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server        ServerConfig
	Firebase      FirebaseConfig
	Firestore     FirestoreConfig
	Shop          ShopConfig
	UPI           UPIConfig
	Payment       PaymentConfig
	Auth          AuthConfig
	Geocoder      GeocoderConfig
	Pubsub        PubsubConfig
	Observability ObservabilityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// ShopConfig locates the physical shop. The coordinates anchor every
// delivery-distance computation.
type ShopConfig struct {
	Latitude  float64
	Longitude float64
	Address   string
	Phone     string
}

// UPIConfig identifies the payee for UPI deep links.
type UPIConfig struct {
	PayeeAddress string
	MerchantName string
}

// PaymentConfig tunes the payment completion monitor.
type PaymentConfig struct {
	// SettleDelay is how long a return signal must stay quiet before the
	// customer is asked to confirm the outcome.
	SettleDelay time.Duration
	// FailureTimeout auto-fails payments that never resolve.
	FailureTimeout time.Duration
	// ProbeWindow is how long iOS clients wait on each app scheme.
	ProbeWindow time.Duration
}

// AuthConfig controls the owner dashboard login.
type AuthConfig struct {
	// FallbackUsername/FallbackPassword are accepted until the owner stores
	// their own credentials.
	FallbackUsername string
	FallbackPassword string
	SessionSecret    string
	SessionTTL       time.Duration
}

// GeocoderConfig points at a Nominatim-compatible endpoint.
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
}

// PubsubConfig names the order event topic. An empty topic disables
// publishing.
type PubsubConfig struct {
	ProjectID string
	Topic     string
}

// ObservabilityConfig controls logging and tracing output.
type ObservabilityConfig struct {
	LogLevel    string
	Environment string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "API_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Shop: ShopConfig{
			Latitude:  floatWithDefault(lookup, "API_SHOP_LATITUDE", defaultShopLatitude),
			Longitude: floatWithDefault(lookup, "API_SHOP_LONGITUDE", defaultShopLongitude),
			Address:   stringWithDefault(lookup, "API_SHOP_ADDRESS", defaultShopAddress),
			Phone:     stringWithDefault(lookup, "API_SHOP_PHONE", defaultShopPhone),
		},
		UPI: UPIConfig{
			PayeeAddress: stringWithDefault(lookup, "API_UPI_ID", defaultUPIPayee),
			MerchantName: stringWithDefault(lookup, "API_UPI_MERCHANT_NAME", defaultMerchantName),
		},
		Payment: PaymentConfig{
			SettleDelay:    durationWithDefault(lookup, "API_PAYMENT_SETTLE_DELAY", defaultSettleDelay),
			FailureTimeout: durationWithDefault(lookup, "API_PAYMENT_FAILURE_TIMEOUT", defaultFailureTimeout),
			ProbeWindow:    durationWithDefault(lookup, "API_PAYMENT_PROBE_WINDOW", defaultProbeWindow),
		},
		Auth: AuthConfig{
			FallbackUsername: stringWithDefault(lookup, "API_AUTH_OWNER_USERNAME", defaultOwnerUsername),
			FallbackPassword: stringWithDefault(lookup, "API_AUTH_OWNER_PASSWORD", defaultOwnerPassword),
			SessionSecret:    stringWithDefault(lookup, "API_AUTH_SESSION_SECRET", ""),
			SessionTTL:       durationWithDefault(lookup, "API_AUTH_SESSION_TTL", defaultSessionTTL),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   stringWithDefault(lookup, "API_GEOCODER_URL", defaultGeocoderURL),
			UserAgent: stringWithDefault(lookup, "API_GEOCODER_USER_AGENT", defaultGeocoderUserAgent),
		},
		Pubsub: PubsubConfig{
			ProjectID: stringWithDefault(lookup, "API_PUBSUB_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "API_PUBSUB_TOPIC", defaultPubsubTopic),
		},
		Observability: ObservabilityConfig{
			LogLevel:    strings.ToLower(stringWithDefault(lookup, "API_LOG_LEVEL", defaultLogLevel)),
			Environment: strings.ToLower(stringWithDefault(lookup, "API_ENVIRONMENT", "local")),
		},
	}

	// Firestore project defaults to Firebase project when unspecified, and
	// the same the other way round so a single env var is enough.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Firebase.ProjectID == "" {
		cfg.Firebase.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Pubsub.ProjectID == "" {
		cfg.Pubsub.ProjectID = cfg.Firebase.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if !strings.Contains(cfg.UPI.PayeeAddress, "@") {
		missing = append(missing, "UPI.PayeeAddress")
	}
	if strings.TrimSpace(cfg.UPI.MerchantName) == "" {
		missing = append(missing, "UPI.MerchantName")
	}
	if cfg.Shop.Latitude == 0 && cfg.Shop.Longitude == 0 {
		missing = append(missing, "Shop.Latitude")
	}
	if cfg.Payment.SettleDelay <= 0 {
		missing = append(missing, "Payment.SettleDelay")
	}
	if cfg.Payment.FailureTimeout <= 0 {
		missing = append(missing, "Payment.FailureTimeout")
	}
	if strings.TrimSpace(cfg.Auth.SessionSecret) == "" {
		missing = append(missing, "Auth.SessionSecret")
	}
	if cfg.Auth.SessionTTL <= 0 {
		missing = append(missing, "Auth.SessionTTL")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
