package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

const (
	eventSettingsFallback = "settings.fallback"
	eventSettingsUpdated  = "settings.updated"
	eventOwnerLogin       = "settings.owner_login"
	eventOwnerLoginFailed = "settings.owner_login_failed"
)

var (
	// ErrSettingsInvalidInput signals a malformed settings update.
	ErrSettingsInvalidInput = errors.New("settings: invalid input")
	// ErrLoginInvalid signals the username or password did not match.
	ErrLoginInvalid = errors.New("settings: invalid credentials")
)

// SessionIssuer mints owner dashboard session tokens.
type SessionIssuer interface {
	Issue(subject string, now time.Time) (token string, expiresAt time.Time, err error)
}

// SettingsServiceDeps bundles the collaborators for the settings service.
type SettingsServiceDeps struct {
	Settings repositories.SettingsRepository
	Sessions SessionIssuer
	// FallbackCredentials are used until the owner stores their own login.
	FallbackCredentials domain.OwnerCredentials
	Clock               func() time.Time
	Logger              func(ctx context.Context, event string, fields map[string]any)
}

type settingsService struct {
	settings repositories.SettingsRepository
	sessions SessionIssuer
	fallback domain.OwnerCredentials
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewSettingsService wires dependencies into a concrete SettingsService implementation.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service: settings repository is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("settings service: session issuer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &settingsService{
		settings: deps.Settings,
		sessions: deps.Sessions,
		fallback: deps.FallbackCredentials,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *settingsService) GetSettings(ctx context.Context) (domain.ShopSettings, error) {
	merged := domain.ShopSettings{
		Prices:    domain.DefaultPrices.Clone(),
		Inventory: domain.DefaultInventory.Clone(),
	}

	stored, err := s.settings.GetShopSettings(ctx)
	if err != nil {
		if isNotFound(err) {
			return merged, nil
		}
		if isUnavailable(err) {
			s.logger(ctx, eventSettingsFallback, map[string]any{"error": err.Error()})
			return merged, nil
		}
		return domain.ShopSettings{}, err
	}

	for k, v := range stored.Prices {
		merged.Prices[k] = v
	}
	for k, v := range stored.Inventory {
		merged.Inventory[k] = v
	}
	merged.UpdatedAt = stored.UpdatedAt
	return merged, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (domain.ShopSettings, error) {
	if cmd.Prices == nil && cmd.Inventory == nil {
		return domain.ShopSettings{}, fmt.Errorf("%w: nothing to update", ErrSettingsInvalidInput)
	}
	for toddyType, price := range cmd.Prices {
		if !toddyType.Valid() {
			return domain.ShopSettings{}, fmt.Errorf("%w: unknown toddy type %q", ErrSettingsInvalidInput, toddyType)
		}
		if price <= 0 {
			return domain.ShopSettings{}, fmt.Errorf("%w: price for %s must be positive", ErrSettingsInvalidInput, toddyType)
		}
	}
	for toddyType, litres := range cmd.Inventory {
		if !toddyType.Valid() {
			return domain.ShopSettings{}, fmt.Errorf("%w: unknown toddy type %q", ErrSettingsInvalidInput, toddyType)
		}
		if litres < 0 {
			return domain.ShopSettings{}, fmt.Errorf("%w: inventory for %s must not be negative", ErrSettingsInvalidInput, toddyType)
		}
	}

	patch := repositories.SettingsPatch{Prices: cmd.Prices, Inventory: cmd.Inventory}
	if err := s.settings.MergeShopSettings(ctx, patch); err != nil {
		return domain.ShopSettings{}, err
	}

	s.logger(ctx, eventSettingsUpdated, map[string]any{
		"prices":    len(cmd.Prices),
		"inventory": len(cmd.Inventory),
	})
	return s.GetSettings(ctx)
}

func (s *settingsService) Login(ctx context.Context, username, password string) (OwnerSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return OwnerSession{}, fmt.Errorf("%w: username and password are required", ErrLoginInvalid)
	}

	creds := s.fallback
	stored, err := s.settings.GetOwnerCredentials(ctx)
	switch {
	case err == nil:
		creds = stored
	case isNotFound(err):
		// Fall back to the configured bootstrap login.
	default:
		return OwnerSession{}, err
	}

	if !credentialsMatch(creds, username, password) {
		s.logger(ctx, eventOwnerLoginFailed, map[string]any{"username": username})
		return OwnerSession{}, ErrLoginInvalid
	}

	token, expiresAt, err := s.sessions.Issue(username, s.clock())
	if err != nil {
		return OwnerSession{}, fmt.Errorf("settings: mint session: %w", err)
	}

	s.logger(ctx, eventOwnerLogin, map[string]any{"username": username})
	return OwnerSession{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *settingsService) ChangeCredentials(ctx context.Context, cmd ChangeCredentialsCommand) error {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrSettingsInvalidInput)
	}
	if len(cmd.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrSettingsInvalidInput)
	}
	return s.settings.SetOwnerCredentials(ctx, domain.OwnerCredentials{
		Username: username,
		Password: cmd.Password,
	})
}

func credentialsMatch(creds domain.OwnerCredentials, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(password)) == 1
	return userOK && passOK
}
