package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
)

var (
	// ErrQuoteInvalidInput signals bad request data such as an unknown
	// variety or a missing delivery destination.
	ErrQuoteInvalidInput = errors.New("quote: invalid input")
)

// SettingsSource provides the merged shop settings for price and stock reads.
type SettingsSource interface {
	GetSettings(ctx context.Context) (domain.ShopSettings, error)
}

// QuotePricingEngineDeps bundles the collaborators for the pricing engine.
type QuotePricingEngineDeps struct {
	Settings     SettingsSource
	ShopLocation domain.Coordinates
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type quotePricingEngine struct {
	settings SettingsSource
	shop     domain.Coordinates
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewQuotePricingEngine wires dependencies into a concrete PricingEngine.
func NewQuotePricingEngine(deps QuotePricingEngineDeps) (PricingEngine, error) {
	if deps.Settings == nil {
		return nil, errors.New("pricing engine: settings source is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &quotePricingEngine{
		settings: deps.Settings,
		shop:     deps.ShopLocation,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *quotePricingEngine) Quote(ctx context.Context, cmd QuoteCommand) (domain.Quote, error) {
	if !cmd.Type.Valid() {
		return domain.Quote{}, fmt.Errorf("%w: unknown toddy type %q", ErrQuoteInvalidInput, cmd.Type)
	}
	if cmd.Litres < 0 {
		return domain.Quote{}, fmt.Errorf("%w: litres must not be negative", ErrQuoteInvalidInput)
	}
	if !cmd.DeliveryType.Valid() {
		return domain.Quote{}, fmt.Errorf("%w: unknown delivery type %q", ErrQuoteInvalidInput, cmd.DeliveryType)
	}
	if cmd.DeliveryType == domain.DeliveryTypeDelivery && cmd.Destination == nil {
		return domain.Quote{}, fmt.Errorf("%w: delivery quotes require a destination", ErrQuoteInvalidInput)
	}

	settings := s.loadSettings(ctx)
	unitPrice := settings.Prices[cmd.Type]
	available := settings.Inventory[cmd.Type]

	quote := domain.Quote{
		Type:         cmd.Type,
		Litres:       cmd.Litres,
		DeliveryType: cmd.DeliveryType,
		UnitPrice:    unitPrice,
		Available:    available,
	}

	if cmd.DeliveryType == domain.DeliveryTypeDelivery {
		quote.DistanceKm = domain.DistanceKm(s.shop, *cmd.Destination)
		quote.DeliveryCharge = domain.DeliveryFee(quote.DistanceKm)
	}

	switch {
	case cmd.Litres < domain.MinOrderLitres():
		quote.Blocked = true
		quote.BlockedReason = fmt.Sprintf("minimum order is %d litres", domain.MinOrderLitres())
	case cmd.Litres > available:
		quote.Blocked = true
		quote.BlockedReason = fmt.Sprintf("only %d litres of %s available", available, cmd.Type)
	}

	if quote.Blocked {
		// Blocked quotes still show the would-be delivery charge but never a total.
		quote.Total = 0
		return quote, nil
	}

	quote.Total = domain.OrderTotal(unitPrice, cmd.Litres, quote.DeliveryCharge)
	return quote, nil
}

// loadSettings falls back to defaults when the settings document cannot be
// read, so the storefront keeps quoting through backend hiccups.
func (s *quotePricingEngine) loadSettings(ctx context.Context) domain.ShopSettings {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		s.logger(ctx, "pricing.settings_fallback", map[string]any{"error": err.Error()})
		return domain.ShopSettings{
			Prices:    domain.DefaultPrices.Clone(),
			Inventory: domain.DefaultInventory.Clone(),
		}
	}
	return settings
}
