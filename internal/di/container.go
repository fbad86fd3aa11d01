package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/payments"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/auth"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/config"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/textutil"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Pricing   services.PricingEngine
	Inventory services.InventoryService
	Orders    services.OrderService
	Settings  services.SettingsService
	System    services.SystemService
}

// Container wires repositories, services, and payment infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
	Sessions     *auth.SessionManager
	Monitors     *payments.MonitorRegistry
}

type containerOptions struct {
	logger    *zap.Logger
	clock     func() time.Time
	events    services.OrderEventPublisher
	idGen     func() string
	sanitizer func(string) string
}

// ContainerOption customises container assembly.
type ContainerOption func(*containerOptions)

// WithLogger routes service-level events through the given logger.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source for every service.
func WithClock(clock func() time.Time) ContainerOption {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// WithEventPublisher wires the order lifecycle event publisher.
func WithEventPublisher(events services.OrderEventPublisher) ContainerOption {
	return func(o *containerOptions) {
		o.events = events
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(idGen func() string) ContainerOption {
	return func(o *containerOptions) {
		o.idGen = idGen
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides the Firestore
// registry, while tests can supply in-memory implementations.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{
		logger:    zap.NewNop(),
		clock:     time.Now,
		sanitizer: textutil.NewSanitizer().Clean,
	}
	for _, opt := range opts {
		opt(&options)
	}

	sessions, err := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, auth.WithClock(options.clock))
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}

	settingsSvc, err := services.NewSettingsService(services.SettingsServiceDeps{
		Settings: reg.Settings(),
		Sessions: sessions,
		FallbackCredentials: domain.OwnerCredentials{
			Username: cfg.Auth.FallbackUsername,
			Password: cfg.Auth.FallbackPassword,
		},
		Clock:  options.clock,
		Logger: eventLogger(options.logger.Named("settings")),
	})
	if err != nil {
		return nil, fmt.Errorf("build settings service: %w", err)
	}

	shop := domain.Coordinates{Lat: cfg.Shop.Latitude, Lng: cfg.Shop.Longitude}
	pricing, err := services.NewQuotePricingEngine(services.QuotePricingEngineDeps{
		Settings:     settingsSvc,
		ShopLocation: shop,
		Clock:        options.clock,
		Logger:       eventLogger(options.logger.Named("pricing")),
	})
	if err != nil {
		return nil, fmt.Errorf("build pricing engine: %w", err)
	}

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Settings: reg.Settings(),
		Clock:    options.clock,
		Logger:   eventLogger(options.logger.Named("inventory")),
	})
	if err != nil {
		return nil, fmt.Errorf("build inventory service: %w", err)
	}

	links, err := payments.NewLinkBuilder(cfg.UPI.PayeeAddress, cfg.UPI.MerchantName)
	if err != nil {
		return nil, fmt.Errorf("build upi link builder: %w", err)
	}
	dispatcher, err := payments.NewDispatcher(links, payments.WithProbeWindow(cfg.Payment.ProbeWindow))
	if err != nil {
		return nil, fmt.Errorf("build payment dispatcher: %w", err)
	}
	monitors := payments.NewMonitorRegistry(payments.MonitorConfig{
		SettleDelay:    cfg.Payment.SettleDelay,
		FailureTimeout: cfg.Payment.FailureTimeout,
	})

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    reg.Orders(),
		Pricing:   pricing,
		Inventory: inventory,
		Planner:   dispatcher,
		Monitors:  monitors,
		Events:    options.events,
		Sanitize:  options.sanitizer,
		ShopLocation: domain.ShopLocation{
			Lat:           cfg.Shop.Latitude,
			Lng:           cfg.Shop.Longitude,
			Address:       cfg.Shop.Address,
			GoogleMapsURL: fmt.Sprintf("https://maps.google.com/?q=%f,%f", cfg.Shop.Latitude, cfg.Shop.Longitude),
		},
		FailureTimeout: cfg.Payment.FailureTimeout,
		Clock:          options.clock,
		IDGenerator:    options.idGen,
		Logger:         eventLogger(options.logger.Named("orders")),
	})
	if err != nil {
		return nil, fmt.Errorf("build order service: %w", err)
	}

	system, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: reg.Health(),
		Clock:            options.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build system service: %w", err)
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services: Services{
			Pricing:   pricing,
			Inventory: inventory,
			Orders:    orders,
			Settings:  settingsSvc,
			System:    system,
		},
		Sessions: sessions,
		Monitors: monitors,
	}, nil
}

// Close releases resources such as repository clients and pending payment monitors.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func eventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service event", zFields...)
	}
}
