package services

import (
	"context"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
)

// PricingEngine computes live quotes for the storefront. Quotes are advisory:
// the same computation is re-run when the order is placed.
type PricingEngine interface {
	Quote(ctx context.Context, cmd QuoteCommand) (domain.Quote, error)
}

// QuoteCommand carries the inputs of a price computation.
type QuoteCommand struct {
	Type         domain.ToddyType
	Litres       int
	DeliveryType domain.DeliveryType
	// Destination is required for delivery quotes and ignored for pickup.
	Destination *domain.Coordinates
}

// InventoryService exposes per-variety availability backed by the shop
// settings document.
type InventoryService interface {
	// Availability returns current stock for every variety, falling back to
	// defaults when the settings document is absent.
	Availability(ctx context.Context) (domain.StockTable, error)
	// CheckAvailability verifies the requested litres can be served. The
	// check is advisory only; stock is not reserved.
	CheckAvailability(ctx context.Context, toddyType domain.ToddyType, litres int) error
	// CommitDecrement atomically reduces stock after a successful payment,
	// clamping at zero, and returns the remaining litres.
	CommitDecrement(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error)
}

// OrderService drives the order lifecycle from creation through payment
// resolution as well as the owner dashboard operations.
type OrderService interface {
	// CreateOrder validates the request, persists a pending order, and
	// returns it together with the UPI payment launch plan.
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderCreation, error)
	// ResolveOrder records the terminal payment outcome exactly once.
	// Subsequent resolutions return the stored order unchanged.
	ResolveOrder(ctx context.Context, cmd ResolveOrderCommand) (domain.Order, error)
	// ReportReturnSignal forwards a possible return-from-UPI-app hint for a
	// pending order. It reports whether the order was being monitored.
	ReportReturnSignal(ctx context.Context, orderID string, signal string) bool
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	// WatchOrders streams the full order list to fn on every change until
	// ctx is cancelled.
	WatchOrders(ctx context.Context, fn func(orders []domain.Order) error) error
	DeleteOrder(ctx context.Context, orderID string) error
	DeleteAllOrders(ctx context.Context) (int, error)
}

// CreateOrderCommand carries customer input for a new order.
type CreateOrderCommand struct {
	Customer     string
	Mobile       string
	Type         domain.ToddyType
	Litres       int
	DeliveryType domain.DeliveryType
	Address      string
	Destination  *domain.Coordinates
	// Platform selects the payment app launch strategy ("ios" or "android").
	Platform string
}

// OrderCreation bundles the persisted pending order with the payment launch plan.
type OrderCreation struct {
	Order domain.Order
	// PaymentURL is the generic UPI deep link for the order amount.
	PaymentURL string
	// LaunchURLs lists app-specific deep links to try in order; non-iOS
	// platforms get the single generic link.
	LaunchURLs []string
	// FailureTimeout is how long the client may wait before the order is
	// auto-failed server side.
	FailureTimeout time.Duration
}

// PaymentOutcome is the terminal result reported for a pending payment.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailure PaymentOutcome = "failure"
	PaymentOutcomeTimeout PaymentOutcome = "timeout"
)

// ResolveOrderCommand identifies the order and the reported outcome.
type ResolveOrderCommand struct {
	OrderID string
	Outcome PaymentOutcome
}

// SettingsService manages shop settings and the owner login.
type SettingsService interface {
	// GetSettings returns the shop settings merged over defaults, so every
	// variety always has a price and a stock level.
	GetSettings(ctx context.Context) (domain.ShopSettings, error)
	UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (domain.ShopSettings, error)
	// Login checks the owner credentials and mints a session token.
	Login(ctx context.Context, username, password string) (OwnerSession, error)
	ChangeCredentials(ctx context.Context, cmd ChangeCredentialsCommand) error
}

// UpdateSettingsCommand carries a partial settings update; nil maps are left
// untouched.
type UpdateSettingsCommand struct {
	Prices    domain.PriceTable
	Inventory domain.StockTable
}

// OwnerSession is a minted dashboard session.
type OwnerSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ChangeCredentialsCommand rotates the owner login.
type ChangeCredentialsCommand struct {
	Username string
	Password string
}

// SystemService reports service health for probes.
type SystemService interface {
	Health(ctx context.Context) (domain.SystemHealthReport, error)
}

// OrderEventPublisher fans out order lifecycle events to interested
// consumers. Publishing is best-effort; failures never abort the operation
// that produced the event.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent describes a lifecycle transition for downstream consumers.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Outcome    string    `json:"outcome,omitempty"`
	Total      int       `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
