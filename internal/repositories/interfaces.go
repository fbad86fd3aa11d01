package repositories

import (
	"context"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Settings() SettingsRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order documents and serves the owner dashboard queries.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// ApplyResolution records the single permitted post-creation mutation:
	// the payment outcome and its timestamp. It succeeds only while the
	// order is still pending; a concurrent resolution surfaces as a
	// conflict RepositoryError.
	ApplyResolution(ctx context.Context, orderID string, update OrderResolutionUpdate) (domain.Order, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]domain.Order, error)
	// Watch streams the full order collection (newest first) to fn on every
	// change until ctx is cancelled or fn returns an error.
	Watch(ctx context.Context, fn func(orders []domain.Order) error) error
	Delete(ctx context.Context, orderID string) error
	// DeleteAll removes every order and reports how many were deleted.
	DeleteAll(ctx context.Context) (int, error)
}

// OrderResolutionUpdate carries the terminal payment outcome for an order.
type OrderResolutionUpdate struct {
	PaymentStatus domain.PaymentStatus
	OrderStatus   domain.OrderStatus
	ResolvedAt    time.Time
	// DashboardFlag marks confirmed orders as unseen for the owner dashboard.
	DashboardFlag string
}

// SettingsRepository owns the singleton shop settings and owner credential documents.
type SettingsRepository interface {
	GetShopSettings(ctx context.Context) (domain.ShopSettings, error)
	// MergeShopSettings applies a partial update, leaving absent fields intact.
	MergeShopSettings(ctx context.Context, patch SettingsPatch) error
	// DecrementInventory atomically reduces availability for one variety,
	// clamping at zero, and returns the remaining litres.
	DecrementInventory(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error)
	GetOwnerCredentials(ctx context.Context) (domain.OwnerCredentials, error)
	SetOwnerCredentials(ctx context.Context, creds domain.OwnerCredentials) error
}

// SettingsPatch is a partial shop settings update; nil maps are left untouched.
type SettingsPatch struct {
	Prices    domain.PriceTable
	Inventory domain.StockTable
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
