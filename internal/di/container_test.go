package di

import (
	"context"
	"testing"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/config"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

type notFoundError struct{}

func (notFoundError) Error() string       { return "not found" }
func (notFoundError) IsNotFound() bool    { return true }
func (notFoundError) IsConflict() bool    { return false }
func (notFoundError) IsUnavailable() bool { return false }

var _ repositories.RepositoryError = notFoundError{}

type conflictError struct{}

func (conflictError) Error() string       { return "already resolved" }
func (conflictError) IsNotFound() bool    { return false }
func (conflictError) IsConflict() bool    { return true }
func (conflictError) IsUnavailable() bool { return false }

var _ repositories.RepositoryError = conflictError{}

type memoryOrderRepo struct {
	orders map[string]domain.Order
}

func (r *memoryOrderRepo) Insert(_ context.Context, order domain.Order) error {
	r.orders[order.OrderID] = order
	return nil
}

func (r *memoryOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundError{}
	}
	return order, nil
}

func (r *memoryOrderRepo) ApplyResolution(_ context.Context, orderID string, update repositories.OrderResolutionUpdate) (domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundError{}
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		return domain.Order{}, conflictError{}
	}
	order.PaymentStatus = update.PaymentStatus
	order.OrderStatus = update.OrderStatus
	r.orders[orderID] = order
	return order, nil
}

func (r *memoryOrderRepo) ListAll(context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *memoryOrderRepo) Watch(ctx context.Context, fn func([]domain.Order) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *memoryOrderRepo) Delete(_ context.Context, orderID string) error {
	delete(r.orders, orderID)
	return nil
}

func (r *memoryOrderRepo) DeleteAll(context.Context) (int, error) {
	n := len(r.orders)
	r.orders = map[string]domain.Order{}
	return n, nil
}

type memorySettingsRepo struct {
	settings domain.ShopSettings
	creds    domain.OwnerCredentials
}

func (r *memorySettingsRepo) GetShopSettings(context.Context) (domain.ShopSettings, error) {
	return r.settings, nil
}

func (r *memorySettingsRepo) MergeShopSettings(_ context.Context, patch repositories.SettingsPatch) error {
	if patch.Prices != nil {
		r.settings.Prices = patch.Prices.Clone()
	}
	if patch.Inventory != nil {
		r.settings.Inventory = patch.Inventory.Clone()
	}
	return nil
}

func (r *memorySettingsRepo) DecrementInventory(_ context.Context, toddyType domain.ToddyType, litres int) (int, error) {
	remaining := r.settings.Inventory[toddyType] - litres
	if remaining < 0 {
		remaining = 0
	}
	if r.settings.Inventory == nil {
		r.settings.Inventory = domain.StockTable{}
	}
	r.settings.Inventory[toddyType] = remaining
	return remaining, nil
}

func (r *memorySettingsRepo) GetOwnerCredentials(context.Context) (domain.OwnerCredentials, error) {
	return r.creds, nil
}

func (r *memorySettingsRepo) SetOwnerCredentials(_ context.Context, creds domain.OwnerCredentials) error {
	r.creds = creds
	return nil
}

type memoryHealthRepo struct{}

func (memoryHealthRepo) Collect(context.Context) (domain.SystemHealthReport, error) {
	return domain.SystemHealthReport{Status: domain.HealthStatusOK}, nil
}

type memoryRegistry struct {
	orders   *memoryOrderRepo
	settings *memorySettingsRepo
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{
		orders: &memoryOrderRepo{orders: map[string]domain.Order{}},
		settings: &memorySettingsRepo{
			settings: domain.ShopSettings{
				Prices:    domain.DefaultPrices.Clone(),
				Inventory: domain.DefaultInventory.Clone(),
			},
		},
	}
}

func (r *memoryRegistry) Close(context.Context) error                  { return nil }
func (r *memoryRegistry) Orders() repositories.OrderRepository         { return r.orders }
func (r *memoryRegistry) Settings() repositories.SettingsRepository    { return r.settings }
func (r *memoryRegistry) Health() repositories.HealthRepository        { return memoryHealthRepo{} }
func (r *memoryRegistry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testConfig() config.Config {
	return config.Config{
		Shop: config.ShopConfig{
			Latitude:  18.64110,
			Longitude: 78.87335,
			Address:   "Sandralapally X Rd",
			Phone:     "6302564464",
		},
		UPI: config.UPIConfig{
			PayeeAddress: "shop@bank",
			MerchantName: "Toddy Shop",
		},
		Payment: config.PaymentConfig{
			SettleDelay:    time.Second,
			FailureTimeout: 5 * time.Minute,
		},
		Auth: config.AuthConfig{
			FallbackUsername: "owner",
			FallbackPassword: "toddy123",
			SessionSecret:    "container-test-secret",
			SessionTTL:       12 * time.Hour,
		},
	}
}

func TestNewContainerWiresServices(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(), newMemoryRegistry())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Close(context.Background())
	})

	if container.Services.Orders == nil || container.Services.Pricing == nil ||
		container.Services.Inventory == nil || container.Services.Settings == nil ||
		container.Services.System == nil {
		t.Fatalf("expected every service wired, got %+v", container.Services)
	}
	if container.Sessions == nil || container.Monitors == nil {
		t.Fatal("expected session manager and payment monitors")
	}
}

func TestNewContainerEndToEndOrderFlow(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	container, err := NewContainer(context.Background(), testConfig(), newMemoryRegistry(),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string { return "ORDER-DI" }),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	ctx := context.Background()
	creation, err := container.Services.Orders.CreateOrder(ctx, services.CreateOrderCommand{
		Customer:     "Ravi Kumar",
		Mobile:       "9876543210",
		Type:         domain.ToddyTypeEetha,
		Litres:       5,
		DeliveryType: domain.DeliveryTypePickup,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if creation.Order.OrderID != "ORDER-DI" {
		t.Fatalf("expected generated id, got %q", creation.Order.OrderID)
	}
	if creation.Order.TotalAmount != 300 {
		t.Fatalf("expected total 300, got %d", creation.Order.TotalAmount)
	}
	if creation.PaymentURL == "" {
		t.Fatal("expected a payment link")
	}

	resolved, err := container.Services.Orders.ResolveOrder(ctx, services.ResolveOrderCommand{
		OrderID: "ORDER-DI",
		Outcome: services.PaymentOutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("ResolveOrder returned error: %v", err)
	}
	if resolved.OrderStatus != domain.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", resolved.OrderStatus)
	}

	stock, err := container.Services.Inventory.Availability(ctx)
	if err != nil {
		t.Fatalf("Availability returned error: %v", err)
	}
	if stock[domain.ToddyTypeEetha] != 45 {
		t.Fatalf("expected inventory decremented to 45, got %d", stock[domain.ToddyTypeEetha])
	}
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	if _, err := NewContainer(context.Background(), testConfig(), nil); err == nil {
		t.Fatal("expected error for missing registry")
	}
}

func TestNewContainerRequiresSessionSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.SessionSecret = ""
	if _, err := NewContainer(context.Background(), cfg, newMemoryRegistry()); err == nil {
		t.Fatal("expected error for missing session secret")
	}
}
