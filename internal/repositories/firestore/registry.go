package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/ShivaNagula00/toddy-orders/internal/platform/firestore"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider
	orders   *OrderRepository
	settings *SettingsRepository
	health   repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository against a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		orders:   orders,
		settings: settings,
		health:   health,
	}, nil
}

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Settings returns the settings repository.
func (r *Registry) Settings() repositories.SettingsRepository { return r.settings }

// Health returns the dependency health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}
