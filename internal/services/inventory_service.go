package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

const (
	eventInventoryFallback  = "inventory.settings_fallback"
	eventInventoryDecrement = "inventory.decrement"
)

var (
	// ErrInventoryInvalidInput signals the caller provided invalid arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryInsufficientStock indicates the requested quantity exceeds availability.
	ErrInventoryInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInventoryUnavailable indicates the backing store could not be reached.
	ErrInventoryUnavailable = errors.New("inventory: unavailable")
)

// InventoryServiceDeps bundles the collaborators required to construct an inventory service.
type InventoryServiceDeps struct {
	Settings repositories.SettingsRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	settings repositories.SettingsRepository
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Settings == nil {
		return nil, errors.New("inventory service: settings repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{
		settings: deps.Settings,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *inventoryService) Availability(ctx context.Context) (domain.StockTable, error) {
	settings, err := s.settings.GetShopSettings(ctx)
	if err != nil {
		if isNotFound(err) {
			return domain.DefaultInventory.Clone(), nil
		}
		if isUnavailable(err) {
			s.logger(ctx, eventInventoryFallback, map[string]any{"error": err.Error()})
			return domain.DefaultInventory.Clone(), nil
		}
		return nil, s.mapRepositoryError(err)
	}

	// Varieties missing from the stored document keep their default stock.
	stock := domain.DefaultInventory.Clone()
	for k, v := range settings.Inventory {
		stock[k] = v
	}
	return stock, nil
}

func (s *inventoryService) CheckAvailability(ctx context.Context, toddyType domain.ToddyType, litres int) error {
	if !toddyType.Valid() {
		return fmt.Errorf("%w: unknown toddy type %q", ErrInventoryInvalidInput, toddyType)
	}
	if litres <= 0 {
		return fmt.Errorf("%w: litres must be positive", ErrInventoryInvalidInput)
	}

	stock, err := s.Availability(ctx)
	if err != nil {
		return err
	}
	if available := stock[toddyType]; litres > available {
		return fmt.Errorf("%w: only %d litres of %s available", ErrInventoryInsufficientStock, available, toddyType)
	}
	return nil
}

func (s *inventoryService) CommitDecrement(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error) {
	if !toddyType.Valid() {
		return 0, fmt.Errorf("%w: unknown toddy type %q", ErrInventoryInvalidInput, toddyType)
	}
	if litres <= 0 {
		return 0, fmt.Errorf("%w: litres must be positive", ErrInventoryInvalidInput)
	}

	remaining, err := s.settings.DecrementInventory(ctx, toddyType, litres)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}

	s.logger(ctx, eventInventoryDecrement, map[string]any{
		"type":      string(toddyType),
		"litres":    litres,
		"remaining": remaining,
	})
	return remaining, nil
}

func (s *inventoryService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	return err
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
