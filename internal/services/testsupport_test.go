package services

import (
	"context"
	"sync"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/payments"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

// repoError is a stub repositories.RepositoryError for exercising error mapping.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

var (
	errStubNotFound    = &repoError{msg: "not found", notFound: true}
	errStubUnavailable = &repoError{msg: "backend down", unavailable: true}
	errStubConflict    = &repoError{msg: "already exists", conflict: true}
)

type stubSettingsRepo struct {
	getShopFn   func(ctx context.Context) (domain.ShopSettings, error)
	mergeFn     func(ctx context.Context, patch repositories.SettingsPatch) error
	decrementFn func(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error)
	getAuthFn   func(ctx context.Context) (domain.OwnerCredentials, error)
	setAuthFn   func(ctx context.Context, creds domain.OwnerCredentials) error
}

func (s *stubSettingsRepo) GetShopSettings(ctx context.Context) (domain.ShopSettings, error) {
	if s.getShopFn == nil {
		return domain.ShopSettings{}, errStubNotFound
	}
	return s.getShopFn(ctx)
}

func (s *stubSettingsRepo) MergeShopSettings(ctx context.Context, patch repositories.SettingsPatch) error {
	if s.mergeFn == nil {
		return nil
	}
	return s.mergeFn(ctx, patch)
}

func (s *stubSettingsRepo) DecrementInventory(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error) {
	if s.decrementFn == nil {
		return 0, errStubUnavailable
	}
	return s.decrementFn(ctx, toddyType, litres)
}

func (s *stubSettingsRepo) GetOwnerCredentials(ctx context.Context) (domain.OwnerCredentials, error) {
	if s.getAuthFn == nil {
		return domain.OwnerCredentials{}, errStubNotFound
	}
	return s.getAuthFn(ctx)
}

func (s *stubSettingsRepo) SetOwnerCredentials(ctx context.Context, creds domain.OwnerCredentials) error {
	if s.setAuthFn == nil {
		return nil
	}
	return s.setAuthFn(ctx, creds)
}

type stubOrderRepo struct {
	insertFn    func(ctx context.Context, order domain.Order) error
	findFn      func(ctx context.Context, orderID string) (domain.Order, error)
	resolveFn   func(ctx context.Context, orderID string, update repositories.OrderResolutionUpdate) (domain.Order, error)
	listFn      func(ctx context.Context) ([]domain.Order, error)
	watchFn     func(ctx context.Context, fn func(orders []domain.Order) error) error
	deleteFn    func(ctx context.Context, orderID string) error
	deleteAllFn func(ctx context.Context) (int, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn == nil {
		return domain.Order{}, errStubNotFound
	}
	return s.findFn(ctx, orderID)
}

func (s *stubOrderRepo) ApplyResolution(ctx context.Context, orderID string, update repositories.OrderResolutionUpdate) (domain.Order, error) {
	if s.resolveFn == nil {
		return domain.Order{}, errStubNotFound
	}
	return s.resolveFn(ctx, orderID, update)
}

func (s *stubOrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s *stubOrderRepo) Watch(ctx context.Context, fn func(orders []domain.Order) error) error {
	if s.watchFn == nil {
		return nil
	}
	return s.watchFn(ctx, fn)
}

func (s *stubOrderRepo) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, orderID)
}

func (s *stubOrderRepo) DeleteAll(ctx context.Context) (int, error) {
	if s.deleteAllFn == nil {
		return 0, nil
	}
	return s.deleteAllFn(ctx)
}

type stubSettingsSource struct {
	settings domain.ShopSettings
	err      error
}

func (s *stubSettingsSource) GetSettings(ctx context.Context) (domain.ShopSettings, error) {
	if s.err != nil {
		return domain.ShopSettings{}, s.err
	}
	return s.settings, nil
}

type stubInventoryService struct {
	availabilityFn func(ctx context.Context) (domain.StockTable, error)
	checkFn        func(ctx context.Context, toddyType domain.ToddyType, litres int) error
	commitFn       func(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error)
}

func (s *stubInventoryService) Availability(ctx context.Context) (domain.StockTable, error) {
	if s.availabilityFn == nil {
		return domain.DefaultInventory.Clone(), nil
	}
	return s.availabilityFn(ctx)
}

func (s *stubInventoryService) CheckAvailability(ctx context.Context, toddyType domain.ToddyType, litres int) error {
	if s.checkFn == nil {
		return nil
	}
	return s.checkFn(ctx, toddyType, litres)
}

func (s *stubInventoryService) CommitDecrement(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error) {
	if s.commitFn == nil {
		return 0, nil
	}
	return s.commitFn(ctx, toddyType, litres)
}

type stubPlanner struct {
	lastPlatform payments.Platform
}

func (p *stubPlanner) PaymentURL(amount int, note string) string {
	return "upi://pay?am=stub"
}

func (p *stubPlanner) Plan(platform payments.Platform, amount int, note string) payments.LaunchPlan {
	p.lastPlatform = platform
	return payments.LaunchPlan{URLs: []string{"upi://pay?am=stub"}}
}

type stubMonitors struct {
	mu        sync.Mutex
	tracked   []string
	signalled []string
	resolved  []string
	trackErr  error
	onReturn  map[string]func()
	onTimeout map[string]func()
	pending   map[string]bool
}

func newStubMonitors() *stubMonitors {
	return &stubMonitors{
		onReturn:  make(map[string]func()),
		onTimeout: make(map[string]func()),
		pending:   make(map[string]bool),
	}
}

func (m *stubMonitors) Track(orderID string, onReturn, onTimeout func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trackErr != nil {
		return m.trackErr
	}
	m.tracked = append(m.tracked, orderID)
	m.onReturn[orderID] = onReturn
	m.onTimeout[orderID] = onTimeout
	m.pending[orderID] = true
	return nil
}

func (m *stubMonitors) Signal(orderID string, sig payments.ReturnSignal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signalled = append(m.signalled, orderID)
	return m.pending[orderID]
}

func (m *stubMonitors) Resolve(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, orderID)
	pending := m.pending[orderID]
	delete(m.pending, orderID)
	return pending
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}
