package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/payments"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

const (
	eventOrderCreated        = "order.created"
	eventOrderResolved       = "order.resolved"
	eventOrderReturnDetected = "order.return_detected"
	eventOrderAutoFailed     = "order.auto_failed"
	eventOrderDeleted        = "order.deleted"
	eventOrderPublishFailed  = "order.publish_failed"

	// dashboardFlagNew marks freshly confirmed orders as unseen on the
	// owner dashboard.
	dashboardFlagNew = "new"
)

var (
	// ErrOrderInvalidInput signals malformed customer input.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderBlocked signals the quote refused the order (minimum quantity
	// or insufficient stock).
	ErrOrderBlocked = errors.New("order: blocked")
	// ErrOrderNotFound signals the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
)

// PaymentPlanner produces UPI deep links and per-platform launch plans.
type PaymentPlanner interface {
	PaymentURL(amount int, note string) string
	Plan(platform payments.Platform, amount int, note string) payments.LaunchPlan
}

// PaymentMonitors tracks pending payments for return detection and auto-fail.
type PaymentMonitors interface {
	Track(orderID string, onReturn, onTimeout func()) error
	Signal(orderID string, sig payments.ReturnSignal) bool
	Resolve(orderID string) bool
}

// OrderServiceDeps bundles the collaborators required to construct an order service.
type OrderServiceDeps struct {
	Orders    repositories.OrderRepository
	Pricing   PricingEngine
	Inventory InventoryService
	Planner   PaymentPlanner
	Monitors  PaymentMonitors
	Events    OrderEventPublisher
	// Sanitize cleans customer free text; defaults to the identity function.
	Sanitize func(string) string
	// ShopLocation is embedded on every order for pickup directions.
	ShopLocation domain.ShopLocation
	// FailureTimeout bounds how long a payment may stay pending.
	FailureTimeout time.Duration
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders         repositories.OrderRepository
	pricing        PricingEngine
	inventory      InventoryService
	planner        PaymentPlanner
	monitors       PaymentMonitors
	events         OrderEventPublisher
	sanitize       func(string) string
	shopLocation   domain.ShopLocation
	failureTimeout time.Duration
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing engine is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("order service: inventory service is required")
	}
	if deps.Planner == nil {
		return nil, errors.New("order service: payment planner is required")
	}
	if deps.Monitors == nil {
		return nil, errors.New("order service: payment monitors are required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	sanitize := deps.Sanitize
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	timeout := deps.FailureTimeout
	if timeout <= 0 {
		timeout = payments.DefaultFailureTimeout
	}

	return &orderService{
		orders:         deps.Orders,
		pricing:        deps.Pricing,
		inventory:      deps.Inventory,
		planner:        deps.Planner,
		monitors:       deps.Monitors,
		events:         deps.Events,
		sanitize:       sanitize,
		shopLocation:   deps.ShopLocation,
		failureTimeout: timeout,
		clock:          func() time.Time { return clock().UTC() },
		newID:          idGen,
		logger:         logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderCreation, error) {
	customer := s.sanitize(cmd.Customer)
	if err := domain.ValidateCustomerName(customer); err != nil {
		return OrderCreation{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	mobile := strings.TrimSpace(cmd.Mobile)
	if err := domain.ValidateMobileNumber(mobile); err != nil {
		return OrderCreation{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	if !cmd.Type.Valid() {
		return OrderCreation{}, fmt.Errorf("%w: unknown toddy type %q", ErrOrderInvalidInput, cmd.Type)
	}
	if !cmd.DeliveryType.Valid() {
		return OrderCreation{}, fmt.Errorf("%w: unknown delivery type %q", ErrOrderInvalidInput, cmd.DeliveryType)
	}

	address := s.sanitize(cmd.Address)
	if cmd.DeliveryType == domain.DeliveryTypeDelivery {
		if address == "" {
			return OrderCreation{}, fmt.Errorf("%w: delivery orders require an address", ErrOrderInvalidInput)
		}
		if cmd.Destination == nil {
			return OrderCreation{}, fmt.Errorf("%w: delivery orders require coordinates", ErrOrderInvalidInput)
		}
	}

	quote, err := s.pricing.Quote(ctx, QuoteCommand{
		Type:         cmd.Type,
		Litres:       cmd.Litres,
		DeliveryType: cmd.DeliveryType,
		Destination:  cmd.Destination,
	})
	if err != nil {
		if errors.Is(err, ErrQuoteInvalidInput) {
			return OrderCreation{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
		}
		return OrderCreation{}, err
	}
	if quote.Blocked {
		return OrderCreation{}, fmt.Errorf("%w: %s", ErrOrderBlocked, quote.BlockedReason)
	}

	order := domain.Order{
		OrderID:  s.newID(),
		Customer: customer,
		Mobile:   mobile,
		Items: []domain.OrderItem{{
			Type:     cmd.Type,
			Quantity: cmd.Litres,
			Price:    quote.UnitPrice,
		}},
		TotalAmount:    quote.Total,
		PaymentStatus:  domain.PaymentStatusPending,
		OrderStatus:    domain.OrderStatusInitiated,
		DeliveryType:   cmd.DeliveryType,
		Address:        domain.PickupAddress,
		DeliveryCharge: quote.DeliveryCharge,
		ShopLocation:   s.shopLocation,
	}
	if cmd.DeliveryType == domain.DeliveryTypeDelivery {
		order.Address = address
		order.Coordinates = cmd.Destination.String()
		order.MapsLink = cmd.Destination.MapsLink()
		order.Distance = domain.FormatDistance(quote.DistanceKm)
	}

	// The order must exist before the customer is handed to the UPI app;
	// a write failure aborts the whole attempt.
	if err := s.orders.Insert(ctx, order); err != nil {
		return OrderCreation{}, s.mapOrderRepositoryError(err)
	}

	orderID := order.OrderID
	if err := s.monitors.Track(orderID,
		func() { s.onReturnDetected(orderID) },
		func() { s.onFailureTimeout(orderID) },
	); err != nil {
		s.logger(ctx, "order.monitor_failed", map[string]any{"orderId": orderID, "error": err.Error()})
	}

	note := payments.OrderNote(customer)
	plan := s.planner.Plan(payments.Platform(cmd.Platform), order.TotalAmount, note)

	s.logger(ctx, eventOrderCreated, map[string]any{
		"orderId": orderID,
		"type":    string(cmd.Type),
		"litres":  cmd.Litres,
		"total":   order.TotalAmount,
	})
	s.publish(ctx, OrderEvent{
		Type:       eventOrderCreated,
		OrderID:    orderID,
		Total:      order.TotalAmount,
		OccurredAt: s.clock(),
	})

	return OrderCreation{
		Order:          order,
		PaymentURL:     s.planner.PaymentURL(order.TotalAmount, note),
		LaunchURLs:     plan.URLs,
		FailureTimeout: s.failureTimeout,
	}, nil
}

func (s *orderService) ResolveOrder(ctx context.Context, cmd ResolveOrderCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	switch cmd.Outcome {
	case PaymentOutcomeSuccess, PaymentOutcomeFailure, PaymentOutcomeTimeout:
	default:
		return domain.Order{}, fmt.Errorf("%w: unknown outcome %q", ErrOrderInvalidInput, cmd.Outcome)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapOrderRepositoryError(err)
	}

	// Resolution is idempotent: a second report returns the stored outcome.
	if order.PaymentStatus != domain.PaymentStatusPending {
		s.monitors.Resolve(orderID)
		return order, nil
	}

	now := s.clock()
	update := repositories.OrderResolutionUpdate{ResolvedAt: now}
	if cmd.Outcome == PaymentOutcomeSuccess {
		update.PaymentStatus = domain.PaymentStatusSuccess
		update.OrderStatus = domain.OrderStatusConfirmed
		update.DashboardFlag = dashboardFlagNew
	} else {
		update.PaymentStatus = domain.PaymentStatusFailed
		update.OrderStatus = domain.OrderStatusCancelled
	}

	// The order flip is a conditional claim; when a customer report races
	// the auto-fail timer exactly one caller wins it, and stock moves only
	// on the winning success path.
	resolved, err := s.orders.ApplyResolution(ctx, orderID, update)
	if err != nil {
		if isConflict(err) {
			s.monitors.Resolve(orderID)
			current, findErr := s.orders.FindByID(ctx, orderID)
			if findErr != nil {
				return domain.Order{}, s.mapOrderRepositoryError(findErr)
			}
			return current, nil
		}
		return domain.Order{}, s.mapOrderRepositoryError(err)
	}
	s.monitors.Resolve(orderID)

	if cmd.Outcome == PaymentOutcomeSuccess {
		item := order.Item()
		if _, err := s.inventory.CommitDecrement(ctx, item.Type, item.Quantity); err != nil {
			// The payment is already recorded; stock is reconciled from the
			// dashboard rather than the order being rolled back.
			s.logger(ctx, "order.decrement_failed", map[string]any{
				"orderId": orderID,
				"error":   err.Error(),
			})
		}
	}

	s.logger(ctx, eventOrderResolved, map[string]any{
		"orderId": orderID,
		"outcome": string(cmd.Outcome),
	})
	s.publish(ctx, OrderEvent{
		Type:       eventOrderResolved,
		OrderID:    orderID,
		Outcome:    string(cmd.Outcome),
		Total:      resolved.TotalAmount,
		OccurredAt: now,
	})
	return resolved, nil
}

func (s *orderService) ReportReturnSignal(ctx context.Context, orderID string, signal string) bool {
	return s.monitors.Signal(strings.TrimSpace(orderID), payments.ReturnSignal(signal))
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapOrderRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, s.mapOrderRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) WatchOrders(ctx context.Context, fn func(orders []domain.Order) error) error {
	if fn == nil {
		return fmt.Errorf("%w: watch callback is required", ErrOrderInvalidInput)
	}
	return s.orders.Watch(ctx, fn)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return s.mapOrderRepositoryError(err)
	}
	s.monitors.Resolve(orderID)
	s.logger(ctx, eventOrderDeleted, map[string]any{"orderId": orderID})
	return nil
}

func (s *orderService) DeleteAllOrders(ctx context.Context) (int, error) {
	deleted, err := s.orders.DeleteAll(ctx)
	if err != nil {
		return deleted, s.mapOrderRepositoryError(err)
	}
	s.logger(ctx, eventOrderDeleted, map[string]any{"deleted": deleted})
	return deleted, nil
}

// onReturnDetected runs on the monitor goroutine once the customer appears
// to be back from the UPI app. The order stays pending until an outcome is
// reported; this only surfaces the hint downstream.
func (s *orderService) onReturnDetected(orderID string) {
	ctx := context.Background()
	s.logger(ctx, eventOrderReturnDetected, map[string]any{"orderId": orderID})
	s.publish(ctx, OrderEvent{
		Type:       eventOrderReturnDetected,
		OrderID:    orderID,
		OccurredAt: s.clock(),
	})
}

// onFailureTimeout auto-fails a payment that never resolved.
func (s *orderService) onFailureTimeout(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger(ctx, eventOrderAutoFailed, map[string]any{"orderId": orderID})
	if _, err := s.ResolveOrder(ctx, ResolveOrderCommand{
		OrderID: orderID,
		Outcome: PaymentOutcomeTimeout,
	}); err != nil {
		s.logger(ctx, "order.auto_fail_error", map[string]any{"orderId": orderID, "error": err.Error()})
	}
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, eventOrderPublishFailed, map[string]any{
			"orderId": event.OrderID,
			"type":    event.Type,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) mapOrderRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	if isConflict(err) {
		return fmt.Errorf("%w: order already exists", ErrOrderInvalidInput)
	}
	return err
}
