package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

type coordinatesPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createOrderRequest struct {
	Customer     string              `json:"customer"`
	Mobile       string              `json:"mobile"`
	Type         string              `json:"type"`
	Litres       int                 `json:"litres"`
	DeliveryType string              `json:"deliveryType"`
	Address      string              `json:"address"`
	Destination  *coordinatesPayload `json:"destination"`
	Platform     string              `json:"platform"`
}

type createOrderResponse struct {
	Order            domain.Order `json:"order"`
	PaymentURL       string       `json:"paymentUrl"`
	LaunchURLs       []string     `json:"launchUrls"`
	FailureTimeoutMs int64        `json:"failureTimeoutMs"`
}

type orderSignalRequest struct {
	Signal string `json:"signal"`
}

type resolveOrderRequest struct {
	Outcome string `json:"outcome"`
}

// OrderHandlers exposes the customer-facing order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/signals", h.reportSignal)
	r.Post("/{orderID}:resolve", h.resolveOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	var req createOrderRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	cmd := services.CreateOrderCommand{
		Customer:     req.Customer,
		Mobile:       req.Mobile,
		Type:         domain.ToddyType(strings.TrimSpace(req.Type)),
		Litres:       req.Litres,
		DeliveryType: domain.DeliveryType(strings.TrimSpace(req.DeliveryType)),
		Address:      req.Address,
		Platform:     req.Platform,
	}
	if req.Destination != nil {
		cmd.Destination = &domain.Coordinates{Lat: req.Destination.Lat, Lng: req.Destination.Lng}
	}

	creation, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, createOrderResponse{
		Order:            creation.Order,
		PaymentURL:       creation.PaymentURL,
		LaunchURLs:       creation.LaunchURLs,
		FailureTimeoutMs: creation.FailureTimeout.Milliseconds(),
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		writeInvalidRequest(r, w, "order id is required")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}

func (h *OrderHandlers) reportSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		writeInvalidRequest(r, w, "order id is required")
		return
	}

	var req orderSignalRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	tracked := h.orders.ReportReturnSignal(ctx, orderID, req.Signal)
	writeJSONResponse(w, http.StatusAccepted, map[string]any{
		"orderId": orderID,
		"tracked": tracked,
	})
}

func (h *OrderHandlers) resolveOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		writeInvalidRequest(r, w, "order id is required")
		return
	}

	var req resolveOrderRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	order, err := h.orders.ResolveOrder(ctx, services.ResolveOrderCommand{
		OrderID: orderID,
		Outcome: services.PaymentOutcome(strings.ToLower(strings.TrimSpace(req.Outcome))),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}

func writeOrderServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderBlocked):
		httpx.WriteError(ctx, w, httpx.NewError("order_blocked", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("inventory_unavailable", "inventory unavailable", http.StatusServiceUnavailable))
	case isRepositoryUnavailable(err):
		writeOrderServiceUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func isRepositoryUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsUnavailable()
	}
	return false
}
