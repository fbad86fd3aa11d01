package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

type updateSettingsRequest struct {
	Prices    map[string]int `json:"prices"`
	Inventory map[string]int `json:"inventory"`
}

type changeCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type orderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Count  int            `json:"count"`
}

// AdminHandlers serves the owner dashboard behind the session middleware.
type AdminHandlers struct {
	orders   services.OrderService
	settings services.SettingsService
}

// NewAdminHandlers constructs a new AdminHandlers instance.
func NewAdminHandlers(orders services.OrderService, settings services.SettingsService) *AdminHandlers {
	return &AdminHandlers{orders: orders, settings: settings}
}

// Routes registers the /admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stream", h.streamOrders)
	r.Delete("/orders/{orderID}", h.deleteOrder)
	r.Delete("/orders", h.deleteAllOrders)
	r.Get("/settings", h.getSettings)
	r.Patch("/settings", h.updateSettings)
	r.Post("/credentials", h.changeCredentials)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Orders: orders, Count: len(orders)})
}

// streamOrders pushes the full order list as a server-sent event on every
// collection change until the client disconnects.
func (h *AdminHandlers) streamOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("streaming_unsupported", "response writer does not support streaming", http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.orders.WatchOrders(ctx, func(orders []domain.Order) error {
		payload, err := json.Marshal(orderListResponse{Orders: orders, Count: len(orders)})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		// Headers are already sent; surface the failure as a final event.
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", "order stream interrupted")
		flusher.Flush()
	}
}

func (h *AdminHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
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

	if err := h.orders.DeleteOrder(ctx, orderID); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deleteAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderServiceUnavailable(ctx, w)
		return
	}

	deleted, err := h.orders.DeleteAllOrders(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *AdminHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, settings)
}

func (h *AdminHandlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req updateSettingsRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	cmd := services.UpdateSettingsCommand{}
	if req.Prices != nil {
		cmd.Prices = domain.PriceTable{}
		for key, value := range req.Prices {
			cmd.Prices[domain.ToddyType(key)] = value
		}
	}
	if req.Inventory != nil {
		cmd.Inventory = domain.StockTable{}
		for key, value := range req.Inventory {
			cmd.Inventory[domain.ToddyType(key)] = value
		}
	}

	settings, err := h.settings.UpdateSettings(ctx, cmd)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, settings)
}

func (h *AdminHandlers) changeCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req changeCredentialsRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	err := h.settings.ChangeCredentials(ctx, services.ChangeCredentialsCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSettingsError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSettingsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case isRepositoryUnavailable(err):
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
