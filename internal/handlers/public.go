package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/geocode"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

// Geocoder resolves free-text addresses and coordinates for the storefront map.
type Geocoder interface {
	Search(ctx context.Context, address string) (geocode.Place, error)
	Reverse(ctx context.Context, coords domain.Coordinates) (string, error)
}

type quoteRequest struct {
	Type         string              `json:"type"`
	Litres       int                 `json:"litres"`
	DeliveryType string              `json:"deliveryType"`
	Destination  *coordinatesPayload `json:"destination"`
}

type menuItemPayload struct {
	Type      domain.ToddyType `json:"type"`
	UnitPrice int              `json:"unitPrice"`
	Available int              `json:"available"`
}

type menuResponse struct {
	Items          []menuItemPayload `json:"items"`
	MinOrderLitres int               `json:"minOrderLitres"`
	ShopAddress    string            `json:"shopAddress,omitempty"`
	ShopPhone      string            `json:"shopPhone,omitempty"`
}

// PublicHandlers serves the unauthenticated storefront endpoints.
type PublicHandlers struct {
	settings    services.SettingsService
	pricing     services.PricingEngine
	geocoder    Geocoder
	shopAddress string
	shopPhone   string
}

// PublicOption customises the public handlers.
type PublicOption func(*PublicHandlers)

// WithShopContact embeds the shop contact details in the menu payload.
func WithShopContact(address, phone string) PublicOption {
	return func(h *PublicHandlers) {
		h.shopAddress = address
		h.shopPhone = phone
	}
}

// NewPublicHandlers constructs the storefront handlers.
func NewPublicHandlers(settings services.SettingsService, pricing services.PricingEngine, geocoder Geocoder, opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{
		settings: settings,
		pricing:  pricing,
		geocoder: geocoder,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/menu", h.getMenu)
	r.Post("/quotes", h.createQuote)
	r.Get("/geocode/search", h.searchAddress)
	r.Get("/geocode/reverse", h.reverseGeocode)
}

func (h *PublicHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
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

	items := make([]menuItemPayload, 0, len(domain.ToddyTypes))
	for _, toddyType := range domain.ToddyTypes {
		items = append(items, menuItemPayload{
			Type:      toddyType,
			UnitPrice: settings.Prices[toddyType],
			Available: settings.Inventory[toddyType],
		})
	}

	writeJSONResponse(w, http.StatusOK, menuResponse{
		Items:          items,
		MinOrderLitres: domain.MinOrderLitres(),
		ShopAddress:    h.shopAddress,
		ShopPhone:      h.shopPhone,
	})
}

func (h *PublicHandlers) createQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing engine unavailable", http.StatusServiceUnavailable))
		return
	}

	var req quoteRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	cmd := services.QuoteCommand{
		Type:         domain.ToddyType(strings.TrimSpace(req.Type)),
		Litres:       req.Litres,
		DeliveryType: domain.DeliveryType(strings.TrimSpace(req.DeliveryType)),
	}
	if req.Destination != nil {
		cmd.Destination = &domain.Coordinates{Lat: req.Destination.Lat, Lng: req.Destination.Lng}
	}

	quote, err := h.pricing.Quote(ctx, cmd)
	if err != nil {
		if errors.Is(err, services.ErrQuoteInvalidInput) {
			writeInvalidRequest(r, w, err.Error())
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, quote)
}

func (h *PublicHandlers) searchAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.geocoder == nil {
		httpx.WriteError(ctx, w, httpx.NewError("geocoder_unavailable", "geocoder unavailable", http.StatusServiceUnavailable))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeInvalidRequest(r, w, "q is required")
		return
	}

	place, err := h.geocoder.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "no match for address", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("geocoder_unavailable", "geocoder unavailable", http.StatusServiceUnavailable))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"displayName": place.DisplayName,
		"lat":         place.Coordinates.Lat,
		"lng":         place.Coordinates.Lng,
	})
}

func (h *PublicHandlers) reverseGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.geocoder == nil {
		httpx.WriteError(ctx, w, httpx.NewError("geocoder_unavailable", "geocoder unavailable", http.StatusServiceUnavailable))
		return
	}

	coords, err := parseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	if err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	address, err := h.geocoder.Reverse(ctx, coords)
	if err != nil {
		// Reverse lookups always degrade to the coordinate string so the
		// order form never blocks on the geocoder.
		address = geocode.FallbackAddress(coords)
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"address": address,
		"lat":     coords.Lat,
		"lng":     coords.Lng,
	})
}

func parseCoordinates(latRaw, lngRaw string) (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return domain.Coordinates{}, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return domain.Coordinates{}, errors.New("lng must be a number")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Coordinates{}, errors.New("coordinates out of range")
	}
	return domain.Coordinates{Lat: lat, Lng: lng}, nil
}
