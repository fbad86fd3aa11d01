package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/geocode"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

type stubPricingEngine struct {
	quoteFn func(context.Context, services.QuoteCommand) (domain.Quote, error)
}

func (s *stubPricingEngine) Quote(ctx context.Context, cmd services.QuoteCommand) (domain.Quote, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, cmd)
	}
	return domain.Quote{}, errors.New("not implemented")
}

type stubGeocoder struct {
	searchFn  func(context.Context, string) (geocode.Place, error)
	reverseFn func(context.Context, domain.Coordinates) (string, error)
}

func (s *stubGeocoder) Search(ctx context.Context, address string) (geocode.Place, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, address)
	}
	return geocode.Place{}, errors.New("not implemented")
}

func (s *stubGeocoder) Reverse(ctx context.Context, coords domain.Coordinates) (string, error) {
	if s.reverseFn != nil {
		return s.reverseFn(ctx, coords)
	}
	return "", errors.New("not implemented")
}

func newPublicRouter(settings services.SettingsService, pricing services.PricingEngine, geocoder Geocoder, opts ...PublicOption) chi.Router {
	r := chi.NewRouter()
	NewPublicHandlers(settings, pricing, geocoder, opts...).Routes(r)
	return r
}

func TestMenuEndpoint(t *testing.T) {
	settings := &stubSettingsService{
		getFn: func(context.Context) (domain.ShopSettings, error) {
			return domain.ShopSettings{
				Prices:    domain.PriceTable{domain.ToddyTypeEetha: 60, domain.ToddyTypeThati: 75, domain.ToddyTypeNeera: 90},
				Inventory: domain.StockTable{domain.ToddyTypeEetha: 12, domain.ToddyTypeThati: 50, domain.ToddyTypeNeera: 0},
			}, nil
		},
	}
	router := newPublicRouter(settings, &stubPricingEngine{}, &stubGeocoder{}, WithShopContact("Sandralapally X Rd", "6302564464"))

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp menuResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse menu: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 menu items, got %d", len(resp.Items))
	}
	if resp.Items[0].Type != domain.ToddyTypeEetha || resp.Items[0].Available != 12 {
		t.Fatalf("unexpected first item: %+v", resp.Items[0])
	}
	if resp.MinOrderLitres != 2 {
		t.Fatalf("expected min order 2, got %d", resp.MinOrderLitres)
	}
	if resp.ShopPhone != "6302564464" {
		t.Fatalf("expected shop phone, got %q", resp.ShopPhone)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	var captured services.QuoteCommand
	pricing := &stubPricingEngine{
		quoteFn: func(_ context.Context, cmd services.QuoteCommand) (domain.Quote, error) {
			captured = cmd
			return domain.Quote{
				Type:           cmd.Type,
				Litres:         cmd.Litres,
				DeliveryType:   cmd.DeliveryType,
				UnitPrice:      75,
				DistanceKm:     4.2,
				DeliveryCharge: 40,
				Total:          190,
				Available:      50,
			}, nil
		},
	}
	router := newPublicRouter(&stubSettingsService{}, pricing, &stubGeocoder{})

	body := `{"type":"thati","litres":2,"deliveryType":"delivery","destination":{"lat":18.66,"lng":78.9}}`
	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Destination == nil || captured.Destination.Lat != 18.66 {
		t.Fatalf("expected destination forwarded, got %+v", captured.Destination)
	}
	var quote domain.Quote
	if err := json.Unmarshal(rr.Body.Bytes(), &quote); err != nil {
		t.Fatalf("failed to parse quote: %v", err)
	}
	if quote.Total != 190 || quote.DeliveryCharge != 40 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestQuoteEndpointInvalidInput(t *testing.T) {
	pricing := &stubPricingEngine{
		quoteFn: func(context.Context, services.QuoteCommand) (domain.Quote, error) {
			return domain.Quote{}, services.ErrQuoteInvalidInput
		},
	}
	router := newPublicRouter(&stubSettingsService{}, pricing, &stubGeocoder{})

	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{"type":"kallu","litres":0,"deliveryType":"pickup"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGeocodeSearchEndpoint(t *testing.T) {
	geocoder := &stubGeocoder{
		searchFn: func(_ context.Context, address string) (geocode.Place, error) {
			if address != "Korutla" {
				return geocode.Place{}, geocode.ErrNoMatch
			}
			return geocode.Place{
				DisplayName: "Korutla, Telangana",
				Coordinates: domain.Coordinates{Lat: 18.82, Lng: 78.71},
			}, nil
		},
	}
	router := newPublicRouter(&stubSettingsService{}, &stubPricingEngine{}, geocoder)

	req := httptest.NewRequest(http.MethodGet, "/geocode/search?q=Korutla", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload["displayName"] != "Korutla, Telangana" {
		t.Fatalf("unexpected display name: %v", payload["displayName"])
	}
}

func TestGeocodeSearchEndpointNoMatch(t *testing.T) {
	geocoder := &stubGeocoder{
		searchFn: func(context.Context, string) (geocode.Place, error) {
			return geocode.Place{}, geocode.ErrNoMatch
		},
	}
	router := newPublicRouter(&stubSettingsService{}, &stubPricingEngine{}, geocoder)

	req := httptest.NewRequest(http.MethodGet, "/geocode/search?q=nowhere", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestGeocodeReverseEndpoint(t *testing.T) {
	geocoder := &stubGeocoder{
		reverseFn: func(_ context.Context, coords domain.Coordinates) (string, error) {
			return "Sandralapally, Telangana 505501", nil
		},
	}
	router := newPublicRouter(&stubSettingsService{}, &stubPricingEngine{}, geocoder)

	req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=18.6411&lng=78.87335", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload["address"] != "Sandralapally, Telangana 505501" {
		t.Fatalf("unexpected address: %v", payload["address"])
	}
}

func TestGeocodeReverseEndpointFallsBack(t *testing.T) {
	geocoder := &stubGeocoder{
		reverseFn: func(context.Context, domain.Coordinates) (string, error) {
			return "", errors.New("nominatim down")
		},
	}
	router := newPublicRouter(&stubSettingsService{}, &stubPricingEngine{}, geocoder)

	req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=18.641100&lng=78.873350", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload["address"] != "Lat: 18.641100, Lng: 78.873350" {
		t.Fatalf("expected coordinate fallback, got %v", payload["address"])
	}
}

func TestGeocodeReverseEndpointValidatesCoordinates(t *testing.T) {
	router := newPublicRouter(&stubSettingsService{}, &stubPricingEngine{}, &stubGeocoder{})

	req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=abc&lng=78.8", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
