// Package geocode resolves street addresses against the OpenStreetMap
// Nominatim service. Results are advisory only: order placement never waits
// on a geocode and falls back to raw coordinates when the service is down.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "toddy-orders/1.0"

	defaultAttempts = 3
)

// ErrNoMatch indicates the query produced no geocoding result.
var ErrNoMatch = errors.New("geocode: no match")

// Place is a single geocoding result.
type Place struct {
	DisplayName string
	Coordinates domain.Coordinates
}

// Client talks to a Nominatim-compatible endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
	attempts  int
	backoff   gax.Backoff
}

type clientConfig struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
	attempts  int
	backoff   gax.Backoff
}

// Option customises Client construction.
type Option func(*clientConfig)

// WithBaseURL overrides the Nominatim endpoint, e.g. for a self-hosted mirror.
func WithBaseURL(raw string) Option {
	return func(cfg *clientConfig) {
		cfg.baseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
}

// WithUserAgent sets the User-Agent header; the public Nominatim instance
// rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(cfg *clientConfig) {
		cfg.userAgent = strings.TrimSpace(ua)
	}
}

// WithHTTPClient injects a preconfigured HTTP client (primarily for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.http = hc
	}
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithAttempts bounds how many times a transient failure is retried.
func WithAttempts(n int) Option {
	return func(cfg *clientConfig) {
		cfg.attempts = n
	}
}

// WithBackoff overrides the pause schedule between retries.
func WithBackoff(b gax.Backoff) Option {
	return func(cfg *clientConfig) {
		cfg.backoff = b
	}
}

// NewClient builds a Nominatim client with retry and logging defaults.
func NewClient(opts ...Option) *Client {
	cfg := clientConfig{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    zap.NewNop(),
		attempts:  defaultAttempts,
		backoff: gax.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.baseURL == "" {
		cfg.baseURL = defaultBaseURL
	}
	if cfg.http == nil {
		cfg.http = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.attempts < 1 {
		cfg.attempts = 1
	}

	return &Client{
		baseURL:   cfg.baseURL,
		userAgent: cfg.userAgent,
		http:      cfg.http,
		logger:    cfg.logger,
		attempts:  cfg.attempts,
		backoff:   cfg.backoff,
	}
}

// Search resolves a free-text address to coordinates. ErrNoMatch is returned
// when Nominatim finds nothing.
func (c *Client) Search(ctx context.Context, address string) (Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Place{}, errors.New("geocode: address is required")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")

	var results []nominatimPlace
	if err := c.getJSON(ctx, "/search", q, &results); err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNoMatch, address)
	}
	return results[0].toPlace()
}

// Reverse resolves coordinates to a display address. When the lookup fails
// for any reason, FallbackAddress keeps the order flow moving.
func (c *Client) Reverse(ctx context.Context, coords domain.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lng, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var result nominatimPlace
	if err := c.getJSON(ctx, "/reverse", q, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, coords.String())
	}
	return result.DisplayName, nil
}

// FallbackAddress renders raw coordinates when no display name is available.
func FallbackAddress(coords domain.Coordinates) string {
	return fmt.Sprintf("Lat: %.6f, Lng: %.6f", coords.Lat, coords.Lng)
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p nominatimPlace) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocode: bad latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocode: bad longitude %q: %w", p.Lon, err)
	}
	return Place{
		DisplayName: p.DisplayName,
		Coordinates: domain.Coordinates{Lat: lat, Lng: lng},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if err := gax.Sleep(ctx, backoff.Pause()); err != nil {
				return err
			}
		}

		body, err := c.fetch(ctx, endpoint)
		if err == nil {
			return json.Unmarshal(body, out)
		}
		lastErr = err
		if !isTransient(err) {
			return err
		}
		c.logger.Debug("geocode: transient failure",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return fmt.Errorf("geocode: request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &transientError{err: err}
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: err}
		}
		return nil, err
	}
	return body, nil
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
