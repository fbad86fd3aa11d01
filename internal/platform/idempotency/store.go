package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL bounds how long a stored response stays replayable. Order
// creation retries arrive within minutes; a day covers flaky connections
// without keeping stale checkouts around.
const DefaultTTL = 24 * time.Hour

// Status is the lifecycle state of a stored record.
type Status string

const (
	// StatusPending marks a reserved key whose response is still being produced.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose response is stored and replayable.
	StatusCompleted Status = "completed"
)

// ReservationState describes what reserving a key found.
type ReservationState int

const (
	// ReservationStateNew: no live reservation existed, the caller proceeds.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted: a stored response exists and should be replayed.
	ReservationStateCompleted
	// ReservationStatePending: another request holds the key right now.
	ReservationStatePending
)

// Reservation is the outcome of a Reserve call.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted state for one idempotency key.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Response is the HTTP response captured for later replay.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists reservations and captured responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch signals a key reused for a different request than
// the one that reserved it.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// recordID derives the document identifier for a scoped key. Hashing keeps
// caller-supplied keys safe to use as Firestore document names.
func recordID(key string) string {
	return sha256Hex([]byte(strings.TrimSpace(key)))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hopByHopHeaders are never replayed; they describe the original transport,
// not the response.
var hopByHopHeaders = map[string]struct{}{
	"content-length":      {},
	"date":                {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
}

func sanitizeHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}

	filtered := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if _, omit := hopByHopHeaders[strings.ToLower(canonical)]; omit {
			continue
		}
		filtered[canonical] = append([]string(nil), values...)
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func headersFromRecord(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for name, vals := range values {
		header[name] = append([]string(nil), vals...)
	}
	return header
}
