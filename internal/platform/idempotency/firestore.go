package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection  = "idempotency_keys"
	defaultMaxAttempts = 5
	cleanupBatchLimit  = 100
)

// FirestoreOption customises the FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection holding idempotency records.
func WithCollection(name string) FirestoreOption {
	return func(store *FirestoreStore) {
		if name != "" {
			store.collection = name
		}
	}
}

// WithMaxAttempts configures transaction retry attempts.
func WithMaxAttempts(attempts int) FirestoreOption {
	return func(store *FirestoreStore) {
		if attempts > 0 {
			store.maxAttempts = attempts
		}
	}
}

// FirestoreStore implements Store on a Firestore collection, one document
// per scoped key.
type FirestoreStore struct {
	client      *firestore.Client
	collection  string
	maxAttempts int
}

// NewFirestoreStore constructs a Firestore-backed idempotency store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	store := &FirestoreStore{
		client:      client,
		collection:  defaultCollection,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *FirestoreStore) docRef(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(recordID(key))
}

func (s *FirestoreStore) attempts() int {
	if s.maxAttempts > 0 {
		return s.maxAttempts
	}
	return 1
}

func pendingRecord(key, fingerprint string, now time.Time, ttl time.Duration) keyDocument {
	return keyDocument{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      string(StatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Reserve claims the key inside a transaction so concurrent retries observe
// a single winner.
func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	var result Reservation
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			record := pendingRecord(key, fingerprint, now, ttl)
			if err := tx.Set(ref, record); err != nil {
				return err
			}
			result = Reservation{State: ReservationStateNew, Record: record.toRecord()}
			return nil
		}

		var record keyDocument
		if err := snap.DataTo(&record); err != nil {
			return err
		}
		if record.Fingerprint != fingerprint {
			return ErrFingerprintMismatch
		}

		// An expired record is re-reserved as if absent.
		if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
			record = pendingRecord(key, fingerprint, now, ttl)
			if err := tx.Set(ref, record); err != nil {
				return err
			}
			result = Reservation{State: ReservationStateNew, Record: record.toRecord()}
			return nil
		}

		state := ReservationStatePending
		if record.Status == string(StatusCompleted) {
			state = ReservationStateCompleted
		}
		result = Reservation{State: state, Record: record.toRecord()}
		return nil
	}, firestore.MaxAttempts(s.attempts()))

	return result, err
}

// SaveResponse stores the captured response on the reserved key.
func (s *FirestoreStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.docRef(key)

	headers := sanitizeHeaders(resp.Headers)
	var body []byte
	if len(resp.Body) > 0 {
		body = append([]byte(nil), resp.Body...)
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		var record keyDocument
		switch {
		case err != nil && status.Code(err) == codes.NotFound:
			record = keyDocument{Key: key, Fingerprint: fingerprint, CreatedAt: now}
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&record); err != nil {
				return err
			}
			if record.Fingerprint != fingerprint {
				return ErrFingerprintMismatch
			}
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
		}

		record.Status = string(StatusCompleted)
		record.ResponseStatus = resp.Status
		record.ResponseHeaders = headers
		record.ResponseBody = body
		record.UpdatedAt = now
		record.ExpiresAt = now.Add(ttl)

		return tx.Set(ref, record)
	}, firestore.MaxAttempts(s.attempts()))
}

// Release drops the reservation so a later attempt can retry.
func (s *FirestoreStore) Release(ctx context.Context, key, _ string) error {
	_, err := s.docRef(key).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// CleanupExpired deletes up to limit expired records.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = cleanupBatchLimit
	}

	query := s.client.Collection(s.collection).Where("expires_at", "<=", now).Limit(limit)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	writer := s.client.BulkWriter(ctx)
	for _, doc := range docs {
		if _, err := writer.Delete(doc.Ref); err != nil {
			return 0, err
		}
	}
	writer.End()
	return len(docs), nil
}

type keyDocument struct {
	Key             string              `firestore:"key"`
	Fingerprint     string              `firestore:"fingerprint"`
	Status          string              `firestore:"status"`
	ResponseStatus  int                 `firestore:"response_status"`
	ResponseHeaders map[string][]string `firestore:"response_headers"`
	ResponseBody    []byte              `firestore:"response_body"`
	CreatedAt       time.Time           `firestore:"created_at"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
	ExpiresAt       time.Time           `firestore:"expires_at"`
}

func (d keyDocument) toRecord() Record {
	return Record{
		Key:             d.Key,
		Fingerprint:     d.Fingerprint,
		Status:          Status(d.Status),
		ResponseStatus:  d.ResponseStatus,
		ResponseHeaders: d.ResponseHeaders,
		ResponseBody:    d.ResponseBody,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ExpiresAt:       d.ExpiresAt,
	}
}
