package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	pfirestore "github.com/ShivaNagula00/toddy-orders/internal/platform/firestore"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

const ordersCollection = "orders"

type orderItemDocument struct {
	Type     string `firestore:"type"`
	Quantity int    `firestore:"quantity"`
	Price    int    `firestore:"price"`
}

type shopLocationDocument struct {
	Lat           float64 `firestore:"lat"`
	Lng           float64 `firestore:"lng"`
	Address       string  `firestore:"address"`
	GoogleMapsURL string  `firestore:"googleMapsUrl"`
}

type orderDocument struct {
	OrderID            string               `firestore:"orderId"`
	Customer           string               `firestore:"customer"`
	Mobile             string               `firestore:"mobile"`
	Items              []orderItemDocument  `firestore:"items"`
	TotalAmount        int                  `firestore:"totalAmount"`
	PaymentStatus      string               `firestore:"paymentStatus"`
	OrderStatus        string               `firestore:"orderStatus"`
	DeliveryType       string               `firestore:"deliveryType"`
	Address            string               `firestore:"address"`
	Coordinates        string               `firestore:"coordinates,omitempty"`
	MapsLink           string               `firestore:"mapsLink,omitempty"`
	Distance           string               `firestore:"distance,omitempty"`
	DeliveryCharge     int                  `firestore:"deliveryCharge"`
	ShopLocation       shopLocationDocument `firestore:"shopLocation"`
	DashboardFlag      string               `firestore:"status,omitempty"`
	CreatedAt          time.Time            `firestore:"createdAt,serverTimestamp"`
	UpdatedAt          time.Time            `firestore:"updatedAt,serverTimestamp"`
	PaymentCompletedAt *time.Time           `firestore:"paymentCompletedAt,omitempty"`
	PaymentFailedAt    *time.Time           `firestore:"paymentFailedAt,omitempty"`
}

func toOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			Type:     string(item.Type),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return orderDocument{
		OrderID:       order.OrderID,
		Customer:      order.Customer,
		Mobile:        order.Mobile,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: string(order.PaymentStatus),
		OrderStatus:   string(order.OrderStatus),
		DeliveryType:  string(order.DeliveryType),
		Address:       order.Address,
		Coordinates:   order.Coordinates,
		MapsLink:      order.MapsLink,
		Distance:      order.Distance,
		DeliveryCharge: order.DeliveryCharge,
		ShopLocation: shopLocationDocument{
			Lat:           order.ShopLocation.Lat,
			Lng:           order.ShopLocation.Lng,
			Address:       order.ShopLocation.Address,
			GoogleMapsURL: order.ShopLocation.GoogleMapsURL,
		},
		DashboardFlag:      order.DashboardFlag,
		PaymentCompletedAt: order.PaymentCompletedAt,
		PaymentFailedAt:    order.PaymentFailedAt,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			Type:     domain.ToddyType(item.Type),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	orderID := d.OrderID
	if orderID == "" {
		orderID = id
	}
	return domain.Order{
		OrderID:       orderID,
		Customer:      d.Customer,
		Mobile:        d.Mobile,
		Items:         items,
		TotalAmount:   d.TotalAmount,
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		OrderStatus:   domain.OrderStatus(d.OrderStatus),
		DeliveryType:  domain.DeliveryType(d.DeliveryType),
		Address:       d.Address,
		Coordinates:   d.Coordinates,
		MapsLink:      d.MapsLink,
		Distance:      d.Distance,
		DeliveryCharge: d.DeliveryCharge,
		ShopLocation: domain.ShopLocation{
			Lat:           d.ShopLocation.Lat,
			Lng:           d.ShopLocation.Lng,
			Address:       d.ShopLocation.Address,
			GoogleMapsURL: d.ShopLocation.GoogleMapsURL,
		},
		DashboardFlag:      d.DashboardFlag,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		PaymentCompletedAt: d.PaymentCompletedAt,
		PaymentFailedAt:    d.PaymentFailedAt,
	}
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{provider: provider, orders: base}, nil
}

// Insert creates the order document keyed by its order ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.OrderID) == "" {
		return errors.New("orders: order id is required")
	}
	_, err := r.orders.Create(ctx, order.OrderID, toOrderDocument(order))
	return err
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ApplyResolution writes the terminal payment outcome onto the order. The
// write runs in a transaction conditional on the order still being pending;
// a lost race surfaces as a conflict so callers can re-read the winner's
// outcome instead of resolving twice.
func (r *OrderRepository) ApplyResolution(ctx context.Context, orderID string, update repositories.OrderResolutionUpdate) (domain.Order, error) {
	updates := []firestore.Update{
		{Path: "paymentStatus", Value: string(update.PaymentStatus)},
		{Path: "orderStatus", Value: string(update.OrderStatus)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	switch update.PaymentStatus {
	case domain.PaymentStatusSuccess:
		updates = append(updates, firestore.Update{Path: "paymentCompletedAt", Value: update.ResolvedAt})
	case domain.PaymentStatusFailed:
		updates = append(updates, firestore.Update{Path: "paymentFailedAt", Value: update.ResolvedAt})
	}
	if update.DashboardFlag != "" {
		updates = append(updates, firestore.Update{Path: "status", Value: update.DashboardFlag})
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("orders decode %s: %w", orderID, err)
		}
		if doc.PaymentStatus != string(domain.PaymentStatusPending) {
			return status.Errorf(codes.FailedPrecondition, "order %s already resolved as %s", orderID, doc.PaymentStatus)
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.resolve", err)
	}
	return r.FindByID(ctx, orderID)
}

// ListAll returns every order newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, newestFirst)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}

// Watch streams the full order collection to fn on every change.
func (r *OrderRepository) Watch(ctx context.Context, fn func(orders []domain.Order) error) error {
	return r.orders.Watch(ctx, newestFirst, func(docs []pfirestore.Document[orderDocument]) error {
		orders := make([]domain.Order, 0, len(docs))
		for _, doc := range docs {
			orders = append(orders, doc.Data.toDomain(doc.ID))
		}
		return fn(orders)
	})
}

// Delete removes a single order document.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.orders.Delete(ctx, orderID)
}

// DeleteAll removes every order document and reports how many were deleted.
func (r *OrderRepository) DeleteAll(ctx context.Context) (int, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	iter := client.Collection(ordersCollection).Documents(ctx)
	defer iter.Stop()

	writer := client.BulkWriter(ctx)
	deleted := 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return deleted, pfirestore.WrapError("orders.deleteall", err)
		}
		if _, err := writer.Delete(snap.Ref); err != nil {
			return deleted, pfirestore.WrapError("orders.deleteall", err)
		}
		deleted++
	}
	writer.End()
	return deleted, nil
}

func newestFirst(query firestore.Query) firestore.Query {
	return query.OrderBy("createdAt", firestore.Desc)
}
