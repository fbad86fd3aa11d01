package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ToddyType identifies one of the shop's beverage varieties.
type ToddyType string

const (
	ToddyTypeEetha ToddyType = "eetha"
	ToddyTypeThati ToddyType = "thati"
	ToddyTypeNeera ToddyType = "neera"
)

// ToddyTypes lists every sellable variety in menu order.
var ToddyTypes = []ToddyType{ToddyTypeEetha, ToddyTypeThati, ToddyTypeNeera}

// Valid reports whether the value names a known variety.
func (t ToddyType) Valid() bool {
	switch t {
	case ToddyTypeEetha, ToddyTypeThati, ToddyTypeNeera:
		return true
	}
	return false
}

// PaymentStatus tracks the externally-initiated UPI payment outcome.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// OrderStatus tracks the order's position in its lifecycle.
type OrderStatus string

const (
	OrderStatusInitiated OrderStatus = "INITIATED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// DeliveryType distinguishes shop pickup from home delivery.
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

// Valid reports whether the value is a known delivery mode.
func (d DeliveryType) Valid() bool {
	return d == DeliveryTypePickup || d == DeliveryTypeDelivery
}

// PickupAddress is the literal stored on pickup orders in place of a
// customer address.
const PickupAddress = "Self Pickup"

// OrderItem is a single line of an order. The storefront supports exactly
// one line per order.
type OrderItem struct {
	Type     ToddyType `firestore:"type" json:"type"`
	Quantity int       `firestore:"quantity" json:"quantity"`
	Price    int       `firestore:"price" json:"price"`
}

// ShopLocation pins the fixed pickup location embedded on every order.
type ShopLocation struct {
	Lat           float64 `firestore:"lat" json:"lat"`
	Lng           float64 `firestore:"lng" json:"lng"`
	Address       string  `firestore:"address" json:"address"`
	GoogleMapsURL string  `firestore:"googleMapsUrl" json:"googleMapsUrl"`
}

// Order is the persisted record of a purchase attempt. It is created in
// (PENDING, INITIATED) before the payment redirect and mutated exactly once
// afterwards, to either (SUCCESS, CONFIRMED) or (FAILED, CANCELLED).
type Order struct {
	OrderID            string        `json:"orderId"`
	Customer           string        `json:"customer"`
	Mobile             string        `json:"mobile"`
	Items              []OrderItem   `json:"items"`
	TotalAmount        int           `json:"totalAmount"`
	PaymentStatus      PaymentStatus `json:"paymentStatus"`
	OrderStatus        OrderStatus   `json:"orderStatus"`
	DeliveryType       DeliveryType  `json:"deliveryType"`
	Address            string        `json:"address"`
	Coordinates        string        `json:"coordinates,omitempty"`
	MapsLink           string        `json:"mapsLink,omitempty"`
	Distance           string        `json:"distance,omitempty"`
	DeliveryCharge     int           `json:"deliveryCharge"`
	ShopLocation       ShopLocation  `json:"shopLocation"`
	DashboardFlag      string        `json:"status,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	PaymentCompletedAt *time.Time    `json:"paymentCompletedAt,omitempty"`
	PaymentFailedAt    *time.Time    `json:"paymentFailedAt,omitempty"`
}

// Item returns the single line item, or a zero value for malformed orders.
func (o Order) Item() OrderItem {
	if len(o.Items) == 0 {
		return OrderItem{}
	}
	return o.Items[0]
}

// PriceTable maps toddy varieties to their per-litre price in whole rupees.
type PriceTable map[ToddyType]int

// StockTable maps toddy varieties to the litres currently available.
type StockTable map[ToddyType]int

// Defaults used whenever the settings document is absent or unreachable.
var (
	DefaultPrices    = PriceTable{ToddyTypeEetha: 60, ToddyTypeThati: 75, ToddyTypeNeera: 90}
	DefaultInventory = StockTable{ToddyTypeEetha: 50, ToddyTypeThati: 50, ToddyTypeNeera: 50}
)

// Clone returns an independent copy of the table.
func (p PriceTable) Clone() PriceTable {
	out := make(PriceTable, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the table.
func (s StockTable) Clone() StockTable {
	out := make(StockTable, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ShopSettings is the singleton settings document mutated only by the owner
// dashboard and read by every pricing and availability computation.
type ShopSettings struct {
	Prices    PriceTable `json:"prices"`
	Inventory StockTable `json:"inventory"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// OwnerCredentials is the owner dashboard login record. The password is
// stored in plaintext; hardening the owner login is out of scope for now.
type OwnerCredentials struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Quote is the ephemeral price computation shown to the customer. It is
// recomputed on every input change and never persisted.
type Quote struct {
	Type           ToddyType    `json:"type"`
	Litres         int          `json:"litres"`
	DeliveryType   DeliveryType `json:"deliveryType"`
	UnitPrice      int          `json:"unitPrice"`
	DistanceKm     float64      `json:"distanceKm,omitempty"`
	DeliveryCharge int          `json:"deliveryCharge"`
	Total          int          `json:"total"`
	Available      int          `json:"available"`
	Blocked        bool         `json:"blocked"`
	BlockedReason  string       `json:"blockedReason,omitempty"`
}

const minOrderLitres = 2

// MinOrderLitres is the hard floor on order quantity.
func MinOrderLitres() int { return minOrderLitres }

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidateCustomerName enforces the storefront's name rule.
func ValidateCustomerName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len([]rune(trimmed)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	return nil
}

// ValidateMobileNumber enforces the Indian 10-digit mobile rule.
func ValidateMobileNumber(mobile string) error {
	trimmed := strings.TrimSpace(mobile)
	if trimmed == "" {
		return fmt.Errorf("%w: mobile number is required", ErrValidation)
	}
	if !mobilePattern.MatchString(trimmed) {
		return fmt.Errorf("%w: enter a valid 10-digit mobile number", ErrValidation)
	}
	return nil
}
