package domain

import (
	"errors"
	"testing"
)

func TestValidateCustomerName(t *testing.T) {
	if err := ValidateCustomerName("Ravi"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if err := ValidateCustomerName("  Ra  "); err != nil {
		t.Fatalf("trimmed two-char name rejected: %v", err)
	}
	for _, bad := range []string{"", "   ", "R", " a "} {
		err := ValidateCustomerName(bad)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("name %q: got %v, want validation error", bad, err)
		}
	}
}

func TestValidateMobileNumber(t *testing.T) {
	for _, good := range []string{"9876543210", "6000000000", " 7123456789 "} {
		if err := ValidateMobileNumber(good); err != nil {
			t.Fatalf("mobile %q rejected: %v", good, err)
		}
	}
	for _, bad := range []string{"", "12345", "5876543210", "98765432101", "98765abc10"} {
		err := ValidateMobileNumber(bad)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("mobile %q: got %v, want validation error", bad, err)
		}
	}
}

func TestToddyTypeValid(t *testing.T) {
	for _, tt := range ToddyTypes {
		if !tt.Valid() {
			t.Fatalf("%q should be valid", tt)
		}
	}
	if ToddyType("kallu").Valid() {
		t.Fatal("unknown variety should be invalid")
	}
}

func TestOrderItem(t *testing.T) {
	o := Order{Items: []OrderItem{{Type: ToddyTypeThati, Quantity: 2, Price: 75}}}
	if got := o.Item(); got.Type != ToddyTypeThati || got.Quantity != 2 {
		t.Fatalf("Item() = %+v", got)
	}
	if got := (Order{}).Item(); got != (OrderItem{}) {
		t.Fatalf("empty order Item() = %+v, want zero value", got)
	}
}
