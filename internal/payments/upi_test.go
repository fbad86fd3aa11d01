package payments

import (
	"strings"
	"testing"
)

func TestLinkBuilderPaymentURL(t *testing.T) {
	links, err := NewLinkBuilder("shop@upi", "Toddy Shop")
	if err != nil {
		t.Fatalf("new link builder: %v", err)
	}

	got := links.PaymentURL(330, OrderNote("Ravi Kumar"))
	want := "upi://pay?pa=shop%40upi&pn=Toddy%20Shop&am=330&cu=INR&tn=Toddy%20Order%20-%20Ravi%20Kumar"
	if got != want {
		t.Fatalf("PaymentURL = %q, want %q", got, want)
	}
}

func TestLinkBuilderParameterOrder(t *testing.T) {
	links, err := NewLinkBuilder("shop@upi", "Toddy Shop")
	if err != nil {
		t.Fatalf("new link builder: %v", err)
	}

	u := links.PaymentURL(120, OrderNote("A B"))
	query := u[strings.Index(u, "?")+1:]
	keys := make([]string, 0, 5)
	for _, pair := range strings.Split(query, "&") {
		keys = append(keys, strings.SplitN(pair, "=", 2)[0])
	}
	want := []string{"pa", "pn", "am", "cu", "tn"}
	if len(keys) != len(want) {
		t.Fatalf("got %d params, want %d", len(keys), len(want))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("param %d = %q, want %q", i, keys[i], k)
		}
	}
}

func TestLinkBuilderSchemeURL(t *testing.T) {
	links, err := NewLinkBuilder("shop@upi", "Toddy Shop")
	if err != nil {
		t.Fatalf("new link builder: %v", err)
	}
	got := links.SchemeURL("gpay://upi/pay", 60, "note")
	if !strings.HasPrefix(got, "gpay://upi/pay?pa=shop%40upi") {
		t.Fatalf("SchemeURL = %q", got)
	}
}

func TestNewLinkBuilderValidation(t *testing.T) {
	if _, err := NewLinkBuilder("", "Shop"); err == nil {
		t.Fatal("expected error for empty payee")
	}
	if _, err := NewLinkBuilder("not-a-vpa", "Shop"); err == nil {
		t.Fatal("expected error for payee without handle")
	}
	if _, err := NewLinkBuilder("shop@upi", "  "); err == nil {
		t.Fatal("expected error for empty merchant name")
	}
}
