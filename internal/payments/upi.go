package payments

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// LinkBuilder renders UPI deep links for the shop's payee address. Amounts
// are whole rupees; UPI apps reject fractional strings from some issuers, so
// totals are always integral.
type LinkBuilder struct {
	payeeAddress string
	merchantName string
}

// NewLinkBuilder validates the payee configuration.
func NewLinkBuilder(payeeAddress, merchantName string) (*LinkBuilder, error) {
	payeeAddress = strings.TrimSpace(payeeAddress)
	merchantName = strings.TrimSpace(merchantName)
	if payeeAddress == "" || !strings.Contains(payeeAddress, "@") {
		return nil, errors.New("payments: a upi payee address is required")
	}
	if merchantName == "" {
		return nil, errors.New("payments: merchant name is required")
	}
	return &LinkBuilder{payeeAddress: payeeAddress, merchantName: merchantName}, nil
}

// PaymentURL builds the generic upi://pay link. Parameter order is fixed
// (pa, pn, am, cu, tn) because some UPI apps parse positionally.
func (b *LinkBuilder) PaymentURL(amount int, note string) string {
	return "upi://pay?" + b.query(amount, note)
}

// SchemeURL builds a deep link for an app-specific scheme prefix such as
// "gpay://upi/pay" carrying the same parameters as the generic link.
func (b *LinkBuilder) SchemeURL(scheme string, amount int, note string) string {
	return scheme + "?" + b.query(amount, note)
}

func (b *LinkBuilder) query(amount int, note string) string {
	return fmt.Sprintf("pa=%s&pn=%s&am=%d&cu=INR&tn=%s",
		escape(b.payeeAddress), escape(b.merchantName), amount, escape(note))
}

// OrderNote is the transaction note attached to a customer's payment.
func OrderNote(customerName string) string {
	return "Toddy Order - " + strings.TrimSpace(customerName)
}

// escape matches JavaScript's encodeURIComponent: spaces become %20, not +.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
