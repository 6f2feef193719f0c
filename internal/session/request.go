// Package session holds the data model shared by the storefront and the
// checkout API: cart items, the checkout session request handed to the
// payment gateway, and the Success/Failure result of one submission.
//
// Amounts are always integer minor currency units (cents). Conversion to a
// display string happens only at the presentation edge.
package session

import (
	"net/url"
	"strings"

	"golang.org/x/text/currency"
)

// Mode selects how the gateway charges the customer.
type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// ParseMode accepts the wire value of a mode. Empty means payment.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePayment:
		return ModePayment, nil
	case ModeSubscription:
		return ModeSubscription, nil
	default:
		return "", NewFailuref(KindInvalidRequest, "unknown mode %q", s)
	}
}

// UnitDescriptor describes one unit of a product as the presentation layer
// knows it when adding to the cart.
type UnitDescriptor struct {
	Name                string
	UnitPriceMinorUnits int64
	Currency            string
}

type CartItem struct {
	ProductID           string
	Name                string
	UnitPriceMinorUnits int64
	Currency            string
	Quantity            int64
}

// Subtotal is UnitPriceMinorUnits * Quantity.
func (i CartItem) Subtotal() int64 {
	return i.UnitPriceMinorUnits * i.Quantity
}

type LineItem struct {
	Currency            string
	ProductName         string
	UnitPriceMinorUnits int64
	Quantity            int64
}

// CheckoutSessionRequest is built fresh for every submission attempt and is
// never mutated afterwards.
type CheckoutSessionRequest struct {
	LineItems  []LineItem
	Mode       Mode
	SuccessURL string
	CancelURL  string
}

// Currency returns the single currency of the request, or "" when empty.
func (r CheckoutSessionRequest) Currency() string {
	if len(r.LineItems) == 0 {
		return ""
	}
	return r.LineItems[0].Currency
}

// TotalMinorUnits sums price * quantity over all line items.
func (r CheckoutSessionRequest) TotalMinorUnits() int64 {
	var total int64
	for _, li := range r.LineItems {
		total += li.UnitPriceMinorUnits * li.Quantity
	}
	return total
}

// Validate applies the same rules the builder enforces on a cart. The
// checkout API runs it on requests decoded from the wire.
func (r CheckoutSessionRequest) Validate() error {
	if len(r.LineItems) == 0 {
		return NewFailure(KindEmptyCart, "checkout requires at least one line item")
	}
	cur := r.LineItems[0].Currency
	for i, li := range r.LineItems {
		if _, err := NormalizeCurrency(li.Currency); err != nil {
			return err
		}
		if !strings.EqualFold(li.Currency, cur) {
			return NewFailuref(KindMixedCurrency, "line %d uses %s, expected %s", i, li.Currency, cur)
		}
		if li.UnitPriceMinorUnits <= 0 {
			return NewFailuref(KindInvalidPrice, "line %d (%s) has non-positive price %d", i, li.ProductName, li.UnitPriceMinorUnits)
		}
		if li.Quantity < 1 {
			return NewFailuref(KindInvalidQuantity, "line %d (%s) has quantity %d", i, li.ProductName, li.Quantity)
		}
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if err := ValidateRedirectURL(r.SuccessURL); err != nil {
		return err
	}
	return ValidateRedirectURL(r.CancelURL)
}

// NormalizeCurrency upper-cases an ISO-4217 code and rejects unknown ones.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", NewFailuref(KindInvalidCurrency, "unknown currency %q", code)
	}
	return unit.String(), nil
}

// ValidateRedirectURL requires an absolute http(s) URL.
func ValidateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewFailuref(KindInvalidRequest, "redirect url %q must be absolute http(s)", raw)
	}
	return nil
}
