package checkout

import (
	"github.com/jcmexdev/checkout-sessions/internal/session"
)

// Build converts a cart into a checkout session request. It is pure: the
// same items, mode and URLs always produce an identical request. Taxes and
// discounts are expected to be folded into the unit price already.
func Build(items []session.CartItem, mode session.Mode, successURL, cancelURL string) (session.CheckoutSessionRequest, error) {
	if len(items) == 0 {
		return session.CheckoutSessionRequest{}, session.NewFailure(session.KindEmptyCart, "cart has no items")
	}

	cur := items[0].Currency
	for _, it := range items[1:] {
		if it.Currency != cur {
			return session.CheckoutSessionRequest{}, session.NewFailuref(session.KindMixedCurrency,
				"cart holds %s and %s", cur, it.Currency)
		}
	}

	lines := make([]session.LineItem, len(items))
	for i, it := range items {
		if it.UnitPriceMinorUnits <= 0 {
			return session.CheckoutSessionRequest{}, session.NewFailuref(session.KindInvalidPrice,
				"%s has price %d", it.ProductID, it.UnitPriceMinorUnits)
		}
		if it.Quantity < 1 {
			return session.CheckoutSessionRequest{}, session.NewFailuref(session.KindInvalidQuantity,
				"%s has quantity %d", it.ProductID, it.Quantity)
		}
		lines[i] = session.LineItem{
			Currency:            it.Currency,
			ProductName:         it.Name,
			UnitPriceMinorUnits: it.UnitPriceMinorUnits,
			Quantity:            it.Quantity,
		}
	}

	m, err := session.ParseMode(string(mode))
	if err != nil {
		return session.CheckoutSessionRequest{}, err
	}
	if err := session.ValidateRedirectURL(successURL); err != nil {
		return session.CheckoutSessionRequest{}, err
	}
	if err := session.ValidateRedirectURL(cancelURL); err != nil {
		return session.CheckoutSessionRequest{}, err
	}

	return session.CheckoutSessionRequest{
		LineItems:  lines,
		Mode:       m,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}, nil
}
