// Package presenter is the storefront's terminal edge: it prints the cart,
// "navigates" by printing the hosted payment URL and turns failures into a
// localized message. Amounts are converted from minor units only here.
package presenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jcmexdev/checkout-sessions/internal/session"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/ports"
)

var (
	_ ports.Navigator = (*Console)(nil)
	_ ports.Alerter   = (*Console)(nil)
)

type Console struct {
	out io.Writer
	loc *message.Printer
	tag language.Tag
}

// NewConsole writes to out using the messages of locale ("pt-BR", "en-US").
// Unknown locales fall back to pt-BR.
func NewConsole(out io.Writer, locale string) *Console {
	tag := matchLocale(locale)
	return &Console{out: out, loc: message.NewPrinter(tag), tag: tag}
}

func (c *Console) Navigate(ctx context.Context, redirectURL string) error {
	if _, err := fmt.Fprintln(c.out, c.loc.Sprintf(keyRedirecting, redirectURL)); err != nil {
		return fmt.Errorf("print redirect: %w", err)
	}
	return nil
}

func (c *Console) Alert(ctx context.Context, f *session.Failure) {
	slog.DebugContext(ctx, "alerting user", "kind", f.Kind)
	_, _ = fmt.Fprintln(c.out, c.AlertMessage(f))
}

// AlertMessage is the text shown for a failure. Validation failures name the
// problem; boundary failures all read as "try again".
func (c *Console) AlertMessage(f *session.Failure) string {
	key, ok := alertKeys[f.Kind]
	if !ok {
		key = keyAlertGeneric
	}
	return c.loc.Sprintf(key)
}

// PrintCart lists the items with subtotals and the cart total.
func (c *Console) PrintCart(items []session.CartItem) {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
		_, _ = fmt.Fprintln(c.out, c.loc.Sprintf(keyCartLine,
			it.Quantity, it.Name, c.FormatAmount(it.Subtotal(), it.Currency)))
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(c.out, c.loc.Sprintf(keyCartEmpty))
		return
	}
	_, _ = fmt.Fprintln(c.out, c.loc.Sprintf(keyCartTotal, c.FormatAmount(total, items[0].Currency)))
}

// FormatAmount renders minor units in the currency's standard scale, e.g.
// 1500 BRL as "R$ 15,00" in pt-BR.
func (c *Console) FormatAmount(minor int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%d %s", minor, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	amount := float64(minor) / math.Pow10(scale)
	return c.loc.Sprint(currency.Symbol(unit.Amount(amount)))
}

func matchLocale(locale string) language.Tag {
	matcher := language.NewMatcher(supported)
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()
	for _, s := range supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return supported[0]
}
