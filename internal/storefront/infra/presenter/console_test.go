package presenter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-sessions/internal/session"
)

func TestNavigatePrintsURL(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "pt-BR")

	require.NoError(t, c.Navigate(context.Background(), "http://pay.local/session/abc"))
	assert.Equal(t, "Redirecionando para o pagamento: http://pay.local/session/abc\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestNavigateReportsWriteFailure(t *testing.T) {
	c := NewConsole(brokenWriter{}, "en-US")
	assert.ErrorContains(t, c.Navigate(context.Background(), "http://pay.local/session/abc"), "closed pipe")
}

func TestAlertMessagePerKind(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, "en-US")

	assert.Equal(t, "Your cart is empty.", c.AlertMessage(session.NewFailure(session.KindEmptyCart, "")))
	assert.Equal(t, "Cart items use different currencies.", c.AlertMessage(session.NewFailure(session.KindMixedCurrency, "")))

	generic := "Could not redirect to payment. Please try again."
	for _, k := range []session.Kind{session.KindTransport, session.KindGatewayRejected, session.KindConfiguration} {
		assert.Equal(t, generic, c.AlertMessage(session.NewFailure(k, "internal detail")), k)
	}
}

func TestUnknownLocaleFallsBackToPortuguese(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "fr-FR")
	c.Alert(context.Background(), session.NewFailure(session.KindTransport, "timeout"))
	assert.Equal(t, "Erro ao redirecionar para o pagamento. Tente novamente.\n", buf.String())
}

func TestFormatAmount(t *testing.T) {
	en := NewConsole(&bytes.Buffer{}, "en-US")
	assert.Contains(t, en.FormatAmount(1500, "USD"), "15.00")
	assert.NotContains(t, en.FormatAmount(1500, "JPY"), ".00")
	assert.Equal(t, "12 XYZ", en.FormatAmount(12, "XYZ"))

	pt := NewConsole(&bytes.Buffer{}, "pt-BR")
	assert.Contains(t, pt.FormatAmount(1500, "BRL"), "R$")
}

func TestPrintCart(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "en-US")

	c.PrintCart([]session.CartItem{
		{ProductID: "k1", Name: "Keychain", UnitPriceMinorUnits: 1000, Currency: "USD", Quantity: 2},
		{ProductID: "k2", Name: "Sticker", UnitPriceMinorUnits: 500, Currency: "USD", Quantity: 1},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "2 x Keychain")
	assert.Contains(t, lines[0], "20.00")
	assert.Contains(t, lines[2], "Total:")
	assert.Contains(t, lines[2], "25.00")

	buf.Reset()
	c.PrintCart(nil)
	assert.Equal(t, "Your cart is empty.\n", buf.String())
}
