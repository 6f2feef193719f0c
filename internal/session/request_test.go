package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CheckoutSessionRequest {
	return CheckoutSessionRequest{
		LineItems: []LineItem{
			{Currency: "BRL", ProductName: "Chaveiro Stitch", UnitPriceMinorUnits: 1500, Quantity: 2},
			{Currency: "BRL", ProductName: "Chaveiro Toothless", UnitPriceMinorUnits: 990, Quantity: 1},
		},
		Mode:       ModePayment,
		SuccessURL: "https://shop.example/sucesso",
		CancelURL:  "https://shop.example/",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		require.NoError(t, validRequest().Validate())
	})

	cases := []struct {
		name   string
		mutate func(*CheckoutSessionRequest)
		want   error
	}{
		{"no line items", func(r *CheckoutSessionRequest) { r.LineItems = nil }, ErrEmptyCart},
		{"mixed currency", func(r *CheckoutSessionRequest) { r.LineItems[1].Currency = "USD" }, ErrMixedCurrency},
		{"zero price", func(r *CheckoutSessionRequest) { r.LineItems[0].UnitPriceMinorUnits = 0 }, ErrInvalidPrice},
		{"zero quantity", func(r *CheckoutSessionRequest) { r.LineItems[1].Quantity = 0 }, ErrInvalidQuantity},
		{"unknown currency", func(r *CheckoutSessionRequest) {
			r.LineItems[0].Currency = "ZZZ"
			r.LineItems[1].Currency = "ZZZ"
		}, ErrInvalidCurrency},
		{"bad mode", func(r *CheckoutSessionRequest) { r.Mode = "setup" }, ErrInvalidRequest},
		{"relative success url", func(r *CheckoutSessionRequest) { r.SuccessURL = "/sucesso" }, ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTotalMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3990), validRequest().TotalMinorUnits())
	assert.Equal(t, "BRL", validRequest().Currency())
	assert.Equal(t, "", CheckoutSessionRequest{}.Currency())
}

func TestNormalizeCurrency(t *testing.T) {
	got, err := NormalizeCurrency("brl")
	require.NoError(t, err)
	assert.Equal(t, "BRL", got)

	_, err = NormalizeCurrency("reais")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePayment, m)

	m, err = ParseMode("Subscription")
	require.NoError(t, err)
	assert.Equal(t, ModeSubscription, m)
}

func TestFailureMatching(t *testing.T) {
	err := fmt.Errorf("build: %w", NewFailure(KindMixedCurrency, "BRL and USD"))

	assert.ErrorIs(t, err, ErrMixedCurrency)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, KindMixedCurrency, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))

	f := AsFailure(errors.New("connection reset"), KindTransport)
	assert.Equal(t, KindTransport, f.Kind)
	assert.Equal(t, "connection reset", f.Message)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindGatewayRejected, ParseKind("GATEWAY_REJECTED"))
	assert.Equal(t, KindUnknown, ParseKind("invalid_json"))
	assert.True(t, KindEmptyCart.IsValidation())
	assert.False(t, KindTransport.IsValidation())
}

func TestResult(t *testing.T) {
	ok := Succeeded("https://gateway/session/abc")
	assert.True(t, ok.IsSuccess())
	assert.NoError(t, ok.Err())

	bad := Failed(KindTransport, "connection reset")
	assert.False(t, bad.IsSuccess())
	assert.ErrorIs(t, bad.Err(), ErrTransport)

	assert.False(t, Result{}.IsSuccess())
}
