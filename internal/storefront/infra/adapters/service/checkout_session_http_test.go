package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/checkout-sessions/internal/session"
)

func keychainRequest() session.CheckoutSessionRequest {
	return session.CheckoutSessionRequest{
		LineItems: []session.LineItem{
			{Currency: "BRL", ProductName: "Chaveiro Ursinho Fofo", UnitPriceMinorUnits: 1500, Quantity: 1},
		},
		Mode:       session.ModePayment,
		SuccessURL: "https://chaverito.example/sucesso",
		CancelURL:  "https://chaverito.example/",
	}
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitSendsBodyAndHeaders(t *testing.T) {
	var body checkoutBody
	var header http.Header
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"url":"http://pay.local/session/abc"}`))
	}))
	defer srv.Close()

	svc := NewHTTPCheckoutSessionService(srv.URL+"/", time.Second)
	ctx := context.WithValue(context.Background(), constants.ContextKeyIdempotencyKey, "attempt-1")
	res := svc.Submit(ctx, keychainRequest())

	require.True(t, res.IsSuccess(), "failure: %v", res.Failure)
	assert.Equal(t, "http://pay.local/session/abc", res.RedirectURL)
	assert.Equal(t, "/checkout", path)
	assert.Equal(t, "https://chaverito.example", header.Get("Origin"))
	assert.Equal(t, "attempt-1", header.Get(constants.HeaderXIdempotencyKey))
	assert.Equal(t, checkoutBody{
		Items: []checkoutItem{{
			Price: checkoutPrice{
				Currency:            "BRL",
				ProductInfo:         productInfo{Name: "Chaveiro Ursinho Fofo"},
				UnitPriceMinorUnits: 1500,
			},
			Quantity: 1,
		}},
		Mode: "payment",
	}, body)
}

func TestSubmitMapsResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   session.Kind
		msg    string
	}{
		{"ok without url", http.StatusOK, `{}`, session.KindGatewayRejected, ""},
		{"ok with garbage", http.StatusOK, `<html>`, session.KindGatewayRejected, ""},
		{"configuration", http.StatusServiceUnavailable, `{"error":"CONFIGURATION_ERROR","message":"credential missing"}`, session.KindConfiguration, "credential missing"},
		{"rejected", http.StatusUnprocessableEntity, `{"error":"GATEWAY_REJECTED","message":"amount too small"}`, session.KindGatewayRejected, "amount too small"},
		{"transport", http.StatusBadGateway, `{"error":"TRANSPORT_ERROR","message":"gateway unavailable"}`, session.KindTransport, "gateway unavailable"},
		{"validation", http.StatusBadRequest, `{"error":"MIXED_CURRENCY","message":"line 1 uses USD"}`, session.KindMixedCurrency, "line 1 uses USD"},
		{"unknown code", http.StatusInternalServerError, `{"error":"No such price"}`, session.KindGatewayRejected, "No such price"},
		{"unreadable 5xx", http.StatusBadGateway, `upstream down`, session.KindTransport, ""},
		{"unreadable 4xx", http.StatusNotFound, `not found`, session.KindGatewayRejected, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			res := NewHTTPCheckoutSessionService(srv.URL, time.Second).Submit(context.Background(), keychainRequest())

			require.NotNil(t, res.Failure)
			assert.Equal(t, tt.kind, res.Failure.Kind)
			assert.Empty(t, res.RedirectURL)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, res.Failure.Message)
			}
		})
	}
}

func TestSubmitConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewHTTPCheckoutSessionService(url, time.Second).Submit(context.Background(), keychainRequest())

	require.NotNil(t, res.Failure)
	assert.Equal(t, session.KindTransport, res.Failure.Kind)
}

func TestSubmitTimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := NewHTTPCheckoutSessionService(srv.URL, 20*time.Millisecond).Submit(context.Background(), keychainRequest())

	require.NotNil(t, res.Failure)
	assert.Equal(t, session.KindTransport, res.Failure.Kind)
	assert.Equal(t, "checkout api did not respond in time", res.Failure.Message)
}

func TestSubmitCancelledIsTransport(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"url":"http://pay.local/session/abc"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewHTTPCheckoutSessionService(srv.URL, time.Second).Submit(ctx, keychainRequest())

	require.NotNil(t, res.Failure)
	assert.Equal(t, session.KindTransport, res.Failure.Kind)
}
