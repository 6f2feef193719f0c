package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/checkout-sessions/internal/session"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/ports"
)

var _ ports.CheckoutSessionService = (*HTTPCheckoutSessionService)(nil)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// HTTPCheckoutSessionService submits checkout requests to the checkout API's
// POST /checkout endpoint.
type HTTPCheckoutSessionService struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

type Option func(*HTTPCheckoutSessionService)

// WithHTTPClient replaces the default client, e.g. in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPCheckoutSessionService) { s.client = c }
}

func NewHTTPCheckoutSessionService(baseURL string, timeout time.Duration, opts ...Option) *HTTPCheckoutSessionService {
	s := &HTTPCheckoutSessionService{
		endpoint: strings.TrimRight(baseURL, "/") + "/checkout",
		client:   &http.Client{},
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type checkoutBody struct {
	Items []checkoutItem `json:"items"`
	Mode  string         `json:"mode"`
}

type checkoutItem struct {
	Price    checkoutPrice `json:"price"`
	Quantity int64         `json:"quantity"`
}

type checkoutPrice struct {
	Currency            string      `json:"currency"`
	ProductInfo         productInfo `json:"productInfo"`
	UnitPriceMinorUnits int64       `json:"unitPriceMinorUnits"`
}

type productInfo struct {
	Name string `json:"name"`
}

type checkoutReply struct {
	URL     string `json:"url"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Submit performs exactly one POST. Any error on the way is returned as a
// Failure; nothing escapes as a panic or a bare error.
func (s *HTTPCheckoutSessionService) Submit(ctx context.Context, req session.CheckoutSessionRequest) session.Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(toBody(req))
	if err != nil {
		return session.Failed(session.KindInvalidRequest, fmt.Sprintf("encode checkout request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return session.Failed(session.KindConfiguration, fmt.Sprintf("checkout endpoint %q: %v", s.endpoint, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if origin := originOf(req.SuccessURL); origin != "" {
		httpReq.Header.Set("Origin", origin)
	}
	if key, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string); key != "" {
		httpReq.Header.Set(constants.HeaderXIdempotencyKey, key)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return session.Failed(session.KindTransport, transportMessage(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return session.Failed(session.KindTransport, transportMessage(ctx, err))
	}

	var reply checkoutReply
	decodeErr := json.Unmarshal(raw, &reply)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil || reply.URL == "" {
			slog.WarnContext(ctx, "checkout api answered without a url", "status", resp.StatusCode)
			return session.Failed(session.KindGatewayRejected, "checkout response has no url")
		}
		return session.Succeeded(reply.URL)
	}

	return session.Result{Failure: failureFromReply(resp.StatusCode, reply, decodeErr)}
}

func toBody(req session.CheckoutSessionRequest) checkoutBody {
	items := make([]checkoutItem, len(req.LineItems))
	for i, li := range req.LineItems {
		items[i] = checkoutItem{
			Price: checkoutPrice{
				Currency:            li.Currency,
				ProductInfo:         productInfo{Name: li.ProductName},
				UnitPriceMinorUnits: li.UnitPriceMinorUnits,
			},
			Quantity: li.Quantity,
		}
	}
	return checkoutBody{Items: items, Mode: string(req.Mode)}
}

// failureFromReply keeps the kind the server reported. Codes it does not
// know become a gateway rejection, as does an unreadable 4xx; an unreadable
// 5xx is treated as the server being unreachable.
func failureFromReply(code int, reply checkoutReply, decodeErr error) *session.Failure {
	msg := reply.Message
	if msg == "" {
		msg = fmt.Sprintf("checkout api answered %d", code)
	}
	if decodeErr != nil || reply.Error == "" {
		if code >= 500 {
			return session.NewFailure(session.KindTransport, msg)
		}
		return session.NewFailure(session.KindGatewayRejected, msg)
	}
	kind := session.ParseKind(reply.Error)
	if kind == session.KindUnknown {
		if reply.Message == "" {
			msg = reply.Error
		}
		kind = session.KindGatewayRejected
	}
	return session.NewFailure(kind, msg)
}

func transportMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "checkout api did not respond in time"
	case errors.Is(ctx.Err(), context.Canceled):
		return "checkout request cancelled"
	default:
		return fmt.Sprintf("checkout api unreachable: %v", err)
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
