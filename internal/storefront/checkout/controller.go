// Package checkout turns the storefront cart into a hosted checkout session:
// Build maps the cart to a gateway request and Controller drives one
// submission at a time through Idle, Submitting, Redirecting and Failed.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/checkout-sessions/internal/session"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/cart"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/ports"
)

// State of the checkout flow as the UI sees it.
type State string

const (
	StateIdle        State = "IDLE"
	StateSubmitting  State = "SUBMITTING"
	StateRedirecting State = "REDIRECTING"
	StateFailed      State = "FAILED"
)

var (
	// ErrSubmitInFlight is returned when Submit is called outside Idle. No
	// request is sent.
	ErrSubmitInFlight = errors.New("checkout: a submission is already in progress")

	// ErrStaleAttempt is returned when the gateway answered an attempt that
	// was abandoned in the meantime. The answer is discarded.
	ErrStaleAttempt = errors.New("checkout: response belongs to an abandoned attempt")
)

// Config holds the values the controller needs to build requests.
type Config struct {
	// Origin is the storefront origin, e.g. "https://chaverito.example".
	// Redirect targets are derived from it instead of being hardcoded.
	Origin      string
	SuccessPath string
	CancelPath  string
	Mode        session.Mode
}

// Outcome describes how one attempt ended.
type Outcome struct {
	AttemptID   uint64
	State       State
	RedirectURL string
	Failure     *session.Failure
}

type Controller struct {
	cart    *cart.Store
	service ports.CheckoutSessionService
	nav     ports.Navigator
	alerter ports.Alerter
	cfg     Config

	mu          sync.Mutex
	state       State
	attempts    uint64 // monotonic attempt counter
	current     uint64 // attempt allowed to apply its result, 0 when none
	cancel      context.CancelFunc
	lastFailure *session.Failure
}

func NewController(store *cart.Store, service ports.CheckoutSessionService, nav ports.Navigator, alerter ports.Alerter, cfg Config) *Controller {
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "/sucesso"
	}
	if cfg.CancelPath == "" {
		cfg.CancelPath = "/"
	}
	return &Controller{
		cart:    store,
		service: service,
		nav:     nav,
		alerter: alerter,
		cfg:     cfg,
		state:   StateIdle,
	}
}

// Submit runs one checkout attempt. It blocks while the gateway call is in
// flight. Failures are reported in the Outcome; the returned error is only
// ErrSubmitInFlight or ErrStaleAttempt.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		st := c.state
		c.mu.Unlock()
		slog.WarnContext(ctx, "checkout submit ignored", "state", st)
		return Outcome{State: st}, ErrSubmitInFlight
	}
	c.attempts++
	id := c.attempts
	c.current = id
	c.state = StateSubmitting
	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	items := c.cart.Snapshot()
	c.mu.Unlock()
	defer cancel()

	req, err := Build(items, c.cfg.Mode, c.redirectURL(c.cfg.SuccessPath), c.redirectURL(c.cfg.CancelPath))
	if err != nil {
		return c.fail(ctx, id, session.AsFailure(err, session.KindInvalidRequest))
	}

	idempotencyKey := uuid.NewString()
	attemptCtx = context.WithValue(attemptCtx, constants.ContextKeyIdempotencyKey, idempotencyKey)

	slog.InfoContext(ctx, "submitting checkout",
		"attempt_id", id,
		"idempotency_key", idempotencyKey,
		"line_items", len(req.LineItems),
		"currency", req.Currency(),
		"total_minor_units", req.TotalMinorUnits(),
	)
	res := c.service.Submit(attemptCtx, req)

	c.mu.Lock()
	if c.current != id {
		c.mu.Unlock()
		slog.WarnContext(ctx, "discarding checkout response for abandoned attempt", "attempt_id", id)
		return Outcome{AttemptID: id, State: c.State()}, ErrStaleAttempt
	}
	if !res.IsSuccess() {
		c.mu.Unlock()
		f := res.Failure
		if f == nil {
			f = session.NewFailure(session.KindGatewayRejected, "gateway returned no redirect url")
		}
		return c.fail(ctx, id, f)
	}
	c.state = StateRedirecting
	c.mu.Unlock()

	if err := c.nav.Navigate(ctx, res.RedirectURL); err != nil {
		return c.fail(ctx, id, session.NewFailuref(session.KindTransport, "navigation to payment page failed: %v", err))
	}

	// Items are only dropped once the browser is on its way.
	c.cart.Clear()
	slog.InfoContext(ctx, "redirecting to hosted checkout", "attempt_id", id)

	return Outcome{AttemptID: id, State: StateRedirecting, RedirectURL: res.RedirectURL}, nil
}

// Abandon is called when the user leaves the flow while a submission is in
// flight. The call is cancelled, the attempt is recorded as a transport
// failure and the controller returns to Idle. It reports whether an attempt
// was abandoned.
func (c *Controller) Abandon() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSubmitting {
		return false
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.current = 0
	c.lastFailure = session.NewFailure(session.KindTransport, "checkout abandoned before the gateway responded")
	c.state = StateIdle
	return true
}

// Reset returns a Redirecting controller to Idle, e.g. when the user comes
// back through the cancel URL.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRedirecting {
		return false
	}
	c.current = 0
	c.state = StateIdle
	return true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastFailure is the failure of the most recent failed attempt, if any.
func (c *Controller) LastFailure() *session.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

// fail moves the attempt through Failed, alerts the user and re-enables
// submission. The cart is never touched here.
func (c *Controller) fail(ctx context.Context, id uint64, f *session.Failure) (Outcome, error) {
	c.mu.Lock()
	if c.current != id {
		c.mu.Unlock()
		return Outcome{AttemptID: id, State: c.State()}, ErrStaleAttempt
	}
	c.state = StateFailed
	c.lastFailure = f
	c.mu.Unlock()

	if f.Kind.IsValidation() {
		slog.InfoContext(ctx, "checkout rejected by validation", "attempt_id", id, "kind", f.Kind, "message", f.Message)
	} else {
		slog.ErrorContext(ctx, "checkout failed", "attempt_id", id, "kind", f.Kind, "message", f.Message)
	}
	c.alerter.Alert(ctx, f)

	c.mu.Lock()
	if c.current == id && c.state == StateFailed {
		c.state = StateIdle
		c.current = 0
	}
	c.mu.Unlock()

	return Outcome{AttemptID: id, State: StateFailed, Failure: f}, nil
}

func (c *Controller) redirectURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.cfg.Origin, "/") + path
}
