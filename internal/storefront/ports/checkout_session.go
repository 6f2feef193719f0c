package ports

import (
	"context"

	"github.com/jcmexdev/checkout-sessions/internal/session"
)

// CheckoutSessionService submits one checkout session request to the payment
// gateway. Implementations never retry; every error is folded into the
// returned Result.
type CheckoutSessionService interface {
	Submit(ctx context.Context, req session.CheckoutSessionRequest) session.Result
}

// Navigator sends the browser to the hosted payment page. A nil error means
// navigation has been initiated.
type Navigator interface {
	Navigate(ctx context.Context, redirectURL string) error
}

// Alerter shows a failure to the user. It receives the structured kind so the
// presentation layer can render a message per kind.
type Alerter interface {
	Alert(ctx context.Context, failure *session.Failure)
}
