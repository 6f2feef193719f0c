package session

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable failure code. It travels unchanged from the
// cart store to the presentation layer and across the HTTP boundary.
type Kind string

const (
	KindUnknown Kind = "UNKNOWN"

	// Local validation, recovered by keeping the user in the cart.
	KindEmptyCart       Kind = "EMPTY_CART"
	KindMixedCurrency   Kind = "MIXED_CURRENCY"
	KindInvalidPrice    Kind = "INVALID_PRICE"
	KindInvalidQuantity Kind = "INVALID_QUANTITY"
	KindInvalidCurrency Kind = "INVALID_CURRENCY"
	KindInvalidRequest  Kind = "INVALID_REQUEST"

	// Boundary failures.
	KindConfiguration   Kind = "CONFIGURATION_ERROR"
	KindGatewayRejected Kind = "GATEWAY_REJECTED"
	KindTransport       Kind = "TRANSPORT_ERROR"
)

// IsValidation reports whether k is produced before any network I/O.
func (k Kind) IsValidation() bool {
	switch k {
	case KindEmptyCart, KindMixedCurrency, KindInvalidPrice, KindInvalidQuantity,
		KindInvalidCurrency, KindInvalidRequest:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// ParseKind maps a wire code back to a Kind. Unknown codes yield KindUnknown.
func ParseKind(code string) Kind {
	k := Kind(code)
	switch k {
	case KindEmptyCart, KindMixedCurrency, KindInvalidPrice, KindInvalidQuantity, KindInvalidCurrency,
		KindInvalidRequest, KindConfiguration, KindGatewayRejected, KindTransport:
		return k
	default:
		return KindUnknown
	}
}

// Failure is the failure half of a checkout Result and the error type
// returned by every validation in the pipeline.
type Failure struct {
	Kind    Kind
	Message string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Is matches any Failure with the same Kind, so sentinels work with errors.Is.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind
}

// Sentinels for errors.Is.
var (
	ErrEmptyCart       = &Failure{Kind: KindEmptyCart}
	ErrMixedCurrency   = &Failure{Kind: KindMixedCurrency}
	ErrInvalidPrice    = &Failure{Kind: KindInvalidPrice}
	ErrInvalidQuantity = &Failure{Kind: KindInvalidQuantity}
	ErrInvalidCurrency = &Failure{Kind: KindInvalidCurrency}
	ErrInvalidRequest  = &Failure{Kind: KindInvalidRequest}
	ErrConfiguration   = &Failure{Kind: KindConfiguration}
	ErrGatewayRejected = &Failure{Kind: KindGatewayRejected}
	ErrTransport       = &Failure{Kind: KindTransport}
)

func NewFailure(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func NewFailuref(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from any error.
// Returns KindUnknown if the error is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// AsFailure converts err into a Failure, classifying foreign errors as fallback.
func AsFailure(err error, fallback Kind) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: fallback, Message: err.Error()}
}
