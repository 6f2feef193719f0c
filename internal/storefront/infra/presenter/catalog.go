package presenter

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jcmexdev/checkout-sessions/internal/session"
)

const (
	keyRedirecting         = "checkout.redirecting"
	keyCartLine            = "cart.line"
	keyCartTotal           = "cart.total"
	keyCartEmpty           = "cart.empty"
	keyAlertEmptyCart      = "alert.empty_cart"
	keyAlertMixedCurrency  = "alert.mixed_currency"
	keyAlertInvalidPrice   = "alert.invalid_price"
	keyAlertInvalidQty     = "alert.invalid_quantity"
	keyAlertInvalidRequest = "alert.invalid_request"
	keyAlertGeneric        = "alert.generic"
)

// supported lists the catalog locales, default first.
var supported = []language.Tag{language.BrazilianPortuguese, language.AmericanEnglish}

var alertKeys = map[session.Kind]string{
	session.KindEmptyCart:       keyAlertEmptyCart,
	session.KindMixedCurrency:   keyAlertMixedCurrency,
	session.KindInvalidPrice:    keyAlertInvalidPrice,
	session.KindInvalidQuantity: keyAlertInvalidQty,
	session.KindInvalidCurrency: keyAlertInvalidRequest,
	session.KindInvalidRequest:  keyAlertInvalidRequest,
}

var messages = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		keyRedirecting:         "Redirecionando para o pagamento: %s",
		keyCartLine:            "%d x %s  %s",
		keyCartTotal:           "Total: %s",
		keyCartEmpty:           "Seu carrinho está vazio.",
		keyAlertEmptyCart:      "Seu carrinho está vazio.",
		keyAlertMixedCurrency:  "Os itens do carrinho usam moedas diferentes.",
		keyAlertInvalidPrice:   "Um dos itens tem preço inválido.",
		keyAlertInvalidQty:     "Um dos itens tem quantidade inválida.",
		keyAlertInvalidRequest: "Não foi possível montar o pedido de pagamento.",
		keyAlertGeneric:        "Erro ao redirecionar para o pagamento. Tente novamente.",
	},
	language.AmericanEnglish: {
		keyRedirecting:         "Redirecting to payment: %s",
		keyCartLine:            "%d x %s  %s",
		keyCartTotal:           "Total: %s",
		keyCartEmpty:           "Your cart is empty.",
		keyAlertEmptyCart:      "Your cart is empty.",
		keyAlertMixedCurrency:  "Cart items use different currencies.",
		keyAlertInvalidPrice:   "One of the items has an invalid price.",
		keyAlertInvalidQty:     "One of the items has an invalid quantity.",
		keyAlertInvalidRequest: "The payment request could not be built.",
		keyAlertGeneric:        "Could not redirect to payment. Please try again.",
	},
}

func init() {
	for tag, msgs := range messages {
		for key, msg := range msgs {
			_ = message.SetString(tag, key, msg)
		}
	}
}
