// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Telemetry is shared by every process.
type Telemetry struct {
	LogLevel     string  `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string  `env:"APP_ENV" envDefault:"local"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`
}

// CheckoutAPI configures the POST /checkout service.
type CheckoutAPI struct {
	Telemetry

	HTTPAddr           string `env:"HTTP_ADDR" envDefault:":8080"`
	PaymentGatewayAddr string `env:"PAYMENT_GATEWAY_ADDR" envDefault:"localhost:9091"`
	// GatewaySecretKey is read once at start. Absence is reported to callers
	// as a configuration failure, never as a crash.
	GatewaySecretKey string        `env:"PAYMENT_GATEWAY_SECRET_KEY"`
	GatewayTimeout   time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" envDefault:"10s"`
	SuccessPath      string        `env:"CHECKOUT_SUCCESS_PATH" envDefault:"/sucesso"`
	CancelPath       string        `env:"CHECKOUT_CANCEL_PATH" envDefault:"/"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	IdempotencyTTL   time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	AttemptLogDriver string        `env:"ATTEMPT_LOG_DRIVER" envDefault:"sqlite"`
	AttemptLogDSN    string        `env:"ATTEMPT_LOG_DSN" envDefault:"./data/checkout_attempts.db"`
}

// PaymentGateway configures the local hosted-session gateway.
type PaymentGateway struct {
	Telemetry

	GRPCAddr      string `env:"GRPC_ADDR" envDefault:":9091"`
	SecretKey     string `env:"PAYMENT_GATEWAY_SECRET_KEY"`
	PublicBaseURL string `env:"PAYMENT_GATEWAY_PUBLIC_URL" envDefault:"http://localhost:9095"`
	RedisAddr     string `env:"REDIS_ADDR"`
}

// Storefront configures the client side of the checkout flow.
type Storefront struct {
	Telemetry

	Origin         string        `env:"STOREFRONT_ORIGIN" envDefault:"http://localhost:3000"`
	CheckoutAPIURL string        `env:"CHECKOUT_API_URL" envDefault:"http://localhost:8080"`
	SubmitTimeout  time.Duration `env:"CHECKOUT_SUBMIT_TIMEOUT" envDefault:"15s"`
	Locale         string        `env:"STOREFRONT_LOCALE" envDefault:"pt-BR"`
}
