// Command storefront fills a cart from flags and runs one checkout attempt
// against the checkout API, printing the hosted payment URL.
//
//	storefront -item 'k1:Chaveiro Ursinho Fofo:1500:BRL:1' -item 'k2:Chaveiro Gatinho:990:BRL:2'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/config"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/telemetry"
	"github.com/jcmexdev/checkout-sessions/internal/session"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/cart"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/checkout"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/infra/adapters/service"
	"github.com/jcmexdev/checkout-sessions/internal/storefront/infra/presenter"
)

const serviceName = "storefront"

// itemFlags collects repeated -item values of the form
// productID:name:unitPriceMinorUnits:currency:quantity.
type itemFlags []string

func (f *itemFlags) String() string     { return strings.Join(*f, ",") }
func (f *itemFlags) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var items itemFlags
	flag.Var(&items, "item", "cart item as id:name:priceMinorUnits:currency:quantity (repeatable)")
	mode := flag.String("mode", "payment", "checkout mode: payment or subscription")
	flag.Parse()

	var cfg config.Storefront
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		SampleRatio: cfg.SampleRatio,
	})
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdown(context.Background()) }()

	console := presenter.NewConsole(os.Stdout, cfg.Locale)

	store := cart.NewStore()
	for _, raw := range items {
		if err := addItem(store, raw); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	checkoutMode, err := session.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	console.PrintCart(store.Items())

	ctrl := checkout.NewController(
		store,
		service.NewHTTPCheckoutSessionService(cfg.CheckoutAPIURL, cfg.SubmitTimeout),
		console,
		console,
		checkout.Config{Origin: cfg.Origin, Mode: checkoutMode},
	)

	// Ctrl-C while waiting for the gateway abandons the attempt.
	go func() {
		<-ctx.Done()
		if ctrl.Abandon() {
			slog.Warn("checkout abandoned by user")
		}
	}()

	out, err := ctrl.Submit(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, checkout.ErrStaleAttempt):
		os.Exit(130)
	case err != nil:
		slog.Error("checkout not submitted", "error", err)
		os.Exit(1)
	case out.Failure != nil:
		os.Exit(1)
	}
}

func addItem(store *cart.Store, raw string) error {
	parts := strings.Split(raw, ":")
	if len(parts) != 5 {
		return fmt.Errorf("item %q: want id:name:priceMinorUnits:currency:quantity", raw)
	}
	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("item %q: price: %w", raw, err)
	}
	qty, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return fmt.Errorf("item %q: quantity: %w", raw, err)
	}
	return store.Add(parts[0], session.UnitDescriptor{
		Name:                parts[1],
		UnitPriceMinorUnits: price,
		Currency:            parts[3],
	}, qty)
}
