package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/app"
	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/infra/adapters/gateway"
	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/infra/httpx"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog/postgres"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog/sqlite"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/config"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/telemetry"
)

const serviceName = "checkout-api"

func main() {
	var cfg config.CheckoutAPI
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
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	credentialConfigured := cfg.GatewaySecretKey != ""
	if !credentialConfigured {
		// Not fatal: every checkout answers CONFIGURATION_ERROR instead.
		slog.Error("PAYMENT_GATEWAY_SECRET_KEY is not set, checkouts will fail")
	}

	conn, err := grpc.NewClient(cfg.PaymentGatewayAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			interceptors.BearerClientInterceptor(cfg.GatewaySecretKey),
			interceptors.PropagateClientInterceptor(),
		),
	)
	if err != nil {
		slog.Error("could not create payment gateway client", "addr", cfg.PaymentGatewayAddr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	var sessionCache cache.Cache
	if cfg.RedisAddr != "" {
		sessionCache = cache.NewRedisCache(cfg.RedisAddr, serviceName)
	} else {
		sessionCache = cache.NewMemoryCache(serviceName)
	}

	attempts, closeAttempts, err := openAttemptLog(cfg.AttemptLogDriver, cfg.AttemptLogDSN)
	if err != nil {
		slog.Error("failed to open attempt log", "driver", cfg.AttemptLogDriver, "error", err)
		os.Exit(1)
	}
	defer closeAttempts()

	svc := app.NewSessionService(
		gateway.NewGRPCSessionGateway(gatewayrpc.NewClient(conn)),
		sessionCache,
		attempts,
		app.Config{
			CredentialConfigured: credentialConfigured,
			Timeout:              cfg.GatewayTimeout,
			IdempotencyTTL:       cfg.IdempotencyTTL,
		},
	)
	router := httpx.NewRouter(httpx.NewHandler(svc, attempts, cfg.SuccessPath, cfg.CancelPath))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("checkout api running", "addr", cfg.HTTPAddr, "payment_gateway", cfg.PaymentGatewayAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("checkout api stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("bye")
}

// openAttemptLog returns the configured attempt log. Driver "none" disables
// it.
func openAttemptLog(driver, dsn string) (attemptlog.Repository, func(), error) {
	switch driver {
	case "none", "":
		return nil, func() {}, nil
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		repo, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "postgres":
		repo, err := postgres.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown attempt log driver %q", driver)
	}
}
