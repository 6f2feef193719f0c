package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	gatewayapp "github.com/jcmexdev/checkout-sessions/internal/payment-gateway/app"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/config"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/telemetry"
)

const serviceName = "payment-gateway"

func main() {
	var cfg config.PaymentGateway
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

	if cfg.SecretKey == "" {
		// Every call will be rejected as Unauthenticated.
		slog.Warn("PAYMENT_GATEWAY_SECRET_KEY is not set")
	}

	var sessionCache cache.Cache
	if cfg.RedisAddr != "" {
		sessionCache = cache.NewRedisCache(cfg.RedisAddr, serviceName)
	} else {
		sessionCache = cache.NewMemoryCache(serviceName)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.BearerServerInterceptor(cfg.SecretKey),
			interceptors.TraceServerInterceptor(),
		),
	)
	gatewayrpc.RegisterServer(grpcServer, gatewayapp.NewSessionServer(sessionCache, cfg.PublicBaseURL))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("payment gateway gRPC running", "addr", cfg.GRPCAddr, "public_url", cfg.PublicBaseURL)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(10 * time.Second):
			slog.Warn("graceful stop timeout, forcing stop")
			grpcServer.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("payment gateway stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("bye")
}
