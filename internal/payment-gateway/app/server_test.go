package app

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

const testSecret = "sk_test_123"

func startGateway(t *testing.T, clientSecret string) *gatewayrpc.Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.BearerServerInterceptor(testSecret),
		interceptors.TraceServerInterceptor(),
	))
	gatewayrpc.RegisterServer(srv, NewSessionServer(cache.NewMemoryCache("payment-gateway"), "http://pay.local/"))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.BearerClientInterceptor(clientSecret),
			interceptors.PropagateClientInterceptor(),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return gatewayrpc.NewClient(conn)
}

func validInput() gatewayrpc.CreateSessionInput {
	return gatewayrpc.CreateSessionInput{
		Mode:       "payment",
		SuccessURL: "https://chaverito.example/sucesso",
		CancelURL:  "https://chaverito.example/",
		LineItems: []gatewayrpc.LineItem{
			{Currency: "BRL", ProductName: "Chaveiro A", UnitAmount: 1000, Quantity: 2},
			{Currency: "BRL", ProductName: "Chaveiro B", UnitAmount: 500, Quantity: 1},
		},
	}
}

func withIdempotencyKey(key string) context.Context {
	return context.WithValue(context.Background(), constants.ContextKeyIdempotencyKey, key)
}

func TestCreateSession(t *testing.T) {
	client := startGateway(t, testSecret)

	sess, err := client.CreateSession(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "http://pay.local/session/"+sess.ID, sess.URL)
	assert.Equal(t, gatewayrpc.StatusOpen, sess.Status)
	assert.Equal(t, "BRL", sess.Currency)
	assert.Equal(t, int64(2500), sess.AmountTotal)
}

func TestCreateSessionReplaysIdempotencyKey(t *testing.T) {
	client := startGateway(t, testSecret)

	first, err := client.CreateSession(withIdempotencyKey("attempt-1"), validInput())
	require.NoError(t, err)
	again, err := client.CreateSession(withIdempotencyKey("attempt-1"), validInput())
	require.NoError(t, err)
	other, err := client.CreateSession(withIdempotencyKey("attempt-2"), validInput())
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateSessionAfterExpiryIssuesNewSession(t *testing.T) {
	client := startGateway(t, testSecret)
	ctx := withIdempotencyKey("attempt-expired")

	first, err := client.CreateSession(ctx, validInput())
	require.NoError(t, err)
	_, err = client.ExpireSession(context.Background(), first.ID)
	require.NoError(t, err)

	second, err := client.CreateSession(ctx, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, gatewayrpc.StatusOpen, second.Status)

	third, err := client.CreateSession(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, second, third, "the key now replays the new open session")
}

func TestCreateSessionRejectsInvalidInput(t *testing.T) {
	client := startGateway(t, testSecret)

	tests := []struct {
		name   string
		mutate func(*gatewayrpc.CreateSessionInput)
	}{
		{"no line items", func(in *gatewayrpc.CreateSessionInput) { in.LineItems = nil }},
		{"zero amount", func(in *gatewayrpc.CreateSessionInput) { in.LineItems[0].UnitAmount = 0 }},
		{"zero quantity", func(in *gatewayrpc.CreateSessionInput) { in.LineItems[1].Quantity = 0 }},
		{"unknown currency", func(in *gatewayrpc.CreateSessionInput) { in.LineItems[0].Currency = "XYZ" }},
		{"mixed currency", func(in *gatewayrpc.CreateSessionInput) { in.LineItems[1].Currency = "USD" }},
		{"blank name", func(in *gatewayrpc.CreateSessionInput) { in.LineItems[0].ProductName = " " }},
		{"bad mode", func(in *gatewayrpc.CreateSessionInput) { in.Mode = "setup" }},
		{"relative url", func(in *gatewayrpc.CreateSessionInput) { in.SuccessURL = "/sucesso" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := client.CreateSession(context.Background(), in)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestCreateSessionRequiresCredential(t *testing.T) {
	client := startGateway(t, "wrong")

	_, err := client.CreateSession(context.Background(), validInput())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestExpireAndGetSession(t *testing.T) {
	client := startGateway(t, testSecret)
	sess, err := client.CreateSession(context.Background(), validInput())
	require.NoError(t, err)

	expired, err := client.ExpireSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, gatewayrpc.StatusExpired, expired.Status)

	// Expiring twice is a no-op.
	expired, err = client.ExpireSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, gatewayrpc.StatusExpired, expired.Status)

	got, err := client.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, expired, got)

	_, err = client.GetSession(context.Background(), "cs_missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = client.ExpireSession(context.Background(), "cs_missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestExpireCompletedSessionFails(t *testing.T) {
	s := NewSessionServer(cache.NewMemoryCache("payment-gateway"), "http://pay.local")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
	sess, err := s.CreateSession(ctx, validInput())
	require.NoError(t, err)
	s.sessions[sess.ID].Status = gatewayrpc.StatusComplete

	_, err = s.ExpireSession(ctx, sess.ID)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
