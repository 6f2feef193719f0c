// Package gatewayrpc is the gRPC contract between the checkout API and the
// hosted payment gateway. Messages travel as google.protobuf.Struct so both
// sides share one schema without generated stubs:
//
//	CreateSession  {mode, success_url, cancel_url, line_items: [{currency, product_name, unit_amount, quantity}]}
//	ExpireSession  {id}
//	GetSession     {id}
//	-> Session     {id, url, status, currency, amount_total}
package gatewayrpc

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gateway.v1.SessionGateway"

const (
	FullMethodCreateSession = "/" + ServiceName + "/CreateSession"
	FullMethodExpireSession = "/" + ServiceName + "/ExpireSession"
	FullMethodGetSession    = "/" + ServiceName + "/GetSession"
)

// Session status values.
const (
	StatusOpen     = "open"
	StatusExpired  = "expired"
	StatusComplete = "complete"
)

type LineItem struct {
	Currency    string
	ProductName string
	UnitAmount  int64
	Quantity    int64
}

type CreateSessionInput struct {
	Mode       string
	SuccessURL string
	CancelURL  string
	LineItems  []LineItem
}

type Session struct {
	ID          string
	URL         string
	Status      string
	Currency    string
	AmountTotal int64
}

// Server is implemented by the payment gateway.
type Server interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
	ExpireSession(ctx context.Context, id string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
}

func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: createSessionHandler},
		{MethodName: "ExpireSession", Handler: expireSessionHandler},
		{MethodName: "GetSession", Handler: getSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gateway/v1/gateway.proto",
}

func createSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handle(srv, ctx, dec, interceptor, FullMethodCreateSession, func(ctx context.Context, in *structpb.Struct) (Session, error) {
		input, err := DecodeCreateSession(in)
		if err != nil {
			return Session{}, status.Error(codes.InvalidArgument, err.Error())
		}
		return srv.(Server).CreateSession(ctx, input)
	})
}

func expireSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handle(srv, ctx, dec, interceptor, FullMethodExpireSession, func(ctx context.Context, in *structpb.Struct) (Session, error) {
		return srv.(Server).ExpireSession(ctx, stringField(in, "id"))
	})
}

func getSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return handle(srv, ctx, dec, interceptor, FullMethodGetSession, func(ctx context.Context, in *structpb.Struct) (Session, error) {
		return srv.(Server).GetSession(ctx, stringField(in, "id"))
	})
}

func handle(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	fullMethod string,
	call func(context.Context, *structpb.Struct) (Session, error),
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	invoke := func(ctx context.Context, req any) (any, error) {
		out, err := call(ctx, req.(*structpb.Struct))
		if err != nil {
			return nil, err
		}
		return EncodeSession(out)
	}
	if interceptor == nil {
		return invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	return interceptor(ctx, in, info, invoke)
}

// Client calls the payment gateway.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateSession(ctx context.Context, in CreateSessionInput, opts ...grpc.CallOption) (Session, error) {
	req, err := EncodeCreateSession(in)
	if err != nil {
		return Session{}, err
	}
	return c.invoke(ctx, FullMethodCreateSession, req, opts...)
}

func (c *Client) ExpireSession(ctx context.Context, id string, opts ...grpc.CallOption) (Session, error) {
	return c.invoke(ctx, FullMethodExpireSession, idRequest(id), opts...)
}

func (c *Client) GetSession(ctx context.Context, id string, opts ...grpc.CallOption) (Session, error) {
	return c.invoke(ctx, FullMethodGetSession, idRequest(id), opts...)
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (Session, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return Session{}, err
	}
	return DecodeSession(out)
}

func idRequest(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"id": structpb.NewStringValue(id)}}
}

func EncodeCreateSession(in CreateSessionInput) (*structpb.Struct, error) {
	lines := make([]any, len(in.LineItems))
	for i, li := range in.LineItems {
		lines[i] = map[string]any{
			"currency":     li.Currency,
			"product_name": li.ProductName,
			"unit_amount":  li.UnitAmount,
			"quantity":     li.Quantity,
		}
	}
	s, err := structpb.NewStruct(map[string]any{
		"mode":        in.Mode,
		"success_url": in.SuccessURL,
		"cancel_url":  in.CancelURL,
		"line_items":  lines,
	})
	if err != nil {
		return nil, fmt.Errorf("gatewayrpc: encode create session: %w", err)
	}
	return s, nil
}

func DecodeCreateSession(s *structpb.Struct) (CreateSessionInput, error) {
	in := CreateSessionInput{
		Mode:       stringField(s, "mode"),
		SuccessURL: stringField(s, "success_url"),
		CancelURL:  stringField(s, "cancel_url"),
	}
	for i, v := range s.GetFields()["line_items"].GetListValue().GetValues() {
		ls := v.GetStructValue()
		if ls == nil {
			return CreateSessionInput{}, fmt.Errorf("line_items[%d] is not an object", i)
		}
		amount, err := intField(ls, "unit_amount")
		if err != nil {
			return CreateSessionInput{}, fmt.Errorf("line_items[%d]: %w", i, err)
		}
		qty, err := intField(ls, "quantity")
		if err != nil {
			return CreateSessionInput{}, fmt.Errorf("line_items[%d]: %w", i, err)
		}
		in.LineItems = append(in.LineItems, LineItem{
			Currency:    stringField(ls, "currency"),
			ProductName: stringField(ls, "product_name"),
			UnitAmount:  amount,
			Quantity:    qty,
		})
	}
	return in, nil
}

func EncodeSession(s Session) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":           s.ID,
		"url":          s.URL,
		"status":       s.Status,
		"currency":     s.Currency,
		"amount_total": s.AmountTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("gatewayrpc: encode session: %w", err)
	}
	return out, nil
}

func DecodeSession(s *structpb.Struct) (Session, error) {
	total, err := intField(s, "amount_total")
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:          stringField(s, "id"),
		URL:         stringField(s, "url"),
		Status:      stringField(s, "status"),
		Currency:    stringField(s, "currency"),
		AmountTotal: total,
	}, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// maxExactInt is the largest integer a protobuf number holds without loss.
const maxExactInt = 1 << 53

func intField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	f := v.GetNumberValue()
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, fmt.Errorf("%s must be an integer, got %v", name, f)
	}
	return int64(f), nil
}
