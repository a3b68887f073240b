package rpc

import (
	"context"
	"net"
	"strings"
	"time"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"
	"ledger_gateway/internal/gateway"
	"ledger_gateway/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultDeadline bounds calls that arrive without a deadline.
const DefaultDeadline = 2 * time.Minute

// RequestIDHeader carries the call id in request and response metadata.
const RequestIDHeader = "x-request-id"

// Call states, logged as the call moves through the server.
const (
	StateReceived   = "RECEIVED"
	StateValidated  = "VALIDATED"
	StateDispatched = "DISPATCHED"
	StateCompleted  = "COMPLETED"
	StateFailed     = "FAILED"
)

type Options struct {
	JWTSecret       string        // Verify bearer tokens with this secret
	RequireAuth     bool          // Reject calls without a valid token
	DefaultDeadline time.Duration // DefaultDeadline when zero
}

// NewServer returns a grpc.Server with banking.BankingService registered.
func NewServer(svc *gateway.Service, opts Options) *grpc.Server {
	if opts.DefaultDeadline <= 0 {
		opts.DefaultDeadline = DefaultDeadline
	}
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		callStateUnaryInterceptor(),
		defaultDeadlineUnaryInterceptor(opts.DefaultDeadline),
	}
	if opts.RequireAuth {
		unaryInterceptors = append(unaryInterceptors, authUnaryInterceptor(opts.JWTSecret))
	}
	unaryInterceptors = append(unaryInterceptors, validationUnaryInterceptor())

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryInterceptors...))
	srv.RegisterService(&ServiceDesc, NewBankingServer(svc))
	return srv
}

// Serve listens on addr until srv is stopped.
func Serve(srv *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logrus.WithField("addr", addr).Info("gRPC server listening")
	return srv.Serve(lis)
}

func operationOf(fullMethod string) string {
	return fullMethod[strings.LastIndex(fullMethod, "/")+1:]
}

type callKey struct{}

// callEntry returns the logger of the current call.
func callEntry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(callKey{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// callStateUnaryInterceptor tags the call with a request id and logs every state change.
func callStateUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				id = v[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		entry := logrus.WithFields(logrus.Fields{
			"request_id": id,
			"operation":  operationOf(info.FullMethod),
		})
		entry.WithField("state", StateReceived).Debug("gRPC call")
		start := time.Now()

		resp, err := handler(context.WithValue(ctx, callKey{}, entry), req)
		if err != nil {
			st := status.Convert(Status(err))
			entry.WithFields(logrus.Fields{
				"state":    StateFailed,
				"code":     st.Code().String(),
				"error":    st.Message(),
				"duration": time.Since(start).String(),
			}).Warn("gRPC call")
			return nil, st.Err()
		}
		entry.WithFields(logrus.Fields{
			"state":    StateCompleted,
			"duration": time.Since(start).String(),
		}).Info("gRPC call")
		return resp, nil
	}
}

func defaultDeadlineUnaryInterceptor(defaultTimeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
			defer cancel()
		}
		return handler(ctx, req)
	}
}

// authUnaryInterceptor requires a valid bearer token. Callers without the admin
// role may only act on their own account.
func authUnaryInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if v := md.Get("authorization"); len(v) > 0 {
			header = v[0]
		}
		token, ok := utils.BearerToken(header)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization metadata")
		}
		claims, err := utils.ParseJWT(token, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		entry := callEntry(ctx).WithField("user_id", claims.UserID)
		if r, ok := req.(gateway.Request); ok {
			if err := authorize(claims, r); err != nil {
				entry.WithError(err).Warn("gRPC call denied")
				return nil, err
			}
		}
		entry.Debug("gRPC caller authenticated")
		return handler(ctx, req)
	}
}

// authorize applies the same ownership rules as the HTTP surface.
func authorize(claims *utils.Claims, r gateway.Request) error {
	if claims.IsAdmin() {
		return nil
	}
	op, ok := catalog.Lookup(r.Operation())
	if !ok {
		return nil // rejected by validation
	}
	if op.Privileged {
		return status.Error(codes.PermissionDenied, "admin access required")
	}
	fields := r.Fields()
	own := func(name string) bool { return strings.TrimSpace(fields[name]) == claims.UserID }
	if role, ok := fields["role"]; ok && strings.TrimSpace(role) != domain.RoleUser {
		return status.Errorf(codes.PermissionDenied, "only admins create accounts with role %q", role)
	}
	if _, ok := fields["userID"]; ok && !own("userID") {
		return status.Error(codes.PermissionDenied, "access to another account is not allowed")
	}
	switch {
	case op.Name == catalog.GetTransfer:
		if !own("senderID") && !own("receiverID") {
			return status.Error(codes.PermissionDenied, "not a party to this transfer")
		}
	case op.IsWrite():
		if _, ok := fields["senderID"]; ok && !own("senderID") {
			return status.Error(codes.PermissionDenied, "transfers must be sent from your own account")
		}
	}
	return nil
}

// validationUnaryInterceptor fails closed on requests that do not fit the catalog
// before anything reaches the facade.
func validationUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		entry := callEntry(ctx)
		r, ok := req.(gateway.Request)
		if !ok {
			return nil, status.Errorf(codes.Unimplemented, "method %s has no catalog entry", info.FullMethod)
		}
		if err := catalog.Validate(r.Operation(), r.Fields()); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
		entry.WithField("state", StateValidated).Debug("gRPC call")
		entry.WithField("state", StateDispatched).Debug("gRPC call")
		return handler(ctx, req)
	}
}
