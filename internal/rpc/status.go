package rpc

import (
	"context"
	"errors"

	"ledger_gateway/internal/gateway"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status converts a facade error into a gRPC status error. Ledger rejections keep
// the ledger's text.
func Status(err error) error {
	if err == nil {
		return nil
	}
	var op *gateway.OpError
	if !errors.As(err, &op) {
		if st, ok := status.FromError(err); ok {
			return st.Err()
		}
		return status.FromContextError(err).Err()
	}
	return status.Error(Code(err), gateway.LedgerMessage(err))
}

// Code is the gRPC code for a facade error.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, gateway.ErrOutcomeUnknown):
		return codes.Unknown
	case errors.Is(err, gateway.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, gateway.ErrIdentity), errors.Is(err, gateway.ErrInsufficientFunds):
		return codes.FailedPrecondition
	case errors.Is(err, gateway.ErrInvocation):
		return codes.Aborted
	case errors.Is(err, gateway.ErrAccountExists):
		return codes.AlreadyExists
	case errors.Is(err, gateway.ErrAccountNotFound):
		return codes.NotFound
	case errors.Is(err, gateway.ErrDecode):
		return codes.Internal
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, gateway.ErrConnection):
		return codes.Unavailable
	}
	return codes.Internal
}
