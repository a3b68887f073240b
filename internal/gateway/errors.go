package gateway

import (
	"context"
	"errors"

	"ledger_gateway/internal/ledger"
)

// Error kinds. Every error returned by Service matches exactly one of these with errors.Is.
var (
	ErrValidation     = errors.New("invalid argument")
	ErrIdentity       = errors.New("identity unavailable")
	ErrConnection     = errors.New("ledger unreachable")
	ErrInvocation     = errors.New("ledger rejected the transaction")
	ErrDecode         = errors.New("malformed ledger payload")
	ErrOutcomeUnknown = errors.New("outcome unknown")

	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account does not exist")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// OpError is a failed banking operation.
type OpError struct {
	Op   string // catalog operation name
	Kind error  // one of the Err* kinds
	Err  error  // cause
}

func (e *OpError) Error() string {
	if e.Kind == ErrOutcomeUnknown {
		return e.Op + ": outcome unknown: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error { return []error{e.Kind, e.Err} }

func opError(op string, kind, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// LedgerMessage returns the text a caller should see: the ledger's own message for
// rejections, the bare cause otherwise.
func LedgerMessage(err error) string {
	var inv *ledger.InvocationError
	if errors.As(err, &inv) {
		return inv.Message
	}
	var op *OpError
	if errors.As(err, &op) {
		if op.Kind == ErrOutcomeUnknown {
			return "outcome unknown: " + op.Err.Error()
		}
		return op.Err.Error()
	}
	return err.Error()
}

// Outcome names the kind of err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOutcomeUnknown):
		return "outcome_unknown"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrIdentity):
		return "identity"
	case errors.Is(err, ErrInvocation):
		return "invocation"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrAccountExists):
		return "exists"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "connection"
	}
}

// classify maps an invocation failure to its kind. A write that failed for any
// reason other than a ledger rejection may still have been ordered, so it is
// reported as outcome unknown rather than as a failure.
func classify(op string, write bool, err error) *OpError {
	var inv *ledger.InvocationError
	switch {
	case errors.As(err, &inv):
		return opError(op, ErrInvocation, err)
	case write:
		return opError(op, ErrOutcomeUnknown, err)
	default:
		return opError(op, ErrConnection, err)
	}
}
