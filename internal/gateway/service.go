// Package gateway is the ledger access facade: one method per catalog operation,
// each running validate, acquire, invoke, decode and release in that order.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"
	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"
	"ledger_gateway/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds the facade's tunables.
type Config struct {
	Identity        string        // Label of the calling identity in the store
	SessionTimeout  time.Duration // Bound on session acquisition
	EvaluateTimeout time.Duration // Bound on one evaluation
	SubmitTimeout   time.Duration // Bound on one submission, commit included
	BalancePrecheck bool          // Reject overdrafts before submitting; advisory only
}

// Service talks to the ledger on behalf of every caller surface.
type Service struct {
	conn    ledger.Connector
	store   identity.Store
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock replaces the clock used for initiator timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(conn ledger.Connector, store identity.Store, cfg Config, opts ...Option) *Service {
	s := &Service{conn: conn, store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invoker runs the ledger calls of one operation against a leased session.
type invoker func(ctx context.Context, lease *ledger.Lease, args []string) error

// run is the shared skeleton of every operation. The lease is released before
// run returns, whatever fn does.
func (s *Service) run(ctx context.Context, req Request, fn invoker) (err error) {
	op := catalog.MustLookup(req.Operation())
	fields := logFields(op.Name, req.Fields())
	defer func() {
		s.metrics.ObserveCall(op.Name, Outcome(err))
		if err != nil {
			fields["error"] = err.Error()
			logrus.WithFields(fields).Warn("Ledger operation failed")
			return
		}
		if op.IsWrite() {
			logrus.WithFields(fields).Info("Ledger operation committed")
		} else {
			logrus.WithFields(fields).Debug("Ledger operation evaluated")
		}
	}()

	args, err := catalog.Bind(op.Name, req.Fields())
	if err != nil {
		return opError(op.Name, ErrValidation, err)
	}
	if c, ok := req.(checker); ok {
		if err := c.check(); err != nil {
			return opError(op.Name, ErrValidation, err)
		}
	}

	cred, err := s.store.Get(ctx, s.cfg.Identity)
	if errors.Is(err, identity.ErrNotFound) {
		return opError(op.Name, ErrIdentity, fmt.Errorf("an identity for %q does not exist in the identity store; enroll or import it before retrying", s.cfg.Identity))
	}
	if err != nil {
		return opError(op.Name, ErrIdentity, err)
	}

	actx, cancel := withTimeout(ctx, s.cfg.SessionTimeout)
	lease, err := ledger.Acquire(actx, s.conn, cred, s.metrics.SessionReleased)
	cancel()
	if err != nil {
		return opError(op.Name, ErrConnection, err)
	}
	s.metrics.SessionAcquired()
	defer func() {
		if rerr := lease.Release(); rerr != nil {
			logrus.WithFields(logrus.Fields{
				"operation": op.Name, // Operation that held the session
				"error":     rerr.Error(),
			}).Warn("Ledger session close failed")
		}
	}()
	return fn(ctx, lease, args)
}

func (s *Service) evaluate(ctx context.Context, lease *ledger.Lease, op string, args ...string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.EvaluateTimeout)
	defer cancel()
	start := time.Now()
	out, err := lease.Evaluate(ctx, op, args...)
	s.metrics.ObserveInvocation(catalog.Evaluate.String(), time.Since(start))
	if err != nil {
		return nil, classify(op, false, err)
	}
	return out, nil
}

func (s *Service) submit(ctx context.Context, lease *ledger.Lease, op string, args ...string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	start := time.Now()
	out, err := lease.Submit(ctx, op, args...)
	s.metrics.ObserveInvocation(catalog.Submit.String(), time.Since(start))
	if err != nil {
		return nil, classify(op, true, err)
	}
	return out, nil
}

// exists is the pre-flight read shared by CreateAccount and DeleteAccount.
func (s *Service) exists(ctx context.Context, lease *ledger.Lease, userID string) (bool, error) {
	out, err := s.evaluate(ctx, lease, catalog.UserExists, userID)
	if err != nil {
		return false, err
	}
	return decodeBool(catalog.UserExists, out)
}

// precheck rejects an overdraft before it reaches ordering. The ledger remains the
// authority; concurrent submissions can still fail there.
func (s *Service) precheck(ctx context.Context, lease *ledger.Lease, op, userID string, amount Amount) error {
	if !s.cfg.BalancePrecheck {
		return nil
	}
	out, err := s.evaluate(ctx, lease, catalog.GetAccount, userID)
	if err != nil {
		return err
	}
	acc, err := decodeOne[domain.Account](catalog.GetAccount, out)
	if err != nil {
		return err
	}
	want, _ := decimal.NewFromString(strings.TrimSpace(string(amount)))
	if acc.Balance.LessThan(want) {
		return opError(op, ErrInsufficientFunds, fmt.Errorf("account %s has insufficient balance", userID))
	}
	return nil
}

// stamp fills an absent timestamp once, at the initiator; a supplied one is kept as is.
func (s *Service) stamp(ts *string) {
	if strings.TrimSpace(*ts) == "" {
		*ts = s.now().UTC().Format(time.RFC3339Nano)
	}
}

// CreateAccount opens an account. An existing userID short-circuits with ErrAccountExists.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) error {
	return s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		found, err := s.exists(ctx, lease, req.UserID)
		if err != nil {
			return err
		}
		if found {
			return opError(catalog.CreateAccount, ErrAccountExists, fmt.Errorf("account %s already exists", req.UserID))
		}
		_, err = s.submit(ctx, lease, catalog.CreateAccount, args...)
		return err
	})
}

// DeleteAccount removes an account. A missing userID short-circuits with ErrAccountNotFound.
func (s *Service) DeleteAccount(ctx context.Context, req DeleteAccountRequest) error {
	return s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		found, err := s.exists(ctx, lease, req.UserID)
		if err != nil {
			return err
		}
		if !found {
			return opError(catalog.DeleteAccount, ErrAccountNotFound, fmt.Errorf("account %s does not exist", req.UserID))
		}
		_, err = s.submit(ctx, lease, catalog.DeleteAccount, args...)
		return err
	})
}

func (s *Service) GetAccount(ctx context.Context, req GetAccountRequest) (acc domain.Account, err error) {
	err = s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		out, err := s.evaluate(ctx, lease, catalog.GetAccount, args...)
		if err != nil {
			return err
		}
		acc, err = decodeOne[domain.Account](catalog.GetAccount, out)
		return err
	})
	return acc, err
}

func (s *Service) UserExists(ctx context.Context, req UserExistsRequest) (found bool, err error) {
	err = s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		out, err := s.evaluate(ctx, lease, catalog.UserExists, args...)
		if err != nil {
			return err
		}
		found, err = decodeBool(catalog.UserExists, out)
		return err
	})
	return found, err
}

// Deposit credits an account. The returned request carries the timestamp that was used.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (DepositRequest, error) {
	s.stamp(&req.Timestamp)
	err := s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		_, err := s.submit(ctx, lease, catalog.Deposit, args...)
		return err
	})
	return req, err
}

// Withdraw debits an account. The returned request carries the timestamp that was used.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (WithdrawRequest, error) {
	s.stamp(&req.Timestamp)
	err := s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		if err := s.precheck(ctx, lease, catalog.Withdraw, req.UserID, req.Amount); err != nil {
			return err
		}
		_, err := s.submit(ctx, lease, catalog.Withdraw, args...)
		return err
	})
	return req, err
}

// CreateTransfer moves funds between two accounts in one ledger transaction.
func (s *Service) CreateTransfer(ctx context.Context, req CreateTransferRequest) (CreateTransferRequest, error) {
	s.stamp(&req.Timestamp)
	err := s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		if err := s.precheck(ctx, lease, catalog.CreateTransfer, req.SenderID, req.Amount); err != nil {
			return err
		}
		_, err := s.submit(ctx, lease, catalog.CreateTransfer, args...)
		return err
	})
	return req, err
}

func (s *Service) GetTransfer(ctx context.Context, req GetTransferRequest) (tr domain.Transfer, err error) {
	err = s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		out, err := s.evaluate(ctx, lease, catalog.GetTransfer, args...)
		if err != nil {
			return err
		}
		tr, err = decodeOne[domain.Transfer](catalog.GetTransfer, out)
		return err
	})
	return tr, err
}

func (s *Service) GetTransferByStateKey(ctx context.Context, req GetTransferByStateKeyRequest) (tr domain.Transfer, err error) {
	err = s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		out, err := s.evaluate(ctx, lease, catalog.GetTransferByStateKey, args...)
		if err != nil {
			return err
		}
		tr, err = decodeOne[domain.Transfer](catalog.GetTransferByStateKey, out)
		return err
	})
	return tr, err
}

func (s *Service) GetAllAccounts(ctx context.Context) ([]domain.Account, error) {
	return list[domain.Account](ctx, s, GetAllAccountsRequest{})
}

func (s *Service) GetAllTransfers(ctx context.Context) ([]domain.Transfer, error) {
	return list[domain.Transfer](ctx, s, GetAllTransfersRequest{})
}

func (s *Service) GetAllKeys(ctx context.Context) ([]string, error) {
	return list[string](ctx, s, GetAllKeysRequest{})
}

func (s *Service) GetAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return list[domain.Transaction](ctx, s, GetAllTransactionsRequest{})
}

func (s *Service) QueryTransactions(ctx context.Context, req QueryTransactionsRequest) ([]domain.Transaction, error) {
	return list[domain.Transaction](ctx, s, req)
}

func list[T any](ctx context.Context, s *Service, req Request) (items []T, err error) {
	err = s.run(ctx, req, func(ctx context.Context, lease *ledger.Lease, args []string) error {
		out, err := s.evaluate(ctx, lease, req.Operation(), args...)
		if err != nil {
			return err
		}
		items = decodeList[T](req.Operation(), out)
		return nil
	})
	return items, err
}

func decodeOne[T any](op string, raw []byte) (T, error) {
	var v T
	if len(strings.TrimSpace(string(raw))) == 0 {
		return v, opError(op, ErrDecode, errors.New("empty ledger payload"))
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, opError(op, ErrDecode, err)
	}
	return v, nil
}

// decodeList never fails: an empty or malformed payload is an empty list.
func decodeList[T any](op string, raw []byte) []T {
	items := []T{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return items
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		logrus.WithFields(logrus.Fields{
			"operation": op,
			"error":     err.Error(),
		}).Warn("Malformed ledger list payload, treating as empty")
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func decodeBool(op string, raw []byte) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(string(raw)))
	if err != nil {
		return false, opError(op, ErrDecode, fmt.Errorf("expected true or false, got %q", raw))
	}
	return b, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// logFields renders request fields under snake_case keys, hashes left out.
func logFields(op string, values map[string]string) logrus.Fields {
	fields := logrus.Fields{"operation": op}
	for k, v := range values {
		if sensitive[k] || v == "" {
			continue
		}
		fields[snake(k)] = v
	}
	return fields
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z' && i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z':
			b.WriteByte('_')
			b.WriteRune(r + 'a' - 'A')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
