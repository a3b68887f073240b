// Package memledger is an in-process ledger that runs the banking contract over a
// map. It serves local runs without a network and doubles as the test ledger: it
// counts every session it hands out and every invocation it serves.
package memledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"
	"ledger_gateway/internal/ledger/contract"
)

// Stats counts activity since the ledger was created.
type Stats struct {
	Opened      int64
	Closed      int64
	Evaluations int64
	Submissions int64
}

// Ledger serializes submissions, so a transaction is observed fully applied or not at all.
type Ledger struct {
	mu    sync.RWMutex
	state contract.MapState

	opened, closed, evaluations, submissions atomic.Int64
}

func New() *Ledger {
	return &Ledger{state: contract.MapState{}}
}

// Connect opens a session bound to cred.
func (l *Ledger) Connect(ctx context.Context, cred identity.Credential) (ledger.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cred.MSPID == "" {
		return nil, errors.New("memledger: credential has no mspId")
	}
	l.opened.Add(1)
	return &session{l: l, cred: cred}, nil
}

// Stats returns a snapshot of the counters.
func (l *Ledger) Stats() Stats {
	return Stats{
		Opened:      l.opened.Load(),
		Closed:      l.closed.Load(),
		Evaluations: l.evaluations.Load(),
		Submissions: l.submissions.Load(),
	}
}

// Open returns the number of sessions not yet closed.
func (l *Ledger) Open() int64 { return l.opened.Load() - l.closed.Load() }

func (l *Ledger) evaluate(name string, args []string) ([]byte, error) {
	l.evaluations.Add(1)
	l.mu.RLock()
	defer l.mu.RUnlock()
	out, err := contract.Invoke(contract.NewOverlay(l.state), name, args)
	if err != nil {
		return nil, &ledger.InvocationError{Message: err.Error()}
	}
	return out, nil
}

func (l *Ledger) submit(name string, args []string) ([]byte, error) {
	l.submissions.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	ov := contract.NewOverlay(l.state)
	out, err := contract.Invoke(ov, name, args)
	if err != nil {
		return nil, &ledger.InvocationError{Message: err.Error()}
	}
	if err := ov.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

type session struct {
	l      *Ledger
	cred   identity.Credential
	closed atomic.Bool
}

func (s *session) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ledger.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.l.evaluate(name, args)
}

func (s *session) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ledger.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.l.submit(name, args)
}

func (s *session) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.l.closed.Add(1)
	}
	return nil
}
