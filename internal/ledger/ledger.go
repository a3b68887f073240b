// Package ledger defines the session-oriented client API the gateway uses to reach
// the ledger network, independent of the network implementation.
package ledger

import (
	"context"
	"errors"
	"sync"

	"ledger_gateway/internal/identity"
)

var (
	// ErrSessionClosed is returned by a session used after release.
	ErrSessionClosed = errors.New("ledger session closed")
	// ErrCommitUnknown means a submission was sent but its commit status was never observed.
	ErrCommitUnknown = errors.New("commit status unknown")
)

// Session is a single-use binding of one identity to one ledger connection.
type Session interface {
	// Evaluate runs a read-only transaction; nothing is ordered or committed.
	Evaluate(ctx context.Context, name string, args ...string) ([]byte, error)
	// Submit runs a transaction through ordering and returns after commit.
	Submit(ctx context.Context, name string, args ...string) ([]byte, error)
	// Close releases the connection. Calling it again is a no-op.
	Close() error
}

// Connector opens sessions against one channel and contract.
type Connector interface {
	Connect(ctx context.Context, cred identity.Credential) (Session, error)
}

// InvocationError is a rejection reported by the ledger. Message is the ledger's text.
type InvocationError struct {
	Message string
	TxID    string
}

func (e *InvocationError) Error() string { return e.Message }

// Lease guards a session so it is closed exactly once however the caller exits.
type Lease struct {
	Session
	once      sync.Once
	err       error
	onRelease func()
}

// Acquire opens a session and wraps it in a Lease. onRelease, if set, runs once
// when the lease is released.
func Acquire(ctx context.Context, c Connector, cred identity.Credential, onRelease func()) (*Lease, error) {
	s, err := c.Connect(ctx, cred)
	if err != nil {
		return nil, err
	}
	return &Lease{Session: s, onRelease: onRelease}, nil
}

// Release closes the underlying session on the first call and returns its result on every call.
func (l *Lease) Release() error {
	l.once.Do(func() {
		l.err = l.Session.Close()
		if l.onRelease != nil {
			l.onRelease()
		}
	})
	return l.err
}

// Close is Release, so a Lease can stand in for the session it wraps.
func (l *Lease) Close() error { return l.Release() }
