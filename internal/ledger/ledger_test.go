package ledger

import (
	"context"
	"errors"
	"testing"

	"ledger_gateway/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSession struct{ closes int }

func (s *countingSession) Evaluate(context.Context, string, ...string) ([]byte, error) {
	return nil, nil
}
func (s *countingSession) Submit(context.Context, string, ...string) ([]byte, error) { return nil, nil }
func (s *countingSession) Close() error {
	s.closes++
	return nil
}

type connectorFunc func(context.Context, identity.Credential) (Session, error)

func (f connectorFunc) Connect(ctx context.Context, c identity.Credential) (Session, error) {
	return f(ctx, c)
}

func TestLeaseReleasesOnce(t *testing.T) {
	s := &countingSession{}
	released := 0
	lease, err := Acquire(context.Background(), connectorFunc(func(context.Context, identity.Credential) (Session, error) {
		return s, nil
	}), identity.Credential{Label: "admin"}, func() { released++ })
	require.NoError(t, err)

	require.NoError(t, lease.Release())
	require.NoError(t, lease.Close())
	require.NoError(t, lease.Release())

	assert.Equal(t, 1, s.closes)
	assert.Equal(t, 1, released)
}

func TestAcquireFailure(t *testing.T) {
	boom := errors.New("dial failed")
	lease, err := Acquire(context.Background(), connectorFunc(func(context.Context, identity.Credential) (Session, error) {
		return nil, boom
	}), identity.Credential{Label: "admin"}, nil)
	assert.Nil(t, lease)
	assert.ErrorIs(t, err, boom)
}

func TestInvocationErrorIsVerbatim(t *testing.T) {
	err := error(&InvocationError{Message: "insufficient balance", TxID: "abc"})
	assert.Equal(t, "insufficient balance", err.Error())
}
