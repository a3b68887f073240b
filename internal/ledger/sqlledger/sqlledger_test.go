package sqlledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	l := New(db)
	require.NoError(t, l.Migrate())
	return l
}

func TestSubmitAndEvaluate(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	s, err := l.Connect(ctx, identity.Credential{Label: "admin", MSPID: "Org1MSP"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Submit(ctx, "CreateAccount", "A", "Alice", "h", "a@x", "p", "1", "user", "100")
	require.NoError(t, err)
	_, err = s.Submit(ctx, "CreateAccount", "B", "Bob", "h", "b@x", "p", "1", "user", "0")
	require.NoError(t, err)
	_, err = s.Submit(ctx, "CreateTransfer", "A", "B", "40", "R1", "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	out, err := s.Evaluate(ctx, "GetAccount", "A")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"balance":"60"`)

	// A replayed transfer is rejected by key uniqueness and rolled back.
	_, err = s.Submit(ctx, "CreateTransfer", "A", "B", "40", "R1", "2024-01-01T00:00:00Z")
	var inv *ledger.InvocationError
	require.True(t, errors.As(err, &inv), "got %v", err)
	assert.Contains(t, inv.Message, "already exists")

	out, err = s.Evaluate(ctx, "GetAccount", "B")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"balance":"40"`)

	out, err = s.Evaluate(ctx, "GetAllKeys")
	require.NoError(t, err)
	assert.JSONEq(t, `["TRANSACTION_TRANSFER_A_B_R1","USER_A","USER_B"]`, string(out))
}

func TestFailedSubmitRollsBack(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	s, err := l.Connect(ctx, identity.Credential{Label: "admin", MSPID: "Org1MSP"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Submit(ctx, "CreateAccount", "A", "Alice", "h", "a@x", "p", "1", "user", "5")
	require.NoError(t, err)
	_, err = s.Submit(ctx, "Withdraw", "A", "6", "W1", "ts")
	require.EqualError(t, err, "insufficient balance")

	out, err := s.Evaluate(ctx, "QueryTransactions", "A")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

func TestKeysEscapesWildcards(t *testing.T) {
	l := openTestLedger(t)
	st := &state{tx: l.db}
	require.NoError(t, st.PutState("USER_A", []byte("{}")))
	require.NoError(t, st.PutState("USERXA", []byte("{}")))

	keys, err := st.Keys("USER_")
	require.NoError(t, err)
	assert.Equal(t, []string{"USER_A"}, keys)
}

func TestClosedSession(t *testing.T) {
	l := openTestLedger(t)
	s, err := l.Connect(context.Background(), identity.Credential{Label: "admin", MSPID: "Org1MSP"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = s.Evaluate(context.Background(), "GetAllKeys")
	assert.ErrorIs(t, err, ledger.ErrSessionClosed)
}
