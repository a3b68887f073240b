package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupResolvesAliases(t *testing.T) {
	for alias, want := range map[string]string{
		"ca":           CreateAccount,
		"bal":          GetAccount,
		"QueryAccount": GetAccount,
		"transfer":     CreateTransfer,
		"Transfer":     CreateTransfer,
		"dep":          Deposit,
		"with":         Withdraw,
		"gaa":          GetAllAccounts,
		"da":           DeleteAccount,
		"qt":           QueryTransactions,
		"getallkeys":   GetAllKeys,
	} {
		op, ok := Lookup(alias)
		require.True(t, ok, alias)
		assert.Equal(t, want, op.Name, alias)
	}

	_, ok := Lookup("Mint")
	assert.False(t, ok)
}

func TestModes(t *testing.T) {
	writes := map[string]bool{
		CreateAccount: true, Deposit: true, Withdraw: true, CreateTransfer: true, DeleteAccount: true,
	}
	for _, op := range All() {
		assert.Equal(t, writes[op.Name], op.IsWrite(), op.Name)
		if op.IsWrite() {
			assert.NotEmpty(t, op.IdempotencyKey, op.Name)
		}
	}
}

func TestBindOrdersArguments(t *testing.T) {
	args, err := Bind(CreateTransfer, map[string]string{
		"timestamp":       "2024-01-02T03:04:05Z",
		"amount":          "40",
		"receiverID":      "B",
		"referenceNumber": "R1",
		"senderID":        "A",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "40", "R1", "2024-01-02T03:04:05Z"}, args)
}

func TestBindRejectsBadArguments(t *testing.T) {
	cases := []struct {
		name   string
		op     string
		values map[string]string
		field  string
	}{
		{"missing user", GetAccount, map[string]string{}, "userID"},
		{"blank user", GetAccount, map[string]string{"userID": "  "}, "userID"},
		{"zero deposit", Deposit, map[string]string{"userID": "A", "amount": "0", "referenceNumber": "R", "timestamp": "t"}, "amount"},
		{"negative balance", CreateAccount, map[string]string{
			"userID": "A", "name": "n", "idHash": "h", "email": "e", "passwordHash": "p", "phone": "1", "role": "user", "balance": "-1",
		}, "balance"},
		{"not a number", Withdraw, map[string]string{"userID": "A", "amount": "ten", "referenceNumber": "R", "timestamp": "t"}, "amount"},
		{"missing timestamp", Withdraw, map[string]string{"userID": "A", "amount": "1", "referenceNumber": "R"}, "timestamp"},
		{"unexpected field", GetAllKeys, map[string]string{"userID": "A"}, "userID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Bind(tc.op, tc.values)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateAllowsMissingOptionalFields(t *testing.T) {
	err := Validate(Deposit, map[string]string{"userID": "A", "amount": "10.50", "referenceNumber": "R"})
	assert.NoError(t, err)

	err = Validate("Nope", nil)
	assert.Error(t, err)
}

func TestZeroInitialBalanceIsAllowed(t *testing.T) {
	_, err := Bind(CreateAccount, map[string]string{
		"userID": "B", "name": "Bob", "idHash": "h", "email": "b@x", "passwordHash": "p", "phone": "1", "role": "user", "balance": "0",
	})
	assert.NoError(t, err)
}

func TestAmountBounds(t *testing.T) {
	for _, v := range []string{"1e300000000", "1e-300000000", "0.0000000000000000001", "1" + strings.Repeat("0", 38)} {
		_, err := Bind(Deposit, map[string]string{"userID": "A", "amount": v, "referenceNumber": "R", "timestamp": "t"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, v)
		assert.Equal(t, "amount", verr.Field)
	}

	for _, v := range []string{"0.000000000000000001", strings.Repeat("9", 38), "1e37", "12.50"} {
		_, err := ParseAmount(v)
		assert.NoError(t, err, v)
	}
}

func TestPositional(t *testing.T) {
	values, err := Positional("transfer", []string{"A", "B", "5", "R9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"senderID": "A", "receiverID": "B", "amount": "5", "referenceNumber": "R9"}, values)

	_, err = Positional("transfer", []string{"A", "B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CreateTransfer <senderID> <receiverID> <amount> <referenceNumber> [timestamp]")

	_, err = Positional(GetAllAccounts, []string{"extra"})
	assert.Error(t, err)
}

func TestPrivilegedOperations(t *testing.T) {
	var privileged []string
	for _, op := range All() {
		if op.Privileged {
			privileged = append(privileged, op.Name)
		}
	}
	assert.ElementsMatch(t, []string{GetTransferByStateKey, GetAllAccounts, GetAllTransfers, GetAllKeys, GetAllTransactions, DeleteAccount}, privileged)
}
