package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/gateway"
	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger/memledger"
	"ledger_gateway/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const secret = "test-secret"

type harness struct {
	client *Client
	ledger *memledger.Ledger
}

func start(t *testing.T, opts Options) harness {
	t.Helper()
	store := identity.NewFileStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), identity.Credential{
		Label:       "admin",
		MSPID:       "Org1MSP",
		Credentials: identity.Material{Certificate: "cert", PrivateKey: "key"},
	}))
	l := memledger.New()
	svc := gateway.New(l, store, gateway.Config{
		Identity:        "admin",
		SessionTimeout:  time.Second,
		EvaluateTimeout: time.Second,
		SubmitTimeout:   time.Second,
	})

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc, opts)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return harness{client: client, ledger: l}
}

func newAccount(id, balance string) gateway.CreateAccountRequest {
	return gateway.CreateAccountRequest{
		UserID: id, Name: "Holder " + id, IDHash: "h", Email: id + "@example.com",
		PasswordHash: "p", Phone: "555", Role: "user", Balance: gateway.Amount(balance),
	}
}

func TestServiceDescCoversCatalog(t *testing.T) {
	var methods []string
	for _, m := range ServiceDesc.Methods {
		methods = append(methods, m.MethodName)
	}
	assert.ElementsMatch(t, catalog.Names(), methods)
}

func TestTransferScenarioOverGRPC(t *testing.T) {
	h := start(t, Options{})
	ctx := context.Background()

	_, err := h.client.CreateAccount(ctx, newAccount("A", "100"))
	require.NoError(t, err)
	_, err = h.client.CreateAccount(ctx, newAccount("B", "0"))
	require.NoError(t, err)

	tr := gateway.CreateTransferRequest{SenderID: "A", ReceiverID: "B", Amount: "40", ReferenceNumber: "R1", Timestamp: "2024-05-01T10:00:00Z"}
	resp, err := h.client.CreateTransfer(ctx, tr)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Transferred 40 from A to B")
	assert.Equal(t, "2024-05-01T10:00:00Z", resp.Timestamp)

	_, err = h.client.CreateTransfer(ctx, tr)
	assert.Equal(t, codes.Aborted, status.Code(err))

	a, err := h.client.GetAccount(ctx, "A")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(a.Balance))
	b, err := h.client.GetAccount(ctx, "B")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(b.Balance))

	accounts, err := h.client.GetAllAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	transfers, err := h.client.GetAllTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, transfers, 1)

	keys, err := h.client.GetAllKeys(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, keys)

	st := h.ledger.Stats()
	assert.Equal(t, st.Opened, st.Closed)
}

func TestStatusMapping(t *testing.T) {
	h := start(t, Options{})
	ctx := context.Background()

	_, err := h.client.GetAccount(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.Deposit(ctx, gateway.MovementRequest{UserID: "A", Amount: "-3", ReferenceNumber: "D1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Zero(t, h.ledger.Stats().Opened, "invalid calls never reach the ledger")

	_, err = h.client.CreateAccount(ctx, newAccount("A", "1"))
	require.NoError(t, err)
	_, err = h.client.CreateAccount(ctx, newAccount("A", "1"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = h.client.DeleteAccount(ctx, "ghost")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.Withdraw(ctx, gateway.MovementRequest{UserID: "A", Amount: "5", ReferenceNumber: "W1"})
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Equal(t, "insufficient balance", status.Convert(err).Message())

	found, err := h.client.UserExists(ctx, "A")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCallByAlias(t *testing.T) {
	h := start(t, Options{})
	ctx := context.Background()

	_, err := h.client.CreateAccount(ctx, newAccount("A", "10"))
	require.NoError(t, err)

	out, err := h.client.Call(ctx, "dep", map[string]string{"userID": "A", "amount": "5", "referenceNumber": "D1"})
	require.NoError(t, err)
	msg, ok := out.(*MessageResponse)
	require.True(t, ok)
	assert.NotEmpty(t, msg.Timestamp, "gateway fills the timestamp")

	out, err = h.client.Call(ctx, "qt", map[string]string{"userID": "A"})
	require.NoError(t, err)
	txs, ok := out.(*TransactionsResponse)
	require.True(t, ok)
	require.Len(t, txs.Transactions, 1)
	assert.Equal(t, msg.Timestamp, txs.Transactions[0].Timestamp)

	_, err = h.client.Call(ctx, "bal", map[string]string{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRequestIDEchoed(t *testing.T) {
	h := start(t, Options{})
	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-42")
	out := new(ExistsResponse)
	in := gateway.UserExistsRequest{UserRequest: gateway.UserRequest{UserID: "A"}}
	err := h.client.conn.Invoke(ctx, FullMethod(catalog.UserExists), &in, out, grpc.CallContentSubtype(Codec), grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDHeader))
	assert.False(t, out.Exists)
}

func TestAuth(t *testing.T) {
	h := start(t, Options{RequireAuth: true, JWTSecret: secret})
	ctx := context.Background()

	_, err := h.client.GetAllKeys(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	userToken, err := utils.GenerateJWT("A", "user", secret)
	require.NoError(t, err)
	_, err = h.client.WithToken(userToken).GetAllKeys(ctx)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.client.WithToken(userToken).UserExists(ctx, "A")
	assert.NoError(t, err)

	adminToken, err := utils.GenerateJWT("root", utils.RoleAdmin, secret)
	require.NoError(t, err)
	keys, err := h.client.WithToken(adminToken).GetAllKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAuthKeepsUsersToTheirOwnAccounts(t *testing.T) {
	h := start(t, Options{RequireAuth: true, JWTSecret: secret})
	ctx := context.Background()

	adminToken, err := utils.GenerateJWT("root", utils.RoleAdmin, secret)
	require.NoError(t, err)
	admin := h.client.WithToken(adminToken)
	_, err = admin.CreateAccount(ctx, newAccount("victim", "100"))
	require.NoError(t, err)

	malloryToken, err := utils.GenerateJWT("mallory", "user", secret)
	require.NoError(t, err)
	mallory := h.client.WithToken(malloryToken)

	promoted := newAccount("mallory", "0")
	promoted.Role = utils.RoleAdmin
	_, err = mallory.CreateAccount(ctx, promoted)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.CreateAccount(ctx, newAccount("someone-else", "0"))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.CreateAccount(ctx, newAccount("mallory", "10"))
	require.NoError(t, err)

	_, err = mallory.Withdraw(ctx, gateway.MovementRequest{UserID: "victim", Amount: "100", ReferenceNumber: "W1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.Deposit(ctx, gateway.MovementRequest{UserID: "victim", Amount: "1", ReferenceNumber: "D1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.CreateTransfer(ctx, gateway.CreateTransferRequest{SenderID: "victim", ReceiverID: "mallory", Amount: "100", ReferenceNumber: "T1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.GetAccount(ctx, "victim")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, err = mallory.GetTransferByStateKey(ctx, "TRANSACTION_TRANSFER_victim_mallory_T1")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	victim, err := admin.GetAccount(ctx, "victim")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(victim.Balance))

	_, err = mallory.CreateTransfer(ctx, gateway.CreateTransferRequest{SenderID: "mallory", ReceiverID: "victim", Amount: "5", ReferenceNumber: "T2"})
	require.NoError(t, err)

	victimToken, err := utils.GenerateJWT("victim", "user", secret)
	require.NoError(t, err)
	tr, err := h.client.WithToken(victimToken).GetTransfer(ctx, gateway.GetTransferRequest{SenderID: "mallory", ReceiverID: "victim", ReferenceNumber: "T2"})
	require.NoError(t, err)
	assert.Equal(t, "mallory", tr.SenderID)

	outsiderToken, err := utils.GenerateJWT("outsider", "user", secret)
	require.NoError(t, err)
	_, err = h.client.WithToken(outsiderToken).GetTransfer(ctx, gateway.GetTransferRequest{SenderID: "mallory", ReceiverID: "victim", ReferenceNumber: "T2"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestCode(t *testing.T) {
	cases := map[error]codes.Code{
		&gateway.OpError{Op: "x", Kind: gateway.ErrValidation, Err: assert.AnError}:        codes.InvalidArgument,
		&gateway.OpError{Op: "x", Kind: gateway.ErrIdentity, Err: assert.AnError}:          codes.FailedPrecondition,
		&gateway.OpError{Op: "x", Kind: gateway.ErrConnection, Err: assert.AnError}:        codes.Unavailable,
		&gateway.OpError{Op: "x", Kind: gateway.ErrDecode, Err: assert.AnError}:            codes.Internal,
		&gateway.OpError{Op: "x", Kind: gateway.ErrOutcomeUnknown, Err: assert.AnError}:    codes.Unknown,
		&gateway.OpError{Op: "x", Kind: gateway.ErrConnection, Err: context.Canceled}:      codes.Canceled,
		&gateway.OpError{Op: "x", Kind: gateway.ErrInsufficientFunds, Err: assert.AnError}: codes.FailedPrecondition,
	}
	for err, want := range cases {
		assert.Equal(t, want, Code(err), err.Error())
	}
	st := status.Convert(Status(&gateway.OpError{Op: "Deposit", Kind: gateway.ErrOutcomeUnknown, Err: context.Canceled}))
	assert.Equal(t, codes.Unknown, st.Code())
	assert.Contains(t, st.Message(), "outcome unknown")
}
