package rpc

import (
	"context"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"
	"ledger_gateway/internal/gateway"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Client calls banking.BankingService.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects to a gateway at target. Connections are plaintext unless opts say otherwise.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, name string, in, out any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.conn.Invoke(ctx, FullMethod(name), in, out, grpc.CallContentSubtype(Codec))
}

// Call runs the named operation (aliases allowed) with catalog field values and
// returns the operation's response message.
func (c *Client) Call(ctx context.Context, name string, values map[string]string) (any, error) {
	req, err := gateway.FromFields(name, values)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, gateway.LedgerMessage(err))
	}
	out, _ := NewResponse(req.Operation())
	if err := c.invoke(ctx, req.Operation(), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, in gateway.CreateAccountRequest) (*MessageResponse, error) {
	out := new(MessageResponse)
	return out, c.invoke(ctx, catalog.CreateAccount, &in, out)
}

func (c *Client) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	out := new(domain.Account)
	in := gateway.GetAccountRequest{UserRequest: gateway.UserRequest{UserID: userID}}
	return out, c.invoke(ctx, catalog.GetAccount, &in, out)
}

func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	out := new(ExistsResponse)
	in := gateway.UserExistsRequest{UserRequest: gateway.UserRequest{UserID: userID}}
	err := c.invoke(ctx, catalog.UserExists, &in, out)
	return out.Exists, err
}

func (c *Client) Deposit(ctx context.Context, in gateway.MovementRequest) (*MessageResponse, error) {
	out := new(MessageResponse)
	return out, c.invoke(ctx, catalog.Deposit, &gateway.DepositRequest{MovementRequest: in}, out)
}

func (c *Client) Withdraw(ctx context.Context, in gateway.MovementRequest) (*MessageResponse, error) {
	out := new(MessageResponse)
	return out, c.invoke(ctx, catalog.Withdraw, &gateway.WithdrawRequest{MovementRequest: in}, out)
}

func (c *Client) CreateTransfer(ctx context.Context, in gateway.CreateTransferRequest) (*MessageResponse, error) {
	out := new(MessageResponse)
	return out, c.invoke(ctx, catalog.CreateTransfer, &in, out)
}

func (c *Client) GetTransfer(ctx context.Context, in gateway.GetTransferRequest) (*domain.Transfer, error) {
	out := new(domain.Transfer)
	return out, c.invoke(ctx, catalog.GetTransfer, &in, out)
}

func (c *Client) GetTransferByStateKey(ctx context.Context, key string) (*domain.Transfer, error) {
	out := new(domain.Transfer)
	return out, c.invoke(ctx, catalog.GetTransferByStateKey, &gateway.GetTransferByStateKeyRequest{StateKey: key}, out)
}

func (c *Client) GetAllAccounts(ctx context.Context) ([]domain.Account, error) {
	out := new(AccountsResponse)
	err := c.invoke(ctx, catalog.GetAllAccounts, &gateway.GetAllAccountsRequest{}, out)
	return out.Accounts, err
}

func (c *Client) GetAllTransfers(ctx context.Context) ([]domain.Transfer, error) {
	out := new(TransfersResponse)
	err := c.invoke(ctx, catalog.GetAllTransfers, &gateway.GetAllTransfersRequest{}, out)
	return out.Transfers, err
}

func (c *Client) GetAllKeys(ctx context.Context) ([]string, error) {
	out := new(KeysResponse)
	err := c.invoke(ctx, catalog.GetAllKeys, &gateway.GetAllKeysRequest{}, out)
	return out.Keys, err
}

func (c *Client) DeleteAccount(ctx context.Context, userID string) (*MessageResponse, error) {
	out := new(MessageResponse)
	in := gateway.DeleteAccountRequest{UserRequest: gateway.UserRequest{UserID: userID}}
	return out, c.invoke(ctx, catalog.DeleteAccount, &in, out)
}

func (c *Client) GetAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	out := new(TransactionsResponse)
	err := c.invoke(ctx, catalog.GetAllTransactions, &gateway.GetAllTransactionsRequest{}, out)
	return out.Transactions, err
}

func (c *Client) QueryTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	out := new(TransactionsResponse)
	in := gateway.QueryTransactionsRequest{UserRequest: gateway.UserRequest{UserID: userID}}
	err := c.invoke(ctx, catalog.QueryTransactions, &in, out)
	return out.Transactions, err
}
