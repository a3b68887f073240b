// Package rpc serves the gateway facade as the gRPC service banking.BankingService.
package rpc

import (
	"context"
	"fmt"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"
	"ledger_gateway/internal/gateway"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "banking.BankingService"

// FullMethod is the gRPC method path of a catalog operation.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// BankingServer is the server API of banking.BankingService.
type BankingServer interface {
	CreateAccount(context.Context, *gateway.CreateAccountRequest) (*MessageResponse, error)
	GetAccount(context.Context, *gateway.GetAccountRequest) (*domain.Account, error)
	UserExists(context.Context, *gateway.UserExistsRequest) (*ExistsResponse, error)
	Deposit(context.Context, *gateway.DepositRequest) (*MessageResponse, error)
	Withdraw(context.Context, *gateway.WithdrawRequest) (*MessageResponse, error)
	CreateTransfer(context.Context, *gateway.CreateTransferRequest) (*MessageResponse, error)
	GetTransfer(context.Context, *gateway.GetTransferRequest) (*domain.Transfer, error)
	GetTransferByStateKey(context.Context, *gateway.GetTransferByStateKeyRequest) (*domain.Transfer, error)
	GetAllAccounts(context.Context, *gateway.GetAllAccountsRequest) (*AccountsResponse, error)
	GetAllTransfers(context.Context, *gateway.GetAllTransfersRequest) (*TransfersResponse, error)
	GetAllKeys(context.Context, *gateway.GetAllKeysRequest) (*KeysResponse, error)
	DeleteAccount(context.Context, *gateway.DeleteAccountRequest) (*MessageResponse, error)
	GetAllTransactions(context.Context, *gateway.GetAllTransactionsRequest) (*TransactionsResponse, error)
	QueryTransactions(context.Context, *gateway.QueryTransactionsRequest) (*TransactionsResponse, error)
}

// ServiceDesc describes banking.BankingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BankingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(catalog.CreateAccount, BankingServer.CreateAccount),
		unary(catalog.GetAccount, BankingServer.GetAccount),
		unary(catalog.UserExists, BankingServer.UserExists),
		unary(catalog.Deposit, BankingServer.Deposit),
		unary(catalog.Withdraw, BankingServer.Withdraw),
		unary(catalog.CreateTransfer, BankingServer.CreateTransfer),
		unary(catalog.GetTransfer, BankingServer.GetTransfer),
		unary(catalog.GetTransferByStateKey, BankingServer.GetTransferByStateKey),
		unary(catalog.GetAllAccounts, BankingServer.GetAllAccounts),
		unary(catalog.GetAllTransfers, BankingServer.GetAllTransfers),
		unary(catalog.GetAllKeys, BankingServer.GetAllKeys),
		unary(catalog.DeleteAccount, BankingServer.DeleteAccount),
		unary(catalog.GetAllTransactions, BankingServer.GetAllTransactions),
		unary(catalog.QueryTransactions, BankingServer.QueryTransactions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "banking",
}

func unary[Req, Resp any](name string, call func(BankingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "malformed %s request: %v", name, status.Convert(err).Message())
			}
			if interceptor == nil {
				return call(srv.(BankingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BankingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Server adapts the facade to BankingServer. Errors leave it as gRPC statuses.
type Server struct {
	svc *gateway.Service
}

func NewBankingServer(svc *gateway.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) CreateAccount(ctx context.Context, in *gateway.CreateAccountRequest) (*MessageResponse, error) {
	if err := s.svc.CreateAccount(ctx, *in); err != nil {
		return nil, Status(err)
	}
	return &MessageResponse{Message: fmt.Sprintf("Account %s created", in.UserID)}, nil
}

func (s *Server) GetAccount(ctx context.Context, in *gateway.GetAccountRequest) (*domain.Account, error) {
	acc, err := s.svc.GetAccount(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &acc, nil
}

func (s *Server) UserExists(ctx context.Context, in *gateway.UserExistsRequest) (*ExistsResponse, error) {
	found, err := s.svc.UserExists(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &ExistsResponse{Exists: found}, nil
}

func (s *Server) Deposit(ctx context.Context, in *gateway.DepositRequest) (*MessageResponse, error) {
	used, err := s.svc.Deposit(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &MessageResponse{
		Message:   fmt.Sprintf("Deposited %s to account %s (reference %s)", used.Amount, used.UserID, used.ReferenceNumber),
		Timestamp: used.Timestamp,
	}, nil
}

func (s *Server) Withdraw(ctx context.Context, in *gateway.WithdrawRequest) (*MessageResponse, error) {
	used, err := s.svc.Withdraw(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &MessageResponse{
		Message:   fmt.Sprintf("Withdrew %s from account %s (reference %s)", used.Amount, used.UserID, used.ReferenceNumber),
		Timestamp: used.Timestamp,
	}, nil
}

func (s *Server) CreateTransfer(ctx context.Context, in *gateway.CreateTransferRequest) (*MessageResponse, error) {
	used, err := s.svc.CreateTransfer(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &MessageResponse{
		Message:   fmt.Sprintf("Transferred %s from %s to %s (reference %s)", used.Amount, used.SenderID, used.ReceiverID, used.ReferenceNumber),
		Timestamp: used.Timestamp,
	}, nil
}

func (s *Server) GetTransfer(ctx context.Context, in *gateway.GetTransferRequest) (*domain.Transfer, error) {
	tr, err := s.svc.GetTransfer(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &tr, nil
}

func (s *Server) GetTransferByStateKey(ctx context.Context, in *gateway.GetTransferByStateKeyRequest) (*domain.Transfer, error) {
	tr, err := s.svc.GetTransferByStateKey(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &tr, nil
}

func (s *Server) GetAllAccounts(ctx context.Context, _ *gateway.GetAllAccountsRequest) (*AccountsResponse, error) {
	accounts, err := s.svc.GetAllAccounts(ctx)
	if err != nil {
		return nil, Status(err)
	}
	return &AccountsResponse{Accounts: accounts}, nil
}

func (s *Server) GetAllTransfers(ctx context.Context, _ *gateway.GetAllTransfersRequest) (*TransfersResponse, error) {
	transfers, err := s.svc.GetAllTransfers(ctx)
	if err != nil {
		return nil, Status(err)
	}
	return &TransfersResponse{Transfers: transfers}, nil
}

func (s *Server) GetAllKeys(ctx context.Context, _ *gateway.GetAllKeysRequest) (*KeysResponse, error) {
	keys, err := s.svc.GetAllKeys(ctx)
	if err != nil {
		return nil, Status(err)
	}
	return &KeysResponse{Keys: keys}, nil
}

func (s *Server) DeleteAccount(ctx context.Context, in *gateway.DeleteAccountRequest) (*MessageResponse, error) {
	if err := s.svc.DeleteAccount(ctx, *in); err != nil {
		return nil, Status(err)
	}
	return &MessageResponse{Message: fmt.Sprintf("Account %s deleted", in.UserID)}, nil
}

func (s *Server) GetAllTransactions(ctx context.Context, _ *gateway.GetAllTransactionsRequest) (*TransactionsResponse, error) {
	txs, err := s.svc.GetAllTransactions(ctx)
	if err != nil {
		return nil, Status(err)
	}
	return &TransactionsResponse{Transactions: txs}, nil
}

func (s *Server) QueryTransactions(ctx context.Context, in *gateway.QueryTransactionsRequest) (*TransactionsResponse, error) {
	txs, err := s.svc.QueryTransactions(ctx, *in)
	if err != nil {
		return nil, Status(err)
	}
	return &TransactionsResponse{Transactions: txs}, nil
}
