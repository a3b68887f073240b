package rpc

import (
	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"
)

// MessageResponse confirms a committed write.
type MessageResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"` // timestamp recorded with the write
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type AccountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
}

type TransfersResponse struct {
	Transfers []domain.Transfer `json:"transfers"`
}

type KeysResponse struct {
	Keys []string `json:"keys"`
}

type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// NewResponse returns an empty response for the named operation.
func NewResponse(name string) (any, bool) {
	op, ok := catalog.Lookup(name)
	if !ok {
		return nil, false
	}
	switch op.Name {
	case catalog.GetAccount:
		return &domain.Account{}, true
	case catalog.UserExists:
		return &ExistsResponse{}, true
	case catalog.GetTransfer, catalog.GetTransferByStateKey:
		return &domain.Transfer{}, true
	case catalog.GetAllAccounts:
		return &AccountsResponse{}, true
	case catalog.GetAllTransfers:
		return &TransfersResponse{}, true
	case catalog.GetAllKeys:
		return &KeysResponse{}, true
	case catalog.GetAllTransactions, catalog.QueryTransactions:
		return &TransactionsResponse{}, true
	}
	return &MessageResponse{}, true
}
