package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"ledger_gateway/internal/catalog"
)

// Amount is decimal text as the caller sent it. It accepts JSON numbers and strings
// so that shape errors surface from catalog validation, not from decoding.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// Request is a typed operation input. Fields keys are catalog field names.
type Request interface {
	Operation() string
	Fields() map[string]string
}

// sensitive fields never reach the logs.
var sensitive = map[string]bool{"idHash": true, "passwordHash": true}

type CreateAccountRequest struct {
	UserID       string `json:"userID"`
	Name         string `json:"name"`
	IDHash       string `json:"idHash"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	Balance      Amount `json:"balance"`
}

func (CreateAccountRequest) Operation() string { return catalog.CreateAccount }

func (r CreateAccountRequest) Fields() map[string]string {
	return map[string]string{
		"userID":       r.UserID,
		"name":         r.Name,
		"idHash":       r.IDHash,
		"email":        r.Email,
		"passwordHash": r.PasswordHash,
		"phone":        r.Phone,
		"role":         r.Role,
		"balance":      string(r.Balance),
	}
}

// UserRequest addresses one account by id.
type UserRequest struct {
	UserID string `json:"userID"`
}

func (r UserRequest) Fields() map[string]string {
	return map[string]string{"userID": r.UserID}
}

type (
	GetAccountRequest        struct{ UserRequest }
	UserExistsRequest        struct{ UserRequest }
	DeleteAccountRequest     struct{ UserRequest }
	QueryTransactionsRequest struct{ UserRequest }
)

func (GetAccountRequest) Operation() string        { return catalog.GetAccount }
func (UserExistsRequest) Operation() string        { return catalog.UserExists }
func (DeleteAccountRequest) Operation() string     { return catalog.DeleteAccount }
func (QueryTransactionsRequest) Operation() string { return catalog.QueryTransactions }

// MovementRequest is a deposit or a withdrawal.
type MovementRequest struct {
	UserID          string `json:"userID"`
	Amount          Amount `json:"amount"`
	ReferenceNumber string `json:"referenceNumber"`
	Timestamp       string `json:"timestamp,omitempty"`
}

func (r MovementRequest) Fields() map[string]string {
	return map[string]string{
		"userID":          r.UserID,
		"amount":          string(r.Amount),
		"referenceNumber": r.ReferenceNumber,
		"timestamp":       r.Timestamp,
	}
}

type (
	DepositRequest  struct{ MovementRequest }
	WithdrawRequest struct{ MovementRequest }
)

func (DepositRequest) Operation() string  { return catalog.Deposit }
func (WithdrawRequest) Operation() string { return catalog.Withdraw }

type CreateTransferRequest struct {
	SenderID        string `json:"senderID"`
	ReceiverID      string `json:"receiverID"`
	Amount          Amount `json:"amount"`
	ReferenceNumber string `json:"referenceNumber"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// checker is implemented by requests with rules that span several fields.
type checker interface {
	check() error
}

func (r CreateTransferRequest) check() error {
	if strings.TrimSpace(r.SenderID) == strings.TrimSpace(r.ReceiverID) {
		return &catalog.ValidationError{Op: catalog.CreateTransfer, Field: "receiverID", Reason: "must differ from senderID"}
	}
	return nil
}

func (CreateTransferRequest) Operation() string { return catalog.CreateTransfer }

func (r CreateTransferRequest) Fields() map[string]string {
	return map[string]string{
		"senderID":        r.SenderID,
		"receiverID":      r.ReceiverID,
		"amount":          string(r.Amount),
		"referenceNumber": r.ReferenceNumber,
		"timestamp":       r.Timestamp,
	}
}

type GetTransferRequest struct {
	SenderID        string `json:"senderID"`
	ReceiverID      string `json:"receiverID"`
	ReferenceNumber string `json:"referenceNumber"`
}

func (GetTransferRequest) Operation() string { return catalog.GetTransfer }

func (r GetTransferRequest) Fields() map[string]string {
	return map[string]string{
		"senderID":        r.SenderID,
		"receiverID":      r.ReceiverID,
		"referenceNumber": r.ReferenceNumber,
	}
}

type GetTransferByStateKeyRequest struct {
	StateKey string `json:"stateKey"`
}

func (GetTransferByStateKeyRequest) Operation() string { return catalog.GetTransferByStateKey }

func (r GetTransferByStateKeyRequest) Fields() map[string]string {
	return map[string]string{"stateKey": r.StateKey}
}

// Empty is the input of the argument-free listings.
type Empty struct{}

func (Empty) Fields() map[string]string { return map[string]string{} }

type (
	GetAllAccountsRequest     struct{ Empty }
	GetAllTransfersRequest    struct{ Empty }
	GetAllKeysRequest         struct{ Empty }
	GetAllTransactionsRequest struct{ Empty }
)

func (GetAllAccountsRequest) Operation() string     { return catalog.GetAllAccounts }
func (GetAllTransfersRequest) Operation() string    { return catalog.GetAllTransfers }
func (GetAllKeysRequest) Operation() string         { return catalog.GetAllKeys }
func (GetAllTransactionsRequest) Operation() string { return catalog.GetAllTransactions }

// NewRequest returns a zero request for the named operation, for decoders that
// dispatch by name.
func NewRequest(name string) (Request, bool) {
	op, ok := catalog.Lookup(name)
	if !ok {
		return nil, false
	}
	switch op.Name {
	case catalog.CreateAccount:
		return &CreateAccountRequest{}, true
	case catalog.GetAccount:
		return &GetAccountRequest{}, true
	case catalog.UserExists:
		return &UserExistsRequest{}, true
	case catalog.Deposit:
		return &DepositRequest{}, true
	case catalog.Withdraw:
		return &WithdrawRequest{}, true
	case catalog.CreateTransfer:
		return &CreateTransferRequest{}, true
	case catalog.GetTransfer:
		return &GetTransferRequest{}, true
	case catalog.GetTransferByStateKey:
		return &GetTransferByStateKeyRequest{}, true
	case catalog.GetAllAccounts:
		return &GetAllAccountsRequest{}, true
	case catalog.GetAllTransfers:
		return &GetAllTransfersRequest{}, true
	case catalog.GetAllKeys:
		return &GetAllKeysRequest{}, true
	case catalog.DeleteAccount:
		return &DeleteAccountRequest{}, true
	case catalog.GetAllTransactions:
		return &GetAllTransactionsRequest{}, true
	case catalog.QueryTransactions:
		return &QueryTransactionsRequest{}, true
	}
	return nil, false
}

// FromFields fills a request for the named operation from catalog field values.
func FromFields(name string, values map[string]string) (Request, error) {
	if err := catalog.Validate(name, values); err != nil {
		return nil, opError(name, ErrValidation, err)
	}
	req, _ := NewRequest(name)
	raw := make(map[string]string, len(values))
	for k, v := range values {
		raw[k] = strings.TrimSpace(v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, opError(name, ErrValidation, err)
	}
	if err := json.Unmarshal(b, req); err != nil {
		return nil, opError(name, ErrValidation, err)
	}
	return req, nil
}
