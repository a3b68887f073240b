package domain

import "github.com/shopspring/decimal"

// Transaction types recorded in an account journal
const (
	TxDeposit  = "Deposit"
	TxWithdraw = "Withdraw"
	TxDebit    = "Debit"  // Sender leg of a transfer
	TxCredit   = "Credit" // Receiver leg of a transfer
)

// Transaction is one journal entry of an account
type Transaction struct {
	UserID          string          `json:"userID"`          // Account the entry belongs to
	ReferenceNumber string          `json:"referenceNumber"` // Caller supplied idempotency token
	Type            string          `json:"type"`            // Deposit, Withdraw, Debit or Credit
	Amount          decimal.Decimal `json:"amount"`          // Always positive
	Timestamp       string          `json:"timestamp"`       // Caller supplied timestamp
}
