package domain

import "github.com/shopspring/decimal"

// Transfer moves Amount from SenderID to ReceiverID in one state transition.
// The (SenderID, ReceiverID, ReferenceNumber) triple identifies it.
type Transfer struct {
	SenderID        string          `json:"senderID"`
	ReceiverID      string          `json:"receiverID"`
	ReferenceNumber string          `json:"referenceNumber"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       string          `json:"timestamp"` // Set once by the initiator, stored unchanged
}
