package domain

import "github.com/shopspring/decimal" // Fixed-point amounts

// Account roles
const (
	RoleUser  = "user"  // Regular account holder
	RoleAdmin = "admin" // May run privileged operations
)

// Account is the ledger record of one customer account
type Account struct {
	UserID       string          `json:"userID"`       // Unique, immutable account id
	Name         string          `json:"name"`         // Display name
	IDHash       string          `json:"idHash"`       // Salted hash of the national id
	Email        string          `json:"email"`        // Contact email
	PasswordHash string          `json:"passwordHash"` // Salted password hash
	Phone        string          `json:"phone"`        // Contact phone number
	Role         string          `json:"role"`         // Role tag: user or admin
	Balance      decimal.Decimal `json:"balance"`      // Never negative on a committed state
}

// Redacted returns a copy without the hashed identity fields, for responses that leave the gateway
func (a Account) Redacted() Account {
	a.IDHash = ""
	a.PasswordHash = ""
	return a
}
