package sqlledger

import "time"

// Entry is one key of the world state
type Entry struct {
	StateKey  string    `gorm:"primaryKey;size:255"` // Ledger state key
	Value     []byte    `gorm:"not null"`            // JSON record
	UpdatedAt time.Time // Last commit touching the key
}

// TableName pins the table name used by migrations
func (Entry) TableName() string { return "ledger_state" }
