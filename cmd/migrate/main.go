package main

import (
	"ledger_gateway/internal/config"           // Custom import path (Config)
	"ledger_gateway/internal/ledger/sqlledger" // SQL world state

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Open the SQL ledger with the DSN built from configuration
	l, err := sqlledger.OpenMySQL(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := l.Migrate(); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
