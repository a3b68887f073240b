// Package sqlledger runs the banking contract against a world state kept in a SQL
// database through gorm. Each submission is one database transaction with the rows
// it reads locked, which gives the same all-or-nothing commit a ledger network does.
package sqlledger

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"
	"ledger_gateway/internal/ledger/contract"

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"
)

// Ledger is a Connector over a gorm database
type Ledger struct {
	db *gorm.DB
}

// New wraps an open database
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// OpenMySQL connects to MySQL using a DSN built from configuration
func OpenMySQL(dsn string) (*Ledger, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Migrate creates or updates the world-state table
func (l *Ledger) Migrate() error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := l.db.AutoMigrate(&Entry{}); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// Connect checks the database is reachable and opens a session for cred
func (l *Ledger) Connect(ctx context.Context, cred identity.Credential) (ledger.Session, error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return &session{db: l.db, cred: cred}, nil
}

type session struct {
	db     *gorm.DB
	cred   identity.Credential
	closed atomic.Bool
}

func (s *session) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ledger.ErrSessionClosed
	}
	// Reads run outside a transaction and their writes are dropped with the overlay
	out, err := contract.Invoke(contract.NewOverlay(&state{tx: s.db.WithContext(ctx)}), name, args)
	return out, wrap(ctx, err)
}

func (s *session) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ledger.ErrSessionClosed
	}
	var out []byte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ov := contract.NewOverlay(&state{tx: tx, lock: true})
		var err error
		if out, err = contract.Invoke(ov, name, args); err != nil {
			return err // Return error to rollback
		}
		return ov.Commit() // Commit transaction
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"transaction": name,         // Ledger transaction name
			"identity":    s.cred.Label, // Submitting identity
			"error":       err.Error(),  // Error message
		}).Debug("SQL ledger submission rolled back")
		return nil, wrap(ctx, err)
	}
	return out, nil
}

func (s *session) Close() error {
	s.closed.Store(true)
	return nil
}

// wrap turns contract rejections into ledger invocation errors and leaves
// context and database failures as they are
func wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var dbErr dbError
	if errors.As(err, &dbErr) {
		return dbErr.err
	}
	return &ledger.InvocationError{Message: err.Error()}
}

// dbError marks failures of the database itself, as opposed to contract rejections
type dbError struct{ err error }

func (e dbError) Error() string { return e.err.Error() }
func (e dbError) Unwrap() error { return e.err }

// state implements contract.State over a gorm handle
type state struct {
	tx   *gorm.DB
	lock bool // SELECT ... FOR UPDATE inside submissions
}

func (s *state) GetState(key string) ([]byte, error) {
	q := s.tx
	if s.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var e Entry
	err := q.Where("state_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError{err}
	}
	return e.Value, nil
}

func (s *state) PutState(key string, value []byte) error {
	e := Entry{StateKey: key, Value: value}
	if err := s.tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error; err != nil {
		return dbError{err}
	}
	return nil
}

func (s *state) DelState(key string) error {
	if err := s.tx.Where("state_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return dbError{err}
	}
	return nil
}

// likeEscaper escapes LIKE wildcards with '!', which MySQL and SQLite read the same way
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (s *state) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.tx.Model(&Entry{}).
		Where("state_key LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"%").
		Order("state_key").
		Pluck("state_key", &keys).Error
	if err != nil {
		return nil, dbError{err}
	}
	return keys, nil
}
