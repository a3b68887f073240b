// Package catalog is the fixed table of banking operations. The RPC surface, the
// HTTP surface and bankctl all bind their arguments through it, so argument names
// and order cannot drift between them.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Operation names. Each is both the RPC method name and the ledger transaction name.
const (
	CreateAccount         = "CreateAccount"
	GetAccount            = "GetAccount"
	UserExists            = "UserExists"
	Deposit               = "Deposit"
	Withdraw              = "Withdraw"
	CreateTransfer        = "CreateTransfer"
	GetTransfer           = "GetTransfer"
	GetTransferByStateKey = "GetTransferByStateKey"
	GetAllAccounts        = "GetAllAccounts"
	GetAllTransfers       = "GetAllTransfers"
	GetAllKeys            = "GetAllKeys"
	DeleteAccount         = "DeleteAccount"
	GetAllTransactions    = "GetAllTransactions"
	QueryTransactions     = "QueryTransactions"
)

// Mode tells whether an operation reads or mutates ledger state.
type Mode int

const (
	// Evaluate is a non-mutating read that any replica may serve.
	Evaluate Mode = iota
	// Submit is a mutating write that must be ordered and committed.
	Submit
)

func (m Mode) String() string {
	if m == Submit {
		return "submit"
	}
	return "evaluate"
}

// FieldType is the shape of one argument.
type FieldType int

const (
	String FieldType = iota
	Amount
	Timestamp
)

// Field is one named argument of an operation.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool // callers may omit it; the initiator fills it before dispatch
	Positive bool // amounts only: must be > 0 instead of >= 0
}

// Operation describes one catalog entry.
type Operation struct {
	Name           string
	Aliases        []string
	Mode           Mode
	Fields         []Field
	IdempotencyKey []string
	Privileged     bool // admin callers only when authentication is on
	Summary        string
}

// IsWrite reports whether the operation is dispatched as a submission.
func (o Operation) IsWrite() bool { return o.Mode == Submit }

// FieldNames returns the argument names in ledger order.
func (o Operation) FieldNames() []string {
	names := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		names[i] = f.Name
	}
	return names
}

// Usage renders a one-line synopsis, optional fields in brackets.
func (o Operation) Usage() string {
	var b strings.Builder
	b.WriteString(o.Name)
	for _, f := range o.Fields {
		if f.Optional {
			fmt.Fprintf(&b, " [%s]", f.Name)
		} else {
			fmt.Fprintf(&b, " <%s>", f.Name)
		}
	}
	return b.String()
}

func str(name string) Field { return Field{Name: name, Type: String} }

var (
	userID    = str("userID")
	reference = str("referenceNumber")
	timestamp = Field{Name: "timestamp", Type: Timestamp, Optional: true}
	positive  = Field{Name: "amount", Type: Amount, Positive: true}
)

var operations = []Operation{
	{
		Name:    CreateAccount,
		Aliases: []string{"ca"},
		Mode:    Submit,
		Fields: []Field{
			userID, str("name"), str("idHash"), str("email"), str("passwordHash"),
			str("phone"), str("role"), {Name: "balance", Type: Amount},
		},
		IdempotencyKey: []string{"userID"},
		Summary:        "Create an account with an initial balance",
	},
	{
		Name:    GetAccount,
		Aliases: []string{"QueryAccount", "Balance", "bal"},
		Mode:    Evaluate,
		Fields:  []Field{userID},
		Summary: "Show one account",
	},
	{
		Name:    UserExists,
		Mode:    Evaluate,
		Fields:  []Field{userID},
		Summary: "Check whether an account exists",
	},
	{
		Name:           Deposit,
		Aliases:        []string{"dep"},
		Mode:           Submit,
		Fields:         []Field{userID, positive, reference, timestamp},
		IdempotencyKey: []string{"userID", "referenceNumber"},
		Summary:        "Credit an account",
	},
	{
		Name:           Withdraw,
		Aliases:        []string{"with"},
		Mode:           Submit,
		Fields:         []Field{userID, positive, reference, timestamp},
		IdempotencyKey: []string{"userID", "referenceNumber"},
		Summary:        "Debit an account",
	},
	{
		Name:           CreateTransfer,
		Aliases:        []string{"Transfer"},
		Mode:           Submit,
		Fields:         []Field{str("senderID"), str("receiverID"), positive, reference, timestamp},
		IdempotencyKey: []string{"senderID", "receiverID", "referenceNumber"},
		Summary:        "Move funds between two accounts",
	},
	{
		Name:    GetTransfer,
		Mode:    Evaluate,
		Fields:  []Field{str("senderID"), str("receiverID"), reference},
		Summary: "Show one transfer by its key triple",
	},
	{
		Name:       GetTransferByStateKey,
		Privileged: true,
		Mode:       Evaluate,
		Fields:     []Field{str("stateKey")},
		Summary:    "Show one transfer by its ledger state key",
	},
	{
		Name:       GetAllAccounts,
		Privileged: true,
		Aliases:    []string{"gaa"},
		Mode:       Evaluate,
		Summary:    "List all accounts",
	},
	{
		Name:       GetAllTransfers,
		Privileged: true,
		Mode:       Evaluate,
		Summary:    "List all transfers",
	},
	{
		Name:       GetAllKeys,
		Privileged: true,
		Mode:       Evaluate,
		Summary:    "List all ledger state keys",
	},
	{
		Name:           DeleteAccount,
		Aliases:        []string{"da"},
		Mode:           Submit,
		Fields:         []Field{userID},
		IdempotencyKey: []string{"userID"},
		Privileged:     true,
		Summary:        "Delete an existing account",
	},
	{
		Name:       GetAllTransactions,
		Privileged: true,
		Mode:       Evaluate,
		Summary:    "List every journal entry",
	},
	{
		Name:    QueryTransactions,
		Aliases: []string{"qt"},
		Mode:    Evaluate,
		Fields:  []Field{userID},
		Summary: "List the journal of one account",
	},
}

var index = buildIndex()

func buildIndex() map[string]int {
	idx := make(map[string]int)
	for i, op := range operations {
		for _, name := range append([]string{op.Name}, op.Aliases...) {
			key := strings.ToLower(name)
			if _, dup := idx[key]; dup {
				panic("catalog: duplicate operation name " + name)
			}
			idx[key] = i
		}
	}
	return idx
}

// Lookup resolves an operation by name or alias, case-insensitively.
func Lookup(name string) (Operation, bool) {
	i, ok := index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Operation{}, false
	}
	return operations[i], true
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Operation {
	op, ok := Lookup(name)
	if !ok {
		panic("catalog: unknown operation " + name)
	}
	return op
}

// All returns every operation in table order.
func All() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Names returns the canonical operation names, sorted.
func Names() []string {
	names := make([]string, len(operations))
	for i, op := range operations {
		names[i] = op.Name
	}
	sort.Strings(names)
	return names
}

// ValidationError reports a malformed or missing argument.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", e.Op, e.Field, e.Reason)
}

// Validate checks values against the operation's fields. Optional fields may be
// absent; present fields must have the right shape.
func Validate(name string, values map[string]string) error {
	op, ok := Lookup(name)
	if !ok {
		return &ValidationError{Op: name, Reason: "unknown operation"}
	}
	return op.check(values, false)
}

// Bind validates values and returns them as ledger arguments in catalog order.
// Every field, optional or not, must be present by now.
func Bind(name string, values map[string]string) ([]string, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, &ValidationError{Op: name, Reason: "unknown operation"}
	}
	if err := op.check(values, true); err != nil {
		return nil, err
	}
	args := make([]string, len(op.Fields))
	for i, f := range op.Fields {
		args[i] = strings.TrimSpace(values[f.Name])
	}
	return args, nil
}

// Positional maps command-line arguments onto field names in catalog order.
func Positional(name string, args []string) (map[string]string, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, &ValidationError{Op: name, Reason: "unknown operation"}
	}
	required := 0
	for _, f := range op.Fields {
		if !f.Optional {
			required++
		}
	}
	if len(args) < required || len(args) > len(op.Fields) {
		return nil, &ValidationError{Op: op.Name, Reason: "usage: " + op.Usage()}
	}
	values := make(map[string]string, len(args))
	for i, a := range args {
		values[op.Fields[i].Name] = a
	}
	return values, nil
}

// Amounts are bounded so that arithmetic on them stays cheap.
const (
	MaxAmountScale  = 18 // digits after the decimal point
	MaxAmountDigits = 38 // significant digits
)

// ParseAmount parses a decimal amount within the MaxAmountScale and
// MaxAmountDigits bounds. The sign is left to the caller.
func ParseAmount(s string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	exp := amt.Exponent()
	if exp < -MaxAmountScale {
		return decimal.Zero, fmt.Errorf("more than %d decimal places", MaxAmountScale)
	}
	digits := len(strings.TrimPrefix(amt.Coefficient().String(), "-"))
	if exp > 0 {
		digits += int(exp)
	}
	if digits > MaxAmountDigits {
		return decimal.Zero, fmt.Errorf("more than %d significant digits", MaxAmountDigits)
	}
	return amt, nil
}

func (o Operation) check(values map[string]string, strict bool) error {
	known := make(map[string]struct{}, len(o.Fields))
	for _, f := range o.Fields {
		known[f.Name] = struct{}{}
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.Optional && !strict {
				continue
			}
			return &ValidationError{Op: o.Name, Field: f.Name, Reason: "is required"}
		}
		if f.Type != Amount {
			continue
		}
		amt, err := ParseAmount(v)
		if err != nil {
			return &ValidationError{Op: o.Name, Field: f.Name, Reason: "must be a decimal amount (" + err.Error() + ")"}
		}
		if f.Positive && !amt.IsPositive() {
			return &ValidationError{Op: o.Name, Field: f.Name, Reason: "must be greater than zero"}
		}
		if amt.IsNegative() {
			return &ValidationError{Op: o.Name, Field: f.Name, Reason: "must not be negative"}
		}
	}
	for k := range values {
		if _, ok := known[k]; !ok {
			return &ValidationError{Op: o.Name, Field: k, Reason: "is not an argument of this operation"}
		}
	}
	return nil
}
