// Package contract executes the banking chaincode transactions against a key/value
// world state. The development ledgers (memledger, sqlledger) run it in process;
// against a fabric network the deployed chaincode plays this role.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/domain"

	"github.com/shopspring/decimal"
)

// State key prefixes
const (
	AccountPrefix     = "USER_"
	TransactionPrefix = "TRANSACTION_"
	TransferPrefix    = "TRANSACTION_TRANSFER_"
)

func AccountKey(userID string) string { return AccountPrefix + userID }

func TransactionKey(userID, ref string) string {
	return TransactionPrefix + userID + "_" + ref
}

func TransferKey(senderID, receiverID, ref string) string {
	return fmt.Sprintf("%s%s_%s_%s", TransferPrefix, senderID, receiverID, ref)
}

// Invoke runs the named transaction with its ledger arguments. Writes go to st;
// callers that must not persist a failed transaction pass an Overlay.
func Invoke(st State, name string, args []string) ([]byte, error) {
	op, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("function %s not found in contract banking", name)
	}
	if len(args) != len(op.Fields) {
		return nil, fmt.Errorf("incorrect number of params. Expected %d, received %d", len(op.Fields), len(args))
	}
	c := &ctx{st: st}
	switch op.Name {
	case catalog.CreateAccount:
		return nil, c.createAccount(args)
	case catalog.GetAccount:
		acc, err := c.account(args[0])
		if err != nil {
			return nil, err
		}
		return json.Marshal(acc)
	case catalog.UserExists:
		b, err := st.GetState(AccountKey(args[0]))
		if err != nil {
			return nil, err
		}
		return []byte(strconv.FormatBool(b != nil)), nil
	case catalog.Deposit:
		return nil, c.move(domain.TxDeposit, args)
	case catalog.Withdraw:
		return nil, c.move(domain.TxWithdraw, args)
	case catalog.CreateTransfer:
		return nil, c.transfer(args)
	case catalog.GetTransfer:
		return c.rawTransfer(TransferKey(args[0], args[1], args[2]))
	case catalog.GetTransferByStateKey:
		if !strings.HasPrefix(args[0], TransferPrefix) {
			return nil, fmt.Errorf("state key %s is not a transfer", args[0])
		}
		return c.rawTransfer(args[0])
	case catalog.GetAllAccounts:
		accs, err := c.accounts()
		if err != nil {
			return nil, err
		}
		return json.Marshal(accs)
	case catalog.GetAllTransfers:
		ts, err := c.transfers()
		if err != nil {
			return nil, err
		}
		return json.Marshal(ts)
	case catalog.GetAllKeys:
		keys, err := st.Keys("")
		if err != nil {
			return nil, err
		}
		if keys == nil {
			keys = []string{}
		}
		return json.Marshal(keys)
	case catalog.DeleteAccount:
		if _, err := c.account(args[0]); err != nil {
			return nil, err
		}
		return nil, st.DelState(AccountKey(args[0]))
	case catalog.GetAllTransactions:
		txs, err := c.journal("")
		if err != nil {
			return nil, err
		}
		return json.Marshal(txs)
	case catalog.QueryTransactions:
		txs, err := c.journal(args[0])
		if err != nil {
			return nil, err
		}
		return json.Marshal(txs)
	}
	return nil, fmt.Errorf("function %s not found in contract banking", name)
}

type ctx struct {
	st State
}

func (c *ctx) account(userID string) (*domain.Account, error) {
	b, err := c.st.GetState(AccountKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %v", err)
	}
	if b == nil {
		return nil, fmt.Errorf("account %s does not exist", userID)
	}
	var acc domain.Account
	if err := json.Unmarshal(b, &acc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %v", err)
	}
	return &acc, nil
}

func (c *ctx) put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.st.PutState(key, b)
}

func parseAmount(s string, positive bool) (decimal.Decimal, error) {
	amt, err := catalog.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %v", err)
	}
	if amt.IsNegative() || (positive && amt.IsZero()) {
		return decimal.Zero, errors.New("invalid amount: must be positive")
	}
	return amt, nil
}

func (c *ctx) createAccount(args []string) error {
	existing, err := c.st.GetState(AccountKey(args[0]))
	if err != nil {
		return fmt.Errorf("failed to check for existing account: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("account %s already exists", args[0])
	}
	balance, err := parseAmount(args[7], false)
	if err != nil {
		return err
	}
	return c.put(AccountKey(args[0]), domain.Account{
		UserID:       args[0],
		Name:         args[1],
		IDHash:       args[2],
		Email:        args[3],
		PasswordHash: args[4],
		Phone:        args[5],
		Role:         args[6],
		Balance:      balance,
	})
}

// move applies a deposit or withdrawal: args are userID, amount, referenceNumber, timestamp.
func (c *ctx) move(kind string, args []string) error {
	amount, err := parseAmount(args[1], true)
	if err != nil {
		return err
	}
	acc, err := c.account(args[0])
	if err != nil {
		return err
	}
	txKey := TransactionKey(args[0], args[2])
	if prior, err := c.st.GetState(txKey); err != nil {
		return err
	} else if prior != nil {
		return fmt.Errorf("transaction %s already recorded for account %s", args[2], args[0])
	}
	if kind == domain.TxWithdraw {
		if acc.Balance.LessThan(amount) {
			return errors.New("insufficient balance")
		}
		acc.Balance = acc.Balance.Sub(amount)
	} else {
		acc.Balance = acc.Balance.Add(amount)
	}
	if err := c.put(AccountKey(acc.UserID), acc); err != nil {
		return err
	}
	return c.put(txKey, domain.Transaction{
		UserID:          acc.UserID,
		ReferenceNumber: args[2],
		Type:            kind,
		Amount:          amount,
		Timestamp:       args[3],
	})
}

// transfer args are senderID, receiverID, amount, referenceNumber, timestamp.
func (c *ctx) transfer(args []string) error {
	senderID, receiverID, ref := args[0], args[1], args[3]
	if senderID == receiverID {
		return errors.New("sender and receiver must differ")
	}
	amount, err := parseAmount(args[2], true)
	if err != nil {
		return err
	}
	key := TransferKey(senderID, receiverID, ref)
	if prior, err := c.st.GetState(key); err != nil {
		return err
	} else if prior != nil {
		return fmt.Errorf("transfer %s already exists", key)
	}
	sender, err := c.account(senderID)
	if err != nil {
		return fmt.Errorf("sender account not found: %v", err)
	}
	receiver, err := c.account(receiverID)
	if err != nil {
		return fmt.Errorf("receiver account not found: %v", err)
	}
	if sender.Balance.LessThan(amount) {
		return errors.New("insufficient balance for transfer")
	}
	sender.Balance = sender.Balance.Sub(amount)
	receiver.Balance = receiver.Balance.Add(amount)
	if err := c.put(AccountKey(senderID), sender); err != nil {
		return err
	}
	if err := c.put(AccountKey(receiverID), receiver); err != nil {
		return err
	}
	t := domain.Transfer{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		ReferenceNumber: ref,
		Amount:          amount,
		Timestamp:       args[4],
	}
	return c.put(key, t)
}

func (c *ctx) rawTransfer(key string) ([]byte, error) {
	b, err := c.st.GetState(key)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("transfer not found")
	}
	return b, nil
}

func (c *ctx) accounts() ([]domain.Account, error) {
	keys, err := c.st.Keys(AccountPrefix)
	if err != nil {
		return nil, err
	}
	accs := make([]domain.Account, 0, len(keys))
	for _, k := range keys {
		acc, err := c.account(strings.TrimPrefix(k, AccountPrefix))
		if err != nil {
			return nil, err
		}
		accs = append(accs, *acc)
	}
	return accs, nil
}

func (c *ctx) transfers() ([]domain.Transfer, error) {
	keys, err := c.st.Keys(TransferPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transfer, 0, len(keys))
	for _, k := range keys {
		b, err := c.st.GetState(k)
		if err != nil {
			return nil, err
		}
		var t domain.Transfer
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("error unmarshalling transfer: %v", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// journal lists deposits, withdrawals and transfer legs, for one account or all when userID is empty.
func (c *ctx) journal(userID string) ([]domain.Transaction, error) {
	keys, err := c.st.Keys(TransactionPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0)
	for _, k := range keys {
		if strings.HasPrefix(k, TransferPrefix) {
			continue
		}
		b, err := c.st.GetState(k)
		if err != nil {
			return nil, err
		}
		var tx domain.Transaction
		if err := json.Unmarshal(b, &tx); err != nil {
			return nil, fmt.Errorf("error unmarshalling transaction: %v", err)
		}
		if userID == "" || tx.UserID == userID {
			out = append(out, tx)
		}
	}
	ts, err := c.transfers()
	if err != nil {
		return nil, err
	}
	for _, t := range ts {
		if userID == "" || t.SenderID == userID {
			out = append(out, domain.Transaction{UserID: t.SenderID, ReferenceNumber: t.ReferenceNumber, Type: domain.TxDebit, Amount: t.Amount, Timestamp: t.Timestamp})
		}
		if userID == "" || t.ReceiverID == userID {
			out = append(out, domain.Transaction{UserID: t.ReceiverID, ReferenceNumber: t.ReferenceNumber, Type: domain.TxCredit, Amount: t.Amount, Timestamp: t.Timestamp})
		}
	}
	return out, nil
}
