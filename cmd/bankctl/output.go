package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"ledger_gateway/internal/domain"
	"ledger_gateway/internal/rpc"

	"gopkg.in/yaml.v3"
)

func checkFormat(format string) error {
	switch format {
	case "json", "yaml", "table", "":
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// render prints a response. Confirmations of writes print as one line in every
// format except json and yaml.
func render(out io.Writer, format string, resp any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		// Round trip through JSON so keys follow the json tags
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(generic)
	case "table", "":
		return table(out, resp)
	}
	return usageError{checkFormat(format)}
}

func table(out io.Writer, resp any) error {
	switch r := resp.(type) {
	case *rpc.MessageResponse:
		fmt.Fprintln(out, r.Message)
		if r.Timestamp != "" {
			fmt.Fprintln(out, "Timestamp:", r.Timestamp)
		}
		return nil
	case *rpc.ExistsResponse:
		fmt.Fprintln(out, strconv.FormatBool(r.Exists))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch r := resp.(type) {
	case *domain.Account:
		accountRows(w, []domain.Account{*r})
	case *rpc.AccountsResponse:
		accountRows(w, r.Accounts)
	case *domain.Transfer:
		transferRows(w, []domain.Transfer{*r})
	case *rpc.TransfersResponse:
		transferRows(w, r.Transfers)
	case *rpc.TransactionsResponse:
		fmt.Fprintln(w, "USER ID\tREFERENCE\tTYPE\tAMOUNT\tTIMESTAMP")
		for _, t := range r.Transactions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.UserID, t.ReferenceNumber, t.Type, t.Amount, t.Timestamp)
		}
	case *rpc.KeysResponse:
		fmt.Fprintln(w, "KEY")
		for _, k := range r.Keys {
			fmt.Fprintln(w, k)
		}
	default:
		return fmt.Errorf("no table layout for %T", resp)
	}
	return w.Flush()
}

// accountRows leaves the hashed fields out.
func accountRows(w io.Writer, accounts []domain.Account) {
	fmt.Fprintln(w, "USER ID\tNAME\tEMAIL\tPHONE\tROLE\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.UserID, a.Name, a.Email, a.Phone, a.Role, a.Balance)
	}
}

func transferRows(w io.Writer, transfers []domain.Transfer) {
	fmt.Fprintln(w, "SENDER\tRECEIVER\tREFERENCE\tAMOUNT\tTIMESTAMP")
	for _, t := range transfers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.SenderID, t.ReceiverID, t.ReferenceNumber, t.Amount, t.Timestamp)
	}
}
