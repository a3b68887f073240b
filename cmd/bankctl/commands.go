package main

import (
	"context"
	"fmt"
	"io"

	"ledger_gateway/internal/catalog"
	"ledger_gateway/internal/rpc"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// operationCommands builds one subcommand per catalog operation, arguments in
// catalog order.
func operationCommands(opts *options, out io.Writer) []*cobra.Command {
	var cmds []*cobra.Command
	for _, op := range catalog.All() {
		op := op
		cmd := &cobra.Command{
			Use:     op.Usage(),
			Aliases: op.Aliases,
			Short:   op.Summary,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOperation(cmd.Context(), opts, op, args, out)
			},
		}
		if op.Name == catalog.CreateAccount {
			cmd.Flags().BoolVar(&opts.hashSecrets, "hash-secrets", true, "bcrypt the idHash and passwordHash arguments before sending them")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runOperation(ctx context.Context, opts *options, op catalog.Operation, args []string, out io.Writer) error {
	if err := checkFormat(opts.output); err != nil {
		return usageError{err}
	}
	values, err := catalog.Positional(op.Name, args)
	if err != nil {
		return usageError{err}
	}
	if err := catalog.Validate(op.Name, values); err != nil {
		return usageError{err}
	}
	if op.Name == catalog.CreateAccount && opts.hashSecrets {
		for _, field := range []string{"idHash", "passwordHash"} {
			hash, err := bcrypt.GenerateFromPassword([]byte(values[field]), bcrypt.DefaultCost)
			if err != nil {
				return usageError{fmt.Errorf("%s: %w", field, err)}
			}
			values[field] = string(hash)
		}
	}

	client, err := rpc.Dial(opts.addr)
	if err != nil {
		return failure{err}
	}
	defer client.Close()
	if opts.token != "" {
		client = client.WithToken(opts.token)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	resp, err := client.Call(ctx, op.Name, values)
	if err != nil {
		return failure{err}
	}
	return render(out, opts.output, resp)
}
