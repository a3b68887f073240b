// Command bankctl drives the banking gateway from the shell, one subcommand per
// catalog operation.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1 // the gateway or ledger refused the call
	exitUsage   = 2 // bad arguments, nothing was sent
)

// usageError marks errors that are the caller's fault.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	addr        string
	token       string
	timeout     time.Duration
	output      string
	hashSecrets bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var usage usageError
	var fail failure
	switch {
	case errors.As(err, &usage):
		fmt.Fprintln(stderr, "Error:", usage.err)
		return exitUsage
	case errors.As(err, &fail):
		msg := fail.err.Error()
		if st, ok := status.FromError(fail.err); ok {
			msg = st.Message() // ledger text verbatim
		}
		fmt.Fprintln(stderr, "Error:", msg)
		return exitFailure
	}
	// unknown subcommands and flag errors come from cobra itself
	fmt.Fprintln(stderr, "Error:", err)
	return exitUsage
}

// failure wraps errors that happened after arguments were accepted.
type failure struct{ err error }

func (e failure) Error() string { return e.err.Error() }
func (e failure) Unwrap() error { return e.err }

func newRootCmd(out io.Writer) *cobra.Command {
	cobra.EnableCaseInsensitive = true // "deposit" works as well as "Deposit"
	opts := &options{}
	root := &cobra.Command{
		Use:           "bankctl",
		Short:         "Banking ledger gateway CLI",
		Long:          "Command line interface for the banking ledger gateway. Every ledger operation is a subcommand taking its arguments in ledger order.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("BANKCTL_ADDR", "localhost:50051"), "gateway gRPC address")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BANKCTL_TOKEN"), "bearer token for gateways that require one")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "deadline of one call")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")

	for _, cmd := range operationCommands(opts, out) {
		root.AddCommand(cmd)
	}
	root.AddCommand(walletCmd(out))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
