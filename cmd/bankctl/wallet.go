package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"ledger_gateway/internal/bootstrap"
	"ledger_gateway/internal/config"
	"ledger_gateway/internal/identity"

	"github.com/spf13/cobra"
)

// walletCmd manages the identity store the gateway reads, configured by the same
// IDENTITY_STORE, WALLET_PATH and REDIS_* settings as the server.
func walletCmd(out io.Writer) *cobra.Command {
	var (
		label    string
		mspID    string
		certPath string
		keyPath  string
	)
	wallet := &cobra.Command{
		Use:   "wallet",
		Short: "Manage ledger identities",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import an enrolled certificate and private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if label == "" || mspID == "" || certPath == "" || keyPath == "" {
				return usageError{fmt.Errorf("--label, --msp-id, --cert and --key are required")}
			}
			cert, err := os.ReadFile(certPath)
			if err != nil {
				return usageError{err}
			}
			key, err := os.ReadFile(keyPath)
			if err != nil {
				return usageError{err}
			}
			cred := identity.Credential{
				Label:       label,
				MSPID:       mspID,
				Type:        identity.X509,
				Credentials: identity.Material{Certificate: string(cert), PrivateKey: string(key)},
			}
			if err := cred.Validate(); err != nil {
				return usageError{err}
			}
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return failure{err}
			}
			defer closeStore()
			if err := store.Put(cmd.Context(), cred); err != nil {
				return failure{err}
			}
			fmt.Fprintf(out, "Successfully imported identity %q into the wallet\n", label)
			return nil
		},
	}
	importCmd.Flags().StringVar(&label, "label", "", "identity label, e.g. admin or appUser")
	importCmd.Flags().StringVar(&mspID, "msp-id", "Org1MSP", "membership service provider id")
	importCmd.Flags().StringVar(&certPath, "cert", "", "PEM certificate file")
	importCmd.Flags().StringVar(&keyPath, "key", "", "PEM private key file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List identity labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return failure{err}
			}
			defer closeStore()
			labels, err := store.List(cmd.Context())
			if err != nil {
				return failure{err}
			}
			for _, l := range labels {
				fmt.Fprintln(out, l)
			}
			return nil
		},
	}

	wallet.AddCommand(importCmd, listCmd)
	return wallet
}

func openStore(ctx context.Context) (identity.Store, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return bootstrap.IdentityStore(ctx, config.LoadConfig())
}
