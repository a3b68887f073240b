// Package identity stores the credentials the gateway binds to ledger sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no credential exists under a label.
var ErrNotFound = errors.New("identity not found")

// X509 is the only credential type the gateway understands.
const X509 = "X.509"

// Material holds the PEM encoded certificate and private key.
type Material struct {
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"privateKey"`
}

// Credential is one enrolled identity. The layout matches a fabric wallet entry.
type Credential struct {
	Label       string   `json:"label,omitempty"`
	MSPID       string   `json:"mspId"`
	Type        string   `json:"type"`
	Version     int      `json:"version"`
	Credentials Material `json:"credentials"`
}

// Validate checks the fields every connector needs.
func (c Credential) Validate() error {
	if err := checkLabel(c.Label); err != nil {
		return err
	}
	if c.MSPID == "" {
		return fmt.Errorf("identity %q: mspId is required", c.Label)
	}
	if c.Type != "" && c.Type != X509 {
		return fmt.Errorf("identity %q: unsupported credential type %q", c.Label, c.Type)
	}
	return nil
}

// Store looks up and saves credentials by label.
type Store interface {
	Get(ctx context.Context, label string) (Credential, error)
	Put(ctx context.Context, cred Credential) error
	List(ctx context.Context) ([]string, error)
}

func checkLabel(label string) error {
	if label == "" {
		return errors.New("identity label is required")
	}
	if strings.ContainsAny(label, `/\:`) || label == "." || label == ".." {
		return fmt.Errorf("identity label %q contains path characters", label)
	}
	return nil
}

func normalize(cred Credential) Credential {
	if cred.Type == "" {
		cred.Type = X509
	}
	if cred.Version == 0 {
		cred.Version = 1
	}
	return cred
}
