// Package fabric connects sessions to a Hyperledger Fabric network through the
// fabric-gateway client. Every session owns its own gRPC connection and gateway.
package fabric

import (
	"context"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	fabid "github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Options configures the connector.
type Options struct {
	Endpoint     string // gateway peer host:port
	HostOverride string // TLS server name when it differs from the endpoint host
	TLSCertPEM   []byte // peer TLS CA certificate; empty dials without TLS
	Channel      string
	Chaincode    string

	EvaluateTimeout time.Duration
	EndorseTimeout  time.Duration
	SubmitTimeout   time.Duration
	CommitTimeout   time.Duration
}

// Connector opens fabric sessions.
type Connector struct {
	opts  Options
	creds credentials.TransportCredentials
}

func NewConnector(opts Options) (*Connector, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("fabric: peer endpoint is required")
	}
	if opts.Channel == "" || opts.Chaincode == "" {
		return nil, errors.New("fabric: channel and chaincode are required")
	}
	creds := insecure.NewCredentials()
	if len(opts.TLSCertPEM) > 0 {
		cert, err := fabid.CertificateFromPEM(opts.TLSCertPEM)
		if err != nil {
			return nil, errors.Wrap(err, "fabric: parse peer tls certificate")
		}
		pool := x509.NewCertPool()
		pool.AddCert(cert)
		creds = credentials.NewClientTLSFromCert(pool, opts.HostOverride)
	}
	return &Connector{opts: opts, creds: creds}, nil
}

// Connect dials the peer, waits for the connection to become ready and binds cred to a gateway.
func (c *Connector) Connect(ctx context.Context, cred identity.Credential) (ledger.Session, error) {
	id, sign, err := signer(cred)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(c.opts.Endpoint, grpc.WithTransportCredentials(c.creds))
	if err != nil {
		return nil, errors.Wrapf(err, "fabric: dial %s", c.opts.Endpoint)
	}
	if err := waitReady(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "fabric: connect %s", c.opts.Endpoint)
	}
	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(c.opts.EvaluateTimeout),
		client.WithEndorseTimeout(c.opts.EndorseTimeout),
		client.WithSubmitTimeout(c.opts.SubmitTimeout),
		client.WithCommitStatusTimeout(c.opts.CommitTimeout),
	)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "fabric: open gateway")
	}
	return &session{
		conn:     conn,
		gw:       gw,
		contract: gw.GetNetwork(c.opts.Channel).GetContract(c.opts.Chaincode),
	}, nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		s := conn.GetState()
		if s == connectivity.Ready {
			return nil
		}
		if !conn.WaitForStateChange(ctx, s) {
			return ctx.Err()
		}
	}
}

func signer(cred identity.Credential) (*fabid.X509Identity, fabid.Sign, error) {
	cert, err := fabid.CertificateFromPEM([]byte(cred.Credentials.Certificate))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fabric: certificate of identity %q", cred.Label)
	}
	id, err := fabid.NewX509Identity(cred.MSPID, cert)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fabric: identity %q", cred.Label)
	}
	key, err := fabid.PrivateKeyFromPEM([]byte(cred.Credentials.PrivateKey))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fabric: private key of identity %q", cred.Label)
	}
	sign, err := fabid.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fabric: signer for identity %q", cred.Label)
	}
	return id, sign, nil
}

type session struct {
	conn     *grpc.ClientConn
	gw       *client.Gateway
	contract *client.Contract

	once sync.Once
	err  error
}

func (s *session) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := s.contract.EvaluateWithContext(ctx, name, client.WithArguments(args...))
	return out, classify(err)
}

func (s *session) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := s.contract.SubmitWithContext(ctx, name, client.WithArguments(args...))
	return out, classify(err)
}

func (s *session) Close() error {
	s.once.Do(func() {
		gwErr := s.gw.Close()
		connErr := s.conn.Close()
		if gwErr != nil {
			s.err = gwErr
		} else {
			s.err = connErr
		}
	})
	return s.err
}

// classify maps fabric-gateway failures onto ledger errors. A transaction that
// reached the orderer but whose commit was never observed is reported as
// ledger.ErrCommitUnknown, never as a plain failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		commitErr       *client.CommitError
		commitStatusErr *client.CommitStatusError
		submitErr       *client.SubmitError
		endorseErr      *client.EndorseError
	)
	switch {
	case errors.As(err, &commitErr):
		return &ledger.InvocationError{Message: commitErr.Error(), TxID: commitErr.TransactionID}
	case errors.As(err, &commitStatusErr):
		return fmt.Errorf("%w: transaction %s: %s", ledger.ErrCommitUnknown, commitStatusErr.TransactionID, message(err))
	case errors.As(err, &submitErr):
		return fmt.Errorf("%w: transaction %s: %s", ledger.ErrCommitUnknown, submitErr.TransactionID, message(err))
	case errors.As(err, &endorseErr):
		return &ledger.InvocationError{Message: message(err), TxID: endorseErr.TransactionID}
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Unavailable {
		return errors.Wrap(err, "fabric: peer unavailable")
	}
	return &ledger.InvocationError{Message: message(err)}
}

// message prefers the chaincode's own text carried in the status details.
func message(err error) string {
	st := status.Convert(err)
	for _, d := range st.Details() {
		if detail, ok := d.(*gateway.ErrorDetail); ok && detail.GetMessage() != "" {
			return detail.GetMessage()
		}
	}
	return st.Message()
}
