// Package bootstrap turns configuration into the gateway's collaborators.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"ledger_gateway/internal/config"
	"ledger_gateway/internal/gateway"
	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger"
	"ledger_gateway/internal/ledger/fabric"
	"ledger_gateway/internal/ledger/memledger"
	"ledger_gateway/internal/ledger/sqlledger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IdentityStore opens the configured store. The returned func releases it.
func IdentityStore(ctx context.Context, cfg *config.Config) (identity.Store, func(), error) {
	switch cfg.IdentityStore {
	case config.StoreRedis:
		// Setup Redis client
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return identity.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	case config.StoreFile:
		return identity.NewFileStore(cfg.WalletPath), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown identity store %q", cfg.IdentityStore)
}

// Connector builds the configured ledger connector.
func Connector(cfg *config.Config) (ledger.Connector, error) {
	switch cfg.LedgerDriver {
	case config.DriverMemory:
		logrus.Warn("Using the in-memory ledger; state is lost on exit")
		return memledger.New(), nil
	case config.DriverSQL:
		l, err := sqlledger.OpenMySQL(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		return l, nil
	case config.DriverFabric:
		return fabricConnector(cfg)
	}
	return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
}

// fabricConnector resolves the gateway peer from the connection profile, with
// FABRIC_* settings taking precedence.
func fabricConnector(cfg *config.Config) (*fabric.Connector, error) {
	var peer fabric.PeerEndpoint
	if cfg.ProfilePath != "" {
		profile, err := fabric.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		if peer, err = profile.GatewayPeer(); err != nil {
			return nil, err
		}
	}
	if cfg.PeerEndpoint != "" {
		peer.Endpoint = cfg.PeerEndpoint
	}
	if cfg.PeerHostName != "" {
		peer.HostOverride = cfg.PeerHostName
	}
	if cfg.TLSCertPath != "" {
		pem, err := os.ReadFile(cfg.TLSCertPath)
		if err != nil {
			return nil, fmt.Errorf("read peer tls certificate: %w", err)
		}
		peer.TLSCertPEM = pem
	}
	logrus.WithFields(logrus.Fields{
		"peer":      peer.Endpoint,
		"channel":   cfg.ChannelName,
		"chaincode": cfg.ChaincodeName,
		"tls":       len(peer.TLSCertPEM) > 0,
	}).Info("Using Fabric gateway peer")
	return fabric.NewConnector(fabric.Options{
		Endpoint:        peer.Endpoint,
		HostOverride:    peer.HostOverride,
		TLSCertPEM:      peer.TLSCertPEM,
		Channel:         cfg.ChannelName,
		Chaincode:       cfg.ChaincodeName,
		EvaluateTimeout: cfg.EvaluateTimeout,
		EndorseTimeout:  cfg.SubmitTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
		CommitTimeout:   cfg.CommitTimeout,
	})
}

// GatewayConfig extracts the facade settings.
func GatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		Identity:        cfg.IdentityLabel,
		SessionTimeout:  cfg.SessionTimeout,
		EvaluateTimeout: cfg.EvaluateTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
		BalancePrecheck: cfg.BalancePrecheck,
	}
}
