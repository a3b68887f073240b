package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledger_gateway/internal/config"
	"ledger_gateway/internal/identity"
	"ledger_gateway/internal/ledger/fabric"
	"ledger_gateway/internal/ledger/memledger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityStore(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := IdentityStore(ctx, &config.Config{IdentityStore: config.StoreFile, WalletPath: t.TempDir()})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &identity.FileStore{}, store)

	mr := miniredis.RunT(t)
	store, closeFn, err = IdentityStore(ctx, &config.Config{IdentityStore: config.StoreRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &identity.RedisStore{}, store)

	_, _, err = IdentityStore(ctx, &config.Config{IdentityStore: config.StoreRedis, RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestConnector(t *testing.T) {
	conn, err := Connector(&config.Config{LedgerDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memledger.Ledger{}, conn)

	_, err = Connector(&config.Config{LedgerDriver: "nope"})
	assert.Error(t, err)
}

func TestFabricConnectorFromProfile(t *testing.T) {
	dir := t.TempDir()
	profile := `{
  "name": "test-network-org1",
  "client": {"organization": "Org1"},
  "organizations": {"Org1": {"mspid": "Org1MSP", "peers": ["peer0.org1.example.com"]}},
  "peers": {"peer0.org1.example.com": {"url": "grpc://localhost:7051"}}
}`
	path := filepath.Join(dir, "connection-org1.json")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o600))

	conn, err := Connector(&config.Config{
		LedgerDriver:  config.DriverFabric,
		ProfilePath:   path,
		ChannelName:   "mychannel",
		ChaincodeName: "banking",
		SubmitTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.IsType(t, &fabric.Connector{}, conn)

	_, err = Connector(&config.Config{
		LedgerDriver:  config.DriverFabric,
		ProfilePath:   path,
		ChannelName:   "mychannel",
		ChaincodeName: "banking",
		TLSCertPath:   filepath.Join(dir, "missing.pem"),
	})
	assert.Error(t, err)
}

func TestGatewayConfig(t *testing.T) {
	cfg := &config.Config{IdentityLabel: "appUser", SubmitTimeout: 3 * time.Second, BalancePrecheck: true}
	gc := GatewayConfig(cfg)
	assert.Equal(t, "appUser", gc.Identity)
	assert.Equal(t, 3*time.Second, gc.SubmitTimeout)
	assert.True(t, gc.BalancePrecheck)
}
