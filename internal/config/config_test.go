package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	testChdir(t, t.TempDir()) // no .env here
	for _, k := range []string{"APP_PORT", "LEDGER_DRIVER", "SUBMIT_TIMEOUT", "IDENTITY_STORE", "LOG_MAX_SIZE_MB"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, DriverFabric, cfg.LedgerDriver)
	assert.Equal(t, StoreFile, cfg.IdentityStore)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, time.Minute, cfg.CommitTimeout)
	assert.Equal(t, 100, cfg.LogMaxSizeMB)
}

func TestLoadConfigOverrides(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("LEDGER_DRIVER", "memory")
	t.Setenv("SUBMIT_TIMEOUT", "45")
	t.Setenv("EVALUATE_TIMEOUT", "250ms")
	t.Setenv("BALANCE_PRECHECK", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := LoadConfig()
	assert.Equal(t, DriverMemory, cfg.LedgerDriver)
	assert.Equal(t, 45*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.EvaluateTimeout)
	assert.True(t, cfg.BalancePrecheck)
	assert.Equal(t, 3, cfg.RedisDB)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{LedgerDriver: DriverMemory, IdentityStore: StoreFile, WalletPath: "w", IdentityLabel: "admin", JWTSecret: "s3cret"}
	}

	cfg := base()
	cfg.LedgerDriver = "couchdb"
	assert.ErrorContains(t, cfg.Validate(), "unknown ledger driver")

	cfg = base()
	cfg.LedgerDriver = DriverFabric
	cfg.ChannelName, cfg.ChaincodeName = "mychannel", "banking"
	assert.ErrorContains(t, cfg.Validate(), "FABRIC_CONNECTION_PROFILE")
	cfg.PeerEndpoint = "localhost:7051"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.IdentityStore = "vault"
	assert.ErrorContains(t, cfg.Validate(), "unknown identity store")

	cfg = base()
	cfg.JWTSecret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "bank", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "ledger"}
	assert.Equal(t, "bank:pw@tcp(db:3306)/ledger?parseTime=true", cfg.DSN())
}
