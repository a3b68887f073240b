package config

import (
	"fmt"     // Error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Timeout parsing

	"github.com/joho/godotenv" // For loading .env files
)

// Ledger drivers
const (
	DriverFabric = "fabric" // Hyperledger Fabric network through the gateway SDK
	DriverSQL    = "sql"    // MySQL backed world state
	DriverMemory = "memory" // In-process ledger, state lost on exit
)

// Identity stores
const (
	StoreFile  = "file"  // One <label>.id file per identity
	StoreRedis = "redis" // JSON values in redis
)

// Config holds the application configuration
type Config struct {
	AppPort  string // HTTP port
	GRPCPort string // gRPC port
	IsProd   bool   // Is production environment

	JWTSecret string // JWT secret key
	RPCAuth   bool   // Require a bearer token on gRPC calls

	LedgerDriver   string // fabric, sql or memory
	ChannelName    string // Fabric channel
	ChaincodeName  string // Fabric chaincode
	ProfilePath    string // Fabric connection profile (JSON or YAML)
	PeerEndpoint   string // Gateway peer host:port, overrides the profile
	PeerHostName   string // TLS server name override for the peer
	TLSCertPath    string // Peer TLS CA certificate, overrides the profile
	CommitTimeout  time.Duration
	IdentityStore  string // file or redis
	WalletPath     string // Directory of the file identity store
	IdentityLabel  string // Identity the gateway acts as
	SessionTimeout time.Duration

	EvaluateTimeout time.Duration // Bound on one evaluation
	SubmitTimeout   time.Duration // Bound on one submission
	BalancePrecheck bool          // Advisory overdraft check before submitting

	RedisAddr string // Redis server address
	RedisPass string // Redis password
	RedisDB   int    // Redis database number

	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name

	LogLevel      string // logrus level name
	LogFile       string // Rotated log file; stderr when empty
	LogMaxSizeMB  int    // Rotate after this many megabytes
	LogMaxAgeDays int    // Drop rotated files older than this
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:  getenv("APP_PORT", "8080"),   // HTTP port
		GRPCPort: getenv("GRPC_PORT", "50051"), // gRPC port
		IsProd:   os.Getenv("IS_PROD") == "true",

		JWTSecret: os.Getenv("JWT_SECRET"),         // JWT secret key
		RPCAuth:   os.Getenv("RPC_AUTH") == "true", // Bearer token on gRPC

		LedgerDriver:   getenv("LEDGER_DRIVER", DriverFabric),
		ChannelName:    getenv("CHANNEL_NAME", "mychannel"),
		ChaincodeName:  getenv("CHAINCODE_NAME", "banking"),
		ProfilePath:    os.Getenv("FABRIC_CONNECTION_PROFILE"),
		PeerEndpoint:   os.Getenv("FABRIC_PEER_ENDPOINT"),
		PeerHostName:   os.Getenv("FABRIC_PEER_HOST_OVERRIDE"),
		TLSCertPath:    os.Getenv("FABRIC_TLS_CERT"),
		CommitTimeout:  duration("COMMIT_TIMEOUT", time.Minute),
		IdentityStore:  getenv("IDENTITY_STORE", StoreFile),
		WalletPath:     getenv("WALLET_PATH", "./wallet"),
		IdentityLabel:  getenv("IDENTITY_LABEL", "admin"),
		SessionTimeout: duration("SESSION_TIMEOUT", 5*time.Second),

		EvaluateTimeout: duration("EVALUATE_TIMEOUT", 5*time.Second),
		SubmitTimeout:   duration("SUBMIT_TIMEOUT", 30*time.Second),
		BalancePrecheck: os.Getenv("BALANCE_PRECHECK") == "true",

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"), // Redis server address
		RedisPass: os.Getenv("REDIS_PASS"),                // Redis password
		RedisDB:   integer("REDIS_DB", 0),                 // Redis database number

		DBUser:     os.Getenv("DB_USER"),     // Database user
		DBPassword: os.Getenv("DB_PASSWORD"), // Database password
		DBHost:     os.Getenv("DB_HOST"),     // Database host
		DBPort:     os.Getenv("DB_PORT"),     // Database port
		DBName:     os.Getenv("DB_NAME"),     // Database name

		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  integer("LOG_MAX_SIZE_MB", 100),
		LogMaxAgeDays: integer("LOG_MAX_AGE_DAYS", 28),
	}
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.LedgerDriver {
	case DriverFabric:
		if c.ProfilePath == "" && c.PeerEndpoint == "" {
			return fmt.Errorf("ledger driver %q needs FABRIC_CONNECTION_PROFILE or FABRIC_PEER_ENDPOINT", c.LedgerDriver)
		}
		if c.ChannelName == "" || c.ChaincodeName == "" {
			return fmt.Errorf("ledger driver %q needs CHANNEL_NAME and CHAINCODE_NAME", c.LedgerDriver)
		}
	case DriverSQL:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("ledger driver %q needs DB_HOST and DB_NAME", c.LedgerDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown ledger driver %q", c.LedgerDriver)
	}
	switch c.IdentityStore {
	case StoreFile:
		if c.WalletPath == "" {
			return fmt.Errorf("identity store %q needs WALLET_PATH", c.IdentityStore)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("identity store %q needs REDIS_ADDR", c.IdentityStore)
		}
	default:
		return fmt.Errorf("unknown identity store %q", c.IdentityStore)
	}
	if c.IdentityLabel == "" {
		return fmt.Errorf("IDENTITY_LABEL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// DSN is the MySQL data source name of the SQL ledger
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

// duration accepts Go durations ("30s") and bare seconds ("30")
func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
