package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres holds the database connection settings. An empty DSN means the
// in-memory stores are used (local development, unit tests).
type Postgres struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// Redis holds the receipt cache connection settings. Empty URL disables Redis
// and falls back to the in-memory receipt store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MinIO holds object storage settings for document bytes. Empty endpoint
// falls back to the in-memory file store.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Ledger holds the chain-facing settings. None of these are hard-coded in the
// core: endpoint, network, contract and the confirmation deadline all come
// from here.
type Ledger struct {
	RPCURL          string
	ChainID         string
	ContractAddress string
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
}

// Wallet holds provider settings for the signing agent boundary. An empty
// RPCURL selects the in-process mock provider (local development).
type Wallet struct {
	RPCURL string
	// MockAddress is the account the mock provider grants.
	MockAddress string
	// AccountsPollInterval is how often the RPC provider re-reads the
	// authorized account set to detect disconnects.
	AccountsPollInterval time.Duration
}

// Notary holds orchestrator settings.
type Notary struct {
	HashAlgorithm string
	// ReceiptTTL bounds how long a confirmed receipt is kept for retroactive
	// reconciliation after an abandoned wait.
	ReceiptTTL time.Duration
}

// Audit holds audit trail settings. Empty brokers keep audit in-process.
type Audit struct {
	KafkaBrokers []string
	Topic        string
}

// Config aggregates every concern so main stays lean.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	MinIO    MinIO
	Ledger   Ledger
	Wallet   Wallet
	Notary   Notary
	Audit    Audit
}

// FromEnv builds the full configuration from environment variables. A .env
// file is auto-loaded by the godotenv import; real environment variables take
// precedence.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getEnv("HATI_ADDR", ":8080"),
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnLifetime: getEnvDuration("POSTGRES_CONN_LIFETIME", 5*time.Minute),
		},
		Redis: Redis{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		MinIO: MinIO{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "hati-documents"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Ledger: Ledger{
			RPCURL:          getEnv("LEDGER_RPC_URL", ""),
			ChainID:         getEnv("LEDGER_CHAIN_ID", "1337"),
			ContractAddress: getEnv("LEDGER_CONTRACT_ADDRESS", ""),
			ConfirmTimeout:  getEnvDuration("LEDGER_CONFIRM_TIMEOUT", 90*time.Second),
			PollInterval:    getEnvDuration("LEDGER_POLL_INTERVAL", 2*time.Second),
		},
		Wallet: Wallet{
			RPCURL:               getEnv("WALLET_RPC_URL", ""),
			MockAddress:          getEnv("WALLET_MOCK_ADDRESS", "0x1111111111111111111111111111111111111111"),
			AccountsPollInterval: getEnvDuration("WALLET_ACCOUNTS_POLL_INTERVAL", 5*time.Second),
		},
		Notary: Notary{
			HashAlgorithm: getEnv("CONTENT_HASH_ALGORITHM", "sha256"),
			ReceiptTTL:    getEnvDuration("RECEIPT_TTL", 24*time.Hour),
		},
		Audit: Audit{
			KafkaBrokers: splitNonEmpty(getEnv("AUDIT_KAFKA_BROKERS", "")),
			Topic:        getEnv("AUDIT_TOPIC", "hati.audit"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitNonEmpty(csv string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if part := csv[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
