package params

import (
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Node struct {
	DataDir     string // Pebble database directory
	APIAddr     string // REST/WebSocket listen address
	MetricsAddr string // Prometheus listen address
	Devnet      bool   // Seed a throwaway market and funded accounts on boot
}

// Protocol holds the trust anchors: the program identity that owns every
// record account, the asset ledger namespace, and the oracle namespace.
type Protocol struct {
	ProgramID      common.Hash
	TokenProgramID common.Hash
	OracleProgram  common.Hash
}

type Config struct {
	Node     Node
	Protocol Protocol
}

func Default() Config {
	return Config{
		Node: Node{
			DataDir:     "data/wagerd",
			APIAddr:     ":8080",
			MetricsAddr: ":9090",
			Devnet:      true,
		},
		Protocol: Protocol{
			ProgramID:      common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001"),
			TokenProgramID: common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000002"),
			OracleProgram:  common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000003"),
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Node.DataDir = getEnv("NODE_DATA_DIR", cfg.Node.DataDir)
	cfg.Node.APIAddr = getEnv("NODE_API_ADDR", cfg.Node.APIAddr)
	cfg.Node.MetricsAddr = getEnv("NODE_METRICS_ADDR", cfg.Node.MetricsAddr)
	if devnet := os.Getenv("NODE_DEVNET"); devnet != "" {
		cfg.Node.Devnet = devnet == "true"
	}

	if v := os.Getenv("PROTOCOL_PROGRAM_ID"); v != "" {
		cfg.Protocol.ProgramID = common.HexToHash(v)
	}
	if v := os.Getenv("PROTOCOL_TOKEN_PROGRAM_ID"); v != "" {
		cfg.Protocol.TokenProgramID = common.HexToHash(v)
	}
	if v := os.Getenv("PROTOCOL_ORACLE_PROGRAM"); v != "" {
		cfg.Protocol.OracleProgram = common.HexToHash(v)
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
