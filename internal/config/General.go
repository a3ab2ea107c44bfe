package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by LoadConfig.
var (
	// AlgodURL is the REST endpoint of the chain node.
	AlgodURL string
	// AlgodToken is the API token for the node, empty for public nodes.
	AlgodToken string
	// AppID is the application id of the holding contract.
	AppID uint64
	// AgentMnemonic is the delegated agent credential. When empty the agent
	// runs in dry-run mode and never submits transactions.
	AgentMnemonic string

	// ExchangeAppID is the application id of the counterparty exchange pool.
	ExchangeAppID uint64
	// ExchangePoolAddress receives the swap-input payment.
	ExchangePoolAddress string
	// USDCAssetID is the asset id of the pool's stable leg.
	USDCAssetID uint64
	// SwapInputMicro is the fixed swap input per rebalance, in micro-units.
	SwapInputMicro uint64
	// MaxWaitRounds bounds how long a submitted group is awaited.
	MaxWaitRounds uint64

	// PollInterval is the cycle cadence, ~10 chain blocks.
	PollInterval time.Duration

	// PriceFeedURL is the external price feed endpoint.
	PriceFeedURL string
	// PriceFallback is the hardcoded price used when the feed and cache are
	// both unavailable.
	PriceFallback float64

	// PoolFeeRate, PoolLiquidity and PoolTickSpacing parameterize the
	// simulated pool stats reader.
	PoolFeeRate     float64
	PoolLiquidity   float64
	PoolTickSpacing uint64

	// DecisionLogFile is the path of the primary durable decision log.
	DecisionLogFile string

	// WebPort serves the read API and metrics.
	WebPort string

	// Database connection for the best-effort decision mirror. Mirroring is
	// disabled when DBHost is empty.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// KafkaBrokers enables the best-effort decision event publisher when set.
	KafkaBrokers []string
	KafkaTopic   string

	// RedisAddr enables the last-good-price cache when set.
	RedisAddr string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Tunables fall back to the defaults the agent shipped
// with so a bare environment still starts in dry-run mode.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	AlgodURL = getEnvOr("ALGOD_URL", "https://testnet-api.algonode.cloud")
	AlgodToken = getEnvOr("ALGOD_TOKEN", "")
	AgentMnemonic = getEnvOr("AGENT_MNEMONIC", "")

	AppID, err = getEnvAsUint64("APP_ID", 755777633)
	if err != nil {
		return err
	}
	ExchangeAppID, err = getEnvAsUint64("EXCHANGE_APP_ID", 148607000)
	if err != nil {
		return err
	}
	ExchangePoolAddress = getEnvOr("EXCHANGE_POOL_ADDRESS",
		"UDFWT5DW3X5RZQYXKQEMZ6MRWAEYHWYP7YUAPZKPW6WJK3JH3OZPL7PO2Y")
	USDCAssetID, err = getEnvAsUint64("USDC_ASSET_ID", 10458941)
	if err != nil {
		return err
	}
	SwapInputMicro, err = getEnvAsUint64("SWAP_INPUT_MICRO", 10000)
	if err != nil {
		return err
	}
	MaxWaitRounds, err = getEnvAsUint64("MAX_WAIT_ROUNDS", 4)
	if err != nil {
		return err
	}

	pollSeconds, err := getEnvAsInt("POLL_INTERVAL_SECONDS", 40)
	if err != nil {
		return err
	}
	if pollSeconds <= 0 {
		return errors.New("POLL_INTERVAL_SECONDS must be positive")
	}
	PollInterval = time.Duration(pollSeconds) * time.Second

	PriceFeedURL = getEnvOr("PRICE_FEED_URL",
		"https://free-api.vestige.fi/asset/0/prices?currency=usdc")
	PriceFallback, err = getEnvAsFloat64("PRICE_FALLBACK", 0.18)
	if err != nil {
		return err
	}

	PoolFeeRate, err = getEnvAsFloat64("POOL_FEE_RATE", 0.003)
	if err != nil {
		return err
	}
	PoolLiquidity, err = getEnvAsFloat64("POOL_LIQUIDITY", 125000)
	if err != nil {
		return err
	}
	PoolTickSpacing, err = getEnvAsUint64("POOL_TICK_SPACING", 10)
	if err != nil {
		return err
	}

	DecisionLogFile = getEnvOr("DECISION_LOG_FILE", "agent_decisions.jsonl")
	WebPort = getEnvOr("WEB_PORT", "8080")

	DBHost = getEnvOr("DB_HOST", "")
	DBPort, err = getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return err
	}
	DBUser = getEnvOr("DB_USER", "")
	DBPassword = getEnvOr("DB_PASSWORD", "")
	DBName = getEnvOr("DB_NAME", "")
	DBSSLMode = getEnvOr("DB_SSLMODE", "disable")

	if brokers := getEnvOr("KAFKA_BROKERS", ""); brokers != "" {
		KafkaBrokers = strings.Split(brokers, ",")
	}
	KafkaTopic = getEnvOr("KAFKA_TOPIC", "aegis.decisions")

	RedisAddr = getEnvOr("REDIS_ADDR", "")

	if err := loadStrategyParameters(); err != nil {
		return err
	}

	log.Debug().
		Uint64("AppID", AppID).
		Str("AlgodURL", AlgodURL).
		Dur("PollInterval", PollInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnvOr retrieves a string environment variable with a default.
func getEnvOr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsUint64 retrieves an environment variable as a uint64 with a default.
func getEnvAsUint64(key string, defaultValue uint64) (uint64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an int with a default.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64 with a default.
func getEnvAsFloat64(key string, defaultValue float64) (float64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
