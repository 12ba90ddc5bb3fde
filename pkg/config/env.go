package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/ai3-tools/xdm-bridge/pkg/address"
	"github.com/ai3-tools/xdm-bridge/pkg/amount"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
)

const (
	// DefaultConsensusRPCURL is the websocket endpoint of the consensus chain
	DefaultConsensusRPCURL = "wss://rpc.mainnet.autonomys.xyz/ws"

	// DefaultDomainRPCURL is the HTTP endpoint of the Auto-EVM domain
	DefaultDomainRPCURL = "https://auto-evm.mainnet.autonomys.xyz"

	// DefaultIndexerBaseURL is the base URL of the historical extrinsic indexer
	DefaultIndexerBaseURL = "https://autonomys.api.subscan.io"

	// DomainID is the Auto-EVM domain identifier on mainnet
	DomainID = 0

	// DomainChainID is the EVM chain id of the Auto-EVM domain
	DomainChainID = 870

	// DefaultMinTransferAmount is the minimum transfer amount in AI3
	DefaultMinTransferAmount = "1"

	// DefaultConfirmPollInterval defines seconds between submission confirmation polls
	DefaultConfirmPollInterval = 10

	// DefaultConfirmPollAttempts bounds the submission confirmation poller (~2 minutes)
	DefaultConfirmPollAttempts = 12

	// DefaultCompletionPollInterval defines seconds between bridge completion polls
	DefaultCompletionPollInterval = 30

	// DefaultCompletionPollAttempts bounds the bridge completion poller, matching
	// the documented ~10 minute consensus-to-domain bridging latency
	DefaultCompletionPollAttempts = 20

	// DefaultIndexerPageSize is the indexer page size; the API caps row at 100
	DefaultIndexerPageSize = 100

	// DefaultIndexerMaxPages bounds pagination to avoid unbounded scans
	DefaultIndexerMaxPages = 10

	// DefaultHistoryLimit is the number of historical transfers kept per fetch
	DefaultHistoryLimit = 50

	// DefaultMetricsPort defines the default port for the health and metrics server
	DefaultMetricsPort = "8080"

	// DefaultStorePath is the sqlite file holding settled transfer history
	DefaultStorePath = "xdm_history.db"

	// DefaultCircuitBreakerEnabled defines whether the indexer circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the failure window in seconds
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset defines the reset timeout in seconds
	DefaultCircuitBreakerReset = 120
)

// GetEnvConsensusRPCURL returns the consensus chain RPC URL from environment variables
func GetEnvConsensusRPCURL() (string, error) {
	return getEnvURL("CONSENSUS_RPC_URL", DefaultConsensusRPCURL)
}

// GetEnvDomainRPCURL returns the Auto-EVM RPC URL from environment variables
func GetEnvDomainRPCURL() (string, error) {
	return getEnvURL("DOMAIN_RPC_URL", DefaultDomainRPCURL)
}

// GetEnvIndexerBaseURL returns the indexer base URL from environment variables
func GetEnvIndexerBaseURL() (string, error) {
	return getEnvURL("INDEXER_BASE_URL", DefaultIndexerBaseURL)
}

// GetEnvMinTransferAmount returns the minimum transfer amount from environment variables
func GetEnvMinTransferAmount() (string, error) {
	min := os.Getenv("MIN_TRANSFER_AMOUNT")
	if min == "" {
		return DefaultMinTransferAmount, nil
	}

	if _, err := amount.Parse(min); err != nil {
		return "", fmt.Errorf("invalid MIN_TRANSFER_AMOUNT value: %v", err)
	}
	return min, nil
}

// GetEnvWatchConsensusAddress returns the consensus address whose transfers the
// daemon watches. Optional; an empty value disables history and balance refresh.
func GetEnvWatchConsensusAddress() (string, error) {
	addr := os.Getenv("WATCH_CONSENSUS_ADDRESS")
	if addr == "" {
		return "", nil
	}
	if _, err := address.DecodeConsensus(addr); err != nil {
		return "", fmt.Errorf("invalid WATCH_CONSENSUS_ADDRESS value: %v", err)
	}
	return addr, nil
}

// GetEnvWatchDomainAddress returns the Auto-EVM address watched for arrivals. Optional.
func GetEnvWatchDomainAddress() (string, error) {
	addr := os.Getenv("WATCH_DOMAIN_ADDRESS")
	if addr == "" {
		return "", nil
	}
	if !address.IsDomainAddress(addr) {
		return "", fmt.Errorf("invalid WATCH_DOMAIN_ADDRESS value: %s", addr)
	}
	return addr, nil
}

// GetEnvIndexerPageSize returns the indexer page size from environment variables
func GetEnvIndexerPageSize() (int, error) {
	size, err := GetEnvCount("INDEXER_PAGE_SIZE", DefaultIndexerPageSize)
	if err != nil {
		return 0, err
	}
	if size > 100 {
		return 0, fmt.Errorf("INDEXER_PAGE_SIZE must not exceed 100, got %d", size)
	}
	return size, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvStorePath returns the sqlite history file path from environment variables
func GetEnvStorePath() string {
	path := os.Getenv("STORE_PATH")
	if path == "" {
		return DefaultStorePath
	}
	return path
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of 'debug', 'info', 'notice', 'error'", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}

// GetEnvSeconds returns a positive whole-second duration setting from environment variables
func GetEnvSeconds(key string, def int) (int, error) {
	return getEnvPositiveInt(key, def)
}

// GetEnvCount returns a positive integer setting from environment variables
func GetEnvCount(key string, def int) (int, error) {
	return getEnvPositiveInt(key, def)
}

func getEnvPositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be an integer", key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return value, nil
}

func getEnvURL(key, def string) (string, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	if _, err := url.ParseRequestURI(raw); err != nil {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid URL", key, raw)
	}
	return raw, nil
}
