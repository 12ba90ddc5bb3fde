package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/ai3-tools/xdm-bridge/pkg/logger"
)

// Config holds the configuration for the bridge service
type Config struct {
	ConsensusRPCURL string
	DomainRPCURL    string
	IndexerBaseURL  string

	// MinTransferAmount is the smallest transferable amount in display units
	MinTransferAmount string

	ConfirmPollInterval    int // seconds between submission confirmation polls
	ConfirmPollAttempts    int
	CompletionPollInterval int // seconds between bridge completion polls
	CompletionPollAttempts int

	// WatchConsensusAddress and WatchDomainAddress select the account whose
	// transfers and balances the daemon observes. Both are optional.
	WatchConsensusAddress string
	WatchDomainAddress    string

	IndexerPageSize int
	IndexerMaxPages int
	HistoryLimit    int

	MetricsPort    string
	StorePath      string
	CircuitBreaker CircuitBreakerConfig
	LoggerConfig   LoggerConfig
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowSeconds  int
	TimeoutSeconds int
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	consensusRPC, err := GetEnvConsensusRPCURL()
	if err != nil {
		return nil, err
	}

	domainRPC, err := GetEnvDomainRPCURL()
	if err != nil {
		return nil, err
	}

	indexerBase, err := GetEnvIndexerBaseURL()
	if err != nil {
		return nil, err
	}

	minAmount, err := GetEnvMinTransferAmount()
	if err != nil {
		return nil, err
	}

	confirmInterval, err := GetEnvSeconds("CONFIRM_POLL_INTERVAL", DefaultConfirmPollInterval)
	if err != nil {
		return nil, err
	}

	confirmAttempts, err := GetEnvCount("CONFIRM_POLL_ATTEMPTS", DefaultConfirmPollAttempts)
	if err != nil {
		return nil, err
	}

	completionInterval, err := GetEnvSeconds("COMPLETION_POLL_INTERVAL", DefaultCompletionPollInterval)
	if err != nil {
		return nil, err
	}

	completionAttempts, err := GetEnvCount("COMPLETION_POLL_ATTEMPTS", DefaultCompletionPollAttempts)
	if err != nil {
		return nil, err
	}

	watchConsensus, err := GetEnvWatchConsensusAddress()
	if err != nil {
		return nil, err
	}

	watchDomain, err := GetEnvWatchDomainAddress()
	if err != nil {
		return nil, err
	}

	pageSize, err := GetEnvIndexerPageSize()
	if err != nil {
		return nil, err
	}

	maxPages, err := GetEnvCount("INDEXER_MAX_PAGES", DefaultIndexerMaxPages)
	if err != nil {
		return nil, err
	}

	historyLimit, err := GetEnvCount("HISTORY_LIMIT", DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCount("CIRCUIT_BREAKER_THRESHOLD", DefaultCircuitBreakerThreshold)
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvSeconds("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow)
	if err != nil {
		return nil, err
	}

	cbTimeout, err := GetEnvSeconds("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset)
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	return &Config{
		ConsensusRPCURL:        consensusRPC,
		DomainRPCURL:           domainRPC,
		IndexerBaseURL:         indexerBase,
		MinTransferAmount:      minAmount,
		ConfirmPollInterval:    confirmInterval,
		ConfirmPollAttempts:    confirmAttempts,
		CompletionPollInterval: completionInterval,
		CompletionPollAttempts: completionAttempts,
		WatchConsensusAddress:  watchConsensus,
		WatchDomainAddress:     watchDomain,
		IndexerPageSize:        pageSize,
		IndexerMaxPages:        maxPages,
		HistoryLimit:           historyLimit,
		MetricsPort:            metricsPort,
		StorePath:              GetEnvStorePath(),
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowSeconds:  cbWindow,
			TimeoutSeconds: cbTimeout,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}, nil
}
