package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ai3-tools/xdm-bridge/pkg/bridge"
	"github.com/ai3-tools/xdm-bridge/pkg/chain"
	"github.com/ai3-tools/xdm-bridge/pkg/circuitbreaker"
	"github.com/ai3-tools/xdm-bridge/pkg/config"
	"github.com/ai3-tools/xdm-bridge/pkg/health"
	"github.com/ai3-tools/xdm-bridge/pkg/indexer"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/store"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cbWindow := time.Duration(cfg.CircuitBreaker.WindowSeconds) * time.Second
	cbReset := time.Duration(cfg.CircuitBreaker.TimeoutSeconds) * time.Second
	indexerBreaker := circuitbreaker.NewCircuitBreaker("indexer", cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold, cbWindow, cbReset, logg)
	domainBreaker := circuitbreaker.NewCircuitBreaker("domain", cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold, cbWindow, cbReset, logg)

	idx := indexer.New(cfg.IndexerBaseURL, cfg.IndexerPageSize, cfg.IndexerMaxPages,
		cfg.HistoryLimit, indexerBreaker, logg)

	domainClient, err := chain.NewDomainClient(cfg.DomainRPCURL, domainBreaker, logg)
	if err != nil {
		log.Fatalf("Failed to connect to the Auto-EVM domain: %v", err)
	}
	defer domainClient.Close()

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatalf("Failed to open the history store: %v", err)
	}
	defer db.Close()

	service := bridge.NewService(cfg, idx, db, nil, logg)

	// Without a wallet signer the daemon observes the configured account:
	// history refresh, destination balance, health and metrics.
	if cfg.WatchConsensusAddress != "" {
		service.Connect(&bridge.Session{
			ConsensusAddress: cfg.WatchConsensusAddress,
			DomainAddress:    cfg.WatchDomainAddress,
			Domain:           domainClient,
		})
	}

	healthServer := health.NewServer(cfg.MetricsPort, domainClient,
		[]*circuitbreaker.CircuitBreaker{indexerBreaker, domainBreaker}, service.Tracker())
	go healthServer.Start()

	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Println("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	log.Println("Starting the bridge service...")
	service.Start(ctx)
}
