package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ai3-tools/xdm-bridge/pkg/address"
	"github.com/ai3-tools/xdm-bridge/pkg/circuitbreaker"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
)

// DomainClient reads balances and chain state from the Auto-EVM domain
type DomainClient struct {
	rpcURL  string
	client  *ethclient.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

var _ BalanceReader = (*DomainClient)(nil)

// NewDomainClient connects to the Auto-EVM RPC endpoint
func NewDomainClient(rpcURL string, breaker *circuitbreaker.CircuitBreaker, log logger.Logger) (*DomainClient, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to domain RPC: %v", err)
	}

	return &DomainClient{
		rpcURL:  rpcURL,
		client:  client,
		breaker: breaker,
		logger:  log,
	}, nil
}

// Balance returns the address's balance at the latest block, in base units
func (c *DomainClient) Balance(ctx context.Context, addr string) (*big.Int, error) {
	if !address.IsDomainAddress(addr) {
		return nil, fmt.Errorf("invalid domain address: %s", addr)
	}
	if c.breaker != nil && c.breaker.IsOpen() {
		return nil, fmt.Errorf("domain RPC circuit open")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	balance, err := c.client.BalanceAt(timeoutCtx, common.HexToAddress(addr), nil)
	if err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		return nil, fmt.Errorf("failed to get domain balance: %v", err)
	}
	return balance, nil
}

// LatestBlockNumber gets the latest block number from the domain chain
func (c *DomainClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("client not connected")
	}
	return c.client.BlockNumber(ctx)
}

// Connected reports whether the underlying RPC client is available
func (c *DomainClient) Connected() bool {
	return c != nil && c.client != nil
}

// Close releases the underlying RPC connection
func (c *DomainClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
