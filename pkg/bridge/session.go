package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/ai3-tools/xdm-bridge/pkg/chain"
)

// Session owns the wallet-side collaborators for one connected user. It is
// created on connect and torn down on disconnect; the orchestration core
// receives it by reference instead of reading ambient globals.
type Session struct {
	ConsensusAddress string
	DomainAddress    string
	Consensus        chain.ConsensusClient
	Domain           chain.BalanceReader
}

// Connected reports whether both wallet sides are available
func (s *Session) Connected() bool {
	return s != nil &&
		s.Consensus != nil && s.ConsensusAddress != "" &&
		s.Domain != nil && s.DomainAddress != ""
}

// ResolveDomainAddress waits up to window for the wallet layer to announce a
// linked EVM address. The lookup reports the address once known; provider
// discovery itself happens outside the core.
func ResolveDomainAddress(ctx context.Context, lookup func() (string, bool), window time.Duration) (string, error) {
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	if addr, ok := lookup(); ok {
		return addr, nil
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if addr, ok := lookup(); ok {
				return addr, nil
			}
			if time.Now().After(deadline) {
				return "", fmt.Errorf("no linked EVM address announced within %v", window)
			}
		}
	}
}
