// Package chain defines the collaborator boundary to the two chains: the
// consensus-side transfer SDK and the Auto-EVM domain RPC.
package chain

import (
	"context"
	"math/big"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// Submission is a handle to a broadcast transfer: the provisional extrinsic
// hash, the asynchronous status-event stream, and a cancel function that
// detaches the stream. Cancel is safe to call more than once at this
// boundary, but the orchestration layer still tracks its own exactly-once
// invocation rather than relying on that.
type Submission struct {
	Hash   string
	Events <-chan models.StatusEvent
	Cancel func()
}

// ConsensusClient is the boundary to the consensus chain. Implementations
// wrap the wallet signer and the cross-domain transfer SDK; the orchestration
// core only needs "sign and broadcast this prepared transfer, give me a
// handle to observe status".
type ConsensusClient interface {
	// SubmitTransfer signs and broadcasts a cross-domain transfer of
	// baseAmount (already scaled to base units) from the source account to
	// the destination domain account. A synchronous error means the
	// broadcast itself was rejected and no status events will follow.
	SubmitTransfer(ctx context.Context, from, to string, baseAmount *big.Int) (*Submission, error)

	// Balance returns the free balance of the address in base units
	Balance(ctx context.Context, addr string) (*big.Int, error)
}

// BalanceReader reads a destination-chain balance in base units
type BalanceReader interface {
	Balance(ctx context.Context, addr string) (*big.Int, error)
}
