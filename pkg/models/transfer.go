package models

import (
	"time"
)

// Direction indicates which way a bridge transfer moves between the
// Consensus chain and the Auto-EVM domain.
type Direction string

const (
	// ConsensusToDomain bridges from the Consensus chain to Auto-EVM
	ConsensusToDomain Direction = "consensusToEVM"
	// DomainToConsensus bridges from Auto-EVM back to the Consensus chain
	DomainToConsensus Direction = "evmToConsensus"
)

// EstimatedDuration returns the documented bridging latency for the direction
func (d Direction) EstimatedDuration() time.Duration {
	if d == ConsensusToDomain {
		return 10 * time.Minute
	}
	return 24 * time.Hour
}

// Status represents the lifecycle state of a tracked transfer
type Status string

const (
	// StatusPending indicates the transfer was created but not yet included in a block
	StatusPending Status = "pending"
	// StatusInBlock indicates the extrinsic was included in a block
	StatusInBlock Status = "in_block"
	// StatusSubmitted indicates the transfer was confirmed present in the historical record
	StatusSubmitted Status = "submitted"
	// StatusFinalized indicates source-side finality was reached
	StatusFinalized Status = "finalized"
	// StatusSuccess indicates bridged funds arrived on the destination chain
	StatusSuccess Status = "success"
	// StatusFailed indicates a permanent failure (dropped, invalid or rejected submission)
	StatusFailed Status = "failed"
	// StatusRetracted indicates the network retracted the transaction
	StatusRetracted Status = "retracted"
	// StatusTimedOut indicates finality did not arrive within the chain's timeout window
	StatusTimedOut Status = "timed_out"
	// StatusManual indicates the transfer requires manual out-of-band steps
	StatusManual Status = "manual"
)

// statusRank orders the forward lifecycle states. Terminal failure states are
// not ranked; they are reachable from any non-terminal state.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusInBlock:   1,
	StatusSubmitted: 2,
	StatusFinalized: 3,
	StatusSuccess:   4,
}

// Terminal reports whether no further status transitions are allowed
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusRetracted, StatusTimedOut, StatusManual:
		return true
	}
	return false
}

// Forward reports whether a transition from one status to another moves
// forward in the lifecycle. Terminal records cannot be revived and the
// ranked states only ever advance.
func Forward(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed || to == StatusRetracted || to == StatusTimedOut {
		return true
	}
	if to == StatusManual {
		return from == StatusPending
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// TransferIntent is a user-declared request to bridge funds. Amount is
// expressed in display units (AI3) and scaled to base units on submission.
type TransferIntent struct {
	Direction          Direction `json:"direction"`
	Amount             string    `json:"amount"`
	SourceAddress      string    `json:"source_address"`
	DestinationAddress string    `json:"destination_address"`
}

// TransferRecord tracks one attempted transfer through its lifecycle. Records
// are appended on submission, mutated in place as status events and poll
// results arrive, and kept for history once they reach a terminal state.
type TransferRecord struct {
	ID                 int64     `json:"id"`
	Hash               string    `json:"hash,omitempty"`
	Status             Status    `json:"status"`
	Direction          Direction `json:"direction"`
	Amount             string    `json:"amount"`
	BaseAmount         string    `json:"base_amount,omitempty"`
	SourceAddress      string    `json:"source_address"`
	DestinationAddress string    `json:"destination_address"`
	BlockNumber        uint64    `json:"block_number,omitempty"`
	Fee                string    `json:"fee,omitempty"`
	Finalized          bool      `json:"finalized"`
	CreatedAt          time.Time `json:"created_at"`
	ExpectedArrival    time.Time `json:"expected_arrival"`
}

// EventKind identifies a raw status notification emitted by the chain for a
// broadcast submission.
type EventKind string

const (
	EventInBlock         EventKind = "in_block"
	EventFinalized       EventKind = "finalized"
	EventRetracted       EventKind = "retracted"
	EventFinalityTimeout EventKind = "finality_timeout"
	EventDropped         EventKind = "dropped"
	EventInvalid         EventKind = "invalid"
)

// StatusEvent is one notification from a submission's status stream
type StatusEvent struct {
	Kind EventKind
	// Hash carries the canonical extrinsic hash once known. Some chains only
	// assign it when the extrinsic enters a block, so it is set at the
	// in-block stage and may differ from the provisional submission hash.
	Hash string
	// Block is the number of the including block when known
	Block uint64
	// Reason holds extra detail for dropped and invalid events
	Reason string
}

// HistoryEntry is one confirmed transfer fetched from the historical indexer
type HistoryEntry struct {
	Hash           string    `json:"hash"`
	BlockNumber    uint64    `json:"block_number"`
	ExtrinsicIndex string    `json:"extrinsic_index"`
	Amount         string    `json:"amount"`
	Destination    string    `json:"destination"`
	DomainID       string    `json:"domain_id"`
	Direction      Direction `json:"direction"`
	Success        bool      `json:"success"`
	Finalized      bool      `json:"finalized"`
	Fee            string    `json:"fee"`
	Timestamp      time.Time `json:"timestamp"`
}
