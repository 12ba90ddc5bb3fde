package bridge

import (
	"fmt"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// ValidationError rejects a transfer before submission: the amount is below
// the minimum, not exactly representable in base units, or exceeds the
// available source balance.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConnectivityError means a required signer or address is missing. No network
// call is attempted.
type ConnectivityError struct {
	Missing string
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("not connected: %s", e.Missing)
}

// SubmissionError wraps a synchronous broadcast rejection
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IndexerError wraps a historical-fetch failure. Pollers treat it as "no new
// data this cycle"; it surfaces to callers only from the explicit history API.
type IndexerError struct {
	Err error
}

func (e *IndexerError) Error() string {
	return fmt.Sprintf("history fetch failed: %v", e.Err)
}

func (e *IndexerError) Unwrap() error {
	return e.Err
}

// ChainTerminalError reports a retracted, dropped or invalid status from the
// chain for a broadcast submission.
type ChainTerminalError struct {
	Kind models.EventKind
	Hash string
}

func (e *ChainTerminalError) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.Hash, e.Kind)
}
