package bridge

import (
	"context"
	"fmt"

	"github.com/ai3-tools/xdm-bridge/pkg/chain"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/metrics"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// consumeEvents drains a submission's status stream and interprets each
// notification against the tracking record. It exits when the record reaches
// a state where no further stream events matter, or when the stream closes.
func (s *Service) consumeEvents(ctx context.Context, rec *models.TransferRecord, sub *chain.Submission, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			if s.handleEvent(ctx, rec, ev, sess) {
				return
			}
		}
	}
}

// handleEvent applies one status notification. Returns true when the stream
// no longer needs draining.
func (s *Service) handleEvent(ctx context.Context, rec *models.TransferRecord, ev models.StatusEvent, sess *Session) bool {
	metrics.StatusEvents.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case models.EventInBlock:
		// The chain reports the canonical hash at inclusion; it can differ
		// from the provisional one assigned at broadcast.
		if ev.Hash != "" && ev.Hash != rec.Hash {
			s.logger.InfoWithChain(logger.Consensus, "Canonical hash %s replaces provisional %s", ev.Hash, rec.Hash)
			s.tracker.ReassignHash(rec.Hash, ev.Hash)
		}
		s.tracker.SetStatus(rec, models.StatusInBlock)
		if ev.Block > 0 {
			s.tracker.SetBlockNumber(rec, ev.Block)
		}
		s.logger.InfoWithChain(logger.Consensus, "Transfer %s included in block %d", rec.Hash, ev.Block)
		s.startConfirmationPoller(ctx, rec, sess)
		return false

	case models.EventFinalized:
		s.stopPollersFor(rec)
		s.tracker.SetStatus(rec, models.StatusFinalized)
		if ev.Block > 0 {
			s.tracker.SetBlockNumber(rec, ev.Block)
		}
		s.tracker.Unsubscribe(rec)
		// The source side is settled; a new transfer may start while the
		// completion poller still watches the destination.
		s.tracker.ClearTransferring()
		s.notifier.Info(msgFinalized)
		s.logger.InfoWithChain(logger.Consensus, "Transfer %s finalized", rec.Hash)
		metrics.TransfersCompleted.WithLabelValues(string(rec.Direction), string(models.StatusFinalized)).Inc()

		if rec.Direction == models.ConsensusToDomain {
			s.startCompletionPoller(ctx, rec, sess)
		}
		go func() {
			if sess != nil {
				s.refreshHistory(ctx, sess)
			}
		}()
		return true

	case models.EventRetracted:
		s.terminate(rec, models.StatusRetracted, msgRetracted, ev.Kind)
		return true

	case models.EventFinalityTimeout:
		s.terminate(rec, models.StatusTimedOut, msgFinalityTimeout, ev.Kind)
		return true

	case models.EventDropped, models.EventInvalid:
		s.terminate(rec, models.StatusFailed, fmt.Sprintf(msgDropped, ev.Kind, ev.Reason), ev.Kind)
		return true
	}

	s.logger.Debug("Ignoring status event %s for %s", ev.Kind, rec.Hash)
	return false
}

// terminate moves the record to a terminal failure state, releases the
// pending gate and detaches the record's own subscription.
func (s *Service) terminate(rec *models.TransferRecord, st models.Status, message string, kind models.EventKind) {
	s.stopPollersFor(rec)
	s.tracker.SetStatus(rec, st)
	s.tracker.ClearPending(rec.Hash)
	s.tracker.Unsubscribe(rec)

	s.mu.Lock()
	s.failures[rec.ID] = &ChainTerminalError{Kind: kind, Hash: rec.Hash}
	s.mu.Unlock()

	s.notifier.Warn(message)
	s.logger.ErrorWithChain(logger.Consensus, "Transfer %s terminated: %s", rec.Hash, kind)
	metrics.TransferFailures.WithLabelValues(string(kind)).Inc()
	metrics.TransfersCompleted.WithLabelValues(string(rec.Direction), string(st)).Inc()
	metrics.ActiveTransfers.Set(float64(s.tracker.ActiveCount()))
}
