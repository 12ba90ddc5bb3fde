package bridge

import (
	"context"

	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/metrics"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// startConfirmationPoller cross-checks the in-block transfer against the
// historical record until the indexer reports it. A newer poller always
// replaces an older one.
func (s *Service) startConfirmationPoller(ctx context.Context, rec *models.TransferRecord, sess *Session) {
	p, pctx := newPoller(ctx, "confirmation", s.confirmInterval, s.confirmAttempts)

	s.mu.Lock()
	if s.confirm != nil {
		s.confirm.stop()
	}
	s.confirm = p
	s.confirmRec = rec
	s.mu.Unlock()

	go p.run(pctx, func(tickCtx context.Context) bool {
		return s.confirmTick(tickCtx, p, rec, sess)
	}, func() {
		// Exhaustion is not a failure: the transfer stays in its current
		// state and the live subscription keeps reporting.
		metrics.PollerTimeouts.WithLabelValues("confirmation").Inc()
		s.tracker.ClearTransferring()
		s.logger.InfoWithChain(logger.Indexer, "Confirmation polling exhausted for %s", rec.Hash)
	})
}

// confirmTick returns true once the transfer is settled and polling can stop.
func (s *Service) confirmTick(ctx context.Context, p *poller, rec *models.TransferRecord, sess *Session) bool {
	if !s.isLiveConfirm(p) {
		return true
	}

	hash := s.tracker.PendingHash()
	if hash == "" || hash != rec.Hash {
		// A terminal event or a newer transfer released the gate while this
		// tick was scheduled; the result would be stale.
		return true
	}

	entries, err := s.indexer.FetchRecentTransfers(ctx, sess.ConsensusAddress)
	if err != nil {
		metrics.ConfirmationPollTicks.WithLabelValues("error").Inc()
		s.logger.ErrorWithChain(logger.Indexer, "Confirmation poll failed: %v", err)
		return false
	}

	// Re-check after the fetch: the stream may have terminated the transfer
	// while the request was in flight.
	if !s.isLiveConfirm(p) || s.tracker.PendingHash() != rec.Hash {
		return true
	}

	for _, entry := range entries {
		if entry.Hash != rec.Hash {
			continue
		}
		if s.tracker.MergeConfirmed(rec.Hash, entry) {
			metrics.ConfirmationPollTicks.WithLabelValues("matched").Inc()
			metrics.ActiveTransfers.Set(float64(s.tracker.ActiveCount()))
			if entry.Success {
				s.notifier.Info(msgConfirmed)
				s.logger.InfoWithChain(logger.Indexer, "Transfer %s confirmed in block %d", rec.Hash, entry.BlockNumber)
			} else {
				s.tracker.Unsubscribe(rec)
				s.logger.ErrorWithChain(logger.Indexer, "Transfer %s recorded as failed", rec.Hash)
			}
		}
		return true
	}

	metrics.ConfirmationPollTicks.WithLabelValues("miss").Inc()
	return false
}
