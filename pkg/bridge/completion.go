package bridge

import (
	"context"
	"math/big"
	"time"

	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/metrics"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// completionDust absorbs unrelated small balance movement on the destination
// account while waiting for the bridged amount (1e12 base units, one
// millionth of an AI3).
var completionDust = big.NewInt(1_000_000_000_000)

// startCompletionPoller watches the destination Auto-EVM balance until the
// bridged amount lands, then promotes the record to success.
func (s *Service) startCompletionPoller(ctx context.Context, rec *models.TransferRecord, sess *Session) {
	if sess == nil || sess.Domain == nil || rec.DestinationAddress == "" {
		s.logger.ErrorWithChain(logger.Domain, "Completion polling unavailable, no domain connection")
		return
	}

	expected, ok := new(big.Int).SetString(rec.BaseAmount, 10)
	if !ok {
		s.logger.Error("Completion polling skipped, bad base amount %q", rec.BaseAmount)
		return
	}

	p, pctx := newPoller(ctx, "completion", s.completionInterval, s.completionAttempts)

	s.mu.Lock()
	if s.completion != nil {
		s.completion.stop()
	}
	s.completion = p
	s.completionRec = rec
	s.mu.Unlock()

	var baseline *big.Int
	if bal, err := sess.Domain.Balance(ctx, rec.DestinationAddress); err == nil {
		baseline = bal
	} else {
		s.logger.ErrorWithChain(logger.Domain, "Baseline balance read failed: %v", err)
	}

	go p.run(pctx, func(tickCtx context.Context) bool {
		return s.completionTick(tickCtx, p, rec, sess, expected, &baseline)
	}, func() {
		metrics.PollerTimeouts.WithLabelValues("completion").Inc()
		s.tracker.ClearPending(rec.Hash)
		s.notifier.Warn(msgArrivalTimeout)
		s.logger.NoticeWithChain(logger.Domain, "Completion polling exhausted for %s, record stays finalized", rec.Hash)
	})
}

// completionTick returns true once the bridged amount is observed or the
// record no longer needs watching.
func (s *Service) completionTick(ctx context.Context, p *poller, rec *models.TransferRecord, sess *Session, expected *big.Int, baseline **big.Int) bool {
	if !s.isLiveCompletion(p) {
		return true
	}
	if snap, ok := s.tracker.Get(rec.ID); !ok || snap.Status != models.StatusFinalized {
		// Already promoted or terminated elsewhere.
		return true
	}

	bal, err := sess.Domain.Balance(ctx, rec.DestinationAddress)
	if err != nil {
		metrics.CompletionPollTicks.WithLabelValues("error").Inc()
		s.logger.ErrorWithChain(logger.Domain, "Completion poll failed: %v", err)
		return false
	}

	if *baseline == nil {
		*baseline = bal
		metrics.CompletionPollTicks.WithLabelValues("baseline").Inc()
		return false
	}

	delta := new(big.Int).Sub(bal, *baseline)
	threshold := new(big.Int).Sub(expected, completionDust)
	if delta.Cmp(threshold) < 0 {
		metrics.CompletionPollTicks.WithLabelValues("waiting").Inc()
		return false
	}

	if !s.isLiveCompletion(p) {
		return true
	}
	if s.tracker.MarkSuccess(rec) {
		s.tracker.ClearPending(rec.Hash)
		metrics.CompletionPollTicks.WithLabelValues("arrived").Inc()
		metrics.TransfersCompleted.WithLabelValues(string(rec.Direction), string(models.StatusSuccess)).Inc()
		metrics.BridgeLatency.Observe(time.Since(rec.CreatedAt).Seconds())
		metrics.ActiveTransfers.Set(float64(s.tracker.ActiveCount()))
		s.notifier.Info(msgArrived)
		s.logger.InfoWithChain(logger.Domain, "Bridged amount arrived for %s", rec.Hash)
		if s.store != nil {
			if err := s.store.SaveTransfer(*rec); err != nil {
				s.logger.Error("Failed to persist settled transfer: %v", err)
			}
		}
	}
	return true
}
