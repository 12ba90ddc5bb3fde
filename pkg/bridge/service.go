// Package bridge implements the cross-domain transfer orchestration: one
// entry point to submit a transfer, a status interpreter consuming the
// chain's event stream, and two bounded pollers that confirm the submission
// in the historical record and detect arrival on the destination chain.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ai3-tools/xdm-bridge/pkg/address"
	"github.com/ai3-tools/xdm-bridge/pkg/amount"
	"github.com/ai3-tools/xdm-bridge/pkg/config"
	"github.com/ai3-tools/xdm-bridge/pkg/logger"
	"github.com/ai3-tools/xdm-bridge/pkg/metrics"
	"github.com/ai3-tools/xdm-bridge/pkg/models"
	"github.com/ai3-tools/xdm-bridge/pkg/tracker"
)

// User-facing message templates. Each failure class has a distinct message.
const (
	msgMinimumAmount   = "Minimum transfer amount is %s AI3"
	msgInvalidAmount   = "Invalid transfer amount: %v"
	msgOverBalance     = "Amount exceeds the available source balance"
	msgConnectWallets  = "Connect both wallets first."
	msgInvalidDest     = "Destination is not a valid Auto-EVM address"
	msgInProgress      = "A transfer is already in progress"
	msgSubmitFailed    = "Transfer failed: %v"
	msgRetracted       = "Transaction retracted by the network; resubmit the transfer."
	msgFinalityTimeout = "Transaction finality timeout - it may still finalize later."
	msgDropped         = "Transaction %s by the network: %s"
	msgFinalized       = "Transfer finalized on the consensus chain; funds expected on Auto-EVM in ~10 min."
	msgArrived         = "Bridged funds arrived on Auto-EVM."
	msgArrivalTimeout  = "Bridged funds not yet visible on Auto-EVM; check the destination account manually."
	msgConfirmed       = "Transfer confirmed in the historical record."

	msgManualInstructions = "EVM to Consensus transfers require signing a transporter.transfer extrinsic " +
		"on Auto-EVM: set dstLocation.chainId to Consensus, destination account %s, amount %s AI3 " +
		"(%s Shannons), then submit and allow ~1 day for arrival."
)

// HistoryFetcher fetches the address's confirmed transfers from the
// historical indexer, newest first.
type HistoryFetcher interface {
	FetchRecentTransfers(ctx context.Context, addr string) ([]models.HistoryEntry, error)
}

// HistoryStore persists settled transfers across restarts
type HistoryStore interface {
	SaveTransfer(rec models.TransferRecord) error
	SaveHistory(entries []models.HistoryEntry) error
}

// Service orchestrates cross-domain transfers
type Service struct {
	indexer  HistoryFetcher
	tracker  *tracker.Tracker
	store    HistoryStore
	notifier Notifier
	logger   logger.Logger

	minAmount          string
	confirmInterval    time.Duration
	confirmAttempts    int
	completionInterval time.Duration
	completionAttempts int

	mu            sync.Mutex
	session       *Session
	confirm       *poller
	confirmRec    *models.TransferRecord
	completion    *poller
	completionRec *models.TransferRecord
	failures      map[int64]error
}

// NewService creates a new bridge service. The store and notifier may be nil;
// a nil notifier falls back to logging.
func NewService(cfg *config.Config, fetcher HistoryFetcher, store HistoryStore, notifier Notifier, log logger.Logger) *Service {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	if notifier == nil {
		notifier = &LogNotifier{Logger: log}
	}
	return &Service{
		indexer:            fetcher,
		tracker:            tracker.New(),
		store:              store,
		notifier:           notifier,
		logger:             log,
		minAmount:          cfg.MinTransferAmount,
		confirmInterval:    time.Duration(cfg.ConfirmPollInterval) * time.Second,
		confirmAttempts:    cfg.ConfirmPollAttempts,
		completionInterval: time.Duration(cfg.CompletionPollInterval) * time.Second,
		completionAttempts: cfg.CompletionPollAttempts,
		failures:           make(map[int64]error),
	}
}

// FailureCause returns the chain-reported cause for a record terminated by a
// retracted, finality-timeout, dropped or invalid status, or nil. The result
// matches *ChainTerminalError under errors.As.
func (s *Service) FailureCause(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[id]
}

// Tracker exposes the transfer tracking record list
func (s *Service) Tracker() *tracker.Tracker {
	return s.tracker
}

// Connect attaches a wallet session. The session is passed into the status
// interpreter and pollers by reference; it is the only path to the chains.
func (s *Service) Connect(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.logger.Notice("Wallet session connected: consensus=%s domain=%s",
		session.ConsensusAddress, session.DomainAddress)
}

/// Disconnect tears the session down: the live subscription is detached
// exactly once and both pollers are stopped.
func (s *Service) Disconnect() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	s.stopPollers()
	s.tracker.Dispose()
	s.logger.Notice("Wallet session disconnected")
}

func (s *Service) currentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// PerformTransfer validates the intent, creates a tracking record and
// broadcasts the transfer. It returns once submission is initiated; progress
// arrives through the tracking record and the notifier.
func (s *Service) PerformTransfer(ctx context.Context, intent models.TransferIntent) (*models.TransferRecord, error) {
	base, err := amount.ToBaseUnits(intent.Amount)
	if err != nil {
		s.notifier.Warn(fmt.Sprintf(msgInvalidAmount, err))
		metrics.TransferFailures.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: err.Error()}
	}

	ok, err := amount.AtLeast(intent.Amount, s.minAmount)
	if err != nil || !ok {
		s.notifier.Warn(fmt.Sprintf(msgMinimumAmount, s.minAmount))
		metrics.TransferFailures.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: fmt.Sprintf("amount %s below minimum %s", intent.Amount, s.minAmount)}
	}

	if s.tracker.Transferring() {
		s.notifier.Warn(msgInProgress)
		return nil, &ValidationError{Reason: "transfer already in progress"}
	}

	now := time.Now()
	rec := s.tracker.Append(models.TransferRecord{
		Direction:          intent.Direction,
		Amount:             intent.Amount,
		BaseAmount:         base.String(),
		SourceAddress:      intent.SourceAddress,
		DestinationAddress: intent.DestinationAddress,
		CreatedAt:          now,
		ExpectedArrival:    now.Add(intent.Direction.EstimatedDuration()),
	})
	metrics.TransfersInitiated.WithLabelValues(string(intent.Direction)).Inc()
	metrics.ActiveTransfers.Set(float64(s.tracker.ActiveCount()))
	s.logger.Info("Initiating transfer: %s %s AI3", intent.Direction, intent.Amount)

	// The reverse direction has no automated path; the user signs the
	// extrinsic on Auto-EVM out of band.
	if intent.Direction == models.DomainToConsensus {
		s.tracker.SetStatus(rec, models.StatusManual)
		s.notifier.Info(fmt.Sprintf(msgManualInstructions, intent.DestinationAddress, intent.Amount, base.String()))
		return rec, nil
	}

	sess := s.currentSession()
	if sess == nil || sess.Consensus == nil || intent.SourceAddress == "" || intent.DestinationAddress == "" {
		s.tracker.SetStatus(rec, models.StatusFailed)
		s.notifier.Warn(msgConnectWallets)
		metrics.TransferFailures.WithLabelValues("connectivity").Inc()
		return rec, &ConnectivityError{Missing: "wallet session"}
	}
	if !address.IsDomainAddress(intent.DestinationAddress) {
		s.tracker.SetStatus(rec, models.StatusFailed)
		s.notifier.Warn(msgInvalidDest)
		metrics.TransferFailures.WithLabelValues("validation").Inc()
		return rec, &ValidationError{Reason: "invalid destination address"}
	}

	if balance, err := sess.Consensus.Balance(ctx, intent.SourceAddress); err != nil {
		// not fatal: the chain rejects an overdraw anyway
		s.logger.ErrorWithChain(logger.Consensus, "Balance check failed: %v", err)
	} else if balance.Cmp(base) <= 0 {
		// Equality is rejected too: the source account still owes the fee.
		s.tracker.SetStatus(rec, models.StatusFailed)
		s.notifier.Warn(msgOverBalance)
		metrics.TransferFailures.WithLabelValues("validation").Inc()
		return rec, &ValidationError{Reason: "amount exceeds available balance"}
	}

	sub, err := sess.Consensus.SubmitTransfer(ctx, intent.SourceAddress, intent.DestinationAddress, base)
	if err != nil {
		s.tracker.SetStatus(rec, models.StatusFailed)
		s.notifier.Warn(fmt.Sprintf(msgSubmitFailed, err))
		metrics.TransferFailures.WithLabelValues("submission").Inc()
		return rec, &SubmissionError{Err: err}
	}

	s.tracker.Activate(rec, sub.Hash, sub.Cancel)
	s.logger.InfoWithChain(logger.Consensus, "Transfer broadcast, provisional hash %s", sub.Hash)

	go s.consumeEvents(ctx, rec, sub, sess)
	return rec, nil
}

// AmountForPercent returns the given percentage of the session's source-side
// balance, floored to zero when the result is below the minimum.
func (s *Service) AmountForPercent(balance string, percent int) (string, error) {
	amt, err := amount.PercentOf(balance, percent)
	if err != nil {
		return "", err
	}
	ok, err := amount.AtLeast(amt, s.minAmount)
	if err != nil {
		return "", err
	}
	if !ok {
		s.notifier.Info(fmt.Sprintf(msgMinimumAmount, s.minAmount))
		return "0", nil
	}
	return amt, nil
}

// History fetches the connected account's confirmed transfers, newest first
func (s *Service) History(ctx context.Context) ([]models.HistoryEntry, error) {
	sess := s.currentSession()
	if sess == nil || sess.ConsensusAddress == "" {
		return nil, &ConnectivityError{Missing: "consensus address"}
	}
	entries, err := s.indexer.FetchRecentTransfers(ctx, sess.ConsensusAddress)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return nil, &IndexerError{Err: err}
	}
	return entries, nil
}

// Start runs the background maintenance loop: periodic history and balance
// refresh for the connected session. It blocks until the context is done.
func (s *Service) Start(ctx context.Context) {
	s.logger.Notice("Bridge service started")
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Notice("Context cancelled, shutting down bridge service")
			s.stopPollers()
			s.tracker.Dispose()
			return
		case <-ticker.C:
			sess := s.currentSession()
			if sess == nil {
				continue
			}
			s.refreshBalances(ctx, sess)
			s.refreshHistory(ctx, sess)
			metrics.ActiveTransfers.Set(float64(s.tracker.ActiveCount()))
		}
	}
}

// refreshHistory re-fetches the confirmed transfer list so observers see the
// authoritative view, and persists it when a store is configured.
func (s *Service) refreshHistory(ctx context.Context, sess *Session) {
	entries, err := s.indexer.FetchRecentTransfers(ctx, sess.ConsensusAddress)
	if err != nil {
		metrics.IndexerErrors.Inc()
		s.logger.ErrorWithChain(logger.Indexer, "History refresh failed: %v", err)
		return
	}
	metrics.HistoryFetched.Set(float64(len(entries)))
	if s.store != nil {
		if err := s.store.SaveHistory(entries); err != nil {
			s.logger.Error("Failed to persist history: %v", err)
		}
	}
}

func (s *Service) refreshBalances(ctx context.Context, sess *Session) {
	if sess.Consensus != nil && sess.ConsensusAddress != "" {
		if bal, err := sess.Consensus.Balance(ctx, sess.ConsensusAddress); err != nil {
			s.logger.ErrorWithChain(logger.Consensus, "Balance refresh failed: %v", err)
		} else {
			metrics.ConsensusBalance.Set(displayFloat(bal.String()))
		}
	}
	if sess.Domain != nil && sess.DomainAddress != "" {
		if bal, err := sess.Domain.Balance(ctx, sess.DomainAddress); err != nil {
			s.logger.ErrorWithChain(logger.Domain, "Balance refresh failed: %v", err)
		} else {
			metrics.DomainBalance.Set(displayFloat(bal.String()))
		}
	}
}

// displayFloat converts a base-unit decimal string to display units for
// metric gauges. Precision loss is acceptable here.
func displayFloat(base string) float64 {
	d, err := decimal.NewFromString(base)
	if err != nil {
		return 0
	}
	return d.Shift(-amount.Decimals).InexactFloat64()
}

func (s *Service) stopPollers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirm != nil {
		s.confirm.stop()
		s.confirm = nil
		s.confirmRec = nil
	}
	if s.completion != nil {
		s.completion.stop()
		s.completion = nil
		s.completionRec = nil
	}
}

// stopPollersFor stops only the pollers serving rec. A late terminal event
// on a superseded stream must not take down a newer submission's pollers.
func (s *Service) stopPollersFor(rec *models.TransferRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirm != nil && s.confirmRec == rec {
		s.confirm.stop()
		s.confirm = nil
		s.confirmRec = nil
	}
	if s.completion != nil && s.completionRec == rec {
		s.completion.stop()
		s.completion = nil
		s.completionRec = nil
	}
}

func (s *Service) isLiveConfirm(p *poller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirm == p
}

func (s *Service) isLiveCompletion(p *poller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completion == p
}
