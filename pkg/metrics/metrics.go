package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	TransfersInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_transfers_initiated_total",
		Help: "The total number of transfers submitted, by direction",
	}, []string{"direction"})

	TransfersCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_transfers_completed_total",
		Help: "The total number of transfers that reached a terminal state, by direction and final status",
	}, []string{"direction", "status"})

	TransferFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_transfer_failures_total",
		Help: "Total number of transfer failures by reason",
	}, []string{"reason"})

	ActiveTransfers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xdm_active_transfers",
		Help: "The number of tracked transfers not yet in a terminal state",
	})

	StatusEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_status_events_total",
		Help: "Raw chain status events consumed, by kind",
	}, []string{"kind"})

	ConfirmationPollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_confirmation_poll_ticks_total",
		Help: "Submission confirmation poll ticks, by outcome",
	}, []string{"outcome"})

	CompletionPollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_completion_poll_ticks_total",
		Help: "Bridge completion poll ticks, by outcome",
	}, []string{"outcome"})

	PollerTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xdm_poller_timeouts_total",
		Help: "Pollers that exhausted their attempt budget without a match",
	}, []string{"poller"})

	BridgeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xdm_bridge_latency_seconds",
		Help:    "Time from submission to destination-side arrival",
		Buckets: prometheus.ExponentialBuckets(30, 2, 8), // 30s up to ~1h
	})

	IndexerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xdm_indexer_errors_total",
		Help: "Historical indexer fetches that failed",
	})

	HistoryFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xdm_history_entries",
		Help: "Number of historical transfers returned by the last fetch",
	})

	ConsensusBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xdm_consensus_balance",
		Help: "Last observed consensus-side balance of the session account, in display units",
	})

	DomainBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xdm_domain_balance",
		Help: "Last observed Auto-EVM balance of the session account, in display units",
	})
)
