// Package metrics exposes the banking-relevant Prometheus metrics of this
// service: transfer/reversal counts, transfer amount distribution, account
// balance distribution, duplicate rejections, and HTTP request
// instrumentation. The account balance and duplicate collectors are only
// updated through Recorder.RecordAccountBalance and
// Recorder.RecordDuplicateTransaction, which nothing in this service
// calls. General-purpose runtime/GC/CPU-pressure gauges are
// observability noise unrelated to ledger correctness and are not
// included here (see DESIGN.md).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	AccountsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		},
	)

	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transfers_total",
			Help: "Total number of transfer operations by outcome",
		},
		[]string{"status"}, // success, error
	)

	ReversalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_reversals_total",
			Help: "Total number of reversal operations by outcome",
		},
		[]string{"status"},
	)

	TransferAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_transfer_amount",
			Help:    "Distribution of transfer amounts in major currency units",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	AccountBalance = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_account_balance",
			Help:    "Distribution of account balances in major currency units",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	DuplicateTransactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_duplicate_transactions_total",
			Help: "Total number of requests rejected as duplicate by the idempotency manager",
		},
	)
)

// Recorder implements ledger.MetricsRecorder over the package-level
// Prometheus collectors above.
type Recorder struct{}

func NewRecorder() Recorder { return Recorder{} }

func (Recorder) RecordTransfer(status string)        { TransfersTotal.WithLabelValues(status).Inc() }
func (Recorder) RecordTransferAmount(amount float64)  { TransferAmount.Observe(amount) }
func (Recorder) RecordReversal(status string)         { ReversalsTotal.WithLabelValues(status).Inc() }
func (Recorder) RecordAccountCreated()                { AccountsCreatedTotal.Inc() }
func (Recorder) RecordAccountBalance(balance float64) { AccountBalance.Observe(balance) }
func (Recorder) RecordDuplicateTransaction()          { DuplicateTransactionsTotal.Inc() }

// NoOp satisfies ledger.MetricsRecorder without touching any global
// collector state — used by unit tests that construct a PaymentEngine
// directly against the in-memory store.
type NoOp struct{}

func (NoOp) RecordTransfer(string)        {}
func (NoOp) RecordTransferAmount(float64) {}
func (NoOp) RecordReversal(string)        {}
