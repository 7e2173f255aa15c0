package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwapsTotal counts swap cycles by the state they ended in
	SwapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_swaps_total",
			Help: "Total number of swap cycles by final state",
		},
		[]string{"account_kind", "state"},
	)

	// StateTransitions counts orchestrator state changes
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_state_transitions_total",
			Help: "Total number of swap state transitions",
		},
		[]string{"from", "to"},
	)

	// BlockedTotal counts trades stopped by policy, per reason
	BlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_blocked_total",
			Help: "Total number of trades blocked by policy",
		},
		[]string{"reason"},
	)

	// ErrorsTotal counts failed cycles by error kind
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_errors_total",
			Help: "Total number of swap failures by kind",
		},
		[]string{"kind"},
	)

	// PaymasterTotal counts envelopes by paymaster flow
	PaymasterTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_paymaster_total",
			Help: "Total number of assembled envelopes by paymaster mode",
		},
		[]string{"mode"},
	)

	// SubmissionsTotal counts transactions handed to the node
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_submissions_total",
			Help: "Total number of submitted transactions by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// CycleDuration tracks time from quoting to a terminal state
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modswap_cycle_duration_seconds",
			Help:    "Duration of a swap cycle in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"state"},
	)

	// RPCCallsTotal tracks RPC calls per method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"method"},
	)

	// RPCErrorsTotal tracks RPC errors per method and handling action
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modswap_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"method", "action"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modswap_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RPCProviderAvailable is 1 while a provider's circuit is closed
	RPCProviderAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modswap_rpc_provider_available",
			Help: "Whether an RPC provider is currently usable",
		},
		[]string{"provider"},
	)

	// RPCProviderErrorRate is the provider's recent error rate
	RPCProviderErrorRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modswap_rpc_provider_error_rate",
			Help: "Recent error rate of an RPC provider",
		},
		[]string{"provider"},
	)

	// DBConnectionPoolUsage tracks the usage of the submission journal pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modswap_db_connection_pool_usage_percent",
			Help: "Percentage of database connection pool in use",
		},
	)
)
