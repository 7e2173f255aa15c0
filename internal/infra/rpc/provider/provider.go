// Package provider implements RPC provider interfaces.
//
// This package contains:
//   - Provider interface: core abstraction for RPC endpoints
//   - HTTPProvider: JSON-RPC 2.0 over HTTP
//   - ProviderMonitor: throttle and latency tracking
package provider

import (
	"context"
	"fmt"
	"time"
)

// Operation represents an RPC operation to execute.
type Operation struct {
	// Name is the JSON-RPC method (e.g. "eth_call").
	Name string

	// Params are the positional JSON-RPC params.
	Params []any

	// Submit marks state-changing calls. They are sent once to one provider:
	// a resend could broadcast the same nonce twice.
	Submit bool

	// Invoke, if set, replaces the JSON-RPC call. Used by tests and custom transports.
	Invoke func(ctx context.Context) (any, error)
}

// Provider defines the core interface for any RPC endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "local", "mainnet-public")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Execute performs the operation with monitoring and error handling
	Execute(ctx context.Context, op Operation) (any, error)

	// Close cleans up resources
	Close() error
}

// RPCProvider extends Provider with raw JSON-RPC calls.
type RPCProvider interface {
	Provider

	// Call makes a single RPC request
	Call(ctx context.Context, method string, params []any) (any, error)
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
