// Package rpc provides a resilient JSON-RPC client for zkSync nodes.
//
// Reads (eth_call, eth_getTransactionCount, eth_gasPrice, receipts) are
// retried with backoff and failed over across providers. Transaction
// submission is sent once to one provider and never retried.
//
//	router := rpc.NewRouter()
//	router.AddProvider(rpc.NewHTTPProvider("local", "http://localhost:3050", 30*time.Second))
//	client := rpc.NewClient(router)
//	result, err := client.Call(ctx, "eth_chainId")
//
// The package is organized into sub-packages:
//
//   - provider/ - HTTPProvider and throttle monitoring
//   - routing/  - provider selection, circuit breaker, retry logic
package rpc

import (
	"time"

	"github.com/vietddude/modswap/internal/infra/rpc/provider"
	"github.com/vietddude/modswap/internal/infra/rpc/routing"
)

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// Operation represents an RPC operation to execute.
type Operation = provider.Operation

// RPCError is a JSON-RPC error object returned by a node.
type RPCError = provider.RPCError

// Router handles provider selection and health tracking.
type Router = routing.Router

// DefaultRouter implements round-robin selection with circuit breaker.
type DefaultRouter = routing.DefaultRouter

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// NewRouter creates a new router.
func NewRouter() *DefaultRouter {
	return routing.NewRouter()
}
