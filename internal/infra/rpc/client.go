package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/modswap/internal/infra/rpc/provider"
	"github.com/vietddude/modswap/internal/infra/rpc/routing"
	"github.com/vietddude/modswap/internal/swap/metrics"
)

// RPCClient is what chain adapters depend on.
type RPCClient interface {
	Execute(ctx context.Context, op Operation) (any, error)
}

// Client is the high-level interface for making RPC calls.
// Reads are retried and failed over across providers. Submissions go to a
// single provider exactly once.
type Client struct {
	router routing.Router
	retry  routing.RetryConfig
	log    *slog.Logger
}

// NewClient creates a new RPC client.
func NewClient(router routing.Router) *Client {
	return &Client{
		router: router,
		retry:  routing.DefaultRetryConfig,
		log:    slog.Default(),
	}
}

// WithRetry overrides the read retry policy.
func (c *Client) WithRetry(cfg routing.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Execute runs op with the policy its kind calls for.
func (c *Client) Execute(ctx context.Context, op Operation) (any, error) {
	start := time.Now()
	metrics.RPCCallsTotal.WithLabelValues(op.Name).Inc()

	var (
		result any
		err    error
	)
	if op.Submit {
		result, err = c.submit(ctx, op)
	} else {
		result, err = routing.CallWithRetryAndFailover(ctx, c.router, op, c.retry)
	}

	metrics.RPCLatency.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		action := routing.ClassifyError(err)
		metrics.RPCErrorsTotal.WithLabelValues(op.Name, action.String()).Inc()
		c.log.Debug("rpc call failed", "method", op.Name, "action", action.String(), "error", err)
	}
	return result, err
}

// Call is shorthand for a read operation.
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	return c.Execute(ctx, NewHTTPOperation(method, params...))
}

func (c *Client) submit(ctx context.Context, op Operation) (any, error) {
	p, err := c.router.GetProvider()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := p.Execute(ctx, op)
	if err != nil {
		if routing.ClassifyError(err) != routing.ActionFatal {
			c.router.RecordFailure(p.GetName(), err)
		}
		return nil, fmt.Errorf("%s via %s: %w", op.Name, p.GetName(), err)
	}
	c.router.RecordSuccess(p.GetName(), time.Since(start))
	return result, nil
}

// ProviderHealth returns health for every registered provider.
func (c *Client) ProviderHealth() map[string]provider.HealthStatus {
	out := make(map[string]provider.HealthStatus)
	providers := c.router.GetAllProviders()
	if dr, ok := c.router.(*routing.DefaultRouter); ok {
		providers = dr.Providers()
	}
	for _, p := range providers {
		out[p.GetName()] = p.GetHealth()
	}
	return out
}
