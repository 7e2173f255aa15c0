package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vietddude/modswap/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults for reads.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFailover:
		return "failover"
	default:
		return "fatal"
	}
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	// The node evaluated the request and answered with an error: asking again
	// or asking another node gives the same answer.
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return ActionFatal
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") ||
		strings.Contains(sLower, "execution reverted") {
		return ActionFatal
	}

	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "throttle") ||
		strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "quota") {
		return ActionFailover
	}

	// Network, 5xx, timeouts
	return ActionRetry
}

// CallWithRetry executes an operation on one provider with exponential backoff.
func CallWithRetry(
	ctx context.Context,
	p provider.Provider,
	op provider.Operation,
	config RetryConfig,
) (any, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := p.Execute(ctx, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if action := ClassifyError(err); action != ActionRetry {
			return nil, err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(calculateBackoff(attempt, config)):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// CallWithRetryAndFailover tries every usable provider in turn.
func CallWithRetryAndFailover(
	ctx context.Context,
	router Router,
	op provider.Operation,
	config RetryConfig,
) (any, error) {
	providers := router.GetAllProviders()
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, p := range providers {
		start := time.Now()
		result, err := CallWithRetry(ctx, p, op, config)
		if err == nil {
			router.RecordSuccess(p.GetName(), time.Since(start))
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal {
			// A node-level answer says nothing about provider health.
			var rpcErr *provider.RPCError
			if errors.As(err, &rpcErr) {
				router.RecordSuccess(p.GetName(), time.Since(start))
			}
			return nil, err
		}
		router.RecordFailure(p.GetName(), err)
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
