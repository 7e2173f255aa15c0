package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewProviderMonitor(),
	}
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Execute runs op through Invoke when set, otherwise as a JSON-RPC call.
func (p *HTTPProvider) Execute(ctx context.Context, op Operation) (any, error) {
	if op.Invoke != nil {
		start := time.Now()
		result, err := op.Invoke(ctx)
		if err != nil {
			p.recordFailure()
			return nil, err
		}
		p.recordSuccess(time.Since(start))
		return result, nil
	}
	return p.Call(ctx, op.Name, op.Params)
}

// Call makes a single JSON-RPC call.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	start := time.Now()

	if p.Monitor.Status() == StatusThrottled {
		return nil, fmt.Errorf("provider %s throttled, retry after %v", p.name, p.Monitor.RetryAfter())
	}

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      p.nextID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		p.Monitor.RecordThrottle(resp.StatusCode)
		p.recordFailure()
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	case http.StatusForbidden:
		p.Monitor.RecordThrottle(resp.StatusCode)
		p.recordFailure()
		return nil, fmt.Errorf("ip blocked (403)")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.recordFailure()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		if p.Monitor.DetectThrottlePattern(rpcResp.Error.Message) {
			p.Monitor.RecordThrottle(http.StatusTooManyRequests)
			p.recordFailure()
			return nil, fmt.Errorf("throttle in rpc error: %w", rpcResp.Error)
		}
		// The node answered; a JSON-RPC error is not a transport fault.
		p.recordSuccess(time.Since(start))
		return nil, rpcResp.Error
	}

	latency := time.Since(start)
	p.Monitor.RecordRequest(latency)
	p.recordSuccess(latency)

	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	return result, nil
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.health
	stats := p.Monitor.GetStats()
	h.MonitorStats = &stats
	return h
}

// IsAvailable checks if the provider is available.
func (p *HTTPProvider) IsAvailable() bool {
	status := p.Monitor.Status()
	return status == StatusHealthy || status == StatusDegraded
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true
	p.health.ErrorRate = float64(p.failureCount) / float64(p.successCount+p.failureCount)
	p.health.Latency = p.totalLatency / time.Duration(p.successCount)
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.health.LastFailureAt = time.Now()
	p.health.ErrorRate = float64(p.failureCount) / float64(p.successCount+p.failureCount)
	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
