package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProvider_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", r.Method)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if req["jsonrpc"] != "2.0" {
			t.Errorf("expected jsonrpc 2.0, got %v", req["jsonrpc"])
		}
		if req["method"] != "eth_chainId" {
			t.Errorf("expected eth_chainId, got %v", req["method"])
		}
		if params, ok := req["params"].([]any); !ok || len(params) != 0 {
			t.Errorf("expected empty params array, got %v", req["params"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  "0x10e",
		})
	}))
	defer server.Close()

	p := NewHTTPProvider("local", server.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_chainId", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x10e" {
		t.Errorf("expected 0x10e, got %v", result)
	}
	if !p.GetHealth().Available {
		t.Error("provider should be available")
	}
}

func TestHTTPProvider_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":3,"message":"execution reverted","data":"0x08c379a0"}}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("local", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_call", []any{map[string]any{}, "latest"})

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != 3 || rpcErr.Message != "execution reverted" {
		t.Errorf("unexpected rpc error: %+v", rpcErr)
	}
	if rpcErr.Data != "0x08c379a0" {
		t.Errorf("expected revert data to be kept, got %v", rpcErr.Data)
	}
	if p.GetHealth().ErrorRate != 0 {
		t.Error("a node-level error must not count against the transport")
	}
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider("local", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_gasPrice", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if p.Monitor.GetStats().ThrottleCount429 != 1 {
		t.Errorf("expected one recorded throttle")
	}
}

func TestHTTPProvider_NullResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("local", server.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_getTransactionReceipt", []any{"0xabc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestHTTPProvider_ExecuteInvoke(t *testing.T) {
	p := NewHTTPProvider("local", "http://127.0.0.1:0", time.Second)
	result, err := p.Execute(context.Background(), Operation{
		Name:   "custom",
		Invoke: func(ctx context.Context) (any, error) { return "ok", nil },
	})
	if err != nil || result != "ok" {
		t.Fatalf("Execute = %v, %v", result, err)
	}
}
