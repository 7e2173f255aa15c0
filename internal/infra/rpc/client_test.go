package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newCountingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

var testRetry = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiple: 1}

func TestClient_ReadFailsOver(t *testing.T) {
	bad, badCalls := newCountingServer(t, http.StatusBadGateway, "bad gateway")
	good, goodCalls := newCountingServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0x10e"}`)

	router := NewRouter()
	router.AddProvider(NewHTTPProvider("bad", bad.URL, time.Second))
	router.AddProvider(NewHTTPProvider("good", good.URL, time.Second))
	client := NewClient(router).WithRetry(testRetry)

	result, err := client.Call(context.Background(), "eth_chainId")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result != "0x10e" {
		t.Fatalf("unexpected result: %v", result)
	}
	if badCalls.Load() != int32(testRetry.MaxAttempts) {
		t.Errorf("bad provider expected %d attempts, got %d", testRetry.MaxAttempts, badCalls.Load())
	}
	if goodCalls.Load() != 1 {
		t.Errorf("good provider expected 1 call, got %d", goodCalls.Load())
	}
}

func TestClient_SubmitIsNeverRetried(t *testing.T) {
	bad, badCalls := newCountingServer(t, http.StatusBadGateway, "bad gateway")
	good, goodCalls := newCountingServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0xabc"}`)

	router := NewRouter()
	router.AddProvider(NewHTTPProvider("bad", bad.URL, time.Second))
	router.AddProvider(NewHTTPProvider("good", good.URL, time.Second))
	client := NewClient(router).WithRetry(testRetry)

	_, err := client.Execute(context.Background(), NewSubmitOperation("eth_sendRawTransaction", "0x71"))
	if err == nil {
		t.Fatal("expected submission error")
	}
	if badCalls.Load() != 1 {
		t.Errorf("submission must be sent exactly once, got %d", badCalls.Load())
	}
	if goodCalls.Load() != 0 {
		t.Errorf("submission must not fail over, got %d calls on second provider", goodCalls.Load())
	}
}

func TestClient_RPCErrorIsNotRetried(t *testing.T) {
	srv, calls := newCountingServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":3,"message":"execution reverted"}}`)

	router := NewRouter()
	router.AddProvider(NewHTTPProvider("local", srv.URL, time.Second))
	client := NewClient(router).WithRetry(testRetry)

	_, err := client.Call(context.Background(), "eth_call", map[string]any{}, "latest")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("revert should be final, got %d calls", calls.Load())
	}

	health := client.ProviderHealth()
	if !health["local"].Available {
		t.Error("provider answering with a revert is still healthy")
	}
}
