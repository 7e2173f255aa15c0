package rpc

import (
	"context"

	"github.com/vietddude/modswap/internal/infra/rpc/provider"
)

// NewOperation creates an Operation with a custom Invoke function.
func NewOperation(name string, invoke func(ctx context.Context) (any, error)) Operation {
	return provider.Operation{
		Name:   name,
		Invoke: invoke,
	}
}

// NewHTTPOperation creates a read Operation for a JSON-RPC call.
func NewHTTPOperation(method string, params ...any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
	}
}

// NewSubmitOperation creates a state-changing Operation that is never retried.
func NewSubmitOperation(method string, params ...any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
		Submit: true,
	}
}
