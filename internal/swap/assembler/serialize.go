package assembler

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Serialize returns the 0x71-prefixed RLP wire encoding of a signed envelope:
//
//	[nonce, maxPriorityFeePerGas, maxFeePerGas, gasLimit, to, value, data,
//	 chainId, "", "", chainId, from, gasPerPubdata, factoryDeps,
//	 customSignature, [paymaster, paymasterInput] | []]
//
// The chainId, "", "" triple stands where an ECDSA v, r, s would be; zkSync
// accounts carry their signature in customSignature instead.
func Serialize(env *domain.Envelope) ([]byte, error) {
	if !env.Signed() {
		return nil, domain.ErrEnvelopeUnsigned
	}
	if env.ChainID == nil {
		return nil, fmt.Errorf("serialize: envelope has no chain id")
	}

	deps := env.FactoryDeps
	if deps == nil {
		deps = [][]byte{}
	}

	paymaster := []any{}
	if env.Paymaster != nil {
		paymaster = []any{env.Paymaster.Paymaster, env.Paymaster.Input}
	}

	fields := []any{
		env.Nonce,
		orZero(env.MaxPriorityFeePerGas),
		orZero(env.MaxFeePerGas),
		env.GasLimit,
		env.To,
		orZero(env.Value),
		nonNil(env.Data),
		env.ChainID,
		[]byte{},
		[]byte{},
		env.ChainID,
		env.From,
		env.GasPerPubdata,
		deps,
		env.Signature(),
		paymaster,
	}
	return prefixedRLP(domain.ZkSyncTxType, fields)
}

func prefixedRLP(prefix byte, fields []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(prefix)
	if err := rlp.Encode(&buf, fields); err != nil {
		return nil, fmt.Errorf("rlp encode: %w", err)
	}
	return buf.Bytes(), nil
}

// decodedEnvelope mirrors the wire list for round-trip checks.
type decodedEnvelope struct {
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
	To                   []byte
	Value                *big.Int
	Data                 []byte
	ChainID              *big.Int
	R                    []byte
	S                    []byte
	ChainID2             *big.Int
	From                 []byte
	GasPerPubdata        uint64
	FactoryDeps          [][]byte
	CustomSignature      []byte
	Paymaster            []rlp.RawValue
}

func decodeEnvelope(raw []byte) (*decodedEnvelope, error) {
	if len(raw) == 0 || raw[0] != domain.ZkSyncTxType {
		return nil, fmt.Errorf("not a 0x%x transaction", domain.ZkSyncTxType)
	}
	var d decodedEnvelope
	if err := rlp.DecodeBytes(raw[1:], &d); err != nil {
		return nil, err
	}
	return &d, nil
}
