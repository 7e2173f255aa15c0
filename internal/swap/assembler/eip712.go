package assembler

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/vietddude/modswap/internal/core/domain"
)

const (
	domainName    = "zkSync"
	domainVersion = "2"
	primaryType   = "Transaction"
)

var ErrBadBytecode = errors.New("factory dependency is not valid zkEVM bytecode")

var transactionTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	primaryType: {
		{Name: "txType", Type: "uint256"},
		{Name: "from", Type: "uint256"},
		{Name: "to", Type: "uint256"},
		{Name: "gasLimit", Type: "uint256"},
		{Name: "gasPerPubdataByteLimit", Type: "uint256"},
		{Name: "maxFeePerGas", Type: "uint256"},
		{Name: "maxPriorityFeePerGas", Type: "uint256"},
		{Name: "paymaster", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "factoryDeps", Type: "bytes32[]"},
		{Name: "paymasterInput", Type: "bytes"},
	},
}

// TypedData returns the EIP-712 document a zkSync account signs for env.
func TypedData(env *domain.Envelope) (apitypes.TypedData, error) {
	deps := make([]any, len(env.FactoryDeps))
	for i, dep := range env.FactoryDeps {
		h, err := HashBytecode(dep)
		if err != nil {
			return apitypes.TypedData{}, fmt.Errorf("factory dep %d: %w", i, err)
		}
		deps[i] = h.Hex()
	}

	var (
		paymaster      = new(big.Int)
		paymasterInput = []byte{}
	)
	if env.Paymaster != nil {
		paymaster.SetBytes(env.Paymaster.Paymaster.Bytes())
		paymasterInput = env.Paymaster.Input
	}

	return apitypes.TypedData{
		Types:       transactionTypes,
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    domainName,
			Version: domainVersion,
			ChainId: (*math.HexOrDecimal256)(env.ChainID),
		},
		Message: apitypes.TypedDataMessage{
			"txType":                 big.NewInt(domain.ZkSyncTxType),
			"from":                   new(big.Int).SetBytes(env.From.Bytes()),
			"to":                     new(big.Int).SetBytes(env.To.Bytes()),
			"gasLimit":               new(big.Int).SetUint64(env.GasLimit),
			"gasPerPubdataByteLimit": new(big.Int).SetUint64(env.GasPerPubdata),
			"maxFeePerGas":           orZero(env.MaxFeePerGas),
			"maxPriorityFeePerGas":   orZero(env.MaxPriorityFeePerGas),
			"paymaster":              paymaster,
			"nonce":                  new(big.Int).SetUint64(env.Nonce),
			"value":                  orZero(env.Value),
			"data":                   hexutil.Bytes(nonNil(env.Data)),
			"factoryDeps":            deps,
			"paymasterInput":         hexutil.Bytes(paymasterInput),
		},
	}, nil
}

// Digest is the EIP-712 hash of env's unsigned fields. The signature itself
// is never part of the digest.
func Digest(env *domain.Envelope) (common.Hash, error) {
	if env.ChainID == nil {
		return common.Hash{}, errors.New("envelope has no chain id")
	}
	td, err := TypedData(env)
	if err != nil {
		return common.Hash{}, err
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("eip712 hash: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// HashBytecode is zkSync's versioned bytecode hash: sha256 with the first
// two bytes replaced by the version and the next two by the length in words.
func HashBytecode(code []byte) (common.Hash, error) {
	if len(code)%32 != 0 {
		return common.Hash{}, fmt.Errorf("%w: length %d not a multiple of 32", ErrBadBytecode, len(code))
	}
	words := len(code) / 32
	if words >= 1<<16 {
		return common.Hash{}, fmt.Errorf("%w: %d words", ErrBadBytecode, words)
	}
	if words%2 == 0 {
		return common.Hash{}, fmt.Errorf("%w: even word count %d", ErrBadBytecode, words)
	}

	h := sha256.Sum256(code)
	h[0], h[1] = 1, 0
	binary.BigEndian.PutUint16(h[2:4], uint16(words))
	return common.Hash(h), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
