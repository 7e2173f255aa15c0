package domain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ZkSyncTxType is the EIP-712 transaction type byte.
const ZkSyncTxType = 0x71

// DefaultGasPerPubdata is the per-pubdata-byte gas limit used by the SDKs.
const DefaultGasPerPubdata = 50000

var (
	ErrEnvelopeSigned   = errors.New("envelope already signed")
	ErrEnvelopeUnsigned = errors.New("envelope not signed")
)

// Envelope is a zkSync EIP-712 transaction. An envelope is immutable once signed;
// signing produces a new value.
type Envelope struct {
	From                 common.Address
	To                   common.Address
	ChainID              *big.Int
	Nonce                uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasLimit             uint64
	GasPerPubdata        uint64
	Value                *big.Int
	Data                 []byte
	FactoryDeps          [][]byte
	Paymaster            *PaymasterParams

	signature []byte
}

func (e *Envelope) Signed() bool { return len(e.signature) > 0 }

// Signature returns a copy of the 65-byte custom signature.
func (e *Envelope) Signature() []byte {
	return common.CopyBytes(e.signature)
}

// WithSignature returns a signed copy of an unsigned envelope.
func (e *Envelope) WithSignature(sig []byte) (*Envelope, error) {
	if e.Signed() {
		return nil, ErrEnvelopeSigned
	}
	cp := *e
	cp.Data = common.CopyBytes(e.Data)
	cp.signature = common.CopyBytes(sig)
	return &cp, nil
}

// SetPaymaster attaches paymaster params to an unsigned envelope.
func (e *Envelope) SetPaymaster(p *PaymasterParams) error {
	if e.Signed() {
		return ErrEnvelopeSigned
	}
	e.Paymaster = p
	return nil
}
