// Package assembler builds, signs and serializes swap transactions: zkSync
// EIP-712 envelopes for modular accounts and dynamic-fee transactions for
// plain key accounts.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Node is the subset of chain.Adapter read at assembly time.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// DigestSigner signs a 32-byte digest with v in {27, 28}.
type DigestSigner interface {
	SignDigest(digest []byte) ([]byte, error)
}

// TxSigner signs a go-ethereum transaction.
type TxSigner interface {
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Config struct {
	GasLimit      uint64
	GasPerPubdata uint64
}

type Assembler struct {
	node Node
	cfg  Config
	log  *slog.Logger
}

func New(node Node, cfg Config) *Assembler {
	if cfg.GasPerPubdata == 0 {
		cfg.GasPerPubdata = domain.DefaultGasPerPubdata
	}
	return &Assembler{
		node: node,
		cfg:  cfg,
		log:  slog.Default().With("component", "assembler"),
	}
}

// snapshot is the live chain state one assembly is built against.
type snapshot struct {
	chainID  *big.Int
	nonce    uint64
	gasPrice *big.Int
}

// read takes nonce, chain id and gas price once. Any failure is fatal to the
// attempt and reported as KindAssemblyFailure.
func (a *Assembler) read(ctx context.Context, from common.Address) (*snapshot, error) {
	var s snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.chainID, err = a.node.ChainID(gctx)
		return err
	})
	g.Go(func() (err error) {
		s.nonce, err = a.node.PendingNonceAt(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		s.gasPrice, err = a.node.GasPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewError(domain.KindAssemblyFailure, "assemble", err)
	}
	return &s, nil
}

// Assemble builds an unsigned zkSync envelope from from to to. The priority
// fee is zero and the max fee equals the gas price read here.
func (a *Assembler) Assemble(
	ctx context.Context,
	from, to common.Address,
	data []byte,
	value *big.Int,
	pm *domain.PaymasterParams,
) (*domain.Envelope, error) {
	if pm != nil {
		if err := pm.Validate(); err != nil {
			return nil, domain.NewError(domain.KindAssemblyFailure, "assemble", err)
		}
	}

	s, err := a.read(ctx, from)
	if err != nil {
		return nil, err
	}

	env := &domain.Envelope{
		From:                 from,
		To:                   to,
		ChainID:              s.chainID,
		Nonce:                s.nonce,
		MaxFeePerGas:         s.gasPrice,
		MaxPriorityFeePerGas: new(big.Int),
		GasLimit:             a.cfg.GasLimit,
		GasPerPubdata:        a.cfg.GasPerPubdata,
		Value:                orZero(value),
		Data:                 common.CopyBytes(data),
		Paymaster:            pm,
	}

	a.log.Debug("envelope assembled",
		"from", from.Hex(),
		"to", to.Hex(),
		"nonce", env.Nonce,
		"gas_price", env.MaxFeePerGas,
		"paymaster", pm != nil,
	)
	return env, nil
}

// Sign hashes the unsigned envelope and returns a signed copy. The input
// envelope is left untouched.
func Sign(env *domain.Envelope, signer DigestSigner) (*domain.Envelope, error) {
	if env.Signed() {
		return nil, domain.ErrEnvelopeSigned
	}
	digest, err := Digest(env)
	if err != nil {
		return nil, domain.NewError(domain.KindAssemblyFailure, "sign", err)
	}
	sig, err := signer.SignDigest(digest.Bytes())
	if err != nil {
		return nil, domain.NewError(domain.KindAssemblyFailure, "sign", err)
	}
	return env.WithSignature(sig)
}

// AssembleEOA builds an unsigned dynamic-fee transaction with a zero tip.
func (a *Assembler) AssembleEOA(
	ctx context.Context,
	from, to common.Address,
	data []byte,
	value *big.Int,
) (*types.Transaction, *big.Int, error) {
	s, err := a.read(ctx, from)
	if err != nil {
		return nil, nil, err
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     s.nonce,
		GasTipCap: new(big.Int),
		GasFeeCap: s.gasPrice,
		Gas:       a.cfg.GasLimit,
		To:        &to,
		Value:     orZero(value),
		Data:      common.CopyBytes(data),
	})
	return tx, s.chainID, nil
}

// SignEOA signs tx and returns it with its binary encoding.
func SignEOA(tx *types.Transaction, chainID *big.Int, signer TxSigner) (*types.Transaction, []byte, error) {
	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindAssemblyFailure, "sign", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("encode tx: %w", err)
	}
	return signed, raw, nil
}
