// Package signer holds the secp256k1 key that controls an account.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoKey is returned when neither a hex key nor a keystore file is configured.
var ErrNoKey = errors.New("no signing key configured")

// Signer produces signatures for typed-data digests and plain transactions.
type Signer interface {
	Address() common.Address
	// SignDigest returns a 65-byte r||s||v signature with v in {27, 28}.
	SignDigest(digest []byte) ([]byte, error)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs with an in-memory private key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ Signer = (*KeySigner)(nil)

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// FromHex parses a hex private key, with or without 0x prefix.
func FromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeySigner(key), nil
}

// FromKeystore decrypts a V3 keystore file.
func FromKeystore(path, password string) (*KeySigner, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	k, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return NewKeySigner(k.PrivateKey), nil
}

// Load picks the hex key when set, otherwise the keystore file.
func Load(hexKey, keystorePath, password string) (*KeySigner, error) {
	switch {
	case hexKey != "":
		return FromHex(hexKey)
	case keystorePath != "":
		return FromKeystore(keystorePath, password)
	default:
		return nil, ErrNoKey
	}
}

func (s *KeySigner) Address() common.Address { return s.addr }

func (s *KeySigner) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != common.HashLength {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", common.HashLength, len(digest))
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}

// Recover returns the address that produced a 65-byte v∈{27,28} signature over digest.
func Recover(digest, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes", crypto.SignatureLength)
	}
	norm := common.CopyBytes(sig)
	if norm[crypto.RecoveryIDOffset] >= 27 {
		norm[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest, norm)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
