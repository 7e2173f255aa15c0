package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrZeroTokenAddress is returned when a token asset is built from the zero address.
var ErrZeroTokenAddress = errors.New("token asset requires a non-zero address")

// Asset is either the chain's native asset or an ERC-20 token.
type Asset struct {
	native   bool
	address  common.Address
	Symbol   string
	Decimals uint8
}

// NativeAsset returns the native asset (ETH on zkSync).
func NativeAsset(symbol string, decimals uint8) Asset {
	return Asset{native: true, Symbol: symbol, Decimals: decimals}
}

// TokenAsset returns an ERC-20 asset. The zero address is reserved for nothing
// and is rejected so a token can never be confused with native.
func TokenAsset(addr common.Address, symbol string, decimals uint8) (Asset, error) {
	if addr == (common.Address{}) {
		return Asset{}, fmt.Errorf("%s: %w", symbol, ErrZeroTokenAddress)
	}
	return Asset{address: addr, Symbol: symbol, Decimals: decimals}, nil
}

// MustToken is TokenAsset for constant addresses.
func MustToken(addr common.Address, symbol string, decimals uint8) Asset {
	a, err := TokenAsset(addr, symbol, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Asset) IsNative() bool { return a.native }

// Address returns the token contract address. Native assets return the zero address.
func (a Asset) Address() common.Address { return a.address }

// Resolve maps native to the routing asset and leaves tokens unchanged.
func (a Asset) Resolve(routing common.Address) common.Address {
	if a.native {
		return routing
	}
	return a.address
}

// Equal reports whether both values denote the same asset.
func (a Asset) Equal(b Asset) bool {
	return a.native == b.native && a.address == b.address
}

// Key is a stable identifier usable as a map key or metric label.
func (a Asset) Key() string {
	if a.native {
		return "native"
	}
	return a.address.Hex()
}

func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.Key()
}
