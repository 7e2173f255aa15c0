package allowance

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain/chaintest"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

var (
	owner   = common.HexToAddress("0xAC")
	router  = common.HexToAddress("0x0D")
	daiAddr = common.HexToAddress("0xA1")
	dai     = domain.MustToken(daiAddr, "DAI", 18)
)

// tokenLedger simulates the allowance storage of one ERC-20.
type tokenLedger struct {
	allowances map[[2]common.Address]*big.Int
}

func newLedger(fake *chaintest.Chain) *tokenLedger {
	l := &tokenLedger{allowances: make(map[[2]common.Address]*big.Int)}
	fake.Handle(daiAddr, contracts.ERC20ABI, "allowance", func(args []any) ([]any, error) {
		key := [2]common.Address{args[0].(common.Address), args[1].(common.Address)}
		if v, ok := l.allowances[key]; ok {
			return []any{v}, nil
		}
		return []any{new(big.Int)}, nil
	})
	return l
}

// apply executes an approve call as the token contract would.
func (l *tokenLedger) apply(t *testing.T, from common.Address, call domain.BatchedCall) {
	t.Helper()
	m := contracts.ERC20ABI.Methods["approve"]
	require.Equal(t, m.ID, call.Data[:4])
	args, err := m.Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	l.allowances[[2]common.Address{from, args[0].(common.Address)}] = args[1].(*big.Int)
}

func TestHasSufficientAllowance(t *testing.T) {
	tests := []struct {
		name    string
		current *big.Int
		amount  *big.Int
		want    bool
	}{
		{"none approved", nil, big.NewInt(1), false},
		{"below amount", big.NewInt(99), big.NewInt(100), false},
		{"equal to amount", big.NewInt(100), big.NewInt(100), true},
		{"above amount", big.NewInt(101), big.NewInt(100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := chaintest.New(270)
			ledger := newLedger(fake)
			if tt.current != nil {
				ledger.allowances[[2]common.Address{owner, router}] = tt.current
			}

			ok, err := NewGate(fake).HasSufficientAllowance(context.Background(), dai, owner, router, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHasSufficientAllowance_NativeNeedsNoRead(t *testing.T) {
	fake := chaintest.New(270)
	ok, err := NewGate(fake).HasSufficientAllowance(
		context.Background(), domain.NativeAsset("ETH", 18), owner, router, big.NewInt(1e18))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, fake.Calls("allowance"))
}

func TestBuildApprovalCall(t *testing.T) {
	gate := NewGate(chaintest.New(270))

	call, err := gate.BuildApprovalCall(dai, router)
	require.NoError(t, err)
	assert.False(t, call.IsDelegateCall)
	assert.Equal(t, daiAddr, call.Target)
	assert.Zero(t, call.Value.Sign())

	_, err = gate.BuildApprovalCall(domain.NativeAsset("ETH", 18), router)
	assert.Error(t, err)
}

func TestApprovalRoundTrip(t *testing.T) {
	fake := chaintest.New(270)
	ledger := newLedger(fake)
	gate := NewGate(fake)

	call, err := gate.BuildApprovalCall(dai, router)
	require.NoError(t, err)
	ledger.apply(t, owner, call)

	for _, amount := range []*big.Int{big.NewInt(1), big.NewInt(1e18), math.MaxBig256} {
		ok, err := gate.HasSufficientAllowance(context.Background(), dai, owner, router, amount)
		require.NoError(t, err)
		assert.True(t, ok, "amount %s", amount)
	}
}
