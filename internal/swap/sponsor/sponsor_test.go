package sponsor

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain/chaintest"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

var (
	pondAddr = common.HexToAddress("0xB1")
	weth     = common.HexToAddress("0xE7")
	sponsor  = common.HexToAddress("0x36615Cf349d7F6344891B1e7CA7C72883F5dc049")

	eth  = domain.NativeAsset("ETH", 18)
	dai  = domain.MustToken(common.HexToAddress("0xA1"), "DAI", 18)
	usdc = domain.MustToken(common.HexToAddress("0xA2"), "USDC", 6)
)

func TestIsSponsored_PathShape(t *testing.T) {
	tests := []struct {
		name     string
		in, out  domain.Asset
		wantPath domain.SwapPath
	}{
		{"native in", eth, dai, domain.SwapPath{weth, dai.Address()}},
		{"native out", dai, eth, domain.SwapPath{dai.Address(), weth}},
		{"token to token routes through weth", dai, usdc, domain.SwapPath{dai.Address(), weth, usdc.Address()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := chaintest.New(270)
			fake.Return(pondAddr, contracts.GasPondABI, "isSponsoredPath", true)
			p := NewPolicy(contracts.NewGasPond(pondAddr, fake), weth)

			d, err := p.IsSponsored(context.Background(), tt.in, tt.out, sponsor)
			require.NoError(t, err)
			assert.True(t, d.Sponsored)
			assert.Equal(t, tt.wantPath, d.Path)
			assert.Nil(t, d.SponsorBalance)

			calls := fake.Calls("isSponsoredPath")
			require.Len(t, calls, 1)
			assert.Equal(t, []common.Address(tt.wantPath), calls[0].Args[0])
			assert.Equal(t, sponsor, calls[0].Args[1])
		})
	}
}

func TestIsSponsored_NotCached(t *testing.T) {
	fake := chaintest.New(270)
	enabled := true
	fake.Handle(pondAddr, contracts.GasPondABI, "isSponsoredPath", func([]any) ([]any, error) {
		return []any{enabled}, nil
	})
	p := NewPolicy(contracts.NewGasPond(pondAddr, fake), weth)

	d, err := p.IsSponsored(context.Background(), eth, dai, sponsor)
	require.NoError(t, err)
	assert.True(t, d.Sponsored)

	enabled = false
	d, err = p.IsSponsored(context.Background(), eth, dai, sponsor)
	require.NoError(t, err)
	assert.False(t, d.Sponsored)
	assert.Len(t, fake.Calls("isSponsoredPath"), 2)
}

func TestIsSponsored_DepositCheck(t *testing.T) {
	tests := []struct {
		name          string
		balance       *big.Int
		wantSponsored bool
	}{
		{"deposit covers fee", big.NewInt(1e18), true},
		{"deposit below fee", big.NewInt(1000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := chaintest.New(270)
			fake.Return(pondAddr, contracts.GasPondABI, "isSponsoredPath", true)
			fake.Return(pondAddr, contracts.GasPondABI, "getSponsorETHBalance", tt.balance)
			p := NewPolicy(contracts.NewGasPond(pondAddr, fake), weth, WithDepositCheck(fake, 1_000_000))

			d, err := p.IsSponsored(context.Background(), dai, eth, sponsor)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSponsored, d.Sponsored)
			assert.Equal(t, !tt.wantSponsored, d.Underfunded)
			require.NotNil(t, d.SponsorBalance)
			assert.Equal(t, tt.balance.String(), d.SponsorBalance.String())
		})
	}
}

func TestIsSponsored_DegeneratePath(t *testing.T) {
	wethToken := domain.MustToken(weth, "WETH", 18)
	tests := []struct {
		name    string
		in, out domain.Asset
	}{
		{"native to weth", eth, wethToken},
		{"same token", dai, dai},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := chaintest.New(270)
			fake.Return(pondAddr, contracts.GasPondABI, "isSponsoredPath", true)
			p := NewPolicy(contracts.NewGasPond(pondAddr, fake), weth)

			d, err := p.IsSponsored(context.Background(), tt.in, tt.out, sponsor)
			assert.ErrorIs(t, err, domain.ErrDegeneratePath)
			assert.False(t, d.Sponsored)
			assert.Empty(t, fake.Calls("isSponsoredPath"))
		})
	}
}

func TestIsGasPayableToken(t *testing.T) {
	fake := chaintest.New(270)
	fake.Return(pondAddr, contracts.GasPondABI, "isGasPayableERC20", true)
	p := NewPolicy(contracts.NewGasPond(pondAddr, fake), weth)

	ok, err := p.IsGasPayableToken(context.Background(), dai, sponsor)
	require.NoError(t, err)
	assert.True(t, ok)

	calls := fake.Calls("isGasPayableERC20")
	require.Len(t, calls, 1)
	assert.Equal(t, dai.Address(), calls[0].Args[0])
}
