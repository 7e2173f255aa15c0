package paymaster

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
	pondAddr   = common.HexToAddress("0xB1")
	routerAddr = common.HexToAddress("0x0D")
	weth       = common.HexToAddress("0xE7")
	daiAddr    = common.HexToAddress("0xA1")
	sponsor    = common.HexToAddress("0x36615Cf349d7F6344891B1e7CA7C72883F5dc049")
	hint       = common.HexToAddress("0x77")
)

func newBuilder(fake *chaintest.Chain, cfg Config) *Builder {
	return NewBuilder(cfg, fake, contracts.NewRouter(routerAddr, fake))
}

func defaultConfig() Config {
	return Config{
		Paymaster:   pondAddr,
		Routing:     weth,
		FeeGasUnits: 1_000_000,
		SafetyBps:   15_000,
	}
}

func TestMinimalAllowance(t *testing.T) {
	tests := []struct {
		fee  int64
		want int64
	}{
		{0, 0},
		{1, 2},
		{2, 3},
		{3, 5},
		{1000, 1500},
		{1001, 1502},
	}
	for _, tt := range tests {
		got := MinimalAllowance(big.NewInt(tt.fee), 15_000)
		assert.Equal(t, tt.want, got.Int64(), "fee %d", tt.fee)
	}
}

func TestBuild_None(t *testing.T) {
	p, err := newBuilder(chaintest.New(270), defaultConfig()).
		Build(context.Background(), domain.SwapPath{weth, daiAddr}, sponsor, domain.PaymasterNone)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuild_General(t *testing.T) {
	fake := chaintest.New(270)
	p, err := newBuilder(fake, defaultConfig()).
		Build(context.Background(), domain.SwapPath{weth, daiAddr}, sponsor, domain.PaymasterGeneral)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymasterGeneral, p.Mode)
	assert.Equal(t, pondAddr, p.Paymaster)
	assert.Nil(t, p.MinimalAllowance)
	assert.Len(t, p.InnerInput, 32)
	assert.Equal(t, sponsor, common.BytesToAddress(p.InnerInput))

	m := contracts.PaymasterFlowABI.Methods["general"]
	assert.Equal(t, m.ID, p.Input[:4])
	args, err := m.Inputs.Unpack(p.Input[4:])
	require.NoError(t, err)
	assert.Equal(t, p.InnerInput, args[0])

	// general flow never quotes a fee
	assert.Empty(t, fake.Calls("getAmountsIn"))
}

func TestBuild_GeneralWithRoutingHint(t *testing.T) {
	cfg := defaultConfig()
	cfg.RoutingHint = hint

	p, err := newBuilder(chaintest.New(270), cfg).
		Build(context.Background(), domain.SwapPath{weth, daiAddr}, sponsor, domain.PaymasterGeneral)
	require.NoError(t, err)

	require.Len(t, p.InnerInput, 64)
	assert.Equal(t, sponsor, common.BytesToAddress(p.InnerInput[:32]))
	assert.Equal(t, hint, common.BytesToAddress(p.InnerInput[32:]))
}

func TestBuild_ApprovalBasedTokenIn(t *testing.T) {
	fake := chaintest.New(270)
	fake.GasPriceWei = big.NewInt(250_000_000)
	// 0.00025 ETH fee costs 0.5 DAI
	daiFee := big.NewInt(500_000_000_000_000_000)
	fake.Return(routerAddr, contracts.RouterABI, "getAmountsIn",
		[]*big.Int{daiFee, big.NewInt(250_000_000_000_000)})

	path := domain.SwapPath{daiAddr, weth}
	p, err := newBuilder(fake, defaultConfig()).
		Build(context.Background(), path, sponsor, domain.PaymasterApprovalBased)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymasterApprovalBased, p.Mode)
	assert.Equal(t, daiAddr, p.Token)
	assert.Equal(t, "250000000000000", p.EthFee.String())
	assert.Equal(t, daiFee.String(), p.TokenFee.String())
	assert.Equal(t, "750000000000000000", p.MinimalAllowance.String())

	calls := fake.Calls("getAmountsIn")
	require.Len(t, calls, 1)
	assert.Equal(t, "250000000000000", calls[0].Args[0].(*big.Int).String())
	assert.Equal(t, []common.Address{daiAddr, weth}, calls[0].Args[1])

	m := contracts.PaymasterFlowABI.Methods["approvalBased"]
	assert.Equal(t, m.ID, p.Input[:4])
	args, err := m.Inputs.Unpack(p.Input[4:])
	require.NoError(t, err)
	assert.Equal(t, daiAddr, args[0])
	assert.Equal(t, p.MinimalAllowance.String(), args[1].(*big.Int).String())
	assert.Equal(t, sponsor, common.BytesToAddress(args[2].([]byte)))
}

func TestBuild_ApprovalBasedRoutingTokenNeedsNoQuote(t *testing.T) {
	fake := chaintest.New(270)
	path := domain.SwapPath{weth, daiAddr}

	p, err := newBuilder(fake, defaultConfig()).
		Build(context.Background(), path, sponsor, domain.PaymasterApprovalBased)
	require.NoError(t, err)

	assert.Equal(t, p.EthFee.String(), p.TokenFee.String())
	assert.Equal(t, "375000000000000", p.MinimalAllowance.String())
	assert.Empty(t, fake.Calls("getAmountsIn"))
}

func TestBuild_ApprovalBasedQuoteFailure(t *testing.T) {
	fake := chaintest.New(270)
	fake.Revert(routerAddr, contracts.RouterABI, "getAmountsIn")

	_, err := newBuilder(fake, defaultConfig()).
		Build(context.Background(), domain.SwapPath{daiAddr, weth}, sponsor, domain.PaymasterApprovalBased)
	assert.Error(t, err)
}

func TestBuild_UnknownMode(t *testing.T) {
	_, err := newBuilder(chaintest.New(270), defaultConfig()).
		Build(context.Background(), domain.SwapPath{weth, daiAddr}, sponsor, "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidPaymasterParams)
}
