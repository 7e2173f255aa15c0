package oracle

import (
	"context"
	"errors"
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
	oracleAddr = common.HexToAddress("0x0A")
	weth       = common.HexToAddress("0xE7")
	dai        = domain.MustToken(common.HexToAddress("0xA1"), "DAI", 18)
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestClient_Price(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*chaintest.Chain)
		asset     domain.Asset
		wantKnown bool
		wantErr   bool
		wantAddr  common.Address
	}{
		{
			name: "token price",
			setup: func(c *chaintest.Chain) {
				c.Return(oracleAddr, contracts.OracleABI, "getAssetPrice", e18(1))
			},
			asset:     dai,
			wantKnown: true,
			wantAddr:  dai.Address(),
		},
		{
			name: "native priced as weth",
			setup: func(c *chaintest.Chain) {
				c.Return(oracleAddr, contracts.OracleABI, "getAssetPrice", e18(2000))
			},
			asset:     domain.NativeAsset("ETH", 18),
			wantKnown: true,
			wantAddr:  weth,
		},
		{
			name: "zero price is unknown",
			setup: func(c *chaintest.Chain) {
				c.Return(oracleAddr, contracts.OracleABI, "getAssetPrice", big.NewInt(0))
			},
			asset:    dai,
			wantAddr: dai.Address(),
		},
		{
			name: "revert is unknown",
			setup: func(c *chaintest.Chain) {
				c.Revert(oracleAddr, contracts.OracleABI, "getAssetPrice")
			},
			asset:    dai,
			wantAddr: dai.Address(),
		},
		{
			name: "transport failure is an error",
			setup: func(c *chaintest.Chain) {
				c.Fail(oracleAddr, contracts.OracleABI, "getAssetPrice", errors.New("connection refused"))
			},
			asset:    dai,
			wantErr:  true,
			wantAddr: dai.Address(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := chaintest.New(270)
			tt.setup(fake)
			c := NewClient(contracts.NewOracle(oracleAddr, fake), weth)

			price, known, err := c.Price(context.Background(), tt.asset)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKnown, known)
			if !known {
				assert.Nil(t, price)
			}

			calls := fake.Calls("getAssetPrice")
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantAddr, calls[0].Args[0])
		})
	}
}

func TestUSDValue(t *testing.T) {
	// 1.5 tokens with 6 decimals at $2 = $3
	v := USDValue(big.NewInt(1_500_000), 6, e18(2))
	assert.Equal(t, e18(3), v)

	// 12 ETH at $1000 = $12,000
	v = USDValue(e18(12), 18, e18(1000))
	assert.Equal(t, e18(12000), v)
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "unknown", FormatUSD(nil))
	assert.Equal(t, "$12000.00", FormatUSD(e18(12000)))
}
