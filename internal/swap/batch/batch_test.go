package batch

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

var (
	module  = common.HexToAddress("0x5A")
	daiAddr = common.HexToAddress("0xA1")
	router  = common.HexToAddress("0x0D")
)

func approveThenSwap(t *testing.T) []domain.BatchedCall {
	t.Helper()
	approve, err := contracts.PackApprove(router, math.MaxBig256)
	require.NoError(t, err)
	swap, err := contracts.SwapModuleABI.Pack("swapTokenForETH", big.NewInt(1e18), []common.Address{daiAddr})
	require.NoError(t, err)

	return []domain.BatchedCall{
		{IsDelegateCall: false, Target: daiAddr, Data: approve, Value: big.NewInt(0)},
		{IsDelegateCall: true, Target: module, Data: swap, Value: big.NewInt(7)},
	}
}

func TestSelector(t *testing.T) {
	want := crypto.Keccak256([]byte("executeBatch(bool[],address[],bytes[],uint256[])"))[:4]
	assert.Equal(t, want, Selector())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	calls := approveThenSwap(t)

	data, err := Encode(calls)
	require.NoError(t, err)
	assert.Equal(t, Selector(), data[:4])

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(calls))
	for i := range calls {
		assert.Equal(t, calls[i].IsDelegateCall, decoded[i].IsDelegateCall, "entry %d", i)
		assert.Equal(t, calls[i].Target, decoded[i].Target, "entry %d", i)
		assert.Equal(t, calls[i].Data, decoded[i].Data, "entry %d", i)
		assert.Equal(t, calls[i].Value.String(), decoded[i].Value.String(), "entry %d", i)
	}
}

func TestEncode_PreservesOrder(t *testing.T) {
	calls := approveThenSwap(t)
	reversed := []domain.BatchedCall{calls[1], calls[0]}

	a, err := Encode(calls)
	require.NoError(t, err)
	b, err := Encode(reversed)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, decoded[0].IsDelegateCall)
	assert.False(t, decoded[1].IsDelegateCall)
}

func TestEncode_Empty(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestDecode_RejectsOtherCalldata(t *testing.T) {
	approve, err := contracts.PackApprove(router, big.NewInt(1))
	require.NoError(t, err)

	_, err = Decode(approve)
	assert.ErrorIs(t, err, ErrNotBatch)

	_, err = Decode([]byte{0x01})
	assert.ErrorIs(t, err, ErrNotBatch)
}

func TestValidateModuleTargets(t *testing.T) {
	calls := approveThenSwap(t)
	require.NoError(t, ValidateModuleTargets(calls, module))

	err := ValidateModuleTargets(calls, common.HexToAddress("0x5B"))
	assert.ErrorIs(t, err, ErrDelegateTarget)
}
