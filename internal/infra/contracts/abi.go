// Package contracts holds the ABI bindings the swap pipeline reads and encodes.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABI = `[
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const oracleABI = `[
 {"type":"function","name":"getAssetPrice","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const swapModuleBaseABI = `[
 {"type":"function","name":"checkTradeLimit","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"withinLimit","type":"bool"},{"name":"available","type":"uint256"},{"name":"resetTimestamp","type":"uint64"}]},
 {"type":"function","name":"dailyTradeLimit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"isDailyTradeLimitEnabled","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"isAssetWhitelisted","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"maxTradeAmountUSD","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const swapModuleABI = `[
 {"type":"function","name":"swapETHForToken","stateMutability":"payable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[]},
 {"type":"function","name":"swapTokenForETH","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[]},
 {"type":"function","name":"swapTokenForToken","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[]}
]`

const gasPondABI = `[
 {"type":"function","name":"isSponsoredPath","stateMutability":"view","inputs":[{"name":"path","type":"address[]"},{"name":"sponsor","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"isGasPayableERC20","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"sponsor","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"getSponsorETHBalance","stateMutability":"view","inputs":[{"name":"sponsor","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const routerABI = `[
 {"type":"function","name":"getAmountsOut","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
 {"type":"function","name":"getAmountsIn","stateMutability":"view","inputs":[{"name":"amountOut","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
 {"type":"function","name":"swapExactETHForTokens","stateMutability":"payable","inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
 {"type":"function","name":"swapExactTokensForETH","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
 {"type":"function","name":"swapExactTokensForTokens","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const accountABI = `[
 {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"executeBatch","stateMutability":"nonpayable","inputs":[{"name":"isDelegateCall","type":"bool[]"},{"name":"to","type":"address[]"},{"name":"data","type":"bytes[]"},{"name":"value","type":"uint256[]"}],"outputs":[]}
]`

// paymasterFlowABI is the IPaymasterFlow interface; its calls are never sent,
// only encoded into the envelope's paymaster input.
const paymasterFlowABI = `[
 {"type":"function","name":"general","stateMutability":"nonpayable","inputs":[{"name":"input","type":"bytes"}],"outputs":[]},
 {"type":"function","name":"approvalBased","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"minAllowance","type":"uint256"},{"name":"innerInput","type":"bytes"}],"outputs":[]}
]`

var (
	ERC20ABI          = mustParse(erc20ABI)
	OracleABI         = mustParse(oracleABI)
	SwapModuleBaseABI = mustParse(swapModuleBaseABI)
	SwapModuleABI     = mustParse(swapModuleABI)
	GasPondABI        = mustParse(gasPondABI)
	RouterABI         = mustParse(routerABI)
	AccountABI        = mustParse(accountABI)
	PaymasterFlowABI  = mustParse(paymasterFlowABI)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
