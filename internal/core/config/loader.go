package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Defaults mirror the constants the wallet frontend uses against zkSync.
const (
	DefaultGasLimit      = 1_500_000
	DefaultFeeGasUnits   = 1_000_000
	DefaultSafetyBps     = 15_000
	DefaultSlippageBps   = 50
	DefaultNativeSymbol  = "ETH"
	DefaultProviderName  = "primary"
	defaultProviderTO    = 30 * time.Second
	defaultPollInterval  = 2 * time.Second
	defaultReceiptTO     = 3 * time.Minute
	defaultLockTTL       = 5 * time.Minute
	defaultReconcile     = 30 * time.Second
	defaultServerPort    = 8080
	defaultLoggingLevel  = "info"
	defaultTokenDecimals = 18
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML after expanding environment variables and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLoggingLevel
	}

	for i := range c.Network.Providers {
		if c.Network.Providers[i].Name == "" {
			c.Network.Providers[i].Name = fmt.Sprintf("%s-%d", DefaultProviderName, i)
		}
		if c.Network.Providers[i].Timeout == 0 {
			c.Network.Providers[i].Timeout = defaultProviderTO
		}
	}

	if c.Paymaster.Mode == "" {
		c.Paymaster.Mode = string(domain.PaymasterNone)
	}
	if c.Paymaster.FeeGasUnits == 0 {
		c.Paymaster.FeeGasUnits = DefaultFeeGasUnits
	}
	if c.Paymaster.SafetyBps == 0 {
		c.Paymaster.SafetyBps = DefaultSafetyBps
	}

	if c.Tx.GasLimit == 0 {
		c.Tx.GasLimit = DefaultGasLimit
	}
	if c.Tx.GasPerPubdata == 0 {
		c.Tx.GasPerPubdata = domain.DefaultGasPerPubdata
	}
	if c.Tx.SlippageBps == 0 {
		c.Tx.SlippageBps = DefaultSlippageBps
	}
	if c.Tx.ReceiptPollInterval == 0 {
		c.Tx.ReceiptPollInterval = defaultPollInterval
	}
	if c.Tx.ReceiptTimeout == 0 {
		c.Tx.ReceiptTimeout = defaultReceiptTO
	}
	if c.Tx.LockTTL == 0 {
		c.Tx.LockTTL = defaultLockTTL
	}
	if c.Tx.ReconcileInterval == 0 {
		c.Tx.ReconcileInterval = defaultReconcile
	}

	if c.Account.Kind == "" {
		c.Account.Kind = string(domain.AccountModular)
	}

	for i := range c.Tokens {
		if c.Tokens[i].Decimals == 0 {
			c.Tokens[i].Decimals = defaultTokenDecimals
		}
	}
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate returns the first problem that would stop the pipeline from running.
func (c *AppConfig) Validate() error {
	if c.Network.ChainID == 0 {
		return fmt.Errorf("%w: network.chain_id is required", ErrInvalidConfig)
	}
	if len(c.Network.Providers) == 0 {
		return fmt.Errorf("%w: at least one network.providers entry is required", ErrInvalidConfig)
	}
	for _, p := range c.Network.Providers {
		if p.URL == "" {
			return fmt.Errorf("%w: provider %s has no url", ErrInvalidConfig, p.Name)
		}
	}

	required := []struct {
		field, value string
	}{
		{"contracts.weth", c.Contracts.WETH},
		{"contracts.router", c.Contracts.Router},
		{"contracts.gaspond", c.Contracts.GasPond},
		{"contracts.swap_module", c.Contracts.SwapModule},
		{"contracts.swap_module_base", c.Contracts.SwapModuleBase},
		{"contracts.oracle", c.Contracts.Oracle},
		{"account.address", c.Account.Address},
	}
	for _, r := range required {
		if !common.IsHexAddress(r.value) {
			return fmt.Errorf("%w: %s must be a hex address, got %q", ErrInvalidConfig, r.field, r.value)
		}
	}

	mode, err := domain.ParsePaymasterMode(c.Paymaster.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if mode != domain.PaymasterNone && !common.IsHexAddress(c.Paymaster.Sponsor) {
		return fmt.Errorf("%w: paymaster.sponsor is required for mode %s", ErrInvalidConfig, mode)
	}
	if c.Paymaster.RoutingHint != "" && !common.IsHexAddress(c.Paymaster.RoutingHint) {
		return fmt.Errorf("%w: paymaster.routing_hint must be a hex address", ErrInvalidConfig)
	}
	if c.Paymaster.SafetyBps < 10_000 {
		return fmt.Errorf("%w: paymaster.safety_bps must be at least 10000", ErrInvalidConfig)
	}
	if c.Tx.SlippageBps >= 10_000 {
		return fmt.Errorf("%w: tx.slippage_bps must be below 10000", ErrInvalidConfig)
	}

	switch domain.AccountKind(c.Account.Kind) {
	case domain.AccountModular, domain.AccountEOA:
	default:
		return fmt.Errorf("%w: account.kind %q", ErrInvalidConfig, c.Account.Kind)
	}

	for _, t := range c.Tokens {
		if t.Symbol == "" || !common.IsHexAddress(t.Address) {
			return fmt.Errorf("%w: token %q needs a symbol and hex address", ErrInvalidConfig, t.Symbol)
		}
	}
	return nil
}

// Assets returns the native asset followed by every configured token, keyed by symbol.
func (c *AppConfig) Assets() (map[string]domain.Asset, error) {
	assets := map[string]domain.Asset{
		DefaultNativeSymbol: domain.NativeAsset(DefaultNativeSymbol, 18),
	}
	for _, t := range c.Tokens {
		a, err := domain.TokenAsset(common.HexToAddress(t.Address), t.Symbol, t.Decimals)
		if err != nil {
			return nil, err
		}
		assets[t.Symbol] = a
	}
	if _, ok := assets["WETH"]; !ok {
		assets["WETH"] = domain.MustToken(common.HexToAddress(c.Contracts.WETH), "WETH", 18)
	}
	return assets, nil
}
