package config

import (
	"time"

	redisclient "github.com/vietddude/modswap/internal/infra/redis"
	"github.com/vietddude/modswap/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Network   NetworkConfig      `yaml:"network"`
	Contracts ContractsConfig    `yaml:"contracts"`
	Paymaster PaymasterConfig    `yaml:"paymaster"`
	Tx        TxConfig           `yaml:"tx"`
	Account   AccountConfig      `yaml:"account"`
	Tokens    []TokenConfig      `yaml:"tokens"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
	Database  postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// NetworkConfig describes the zkSync network the pipeline talks to.
type NetworkConfig struct {
	ChainID   uint64           `yaml:"chain_id"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ContractsConfig holds deployed contract addresses as hex strings.
type ContractsConfig struct {
	WETH           string `yaml:"weth"`
	Router         string `yaml:"router"`
	GasPond        string `yaml:"gaspond"`
	SwapModule     string `yaml:"swap_module"`
	SwapModuleBase string `yaml:"swap_module_base"` // trade limits and whitelist
	Oracle         string `yaml:"oracle"`
}

// PaymasterConfig controls fee sponsorship.
type PaymasterConfig struct {
	Sponsor              string `yaml:"sponsor"`
	RoutingHint          string `yaml:"routing_hint"` // optional second address in the general inner input
	Mode                 string `yaml:"mode"`         // none, general, approval_based
	FeeGasUnits          uint64 `yaml:"fee_gas_units"`
	SafetyBps            uint64 `yaml:"safety_bps"`
	VerifySponsorDeposit bool   `yaml:"verify_sponsor_deposit"`
}

// TxConfig holds envelope constants and submission timing.
type TxConfig struct {
	GasLimit            uint64        `yaml:"gas_limit"`
	GasPerPubdata       uint64        `yaml:"gas_per_pubdata"`
	SlippageBps         uint32        `yaml:"slippage_bps"`
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`
	ReceiptTimeout      time.Duration `yaml:"receipt_timeout"`
	LockTTL             time.Duration `yaml:"lock_ttl"`
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"`
}

// AccountConfig identifies the wallet and the key that controls it.
type AccountConfig struct {
	Address  string `yaml:"address"`
	Kind     string `yaml:"kind"` // modular, eoa
	KeyHex   string `yaml:"key_hex"`
	Keystore string `yaml:"keystore"`
	Password string `yaml:"password"`
}

// TokenConfig registers a tradable ERC-20.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}
