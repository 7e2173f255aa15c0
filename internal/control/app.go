// Package control wires configuration into a running swap pipeline.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/modswap/internal/core/config"
	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/core/worker"
	"github.com/vietddude/modswap/internal/health"
	"github.com/vietddude/modswap/internal/infra/chain/evm"
	"github.com/vietddude/modswap/internal/infra/contracts"
	redisclient "github.com/vietddude/modswap/internal/infra/redis"
	"github.com/vietddude/modswap/internal/infra/rpc"
	"github.com/vietddude/modswap/internal/infra/signer"
	"github.com/vietddude/modswap/internal/infra/storage"
	"github.com/vietddude/modswap/internal/infra/storage/memory"
	"github.com/vietddude/modswap/internal/infra/storage/postgres"
	"github.com/vietddude/modswap/internal/swap/allowance"
	"github.com/vietddude/modswap/internal/swap/assembler"
	"github.com/vietddude/modswap/internal/swap/limit"
	"github.com/vietddude/modswap/internal/swap/metrics"
	"github.com/vietddude/modswap/internal/swap/oracle"
	"github.com/vietddude/modswap/internal/swap/orchestrator"
	"github.com/vietddude/modswap/internal/swap/paymaster"
	"github.com/vietddude/modswap/internal/swap/sponsor"
)

var (
	// ErrUnknownAsset is returned for a symbol that is neither native nor configured.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrAmountPrecision is returned when an amount has more decimals than its asset.
	ErrAmountPrecision = errors.New("amount has more decimals than the asset")
)

// App owns every long-lived component of the swap pipeline.
type App struct {
	cfg          *config.AppConfig
	orch         *orchestrator.Orchestrator
	node         *evm.Node
	rpcClient    *rpc.Client
	signer       *signer.KeySigner
	assets       map[string]domain.Asset
	submissions  storage.SubmissionRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp builds the pipeline described by cfg. Postgres and Redis are used
// when configured; otherwise submissions and locks stay in memory.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts ...orchestrator.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := slog.Default().With("component", "app")

	assets, err := cfg.Assets()
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	a := &App{cfg: cfg, assets: assets, log: log}

	// 1. Storage
	store := memory.NewMemoryStorage()
	var locker storage.Locker = memory.NewLocker(store)
	a.submissions = memory.NewSubmissionRepo(store)

	if cfg.Database.URL != "" {
		a.db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			_ = a.db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		a.submissions = postgres.NewSubmissionRepo(a.db)
		log.Info("Using PostgreSQL submission journal")
	} else {
		log.Info("Using memory submission journal")
	}

	if cfg.Redis.URL != "" {
		a.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.closeStores()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		locker = a.redisClient
		log.Info("Using Redis account locks")
	}

	// 2. Node
	router := rpc.NewRouter()
	for _, p := range cfg.Network.Providers {
		router.AddProvider(rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout))
	}
	a.rpcClient = rpc.NewClient(router)
	a.node = evm.NewNode(a.rpcClient)

	// 3. Signer. Without one the app can still quote.
	a.signer, err = signer.Load(cfg.Account.KeyHex, cfg.Account.Keystore, cfg.Account.Password)
	switch {
	case errors.Is(err, signer.ErrNoKey):
		log.Warn("No signing key configured, swaps are disabled")
	case err != nil:
		a.closeStores()
		return nil, err
	}

	// 4. Policies
	weth := common.HexToAddress(cfg.Contracts.WETH)
	routerAddr := common.HexToAddress(cfg.Contracts.Router)
	pond := contracts.NewGasPond(common.HexToAddress(cfg.Contracts.GasPond), a.node)
	prices := oracle.NewClient(contracts.NewOracle(common.HexToAddress(cfg.Contracts.Oracle), a.node), weth)

	var sponsorOpts []sponsor.Option
	if cfg.Paymaster.VerifySponsorDeposit {
		sponsorOpts = append(sponsorOpts, sponsor.WithDepositCheck(a.node, cfg.Paymaster.FeeGasUnits))
	}

	deps := orchestrator.Deps{
		Node:       a.node,
		Limits:     limit.NewPolicy(contracts.NewSwapModuleBase(common.HexToAddress(cfg.Contracts.SwapModuleBase), a.node), prices, weth),
		Sponsors:   sponsor.NewPolicy(pond, weth, sponsorOpts...),
		Allowances: allowance.NewGate(a.node),
		Paymaster: paymaster.NewBuilder(paymaster.Config{
			Paymaster:   common.HexToAddress(cfg.Contracts.GasPond),
			Routing:     weth,
			RoutingHint: hexOrZero(cfg.Paymaster.RoutingHint),
			FeeGasUnits: cfg.Paymaster.FeeGasUnits,
			SafetyBps:   cfg.Paymaster.SafetyBps,
		}, a.node, contracts.NewRouter(routerAddr, a.node)),
		Assembler: assembler.New(a.node, assembler.Config{
			GasLimit:      cfg.Tx.GasLimit,
			GasPerPubdata: cfg.Tx.GasPerPubdata,
		}),
		Submissions: a.submissions,
		Locker:      locker,
	}
	if a.signer != nil {
		deps.Signer = a.signer
	}

	// 5. Orchestrator
	a.orch = orchestrator.New(orchestrator.Config{
		ChainID:             cfg.Network.ChainID,
		Routing:             weth,
		Router:              routerAddr,
		SwapModule:          common.HexToAddress(cfg.Contracts.SwapModule),
		Sponsor:             hexOrZero(cfg.Paymaster.Sponsor),
		DefaultSlippageBps:  cfg.Tx.SlippageBps,
		ReceiptPollInterval: cfg.Tx.ReceiptPollInterval,
		ReceiptTimeout:      cfg.Tx.ReceiptTimeout,
		LockTTL:             cfg.Tx.LockTTL,
	}, deps, opts...)

	// 6. Health
	a.healthMon = health.NewMonitor(health.Config{
		ChainID:    cfg.Network.ChainID,
		StaleAfter: cfg.Tx.ReceiptTimeout,
	}, a.node, a.submissions)
	if a.db != nil {
		a.healthMon.Register("postgres", a.db.Health)
	}
	if a.redisClient != nil {
		a.healthMon.Register("redis", a.redisClient.Ping)
	}
	a.healthServer = health.NewServer(a.healthMon, cfg.Server.Port)

	return a, nil
}

// Orchestrator returns the swap orchestrator.
func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Submissions returns the submission journal.
func (a *App) Submissions() storage.SubmissionRepository { return a.submissions }

// Health returns the health monitor.
func (a *App) Health() *health.Monitor { return a.healthMon }

// Account returns the configured account address.
func (a *App) Account() common.Address { return common.HexToAddress(a.cfg.Account.Address) }

// CanSign reports whether a signing key is loaded.
func (a *App) CanSign() bool { return a.signer != nil }

// Asset resolves a configured symbol, case-insensitively.
func (a *App) Asset(symbol string) (domain.Asset, error) {
	if asset, ok := a.assets[symbol]; ok {
		return asset, nil
	}
	for s, asset := range a.assets {
		if strings.EqualFold(s, symbol) {
			return asset, nil
		}
	}
	return domain.Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
}

// RequestParams are the user-facing inputs of a swap.
type RequestParams struct {
	From          string
	To            string
	Amount        string
	PaymasterMode string
	SlippageBps   uint32
	Recipient     string
}

// NewRequest resolves symbols and parses a human amount into a SwapRequest
// for the configured account.
func (a *App) NewRequest(p RequestParams) (domain.SwapRequest, error) {
	in, err := a.Asset(p.From)
	if err != nil {
		return domain.SwapRequest{}, err
	}
	out, err := a.Asset(p.To)
	if err != nil {
		return domain.SwapRequest{}, err
	}
	raw, err := ParseAmount(p.Amount, in.Decimals)
	if err != nil {
		return domain.SwapRequest{}, err
	}

	modeStr := p.PaymasterMode
	if modeStr == "" {
		modeStr = a.cfg.Paymaster.Mode
	}
	mode, err := domain.ParsePaymasterMode(modeStr)
	if err != nil {
		return domain.SwapRequest{}, err
	}

	req := domain.SwapRequest{
		Account:       a.Account(),
		AccountKind:   domain.AccountKind(a.cfg.Account.Kind),
		Input:         in,
		Output:        out,
		AmountRaw:     raw,
		PaymasterMode: mode,
		SlippageBps:   p.SlippageBps,
	}
	if p.Recipient != "" {
		if !common.IsHexAddress(p.Recipient) {
			return domain.SwapRequest{}, fmt.Errorf("%w: recipient %q", domain.ErrInvalidRequest, p.Recipient)
		}
		req.Recipient = common.HexToAddress(p.Recipient)
	}
	return req, nil
}

// Preview quotes req without sending anything.
func (a *App) Preview(ctx context.Context, req domain.SwapRequest) (*orchestrator.Preview, error) {
	return a.orch.Preview(ctx, req)
}

// Reconcile settles pending submissions once.
func (a *App) Reconcile(ctx context.Context) ([]*domain.Submission, error) {
	return a.orch.Reconcile(ctx)
}

// Execute runs req to a receipt.
func (a *App) Execute(ctx context.Context, req domain.SwapRequest) (*orchestrator.Outcome, error) {
	if a.signer == nil {
		return nil, domain.NewError(domain.KindAssemblyFailure, "signer", signer.ErrNoKey)
	}
	return a.orch.Execute(ctx, req)
}

// ParseAmount converts a decimal string into raw units of an asset with
// the given decimals.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrInvalidRequest, s)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s with %d decimals", ErrAmountPrecision, s, decimals)
	}
	if shifted.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidRequest)
	}
	return shifted.BigInt(), nil
}

// Start runs the health server and background metric updaters. It does not block.
func (a *App) Start(ctx context.Context) error {
	go func() {
		a.log.Info("Starting health server", "port", a.cfg.Server.Port)
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}
	go worker.NewReconciler(a.orch, a.cfg.Tx.ReconcileInterval).Start(ctx)
	go a.runMetricsUpdater(ctx)
	return nil
}

// Stop shuts the health server down and closes storage.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping modswap...")
	err := a.healthServer.Stop(ctx)
	a.closeStores()
	return err
}

// Close releases storage without touching the health server. Used by
// one-shot commands that never call Start.
func (a *App) Close() {
	a.closeStores()
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

func (a *App) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.updateProviderMetrics()
		}
	}
}

func (a *App) updateProviderMetrics() {
	for name, h := range a.rpcClient.ProviderHealth() {
		available := 0.0
		if h.Available {
			available = 1
		}
		metrics.RPCProviderAvailable.WithLabelValues(name).Set(available)
		metrics.RPCProviderErrorRate.WithLabelValues(name).Set(h.ErrorRate)
	}
	slog.Debug("Updated RPC provider metrics")
}

func hexOrZero(s string) common.Address {
	if !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
