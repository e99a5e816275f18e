package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/config"
	"github.com/bitfsorg/libfund-go/events"
	"github.com/bitfsorg/libfund-go/fund"
	"github.com/bitfsorg/libfund-go/logging"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/metrics"
	"github.com/bitfsorg/libfund-go/network"
	"github.com/bitfsorg/libfund-go/payout"
	"github.com/bitfsorg/libfund-go/store"
	"github.com/bitfsorg/libfund-go/wallet"
)

const (
	dbFileName  = "fund.db"
	envPassword = "FUNDCTL_PASSWORD"
)

var (
	errNotInitialized     = errors.New("fund not initialized (run fundctl init)")
	errAlreadyInitialized = errors.New("fund already initialized")
	errInsufficientFunds  = errors.New("insufficient free balance for deposit")
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	out    io.Writer
	getenv func(string) string

	dataDir    string
	password   string
	offline    bool
	decimals   int32
	metricsOut string
	rpcFlags   network.RPCConfig

	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.FundMetrics
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, getenv: os.Getenv}

	root := &cobra.Command{
		Use:           "fundctl",
		Short:         "Operate a managed investment fund",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.dataDir, "datadir", config.DefaultDataDir(), "data directory")
	pf.StringVar(&a.password, "password", "", "seed password (default $"+envPassword+")")
	pf.BoolVar(&a.offline, "offline", false, "never contact a runtime node")
	pf.Int32Var(&a.decimals, "decimals", defaultDecimals, "decimal places of entered and displayed amounts")
	pf.StringVar(&a.metricsOut, "metrics-out", "", "write metrics to this file in text exposition format")
	pf.StringVar(&a.rpcFlags.URL, "rpc-url", "", "runtime node JSON-RPC URL")
	pf.StringVar(&a.rpcFlags.User, "rpc-user", "", "runtime node RPC user")
	pf.StringVar(&a.rpcFlags.Password, "rpc-pass", "", "runtime node RPC password")
	pf.DurationVar(&a.rpcFlags.Timeout, "rpc-timeout", 0, "runtime node RPC timeout")

	root.AddCommand(
		a.initCmd(),
		a.fundCmd(),
		a.transferCmd(),
		a.approveCmd(),
		a.transferFromCmd(),
		a.issueDividendCmd(),
		a.claimCmd(),
		a.managerCallCmd(),
		a.balanceCmd(),
		a.dividendCmd(),
		a.statusCmd(),
		a.auditCmd(),
		a.keysCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(config.ConfigPath(a.dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	cfg.DataDir = a.dataDir
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewFundMetrics(a.registry)

	if a.password == "" {
		a.password = a.getenv(envPassword)
	}
	return nil
}

func (a *app) teardown() error {
	defer func() { _ = a.logger.Sync() }()
	if a.metricsOut == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsOut, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) dbPath() string {
	return filepath.Join(a.dataDir, dbFileName)
}

// session is a fund restored from the data directory for one command.
// runtime is nil when the fund runs offline.
type session struct {
	fund    *fund.Fund
	store   *store.BoltStore
	events  *events.Log
	runtime network.RuntimeService
	payout  *payout.Wallet
}

func (s *session) close() error {
	return s.store.Close()
}

// open restores the persisted fund. Every committed call is written back to
// the same store.
func (a *app) open(ctx context.Context) (*session, error) {
	if _, err := os.Stat(a.dbPath()); errors.Is(err, os.ErrNotExist) {
		return nil, errNotInitialized
	}
	st, err := store.OpenBoltStore(a.dbPath())
	if err != nil {
		return nil, err
	}
	state, err := st.Load()
	if err != nil {
		_ = st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotInitialized
		}
		return nil, err
	}

	s := &session{store: st, events: events.NewLog()}
	opts, err := a.fundOptions(ctx, s, state.DividendWallet)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	opts = append(opts, fund.WithEmitter(s.events), fund.WithStore(st))

	s.fund, err = fund.Restore(state, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.metrics.SetFundingAmount(s.fund.InitialFundingAmount())
	return s, nil
}

// fundOptions wires the runtime, a payout wallet at dividendWallet, and
// the ambient logger and metrics. The runtime and wallet are recorded on s.
func (a *app) fundOptions(ctx context.Context, s *session, dividendWallet account.Account) ([]fund.Option, error) {
	dispatcher, rt, err := a.runtime()
	if err != nil {
		return nil, err
	}
	s.runtime = rt

	opts := []fund.Option{
		fund.WithDispatcher(dispatcher),
		fund.WithLogger(a.logger),
		fund.WithMetrics(a.metrics),
		fund.WithNewGateway(func(fundAddr account.Account) fund.PayoutGateway {
			s.payout = payout.New(dividendWallet, fundAddr, dispatcher,
				payout.WithLogger(a.logger),
				payout.WithMetrics(a.metrics),
			)
			return s.payout
		}),
	}

	if rt != nil {
		now, err := rt.Timestamp(ctx)
		if err != nil {
			return nil, fmt.Errorf("runtime timestamp: %w", err)
		}
		opts = append(opts, fund.WithClock(func() uint64 { return now }))
	}
	return opts, nil
}

// withFund runs fn against the restored fund and prints the events it
// committed.
func (a *app) withFund(cmd *cobra.Command, fn func(ctx context.Context, f *fund.Fund) error) error {
	return a.withSession(cmd, func(ctx context.Context, s *session) error {
		return fn(ctx, s.fund)
	})
}

func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := fn(ctx, s); err != nil {
		return err
	}
	a.printEvents(s.events.Events())
	if s.payout != nil {
		if total, n := s.payout.Distributed(); n > 0 {
			fmt.Fprintf(a.out, "dividend wallet paid %s in %d payouts\n", a.format(total), n)
		}
	}
	return nil
}

// collect moves the consideration for a deposit from who to the fund.
// Offline there is no currency ledger to draw on.
func (s *session) collect(ctx context.Context, who account.Account, amount *uint256.Int) error {
	if s.runtime == nil {
		return nil
	}
	free, err := s.runtime.FreeBalance(ctx, who, market.Ztg())
	if err != nil {
		return fmt.Errorf("free balance: %w", err)
	}
	if free.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s", errInsufficientFunds, who.Short(), free.Dec())
	}
	return s.runtime.Dispatch(ctx, who, market.AssetTransfer{Dest: s.fund.Address(), Currency: market.Ztg(), Amount: amount})
}

// refund returns collected consideration after the deposit was rejected.
func (s *session) refund(ctx context.Context, who account.Account, amount *uint256.Int, logger *zap.Logger) {
	if s.runtime == nil {
		return
	}
	transfer := market.AssetTransfer{Dest: who, Currency: market.Ztg(), Amount: amount}
	if err := s.runtime.Dispatch(ctx, s.fund.Address(), transfer); err != nil {
		logger.Error("deposit refund failed",
			zap.String("dest", who.String()),
			zap.String("amount", amount.Dec()),
			zap.Error(err),
		)
	}
}

// resolveAccount accepts a hex account or a keyring label.
func (a *app) resolveAccount(s string) (account.Account, error) {
	if acct, err := account.Parse(s); err == nil {
		return acct, nil
	}
	w, err := a.wallet()
	if err != nil {
		return account.Account{}, fmt.Errorf("resolve %q: %w", s, err)
	}
	keyring, err := wallet.LoadKeyring(a.dataDir)
	if err != nil {
		return account.Account{}, err
	}
	kp, err := w.Caller(keyring, s)
	if err != nil {
		return account.Account{}, err
	}
	return kp.Account, nil
}

// wallet decrypts the seed in the data directory.
func (a *app) wallet() (*wallet.Wallet, error) {
	seed, err := wallet.LoadSeed(a.dataDir, a.password)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("no seed in data directory (run fundctl keys new)")
	}
	if err != nil {
		return nil, err
	}
	return wallet.NewWallet(seed, a.cfg.Network)
}

func (a *app) amountArg(s string) (*uint256.Int, error) {
	return parseAmount(s, a.decimals)
}

func (a *app) format(v *uint256.Int) string {
	return formatAmount(v, a.decimals)
}

func (a *app) printEvents(evts []events.Event) {
	for _, evt := range evts {
		switch e := evt.(type) {
		case events.Transfer:
			fmt.Fprintf(a.out, "%s from=%s to=%s value=%s\n",
				e.EventType(), optionalAccount(e.From), optionalAccount(e.To), a.format(&e.Value))
		case events.Approval:
			fmt.Fprintf(a.out, "%s owner=%s spender=%s value=%s\n",
				e.EventType(), e.Owner, e.Spender, a.format(&e.Value))
		case events.DividendIssued:
			fmt.Fprintf(a.out, "%s amount=%s timestamp=%d\n",
				e.EventType(), a.format(&e.Amount), e.Timestamp)
		case events.DividendClaimed:
			fmt.Fprintf(a.out, "%s user=%s amount=%s timestamp=%d\n",
				e.EventType(), e.User, a.format(&e.Amount), e.Timestamp)
		}
	}
}

func optionalAccount(a *account.Account) string {
	if a == nil {
		return "-"
	}
	return a.String()
}
