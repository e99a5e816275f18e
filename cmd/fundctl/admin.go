package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfund-go/config"
	"github.com/bitfsorg/libfund-go/fund"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/store"
)

var errAuditFailed = errors.New("audit failed")

func (a *app) initCmd() *cobra.Command {
	var manager, shares string
	var lock bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fund at the address derived from the data directory's seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.resolveAccount(manager)
			if err != nil {
				return err
			}
			total, err := a.amountArg(shares)
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}
			fundKey, err := w.DeriveFundKey(a.cfg.Fund.Index)
			if err != nil {
				return err
			}
			walletKey, err := w.DeriveDividendWalletKey(a.cfg.Fund.Index)
			if err != nil {
				return err
			}

			st, err := store.OpenBoltStore(a.dbPath())
			if err != nil {
				return err
			}
			defer st.Close()
			if _, err := st.Load(); !errors.Is(err, store.ErrNotFound) {
				if err != nil {
					return err
				}
				return errAlreadyInitialized
			}

			opts, err := a.fundOptions(cmd.Context(), &session{}, walletKey.Account)
			if err != nil {
				return err
			}
			f, err := fund.New(fund.Params{
				Self:              fundKey.Account,
				Manager:           mgr,
				TotalShares:       total,
				LockManagerShares: lock,
			}, opts...)
			if err != nil {
				return err
			}
			if err := st.Save(f.Snapshot()); err != nil {
				return err
			}

			path := config.ConfigPath(a.dataDir)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := config.SaveConfig(path, a.cfg); err != nil {
					return err
				}
			}

			fmt.Fprintf(a.out, "fund:            %s\n", f.Address())
			fmt.Fprintf(a.out, "dividend wallet: %s\n", f.DividendWallet())
			fmt.Fprintf(a.out, "manager:         %s\n", f.Manager())
			fmt.Fprintf(a.out, "total shares:    %s\n", a.format(f.TotalSupply()))
			return nil
		},
	}
	cmd.Flags().StringVar(&manager, "manager", "", "manager (account or key label)")
	cmd.Flags().StringVar(&shares, "shares", "", "total share supply")
	cmd.Flags().BoolVar(&lock, "lock", false, "lock the manager's shares in its account")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("shares")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the fund's parameters and funding progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFund(cmd, func(_ context.Context, f *fund.Fund) error {
				lock := "unlocked"
				if f.ManagerIsLocked() {
					lock = "locked"
				}
				fmt.Fprintf(a.out, "fund:            %s\n", f.Address())
				fmt.Fprintf(a.out, "manager:         %s\n", f.Manager())
				fmt.Fprintf(a.out, "dividend wallet: %s\n", f.DividendWallet())
				fmt.Fprintf(a.out, "total shares:    %s\n", a.format(f.TotalSupply()))
				fmt.Fprintf(a.out, "funding:         %s (funded: %t)\n", a.format(f.InitialFundingAmount()), f.IsFunded())
				fmt.Fprintf(a.out, "manager shares:  %s (%s)\n", a.format(f.ManagerShares()), lock)
				fmt.Fprintf(a.out, "dividends:       %d\n", len(f.Dividends()))
				return nil
			})
		},
	}
}

func (a *app) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check the persisted fund's accounting invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFund(cmd, func(_ context.Context, f *fund.Fund) error {
				return a.audit(f)
			})
		},
	}
}

func (a *app) audit(f *fund.Fund) error {
	state := f.Snapshot()
	failed := false
	check := func(name string, ok bool, detail string) {
		status := "ok"
		if !ok {
			status = "FAIL"
			failed = true
		}
		fmt.Fprintf(a.out, "%-4s %s: %s\n", status, name, detail)
	}

	check("conservation", f.Conserved(),
		fmt.Sprintf("%d balances sum to supply %s", len(state.Balances), a.format(&state.TotalSupply)))

	check("dividend wallet", f.DividendWalletFund() == f.Address(),
		fmt.Sprintf("%s pays for %s", f.DividendWallet(), f.DividendWalletFund()))

	check("funding", state.FundingAmount.Cmp(&state.TotalSupply) <= 0,
		fmt.Sprintf("%s of %s", a.format(&state.FundingAmount), a.format(&state.TotalSupply)))

	ordered := true
	issued := new(uint256.Int)
	for i, evt := range state.Dividends {
		if i > 0 && evt.IssuedAt < state.Dividends[i-1].IssuedAt {
			ordered = false
		}
		issued.Add(issued, &evt.Amount)
	}
	check("dividend history", ordered, fmt.Sprintf("%d events, %s issued", len(state.Dividends), a.format(issued)))

	pending := new(uint256.Int)
	for holder := range state.Balances {
		if holder.IsReservoir() {
			continue
		}
		pending.Add(pending, f.CalcDividend(holder))
	}
	check("pending dividends", pending.Cmp(issued) <= 0,
		fmt.Sprintf("%s claimable", a.format(pending)))

	if failed {
		return errAuditFailed
	}
	return nil
}

func (a *app) managerCallCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "manager-call <file|->",
		Short: "Dispatch a swaps or prediction-markets call from a JSON envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			mc, err := market.Decode(data)
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				switch c := mc.(type) {
				case market.SwapsCall:
					err = f.SwapCall(ctx, caller, c)
				case market.PredictionMarketsCall:
					err = f.PredictionMarketCall(ctx, caller, c)
				default:
					return fmt.Errorf("%w: %s.%s is not a manager market call", market.ErrInvalidCall, mc.Pallet(), mc.Name())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "dispatched %s.%s\n", mc.Pallet(), mc.Name())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "manager (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
