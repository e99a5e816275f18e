package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfund-go/fund"
)

func (a *app) issueDividendCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "issue-dividend <amount>",
		Short: "Forward currency to the dividend wallet and record a dividend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			amount, err := a.amountArg(args[0])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				return f.IssueDividend(ctx, caller, amount)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "manager (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) claimCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Pay out the caller's pending dividend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				paid, err := f.Claim(ctx, caller)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "claimed %s\n", a.format(paid))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "holder (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) dividendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dividend <account>",
		Short: "Show the dividend an account could claim now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, err := a.resolveAccount(args[0])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(_ context.Context, f *fund.Fund) error {
				fmt.Fprintf(a.out, "pending: %s\n", a.format(f.CalcDividend(holder)))
				fmt.Fprintf(a.out, "last claim: %d\n", f.LastDividendClaim(holder))
				return nil
			})
		},
	}
}
