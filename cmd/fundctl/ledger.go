package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfund-go/fund"
)

func (a *app) fundCmd() *cobra.Command {
	var from, value string
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Deposit consideration and receive newly minted shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			amount, err := a.amountArg(value)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.collect(ctx, caller, amount); err != nil {
					return err
				}
				f := s.fund
				if err := f.Fund(ctx, caller, amount); err != nil {
					s.refund(ctx, caller, amount, a.logger)
					return err
				}
				fmt.Fprintf(a.out, "funded %s of %s\n",
					a.format(f.InitialFundingAmount()), a.format(f.TotalSupply()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "depositor (account or key label)")
	cmd.Flags().StringVar(&value, "value", "", "consideration attached to the call")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (a *app) transferCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Move shares from the caller to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			to, err := a.resolveAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := a.amountArg(args[1])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				return f.Transfer(ctx, caller, to, amount)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "caller (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) approveCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "Set the amount a spender may move on the caller's behalf",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(from)
			if err != nil {
				return err
			}
			spender, err := a.resolveAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := a.amountArg(args[1])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				return f.Approve(ctx, caller, spender, amount)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "owner (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) transferFromCmd() *cobra.Command {
	var spender string
	cmd := &cobra.Command{
		Use:   "transfer-from <owner> <to> <amount>",
		Short: "Move an owner's shares using the caller's allowance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.resolveAccount(spender)
			if err != nil {
				return err
			}
			owner, err := a.resolveAccount(args[0])
			if err != nil {
				return err
			}
			to, err := a.resolveAccount(args[1])
			if err != nil {
				return err
			}
			amount, err := a.amountArg(args[2])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(ctx context.Context, f *fund.Fund) error {
				return f.TransferFrom(ctx, caller, owner, to, amount)
			})
		},
	}
	cmd.Flags().StringVar(&spender, "from", "", "spender (account or key label)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) balanceCmd() *cobra.Command {
	var spender string
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's shares and, with --spender, its allowance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.resolveAccount(args[0])
			if err != nil {
				return err
			}
			return a.withFund(cmd, func(_ context.Context, f *fund.Fund) error {
				fmt.Fprintf(a.out, "balance: %s\n", a.format(f.BalanceOf(owner)))
				if spender == "" {
					return nil
				}
				sp, err := a.resolveAccount(spender)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "allowance: %s\n", a.format(f.Allowance(owner, sp)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&spender, "spender", "", "also show the allowance granted to this spender")
	return cmd
}
