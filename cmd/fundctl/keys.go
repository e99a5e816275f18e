package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfund-go/wallet"
)

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage caller keys derived from the data directory's seed",
	}
	cmd.AddCommand(a.keysNewCmd(), a.keysShowCmd())
	return cmd
}

func (a *app) keysNewCmd() *cobra.Command {
	var mnemonic string
	var words int
	cmd := &cobra.Command{
		Use:   "new <label>",
		Short: "Derive a new caller key under label, creating the seed on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.password == "" {
				return fmt.Errorf("a seed password is required (--password or $%s)", envPassword)
			}
			if err := a.ensureSeed(mnemonic, words); err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}
			keyring, err := wallet.LoadKeyring(a.dataDir)
			if err != nil {
				return err
			}
			label, kp, err := w.AddLabel(keyring, args[0])
			if err != nil {
				return err
			}
			if err := wallet.SaveKeyring(a.dataDir, keyring); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s %s\n", label.Name, kp.Account, kp.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "import this BIP39 mnemonic instead of generating one")
	cmd.Flags().IntVar(&words, "words", 12, "mnemonic length when generating a seed (12 or 24)")
	return cmd
}

// ensureSeed writes a seed to the data directory unless one already exists.
func (a *app) ensureSeed(mnemonic string, words int) error {
	if _, err := os.Stat(filepath.Join(a.dataDir, wallet.SeedFileName)); err == nil {
		if mnemonic != "" {
			return errors.New("data directory already holds a seed")
		}
		return nil
	}

	generated := mnemonic == ""
	if generated {
		bits := wallet.Mnemonic12Words
		if words == 24 {
			bits = wallet.Mnemonic24Words
		} else if words != 12 {
			return fmt.Errorf("--words must be 12 or 24, got %d", words)
		}
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(bits); err != nil {
			return err
		}
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	if err := wallet.SaveSeed(a.dataDir, seed, a.password); err != nil {
		return err
	}
	if generated {
		fmt.Fprintf(a.out, "mnemonic: %s\n", mnemonic)
	}
	return nil
}

func (a *app) keysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [label]",
		Short: "Show one or all caller keys and the fund addresses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.wallet()
			if err != nil {
				return err
			}
			keyring, err := wallet.LoadKeyring(a.dataDir)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				kp, err := w.Caller(keyring, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %s %s\n", args[0], kp.Account, kp.Path)
				return nil
			}

			for _, l := range keyring.ListLabels() {
				kp, err := w.DeriveCaller(l.Index)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %s %s\n", l.Name, kp.Account, kp.Path)
			}
			fundKey, err := w.DeriveFundKey(a.cfg.Fund.Index)
			if err != nil {
				return err
			}
			walletKey, err := w.DeriveDividendWalletKey(a.cfg.Fund.Index)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "fund %s %s\n", fundKey.Account, fundKey.Path)
			fmt.Fprintf(a.out, "dividend-wallet %s %s\n", walletKey.Account, walletKey.Path)
			return nil
		},
	}
}
