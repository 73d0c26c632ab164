// cmd/cli/ledger.go – Global-state inspection CLI
// -----------------------------------------------------------------------------
// Consolidated under route "state". Operates directly against the local
// state WAL file (no daemon, no network: this engine has no peer
// networking layer, see SPEC_FULL.md Non-goals) via core.StateProvider.
// -----------------------------------------------------------------------------
// Examples
//   engine state account --root=<hex> --addr=<hex>
//   engine state balance --root=<hex> --purse=<hex>
// -----------------------------------------------------------------------------
// Environment
//   ENGINE_STATE_WAL – path to the state WAL file (default "state.wal")
// -----------------------------------------------------------------------------

package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	core "deployengine/core"
)

func walPath() string {
	p := viper.GetString("ENGINE_STATE_WAL")
	if p == "" {
		p = "state.wal"
	}
	return p
}

func openState() (*core.StateProvider, error) {
	return core.OpenStateProvider(walPath())
}

func parseHash(s string) (core.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return core.Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != core.HashLen {
		return core.Hash{}, fmt.Errorf("expected %d bytes, got %d", core.HashLen, len(b))
	}
	var h core.Hash
	copy(h[:], b)
	return h, nil
}

var stateCmd = &cobra.Command{
	Use:     "state",
	Short:   "Global state inspection",
	Aliases: []string{"~state"},
}

var stateAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account's named keys and main purse",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootStr, _ := cmd.Flags().GetString("root")
		addrStr, _ := cmd.Flags().GetString("addr")
		root, err := parseHash(rootStr)
		if err != nil {
			return err
		}
		addr, err := parseHash(addrStr)
		if err != nil {
			return err
		}
		sp, err := openState()
		if err != nil {
			return err
		}
		v, err := sp.Read(root, core.NewAccountKey(addr))
		if err != nil {
			return err
		}
		if v == nil || v.Account == nil {
			return fmt.Errorf("no account at %s", addrStr)
		}
		fmt.Printf("account %s\n  main_purse: %s\n  named_keys: %d\n  associated_keys: %d\n",
			addrStr, v.Account.MainPurse.String(), len(v.Account.NamedKeys), len(v.Account.AssociatedKeys))
		for name, k := range v.Account.NamedKeys {
			fmt.Printf("    %s -> %s\n", name, k.String())
		}
		return nil
	},
}

var stateBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a purse's balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootStr, _ := cmd.Flags().GetString("root")
		purseStr, _ := cmd.Flags().GetString("purse")
		root, err := parseHash(rootStr)
		if err != nil {
			return err
		}
		purseAddr, err := parseHash(purseStr)
		if err != nil {
			return err
		}
		sp, err := openState()
		if err != nil {
			return err
		}
		tc := core.NewTrackingCopy(sp, root)
		purseKey := core.NewURefKey(core.URef{Addr: purseAddr, Rights: core.AccessRead})
		bal, err := tc.GetPurseBalance(purseKey)
		if err != nil {
			return err
		}
		fmt.Printf("balance: %s motes\n", bal.Big().String())
		return nil
	},
}

func init() {
	stateAccountCmd.Flags().String("root", "", "state root (hex)")
	stateAccountCmd.Flags().String("addr", "", "account address (hex)")
	stateBalanceCmd.Flags().String("root", "", "state root (hex)")
	stateBalanceCmd.Flags().String("purse", "", "purse URef address (hex)")

	stateCmd.AddCommand(stateAccountCmd)
	stateCmd.AddCommand(stateBalanceCmd)
}

// NewStateCommand exposes the consolidated command tree.
func NewStateCommand() *cobra.Command { return stateCmd }
