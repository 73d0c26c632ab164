// cmd/cli/contract_management.go – Deploy submission & genesis CLI
// -----------------------------------------------------------------------------
// Consolidated under routes "deploy" and "genesis". Loads payment/session
// wasm modules from disk, builds a Deploy, and runs it against the local
// state WAL via core.Engine — no network, no daemon.
// -----------------------------------------------------------------------------

package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	core "deployengine/core"
)

func init() {
	_ = godotenv.Load()
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy submission",
}

var deployRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a deploy against the local state",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootStr, _ := cmd.Flags().GetString("root")
		addrStr, _ := cmd.Flags().GetString("addr")
		paymentPath, _ := cmd.Flags().GetString("payment")
		sessionPath, _ := cmd.Flags().GetString("session")

		root, err := parseHash(rootStr)
		if err != nil {
			return err
		}
		addr, err := parseHash(addrStr)
		if err != nil {
			return err
		}
		paymentCode, err := os.ReadFile(paymentPath)
		if err != nil {
			return fmt.Errorf("read payment module: %w", err)
		}
		sessionCode, err := os.ReadFile(sessionPath)
		if err != nil {
			return fmt.Errorf("read session module: %w", err)
		}

		sp, err := openState()
		if err != nil {
			return err
		}
		eng := core.NewEngine(sp, core.EngineConfig{UsePaymentCode: viper.GetBool("use_payment_code")})

		deployHash := core.Blake2bHash(append(append([]byte{}, paymentCode...), sessionCode...))
		d := core.Deploy{
			Hash:    deployHash,
			Address: addr,
			Signers: map[core.Hash]struct{}{addr: {}},
			Payment: core.DeployItem{Tag: core.DeployItemModuleBytes, ModuleCode: paymentCode},
			Session: core.DeployItem{Tag: core.DeployItemModuleBytes, ModuleCode: sessionCode},
		}

		res, err := eng.RunDeploy(root, d)
		if err != nil {
			return err
		}
		fmt.Printf("new_root: %s\ncost: %d\n", res.NewRoot.String(), res.Cost)
		if res.Error != nil {
			fmt.Printf("error: %v\n", res.Error)
		}
		return nil
	},
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Genesis installation",
}

var genesisInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install genesis against an empty state",
	RunE: func(cmd *cobra.Command, args []string) error {
		mintPath, _ := cmd.Flags().GetString("mint")
		posPath, _ := cmd.Flags().GetString("pos")

		mintBytes, err := os.ReadFile(mintPath)
		if err != nil && mintPath != "" {
			return fmt.Errorf("read mint module: %w", err)
		}
		posBytes, err := os.ReadFile(posPath)
		if err != nil && posPath != "" {
			return fmt.Errorf("read pos module: %w", err)
		}

		sp, err := openState()
		if err != nil {
			return err
		}
		installer := core.NewGenesisInstaller(sp)
		root, err := installer.InstallChainspec(core.GenesisConfig{
			ProtocolName: "local",
			Timestamp:    core.Now(),
			MintBytes:    mintBytes,
			PosBytes:     posBytes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("genesis_root: %s\n", root.String())
		return nil
	},
}

func init() {
	deployRunCmd.Flags().String("root", "", "prestate root (hex)")
	deployRunCmd.Flags().String("addr", "", "deploying account address (hex)")
	deployRunCmd.Flags().String("payment", "", "path to payment wasm module")
	deployRunCmd.Flags().String("session", "", "path to session wasm module")

	genesisInstallCmd.Flags().String("mint", "", "path to mint installer module (optional, native fallback used)")
	genesisInstallCmd.Flags().String("pos", "", "path to pos installer module (optional, native fallback used)")

	deployCmd.AddCommand(deployRunCmd)
	genesisCmd.AddCommand(genesisInstallCmd)
}

// NewDeployCommand exposes the deploy command tree.
func NewDeployCommand() *cobra.Command { return deployCmd }

// NewGenesisCommand exposes the genesis command tree.
func NewGenesisCommand() *cobra.Command { return genesisCmd }
