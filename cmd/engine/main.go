package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"deployengine/cmd/cli"
)

func main() {
	_ = godotenv.Load()
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{Use: "engine", Short: "deterministic deploy execution engine"}
	rootCmd.PersistentFlags().String("log-level", "info", "logrus log level")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(cmd.Flag("log-level").Value.String())
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
		return nil
	}

	rootCmd.AddCommand(cli.NewStateCommand())
	rootCmd.AddCommand(cli.NewDeployCommand())
	rootCmd.AddCommand(cli.NewGenesisCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
