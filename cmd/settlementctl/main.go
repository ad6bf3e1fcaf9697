package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "settlementctl",
		Short:         "Служебные команды сервиса расчётов FreeLanceDAO",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(tokenCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(simulateCmd())
	return root
}
