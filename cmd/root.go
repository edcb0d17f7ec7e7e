package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/keelchain/keel/logx"
)

var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Keel blockchain node CLI",
	Long:  "Command line interface for bootstrapping and running a keel blockchain node.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed: ", err)
		os.Exit(1)
	}
}
