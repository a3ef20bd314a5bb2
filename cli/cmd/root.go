package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medvault",
	Short: "MedVault gateway CLI",
	Long:  "A command-line tool for resolving patient timelines and accessing protected records through a MedVault gateway.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
