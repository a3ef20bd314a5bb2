package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medvault/cli/api"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Read the audit trail for an address",
	Example: `  medvault log --address 0xADDR
  medvault log --address 0xADDR --page 1 --limit 20`,
	Run: func(cmd *cobra.Command, args []string) {
		address, _ := cmd.Flags().GetString("address")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		if address == "" {
			fmt.Println("Error: --address is required")
			os.Exit(1)
		}

		log, err := api.GetAddressLog(address, page, limit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(log.Events) == 0 {
			fmt.Println("No events.")
			return
		}
		for _, e := range log.Events {
			line := fmt.Sprintf("%s  %-16s  %s", e.Timestamp, e.EventType, e.Result)
			if e.Reason != "" {
				line += "  (" + e.Reason + ")"
			}
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().String("address", "", "Wallet or record address")
	logCmd.Flags().Int("page", 0, "Page number (zero-based)")
	logCmd.Flags().Int("limit", 50, "Events per page")
}
