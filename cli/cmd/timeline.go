package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"medvault/cli/api"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Resolve a patient timeline from the public ledger",
	Example: `  medvault timeline --whitelist 0xWL --patient 0xPATIENT
  medvault timeline --whitelist 0xWL --patient 0xPATIENT --enrich --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		whitelist, _ := cmd.Flags().GetString("whitelist")
		patient, _ := cmd.Flags().GetString("patient")
		enrich, _ := cmd.Flags().GetBool("enrich")
		output, _ := cmd.Flags().GetString("output")
		if whitelist == "" || patient == "" {
			fmt.Println("Error: --whitelist and --patient are required")
			os.Exit(1)
		}

		view, err := api.GetTimeline(whitelist, patient, enrich)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if output == "json" {
			b, _ := json.MarshalIndent(view, "", "  ")
			fmt.Println(string(b))
			return
		}
		if len(view.Entries) == 0 {
			fmt.Println("No entries for this patient.")
			return
		}
		for _, e := range view.Entries {
			when := "unknown"
			if e.TimestampMs > 0 {
				when = time.UnixMilli(int64(e.TimestampMs)).UTC().Format(time.RFC3339)
			}
			fmt.Printf("%s  %-16s  %-10s  %s\n", when, e.EntryTypeName, e.Status, e.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().String("whitelist", "", "Whitelist container address")
	timelineCmd.Flags().String("patient", "", "Patient wallet address")
	timelineCmd.Flags().Bool("enrich", false, "Enrich entries from their linked ledger objects")
	timelineCmd.Flags().StringP("output", "o", "plain", "Output format: plain|json")
}
