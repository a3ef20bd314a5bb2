package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medvault/cli/api"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Access protected record content",
}

var recordPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Open an access session and print the challenge to sign",
	Example: `  medvault record prepare --record 0xREC --requester 0xADDR
  medvault record prepare --record 0xREC --requester 0xADDR --file 1`,
	Run: func(cmd *cobra.Command, args []string) {
		recordID, _ := cmd.Flags().GetString("record")
		requester, _ := cmd.Flags().GetString("requester")
		fileIndex, _ := cmd.Flags().GetInt("file")
		if recordID == "" || requester == "" {
			fmt.Println("Error: --record and --requester are required")
			os.Exit(1)
		}

		prep, err := api.PrepareAccess(recordID, requester, fileIndex)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session: %s\n", prep.SessionID)
		fmt.Printf("Sign this message with your wallet:\n%s\n", prep.ChallengeMessage)
	},
}

var recordCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Submit the wallet signature and save the record content",
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")
		signature, _ := cmd.Flags().GetString("signature")
		outPath, _ := cmd.Flags().GetString("out")
		if sessionID == "" || signature == "" {
			fmt.Println("Error: --session and --signature are required")
			os.Exit(1)
		}

		done, err := api.CompleteAccess(sessionID, signature)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		content, err := base64.StdEncoding.DecodeString(done.Content)
		if err != nil {
			fmt.Printf("Error: invalid content encoding: %v\n", err)
			os.Exit(1)
		}
		if outPath == "" {
			os.Stdout.Write(content)
			return
		}
		if err := os.WriteFile(outPath, content, 0600); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %d bytes to %s\n", len(content), outPath)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(recordPrepareCmd)
	recordCmd.AddCommand(recordCompleteCmd)

	recordPrepareCmd.Flags().String("record", "", "Record object id")
	recordPrepareCmd.Flags().String("requester", "", "Requester wallet address")
	recordPrepareCmd.Flags().Int("file", 0, "File index within the record")

	recordCompleteCmd.Flags().String("session", "", "Session id from prepare")
	recordCompleteCmd.Flags().String("signature", "", "Wallet signature over the challenge")
	recordCompleteCmd.Flags().String("out", "", "Write content to this file instead of stdout")
}
