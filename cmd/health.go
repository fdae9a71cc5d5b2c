package cmd

import (
	"encoding/json"
	"os"

	"mrgnwatch/core"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health <account>",
	Short: "evaluate the maintenance health of a marginfi account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return err
		}

		healthz := provideHealthService(provideAccountFetcher(provideRPCClient()), provideMetrics())
		report, err := healthz.Evaluate(ctx, key)
		if err != nil {
			return err
		}

		if alert, _ := cmd.Flags().GetBool("alert"); alert && report.Liquidatable {
			if err := provideNotifier().Notify(ctx, core.NewAlert(key, report, "")); err != nil {
				return err
			}
		}

		return printJSON(report)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().Bool("alert", false, "send an alert if the account is liquidatable")
}
