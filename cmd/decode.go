package cmd

import (
	"fmt"

	"mrgnwatch/core"
	"mrgnwatch/internal/marginfi"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "fetch and print decoded program accounts",
}

func decodeRunner(get func(healthz core.IHealthService, cmd *cobra.Command, key solana.PublicKey) (interface{}, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return err
		}

		healthz := provideHealthService(provideAccountFetcher(provideRPCClient()), provideMetrics())
		v, err := get(healthz, cmd, key)
		if err != nil {
			return err
		}

		return printJSON(v)
	}
}

var decodeBankCmd = &cobra.Command{
	Use:   "bank <key>",
	Short: "print a decoded bank",
	Args:  cobra.ExactArgs(1),
	RunE: decodeRunner(func(healthz core.IHealthService, cmd *cobra.Command, key solana.PublicKey) (interface{}, error) {
		bank, err := healthz.Bank(cmd.Context(), key)
		if err != nil {
			return nil, err
		}

		summary, err := bank.Summary()
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{"bank": bank, "summary": summary}, nil
	}),
}

var decodeAccountCmd = &cobra.Command{
	Use:   "account <key>",
	Short: "print a decoded marginfi account",
	Args:  cobra.ExactArgs(1),
	RunE: decodeRunner(func(healthz core.IHealthService, cmd *cobra.Command, key solana.PublicKey) (interface{}, error) {
		return healthz.Account(cmd.Context(), key)
	}),
}

var decodeEventCmd = &cobra.Command{
	Use:   "event <log line>",
	Short: "print a health pulse event from a program log line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, ok, err := marginfi.ParseHealthPulse(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not a health pulse event")
		}

		return printJSON(event)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.AddCommand(decodeBankCmd, decodeAccountCmd, decodeEventCmd)
}
