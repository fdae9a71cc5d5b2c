package cmd

import (
	"sync"

	"mrgnwatch/worker"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "follow health pulse events and alert on liquidatable accounts",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := signal.WithContext(cmd.Context())
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		metrics := provideMetrics()
		healthz := provideHealthService(provideAccountFetcher(provideRPCClient()), metrics)

		workers := []worker.Worker{
			provideListener(healthz, provideNotifier(), metrics),
		}

		wg := sync.WaitGroup{}
		for _, w := range workers {
			wg.Add(1)

			go func(w worker.Worker) {
				defer wg.Done()
				_ = w.Run(ctx)
			}(w)
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
