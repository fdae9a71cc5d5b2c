package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mrgnwatch/handler"

	"github.com/drone/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run the account health api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		metrics := provideMetrics()
		fetcher := provideAccountFetcher(provideRPCClient())
		healthz := provideHealthService(fetcher, metrics)

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: handler.New(healthz, fetcher, rootCmd.Version).Handler(),
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		if listen, _ := cmd.Flags().GetBool("listen"); listen {
			w := provideListener(healthz, provideNotifier(), metrics)
			go func() {
				_ = w.Run(ctx)
			}()
		}

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
	serverCmd.Flags().Bool("listen", false, "also run the health pulse listener")
}
