package cmd

import (
	"mrgnwatch/core"
	"mrgnwatch/pkg/metric"
	"mrgnwatch/pkg/resthttp"
	"mrgnwatch/service/account"
	"mrgnwatch/service/chain"
	"mrgnwatch/service/notifier"
	"mrgnwatch/worker/listener"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func provideRPCClient() *rpc.Client {
	return rpc.New(cfg.RPC.Endpoint)
}

func provideMetrics() *metric.Metrics {
	return metric.Default()
}

func provideAccountFetcher(client *rpc.Client) core.IAccountFetcher {
	return chain.New(client, cfg.RPC.Commitment)
}

func provideHealthService(fetcher core.IAccountFetcher, metrics *metric.Metrics) core.IHealthService {
	return account.New(fetcher, metrics)
}

func provideNotifier() core.INotifier {
	client := resthttp.New(cfg.Alert.RequestTimeout())
	return notifier.New(client, cfg.Alert.URL)
}

func provideListener(healthz core.IHealthService, notifier core.INotifier, metrics *metric.Metrics) *listener.Listener {
	return listener.New(listener.Config{
		WsEndpoint: cfg.RPC.WsEndpoint,
		Program:    solana.MustPublicKeyFromBase58(cfg.Program.ID),
		Commitment: rpc.CommitmentType(cfg.RPC.Commitment),
		CacheSize:  cfg.Listener.CacheSize,
		Reconnect:  cfg.Listener.ReconnectDelay(),
	}, healthz, notifier, metrics)
}
