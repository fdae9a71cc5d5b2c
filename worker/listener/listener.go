// Package listener follows marginfi program logs and re-evaluates accounts
// whose health pulse event shows up.
package listener

import (
	"context"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"
	"mrgnwatch/pkg/metric"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config listener config
type Config struct {
	WsEndpoint string
	Program    solana.PublicKey
	Commitment rpc.CommitmentType
	CacheSize  int
	Reconnect  time.Duration
}

type logStream interface {
	Recv(ctx context.Context) (*ws.LogResult, error)
	Unsubscribe()
}

// Listener health pulse listener worker
type Listener struct {
	cfg      Config
	healthz  core.IHealthService
	notifier core.INotifier
	metrics  *metric.Metrics

	seen gcache.Cache
	sf   singleflight.Group

	// subscribe opens a program logs stream, the returned func releases its connection
	subscribe func(ctx context.Context) (logStream, func(), error)
}

// New new listener worker
func New(
	cfg Config,
	healthz core.IHealthService,
	notifier core.INotifier,
	metrics *metric.Metrics,
) *Listener {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}

	w := &Listener{
		cfg:      cfg,
		healthz:  healthz,
		notifier: notifier,
		metrics:  metrics,
		seen:     gcache.New(cfg.CacheSize).LRU().Build(),
	}
	w.subscribe = w.subscribeLogs
	return w
}

// Run worker run, resubscribing whenever the stream breaks
func (w *Listener) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "listener")
	ctx = logger.WithContext(ctx, log)

	dur := time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			if err := w.run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Errorln("logs subscription")
			}
			dur = w.cfg.Reconnect
		}
	}
}

func (w *Listener) subscribeLogs(ctx context.Context) (logStream, func(), error) {
	client, err := ws.Connect(ctx, w.cfg.WsEndpoint)
	if err != nil {
		return nil, nil, err
	}

	sub, err := client.LogsSubscribeMentions(w.cfg.Program, w.cfg.Commitment)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return sub, client.Close, nil
}

func (w *Listener) run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	sub, release, err := w.subscribe(ctx)
	if err != nil {
		return err
	}
	defer release()
	defer sub.Unsubscribe()

	log.WithField("program", w.cfg.Program.String()).Infoln("subscribed")

	for {
		result, err := sub.Recv(ctx)
		if err != nil {
			return err
		}

		w.HandleLogs(ctx, result.Value.Signature.String(), result.Value.Err != nil, result.Value.Logs)
	}
}

// HandleLogs processes the logs of one transaction and returns once every
// account it pulsed has been evaluated
func (w *Listener) HandleLogs(ctx context.Context, signature string, failed bool, logs []string) {
	log := logger.FromContext(ctx).WithField("signature", signature)
	ctx = logger.WithContext(ctx, log)

	if failed {
		w.metrics.Event(metric.EventFailedTx)
		return
	}

	if w.seen.Has(signature) {
		w.metrics.Event(metric.EventDuplicate)
		return
	}
	_ = w.seen.Set(signature, struct{}{})

	accounts := make(map[solana.PublicKey]bool)
	for _, line := range logs {
		event, ok, err := marginfi.ParseHealthPulse(line)
		if err != nil {
			w.metrics.Event(metric.EventMalformed)
			log.WithError(err).Debugln("parse program data")
			continue
		}
		if !ok {
			continue
		}

		w.metrics.Event(metric.EventHealthPulse)
		accounts[event.Account] = true
	}

	var g errgroup.Group
	for account := range accounts {
		account := account
		g.Go(func() error {
			w.check(ctx, account, signature)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *Listener) check(ctx context.Context, account solana.PublicKey, signature string) {
	log := logger.FromContext(ctx).WithField("account", account.String())

	v, err, _ := w.sf.Do(account.String(), func() (interface{}, error) {
		return w.healthz.Evaluate(ctx, account)
	})
	if err != nil {
		log.WithError(err).Errorln("evaluate")
		return
	}

	report := v.(*health.Report)
	log.WithField("margin", report.Margin.String()).Debugln("evaluated")

	if !report.Liquidatable {
		return
	}

	if err := w.notifier.Notify(ctx, core.NewAlert(account, report, signature)); err != nil {
		log.WithError(err).Errorln("notify")
	}
}
