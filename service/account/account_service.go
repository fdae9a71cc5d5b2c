package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"
	"mrgnwatch/internal/oracle"
	"mrgnwatch/pkg/metric"

	"github.com/fox-one/pkg/logger"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

type accountService struct {
	fetcher core.IAccountFetcher
	metrics *metric.Metrics
}

// New new account health service
func New(
	fetcher core.IAccountFetcher,
	metrics *metric.Metrics,
) core.IHealthService {
	return &accountService{
		fetcher: fetcher,
		metrics: metrics,
	}
}

func (s *accountService) Account(ctx context.Context, key solana.PublicKey) (*marginfi.Account, error) {
	data, err := s.fetcher.GetAccount(ctx, key)
	if err != nil {
		return nil, err
	}

	account, err := marginfi.DecodeAccount(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNotMarginfiAccount, err)
	}
	return account, nil
}

func (s *accountService) Bank(ctx context.Context, key solana.PublicKey) (*marginfi.Bank, error) {
	data, err := s.fetcher.GetAccount(ctx, key)
	if errors.Is(err, core.ErrAccountNotFound) {
		return nil, core.ErrBankNotFound
	} else if err != nil {
		return nil, err
	}

	return marginfi.DecodeBank(data)
}

func (s *accountService) Evaluate(ctx context.Context, key solana.PublicKey) (report *health.Report, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveEvaluation(start, report != nil && report.Liquidatable, err)
	}()

	log := logger.FromContext(ctx).WithField("account", key.String())

	account, err := s.Account(ctx, key)
	if err != nil {
		return nil, err
	}

	var (
		banks map[solana.PublicKey]*marginfi.Bank
		clock oracle.Clock
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		banks, err = s.banks(gctx, account.BankKeys())
		return err
	})
	g.Go(func() error {
		var err error
		clock, err = s.fetcher.GetClock(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feeds, feedErrs, err := s.feeds(ctx, banks, clock)
	if err != nil {
		return nil, err
	}

	report, err = health.Evaluate(account, banks, feeds)
	if err != nil {
		// a missing feed means its oracle failed to resolve, report why
		var (
			le *health.LookupError
			pe *health.PositionError
		)
		if errors.As(err, &le) && le.Kind == health.KindPriceFeed {
			if ferr, ok := feedErrs[le.Bank]; ok {
				if errors.As(err, &pe) {
					pe.Err = ferr
				} else {
					err = ferr
				}
			}
		}

		log.WithError(err).Debugln("evaluate")
		return nil, err
	}

	for _, warning := range report.Warnings {
		log.Warnln(warning)
	}

	if cached := account.CachedHealth(); cached != nil && cached.IsHealthy() == report.Liquidatable {
		log.WithField("cached_at", cached.UpdatedAt()).
			Debugln("cached health disagrees with evaluation")
	}

	return report, nil
}

// banks fetches and decodes the banks. Missing banks are left out of the map.
func (s *accountService) banks(ctx context.Context, keys []solana.PublicKey) (map[solana.PublicKey]*marginfi.Bank, error) {
	keys = unique(keys)

	accounts, err := s.fetcher.GetAccounts(ctx, keys)
	if err != nil {
		return nil, err
	}

	banks := make(map[solana.PublicKey]*marginfi.Bank, len(keys))
	for i, data := range accounts {
		if data == nil {
			continue
		}

		bank, err := marginfi.DecodeBank(data)
		if err != nil {
			return nil, fmt.Errorf("bank %s: %w", keys[i], err)
		}
		banks[keys[i]] = bank
	}

	return banks, nil
}

// feeds resolves the price feed of every bank, fetching oracle accounts per
// bank in parallel. Resolution failures are returned per bank so banks that
// end up unused cannot fail the evaluation.
func (s *accountService) feeds(
	ctx context.Context,
	banks map[solana.PublicKey]*marginfi.Bank,
	clock oracle.Clock,
) (map[solana.PublicKey]*oracle.PriceFeed, map[solana.PublicKey]error, error) {
	type result struct {
		key  solana.PublicKey
		feed *oracle.PriceFeed
		err  error
	}

	results := make([]result, 0, len(banks))
	for key := range banks {
		results = append(results, result{key: key})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		r := &results[i]
		bank := banks[r.key]
		g.Go(func() error {
			var accounts [][]byte
			if keys := bank.Config.OracleAccounts(); len(keys) > 0 {
				var err error
				if accounts, err = s.fetcher.GetAccounts(gctx, keys); err != nil {
					return fmt.Errorf("oracle accounts of bank %s: %w", r.key, err)
				}
			}

			r.feed, r.err = oracle.Resolve(r.key, bank, accounts, clock)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	feeds := make(map[solana.PublicKey]*oracle.PriceFeed, len(results))
	errs := make(map[solana.PublicKey]error)
	for _, r := range results {
		if r.err != nil {
			errs[r.key] = r.err
			continue
		}
		feeds[r.key] = r.feed
	}

	return feeds, errs, nil
}

func unique(keys []solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool, len(keys))
	out := keys[:0:0]
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
