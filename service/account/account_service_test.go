package account

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"
	"mrgnwatch/internal/oracle"
	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"
	"mrgnwatch/pkg/metric"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFetcher struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	calls    int
}

func (f *memFetcher) GetAccount(_ context.Context, key solana.PublicKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	data, ok := f.accounts[key]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	return data, nil
}

func (f *memFetcher) GetAccounts(_ context.Context, keys []solana.PublicKey) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = f.accounts[key]
	}
	return out, nil
}

func (f *memFetcher) GetClock(context.Context) (oracle.Clock, error) {
	return oracle.ClockAt(time.Now()), nil
}

func encode(t *testing.T, disc layout.Discriminator, v interface{}) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(disc[:])
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(v))
	return buf.Bytes()
}

type chain struct {
	t       *testing.T
	fetcher *memFetcher
	account marginfi.Account
	key     solana.PublicKey
}

func newChain(t *testing.T) *chain {
	return &chain{
		t:       t,
		fetcher: &memFetcher{accounts: map[solana.PublicKey][]byte{}},
		key:     solana.NewWallet().PublicKey(),
	}
}

func (c *chain) fixedBank(price string, assetMaint, liabMaint string) solana.PublicKey {
	var bank marginfi.Bank
	bank.MintDecimals = 6
	bank.AssetShareValue = fixed.Wrap(fixed.One)
	bank.LiabilityShareValue = fixed.Wrap(fixed.One)
	bank.Config.AssetWeightMaint = fixed.Wrap(fixed.MustParse(assetMaint))
	bank.Config.LiabilityWeightMaint = fixed.Wrap(fixed.MustParse(liabMaint))
	bank.Config.OracleSetup = marginfi.OracleSetupFixed
	bank.Config.FixedPrice = fixed.Wrap(fixed.MustParse(price))
	return c.bank(&bank)
}

func (c *chain) bank(bank *marginfi.Bank) solana.PublicKey {
	key := solana.NewWallet().PublicKey()
	c.fetcher.accounts[key] = encode(c.t, marginfi.BankDiscriminator, bank)
	return key
}

func (c *chain) balance(slot int, bank solana.PublicKey, assetShares, liabilityShares int64) {
	c.account.LendingAccount.Balances[slot] = marginfi.Balance{
		Active:          1,
		BankPk:          bank,
		AssetShares:     fixed.Wrap(fixed.FromInt64(assetShares)),
		LiabilityShares: fixed.Wrap(fixed.FromInt64(liabilityShares)),
	}
	c.fetcher.accounts[c.key] = encode(c.t, marginfi.AccountDiscriminator, &c.account)
}

func (c *chain) service() core.IHealthService {
	return New(c.fetcher, metric.New(prometheus.NewRegistry()))
}

func TestEvaluate(t *testing.T) {
	c := newChain(t)
	a := c.fixedBank("100", "0.95", "1")
	b := c.fixedBank("1", "1", "1.05")
	c.balance(0, a, 1_000_000, 0)
	c.balance(1, b, 0, 81_820_000)

	report, err := c.service().Evaluate(context.Background(), c.key)
	require.NoError(t, err)
	assert.InDelta(t, 9.089, report.Margin.Float64(), 1e-9)
	assert.False(t, report.Liquidatable)
	assert.Len(t, report.Positions, 2)
}

func TestEvaluateSharedBank(t *testing.T) {
	c := newChain(t)
	a := c.fixedBank("2", "1", "1")
	c.balance(0, a, 1_000_000, 0)
	c.balance(4, a, 1_000_000, 0)

	report, err := c.service().Evaluate(context.Background(), c.key)
	require.NoError(t, err)
	assert.InDelta(t, 4, report.AssetValue.Float64(), 1e-9)
}

func TestEvaluateAccountErrors(t *testing.T) {
	c := newChain(t)
	s := c.service()
	ctx := context.Background()

	_, err := s.Evaluate(ctx, c.key)
	assert.ErrorIs(t, err, core.ErrAccountNotFound)

	bank := c.fixedBank("1", "1", "1")
	_, err = s.Evaluate(ctx, bank)
	assert.ErrorIs(t, err, core.ErrNotMarginfiAccount)
	assert.ErrorIs(t, err, layout.ErrDiscriminator)
}

func TestEvaluateOracleFailure(t *testing.T) {
	c := newChain(t)

	var bank marginfi.Bank
	bank.MintDecimals = 6
	bank.AssetShareValue = fixed.Wrap(fixed.One)
	bank.LiabilityShareValue = fixed.Wrap(fixed.One)
	bank.Config.OracleSetup = marginfi.OracleSetupPythPushOracle
	bank.Config.OracleKeys[0] = solana.NewWallet().PublicKey()
	key := c.bank(&bank)

	t.Run("unused bank", func(t *testing.T) {
		c.balance(0, key, 0, 0)

		report, err := c.service().Evaluate(context.Background(), c.key)
		require.NoError(t, err)
		assert.True(t, report.Margin.IsZero())
	})

	t.Run("deposit", func(t *testing.T) {
		c.balance(0, key, 1_000_000, 0)

		_, err := c.service().Evaluate(context.Background(), c.key)
		assert.ErrorIs(t, err, oracle.ErrMissingOracleAccount)

		var oe *oracle.Error
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, key, oe.Bank)

		var pe *health.PositionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, key, pe.Bank)
		assert.Equal(t, marginfi.BalanceSideAssets, pe.Side)
	})

	t.Run("borrow", func(t *testing.T) {
		c.balance(0, key, 0, 1_000_000)

		_, err := c.service().Evaluate(context.Background(), c.key)
		assert.ErrorIs(t, err, oracle.ErrMissingOracleAccount)

		var pe *health.PositionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, marginfi.BalanceSideLiabilities, pe.Side)
	})
}

func TestBank(t *testing.T) {
	c := newChain(t)
	key := c.fixedBank("1.5", "1", "1")
	s := c.service()

	bank, err := s.Bank(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "1.5", bank.Config.FixedPrice.String())

	_, err = s.Bank(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, core.ErrBankNotFound)
}
