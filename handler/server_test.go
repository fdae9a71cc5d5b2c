package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"
	"mrgnwatch/internal/oracle"
	"mrgnwatch/pkg/fixed"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	reports map[solana.PublicKey]*health.Report
	banks   map[solana.PublicKey]*marginfi.Bank
	errs    map[solana.PublicKey]error
}

func (f *fakeHealth) Evaluate(_ context.Context, key solana.PublicKey) (*health.Report, error) {
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if r, ok := f.reports[key]; ok {
		return r, nil
	}
	return nil, core.ErrAccountNotFound
}

func (f *fakeHealth) Account(_ context.Context, key solana.PublicKey) (*marginfi.Account, error) {
	if _, ok := f.reports[key]; !ok {
		return nil, core.ErrAccountNotFound
	}
	return &marginfi.Account{Authority: key}, nil
}

func (f *fakeHealth) Bank(_ context.Context, key solana.PublicKey) (*marginfi.Bank, error) {
	if b, ok := f.banks[key]; ok {
		return b, nil
	}
	return nil, core.ErrBankNotFound
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestAccountHealth(t *testing.T) {
	healthy := solana.NewWallet().PublicKey()
	broken := solana.NewWallet().PublicKey()
	notMarginfi := solana.NewWallet().PublicKey()
	crashed := solana.NewWallet().PublicKey()

	f := &fakeHealth{
		reports: map[solana.PublicKey]*health.Report{
			healthy: {
				AssetValueMaint:     fixed.FromInt64(95),
				LiabilityValueMaint: fixed.MustParse("85.5"),
				Margin:              fixed.MustParse("9.5"),
			},
		},
		errs: map[solana.PublicKey]error{
			broken: &health.PositionError{
				Bank: solana.NewWallet().PublicKey(),
				Side: marginfi.BalanceSideAssets,
				Err:  &oracle.Error{Err: oracle.ErrStalePrice},
			},
			notMarginfi: fmt.Errorf("%w: bad data", core.ErrNotMarginfiAccount),
			crashed:     fmt.Errorf("rpc: connection refused"),
		},
	}
	h := New(f, nil, "test").Handler()

	for _, tc := range []struct {
		name   string
		path   string
		status int
		code   core.ErrorCode
	}{
		{"bad key", "/api/accounts/not-a-key/health", http.StatusBadRequest, core.ErrInvalidAccountKey},
		{"missing", fmt.Sprintf("/api/accounts/%s/health", solana.NewWallet().PublicKey()), http.StatusNotFound, core.ErrAccountNotFound},
		{"not marginfi", fmt.Sprintf("/api/accounts/%s/health", notMarginfi), http.StatusUnprocessableEntity, core.ErrNotMarginfiAccount},
		{"stale oracle", fmt.Sprintf("/api/accounts/%s/health", broken), http.StatusUnprocessableEntity, core.ErrEvaluationFailed},
		{"rpc down", fmt.Sprintf("/api/accounts/%s/health", crashed), http.StatusInternalServerError, core.ErrUnknown},
		{"missing bank", fmt.Sprintf("/api/banks/%s", solana.NewWallet().PublicKey()), http.StatusNotFound, core.ErrBankNotFound},
		{"unknown route", "/api/pools", http.StatusNotFound, core.ErrUnknown},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, body := get(t, h, tc.path)
			assert.Equal(t, tc.status, w.Code)
			assert.EqualValues(t, tc.code, body["code"])
		})
	}

	t.Run("healthy", func(t *testing.T) {
		w, body := get(t, h, fmt.Sprintf("/api/accounts/%s/health", healthy))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "9.5", body["margin"])
		assert.Equal(t, "95", body["asset_value_maint"])
		assert.Equal(t, false, body["liquidatable"])
	})

	t.Run("account", func(t *testing.T) {
		w, body := get(t, h, fmt.Sprintf("/api/accounts/%s", healthy))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, healthy.String(), body["authority"])
	})
}

func TestBank(t *testing.T) {
	key := solana.NewWallet().PublicKey()

	var bank marginfi.Bank
	bank.MintDecimals = 6
	bank.AssetShareValue = fixed.Wrap(fixed.MustParse("1.5"))
	bank.TotalAssetShares = fixed.Wrap(fixed.FromInt64(2_000_000))
	bank.Config.AssetWeightInit = fixed.Wrap(fixed.MustParse("0.75"))
	bank.Config.AssetWeightMaint = fixed.Wrap(fixed.MustParse("0.875"))

	h := New(&fakeHealth{banks: map[solana.PublicKey]*marginfi.Bank{key: &bank}}, nil, "test").Handler()

	w, body := get(t, h, fmt.Sprintf("/api/banks/%s", key))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, body, "bank")

	summary, ok := body["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "3", summary["total_assets"])
	assert.Equal(t, "0", summary["total_liabilities"])
	assert.Equal(t, "0.75", summary["asset_weight_init"])
	assert.Equal(t, "0.875", summary["asset_weight_maint"])
}

type fakeClock struct {
	clock oracle.Clock
	err   error
}

func (f fakeClock) GetClock(context.Context) (oracle.Clock, error) {
	return f.clock, f.err
}

func TestHealthCheck(t *testing.T) {
	h := New(&fakeHealth{}, nil, "1.2.3").Handler()

	w, body := get(t, h, "/hc")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotContains(t, body, "slot")

	t.Run("node clock", func(t *testing.T) {
		clock := oracle.ClockAt(time.Now())
		clock.Slot = 42
		h := New(&fakeHealth{}, fakeClock{clock: clock}, "1.2.3").Handler()

		w, body := get(t, h, "/hc")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 42, body["slot"])
	})

	t.Run("node down", func(t *testing.T) {
		h := New(&fakeHealth{}, fakeClock{err: errors.New("connection refused")}, "1.2.3").Handler()

		w, _ := get(t, h, "/hc")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
