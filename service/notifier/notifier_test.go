package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/pkg/resthttp"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert() *core.Alert {
	return &core.Alert{
		Account:        solana.NewWallet().PublicKey(),
		AssetValue:     decimal.RequireFromString("85.5"),
		LiabilityValue: decimal.RequireFromString("85.911"),
		Margin:         decimal.RequireFromString("-0.411"),
		Liquidatable:   true,
		Signature:      "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
	}
}

func TestNotify(t *testing.T) {
	alert := testAlert()

	var (
		body      map[string]interface{}
		requestID string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		requestID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := New(resthttp.New(time.Second), server.URL)
	require.NoError(t, n.Notify(context.Background(), alert))

	assert.Equal(t, alert.Account.String(), body["account"])
	assert.Equal(t, "-0.411", body["margin"])
	assert.Equal(t, "85.5", body["asset_value"])
	assert.Equal(t, true, body["liquidatable"])
	assert.Equal(t, alert.Signature, body["signature"])
	assert.Equal(t, alert.Signature, requestID)
}

func TestNotifyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad alert", http.StatusBadRequest)
	}))
	defer server.Close()

	n := New(resthttp.New(time.Second), server.URL)
	err := n.Notify(context.Background(), testAlert())

	var se *resthttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "bad alert", se.Body)
}

func TestNotifyWithoutWebhook(t *testing.T) {
	n := New(resthttp.New(time.Second), "")
	assert.NoError(t, n.Notify(context.Background(), testAlert()))
}
