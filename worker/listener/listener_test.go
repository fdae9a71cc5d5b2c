package listener

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/marginfi"
	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/metric"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	core.IHealthService

	mu      sync.Mutex
	margins map[solana.PublicKey]string
	calls   map[solana.PublicKey]int
}

func (f *fakeHealth) Evaluate(_ context.Context, key solana.PublicKey) (*health.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++

	margin := fixed.MustParse(f.margins[key])
	return &health.Report{
		AssetValueMaint:     fixed.FromInt64(10),
		LiabilityValueMaint: fixed.FromInt64(10),
		Margin:              margin,
		Liquidatable:        margin.IsNegative(),
	}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []*core.Alert
}

func (f *fakeNotifier) Notify(_ context.Context, alert *core.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func pulse(t *testing.T, account solana.PublicKey) string {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(marginfi.HealthPulseDiscriminator[:])
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(&marginfi.HealthPulseEvent{Account: account}))
	return marginfi.ProgramDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newListener() (*Listener, *fakeHealth, *fakeNotifier) {
	h := &fakeHealth{
		margins: map[solana.PublicKey]string{},
		calls:   map[solana.PublicKey]int{},
	}
	n := &fakeNotifier{}
	w := New(Config{CacheSize: 16}, h, n, metric.New(prometheus.NewRegistry()))
	return w, h, n
}

func TestHandleLogs(t *testing.T) {
	w, h, n := newListener()
	healthy := solana.NewWallet().PublicKey()
	underwater := solana.NewWallet().PublicKey()
	h.margins[healthy] = "5"
	h.margins[underwater] = "-0.5"

	logs := []string{
		"Program MFv2hWf31Z9kbCa1snEPYctwafyhdvnV7FZnsebVacA invoke [1]",
		"Program log: Instruction: LendingAccountPulseHealth",
		pulse(t, healthy),
		pulse(t, underwater),
		pulse(t, underwater),
		"Program data: AAAA",
		"Program data: !!not base64",
	}
	w.HandleLogs(context.Background(), "sig-1", false, logs)

	assert.Equal(t, 1, h.calls[healthy])
	assert.Equal(t, 1, h.calls[underwater])
	require.Len(t, n.alerts, 1)
	assert.Equal(t, underwater, n.alerts[0].Account)
	assert.Equal(t, "sig-1", n.alerts[0].Signature)
	assert.Equal(t, "-0.5", n.alerts[0].Margin.String())
	assert.True(t, n.alerts[0].Liquidatable)

	t.Run("duplicate signature", func(t *testing.T) {
		w.HandleLogs(context.Background(), "sig-1", false, logs)
		assert.Equal(t, 1, h.calls[underwater])
		assert.Len(t, n.alerts, 1)
	})
}

func TestHandleLogsFailedTransaction(t *testing.T) {
	w, h, n := newListener()
	account := solana.NewWallet().PublicKey()
	h.margins[account] = "-1"

	w.HandleLogs(context.Background(), "sig-2", true, []string{pulse(t, account)})
	assert.Zero(t, h.calls[account])
	assert.Empty(t, n.alerts)

	// a failed delivery must not poison the signature cache
	w.HandleLogs(context.Background(), "sig-2", false, []string{pulse(t, account)})
	assert.Equal(t, 1, h.calls[account])
	assert.Len(t, n.alerts, 1)
}

type fakeStream struct {
	results      chan *ws.LogResult
	unsubscribed int32
}

func newStream(results ...*ws.LogResult) *fakeStream {
	s := &fakeStream{results: make(chan *ws.LogResult, len(results))}
	for _, r := range results {
		s.results <- r
	}
	return s
}

func (s *fakeStream) Recv(ctx context.Context) (*ws.LogResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-s.results:
		if !ok {
			return nil, ws.ErrSubscriptionClosed
		}
		return r, nil
	}
}

func (s *fakeStream) Unsubscribe() {
	atomic.AddInt32(&s.unsubscribed, 1)
}

func logResult(signature solana.Signature, logs ...string) *ws.LogResult {
	r := &ws.LogResult{}
	r.Value.Signature = signature
	r.Value.Logs = logs
	return r
}

func TestRunResubscribes(t *testing.T) {
	w, h, n := newListener()
	w.cfg.Reconnect = time.Millisecond

	underwater := solana.NewWallet().PublicKey()
	h.margins[underwater] = "-1"

	sig := solana.Signature{1}
	first := newStream(logResult(sig, pulse(t, underwater)))
	close(first.results)
	// the same transaction replayed after reconnecting
	second := newStream(logResult(sig, pulse(t, underwater)))
	close(second.results)
	idle := newStream()

	var dials, released int32
	w.subscribe = func(ctx context.Context) (logStream, func(), error) {
		release := func() { atomic.AddInt32(&released, 1) }
		switch atomic.AddInt32(&dials, 1) {
		case 1:
			return first, release, nil
		case 2:
			return nil, nil, errors.New("connection refused")
		case 3:
			return second, release, nil
		default:
			return idle, release, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&dials) >= 4 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}

	assert.EqualValues(t, 4, atomic.LoadInt32(&dials))
	assert.EqualValues(t, 3, atomic.LoadInt32(&released))
	for _, s := range []*fakeStream{first, second, idle} {
		assert.EqualValues(t, 1, atomic.LoadInt32(&s.unsubscribed))
	}

	h.mu.Lock()
	assert.Equal(t, 1, h.calls[underwater])
	h.mu.Unlock()

	n.mu.Lock()
	assert.Len(t, n.alerts, 1)
	n.mu.Unlock()
}
