package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSourceDown = errors.New("source down")

func newTestBreaker(config CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	breaker := NewCircuitBreaker("test", config, quietLogger())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return now }
	return breaker, &now
}

func failing(context.Context) error    { return errSourceDown }
func succeeding(context.Context) error { return nil }

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	breaker := NewCircuitBreaker("defaults", CircuitBreakerConfig{}, nil)

	assert.Equal(t, DefaultCircuitBreakerConfig(), breaker.config)
	assert.Equal(t, Closed, breaker.State())
	assert.NotNil(t, breaker.logger)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, breaker.Execute(ctx, failing), errSourceDown)
	}
	assert.Equal(t, Open, breaker.State())

	called := false
	err := breaker.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := breaker.Stats()
	assert.Equal(t, "open", stats.State)
	assert.Equal(t, int64(4), stats.TotalCalls)
	assert.Equal(t, int64(3), stats.FailedCalls)
	assert.Equal(t, int64(1), stats.RejectedCalls)
	assert.Equal(t, errSourceDown.Error(), stats.LastError)
}

func TestCircuitBreaker_LogsOpenOnceNotPerRejection(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	breaker := NewCircuitBreaker(breakerFares, CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour}, logger)
	ctx := context.Background()

	assert.ErrorIs(t, breaker.Execute(ctx, failing), errSourceDown)
	for i := 0; i < 50; i++ {
		assert.ErrorIs(t, breaker.Execute(ctx, succeeding), ErrCircuitOpen)
	}

	output := buf.String()
	assert.Equal(t, 1, strings.Count(output, "Circuit breaker state changed"))
	assert.Contains(t, output, `"level":"warning"`)
	assert.NotContains(t, output, "rejecting call")
	assert.Equal(t, int64(50), breaker.Stats().RejectedCalls)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	_ = breaker.Execute(ctx, failing)
	require.NoError(t, breaker.Execute(ctx, succeeding))
	_ = breaker.Execute(ctx, failing)

	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	breaker, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	_ = breaker.Execute(ctx, failing)
	require.Equal(t, Open, breaker.State())

	*now = now.Add(30 * time.Second)
	assert.ErrorIs(t, breaker.Execute(ctx, succeeding), ErrCircuitOpen)

	*now = now.Add(time.Minute)
	require.NoError(t, breaker.Execute(ctx, succeeding))
	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	_ = breaker.Execute(ctx, failing)
	*now = now.Add(2 * time.Minute)

	assert.ErrorIs(t, breaker.Execute(ctx, failing), errSourceDown)
	assert.Equal(t, Open, breaker.State())
	assert.ErrorIs(t, breaker.Execute(ctx, succeeding), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	breaker, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute, MaxProbes: 1})
	ctx := context.Background()

	_ = breaker.Execute(ctx, failing)
	*now = now.Add(2 * time.Minute)

	probing := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- breaker.Execute(ctx, func(context.Context) error {
			close(probing)
			<-release
			return nil
		})
	}()

	<-probing
	assert.Equal(t, HalfOpen, breaker.State())
	assert.ErrorIs(t, breaker.Execute(ctx, succeeding), ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Closed, breaker.State())
}

func TestCircuitBreaker_CancelledCallIsNotAFailure(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := breaker.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, breaker.State())
	assert.Zero(t, breaker.Stats().FailedCalls)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = breaker.Execute(context.Background(), failing)
	require.Equal(t, Open, breaker.State())

	breaker.Reset()
	assert.Equal(t, Closed, breaker.State())
	assert.NoError(t, breaker.Execute(context.Background(), succeeding))
}

func TestCircuitBreaker_ConcurrentExecute(t *testing.T) {
	breaker, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = breaker.Execute(context.Background(), failing)
			} else {
				_ = breaker.Execute(context.Background(), succeeding)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(50), breaker.Stats().TotalCalls)
	assert.Equal(t, int64(25), breaker.Stats().FailedCalls)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}

func TestCircuitBreakerManager(t *testing.T) {
	manager := NewCircuitBreakerManager(CircuitBreakerConfig{FailureThreshold: 1}, quietLogger())

	quotes := manager.Get("quote_source")
	assert.Same(t, quotes, manager.Get("quote_source"))
	assert.NotSame(t, quotes, manager.Get("route_source"))

	_ = quotes.Execute(context.Background(), failing)

	stats := manager.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "open", stats["quote_source"].State)
	assert.Equal(t, "closed", stats["route_source"].State)

	manager.ResetAll()
	assert.Equal(t, Closed, quotes.State())
}
