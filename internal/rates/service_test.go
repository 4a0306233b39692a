package rates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/exchangerate"
	"github.com/angelmondragon/landedcost/pkg/metrics"
)

type fakeFetcher struct {
	calls  atomic.Int32
	mu     sync.Mutex
	result *exchangerate.Result
	err    error
	gate   chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*exchangerate.Result, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeFetcher) set(result *exchangerate.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

type fakeCache struct {
	data map[string]string
	ttl  time.Duration
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	c.data[key], _ = value.(string)
	c.ttl = ttl
	return nil
}

func (c *fakeCache) ExchangeRateKey(reference string) string { return "test:" + reference }

var fetchedAt = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func goodResult(usd float64) *exchangerate.Result {
	return &exchangerate.Result{
		Rates: map[enums.Currency]float64{enums.CurrencyUSD: usd, enums.CurrencyCNY: 187},
		History: []exchangerate.DailyRate{
			{Date: fetchedAt.AddDate(0, 0, -1), Currency: enums.CurrencyUSD, Rate: usd - 1},
			{Date: fetchedAt.AddDate(0, 0, -2), Currency: enums.CurrencyUSD, Rate: usd - 2},
		},
		FetchedAt: fetchedAt,
	}
}

func newTestService(t *testing.T, f *fakeFetcher, cache *fakeCache, now func() time.Time) *Service {
	t.Helper()
	params := ServiceParams{
		Fetcher:   f,
		Reference: enums.CurrencyKRW,
		TTL:       6 * time.Hour,
		Metrics:   metrics.NewExchangeRateMetrics(prometheus.NewRegistry()),
		Now:       now,
	}
	if cache != nil {
		params.Cache = cache
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCurrentWithoutSnapshot(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{}, nil, clockAt(fetchedAt))
	_, _, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = svc.Status(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRefreshStoresSnapshotAndCache(t *testing.T) {
	f := &fakeFetcher{result: goodResult(1350)}
	cache := newFakeCache()
	svc := newTestService(t, f, cache, clockAt(fetchedAt.Add(time.Minute)))

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	rate, err := snap.RateOf(enums.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, 1350.0, rate)
	require.Len(t, snap.History(), 2)
	assert.True(t, snap.History()[0].Date.Before(snap.History()[1].Date), "history must be oldest first")

	current, stale, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, current)
	assert.False(t, stale)

	assert.Contains(t, cache.data, "test:KRW")
	assert.Equal(t, 6*time.Hour, cache.ttl)
}

func TestFailedRefreshKeepsPreviousSnapshotAsStale(t *testing.T) {
	f := &fakeFetcher{result: goodResult(1350)}
	svc := newTestService(t, f, nil, clockAt(fetchedAt))

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	f.set(nil, pkgerrors.New(pkgerrors.CodeDependency, "provider down"))
	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	current, stale, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
	assert.True(t, stale)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "provider down", status.LastError)
	assert.True(t, status.Stale)

	f.set(goodResult(1400), nil)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	_, stale, _ = svc.Current(context.Background())
	assert.False(t, stale)
	assert.NotSame(t, first, second)

	rate, _ := first.RateOf(enums.CurrencyUSD)
	assert.Equal(t, 1350.0, rate, "a replaced snapshot must not change")
}

func TestInvalidPayloadIsDependencyError(t *testing.T) {
	f := &fakeFetcher{result: &exchangerate.Result{Rates: map[enums.Currency]float64{enums.CurrencyUSD: -3}, FetchedAt: fetchedAt}}
	svc := newTestService(t, f, nil, clockAt(fetchedAt))

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	_, _, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotOlderThanTTLIsStale(t *testing.T) {
	f := &fakeFetcher{result: goodResult(1350)}
	now := fetchedAt
	svc := newTestService(t, f, nil, func() time.Time { return now })

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	now = fetchedAt.Add(7 * time.Hour)
	_, stale, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestCurrentFallsBackToSharedCache(t *testing.T) {
	cache := newFakeCache()
	writer := newTestService(t, &fakeFetcher{result: goodResult(1333)}, cache, clockAt(fetchedAt))
	_, err := writer.Refresh(context.Background())
	require.NoError(t, err)

	reader := newTestService(t, &fakeFetcher{err: errors.New("unused")}, cache, clockAt(fetchedAt))
	snap, stale, err := reader.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	rate, err := snap.RateOf(enums.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, 1333.0, rate)
}

func TestConcurrentRefreshesShareOneFetch(t *testing.T) {
	f := &fakeFetcher{result: goodResult(1350), gate: make(chan struct{})}
	svc := newTestService(t, f, nil, clockAt(fetchedAt))

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background())
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(ServiceParams{Reference: enums.CurrencyKRW})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Fetcher: &fakeFetcher{}, Reference: "EUR"})
	assert.Error(t, err)
}
