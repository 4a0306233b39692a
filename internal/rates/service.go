package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/exchangerate"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/metrics"
	pkgredis "github.com/angelmondragon/landedcost/pkg/redis"
)

// ErrNoSnapshot means no exchange-rate snapshot has ever been fetched successfully.
var ErrNoSnapshot = errors.New("no exchange rate snapshot available")

const refreshKey = "refresh"

type fetcher interface {
	Fetch(ctx context.Context) (*exchangerate.Result, error)
}

// Status describes the snapshot currently served and the outcome of the last refresh.
type Status struct {
	Snapshot      *currency.Snapshot `json:"snapshot"`
	Stale         bool               `json:"stale"`
	LastError     string             `json:"lastError,omitempty"`
	LastAttemptAt *time.Time         `json:"lastAttemptAt,omitempty"`
}

type state struct {
	snapshot  *currency.Snapshot
	failed    bool
	lastErr   string
	attemptAt time.Time
}

// ServiceParams groups the collaborators of the rates service.
type ServiceParams struct {
	Fetcher   fetcher
	Cache     pkgredis.SnapshotCache
	Reference enums.Currency
	TTL       time.Duration
	Metrics   *metrics.ExchangeRateMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service holds the last good snapshot. Each snapshot is replaced whole, never edited.
type Service struct {
	fetcher   fetcher
	cache     pkgredis.SnapshotCache
	reference enums.Currency
	ttl       time.Duration
	metrics   *metrics.ExchangeRateMetrics
	logg      *logger.Logger
	now       func() time.Time

	current atomic.Pointer[state]
	group   singleflight.Group
}

// NewService validates params. Cache is optional.
func NewService(params ServiceParams) (*Service, error) {
	if params.Fetcher == nil {
		return nil, fmt.Errorf("exchange rate fetcher required")
	}
	if !params.Reference.IsValid() {
		return nil, fmt.Errorf("invalid reference currency %q", params.Reference)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		fetcher:   params.Fetcher,
		cache:     params.Cache,
		reference: params.Reference,
		ttl:       params.TTL,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Current returns the snapshot to use for one computation, preferring memory and
// falling back to the shared cache. Stale reports that the last refresh failed or
// that the snapshot is older than the configured TTL.
func (s *Service) Current(ctx context.Context) (*currency.Snapshot, bool, error) {
	prev := s.current.Load()
	if prev != nil && prev.snapshot != nil {
		return prev.snapshot, s.isStale(prev), nil
	}
	cached, err := s.loadCached(ctx)
	if err != nil {
		return nil, false, err
	}
	next := &state{snapshot: cached}
	if prev != nil {
		next.failed, next.lastErr, next.attemptAt = prev.failed, prev.lastErr, prev.attemptAt
	}
	s.current.CompareAndSwap(prev, next)
	return cached, s.isStale(next), nil
}

// Status reports the served snapshot with refresh diagnostics.
func (s *Service) Status(ctx context.Context) (Status, error) {
	snap, stale, err := s.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return Status{}, err
	}
	out := Status{Snapshot: snap, Stale: stale}
	if st := s.current.Load(); st != nil {
		out.LastError = st.lastErr
		if !st.attemptAt.IsZero() {
			at := st.attemptAt
			out.LastAttemptAt = &at
		}
	}
	if snap == nil {
		return out, ErrNoSnapshot
	}
	return out, nil
}

// Refresh fetches once and swaps the snapshot. Concurrent callers share one fetch.
// On failure the previous snapshot stays in place and is reported stale.
func (s *Service) Refresh(ctx context.Context) (*currency.Snapshot, error) {
	v, err, _ := s.group.Do(refreshKey, func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*currency.Snapshot), nil
}

func (s *Service) refresh(ctx context.Context) (*currency.Snapshot, error) {
	ref := s.reference.String()
	started := s.now()
	result, err := s.fetcher.Fetch(ctx)
	s.metrics.ObserveDuration(ref, s.now().Sub(started))

	var snap *currency.Snapshot
	if err == nil {
		snap, err = buildSnapshot(s.reference, result)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid exchange rate payload")
		}
	}
	if err != nil {
		s.metrics.IncFailure(ref)
		s.markFailed(err, started)
		if s.logg != nil {
			s.logg.Error(ctx, "exchange rate refresh failed", err)
		}
		return nil, err
	}

	s.metrics.IncSuccess(ref)
	s.current.Store(&state{snapshot: snap, attemptAt: started})
	s.storeCached(ctx, snap)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "reference", ref), "exchange rate snapshot refreshed")
	}
	return snap, nil
}

func (s *Service) markFailed(err error, at time.Time) {
	msg := err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		msg = typed.Message()
	}
	for {
		prev := s.current.Load()
		next := &state{failed: true, lastErr: msg, attemptAt: at}
		if prev != nil {
			next.snapshot = prev.snapshot
		}
		if s.current.CompareAndSwap(prev, next) {
			return
		}
	}
}

func (s *Service) isStale(st *state) bool {
	if st == nil || st.snapshot == nil {
		return false
	}
	if st.failed {
		return true
	}
	return s.ttl > 0 && s.now().Sub(st.snapshot.FetchedAt()) > s.ttl
}

func (s *Service) loadCached(ctx context.Context) (*currency.Snapshot, error) {
	if s.cache == nil {
		return nil, ErrNoSnapshot
	}
	raw, err := s.cache.Get(ctx, s.cache.ExchangeRateKey(s.reference.String()))
	if err != nil {
		if !pkgredis.IsMiss(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate cache read failed")
		}
		return nil, ErrNoSnapshot
	}
	var snap currency.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate cache entry is invalid")
		}
		return nil, ErrNoSnapshot
	}
	if snap.Reference() != s.reference {
		return nil, ErrNoSnapshot
	}
	return &snap, nil
}

func (s *Service) storeCached(ctx context.Context, snap *currency.Snapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ExchangeRateKey(s.reference.String()), string(payload), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate cache write failed")
	}
}

func buildSnapshot(reference enums.Currency, result *exchangerate.Result) (*currency.Snapshot, error) {
	if result == nil {
		return nil, fmt.Errorf("empty exchange rate result")
	}
	history := make([]currency.DailyRate, 0, len(result.History))
	for _, h := range result.History {
		history = append(history, currency.DailyRate{Date: h.Date, Currency: h.Currency, Rate: h.Rate})
	}
	rates := make(map[enums.Currency]float64, len(result.Rates))
	for c, r := range result.Rates {
		if c == reference {
			continue
		}
		rates[c] = r
	}
	return currency.NewSnapshot(reference, rates, history, result.FetchedAt)
}
