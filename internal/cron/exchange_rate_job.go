package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

const ExchangeRateRefreshJobName = "exchange-rate-refresh"

type snapshotRefresher interface {
	Refresh(ctx context.Context) (*currency.Snapshot, error)
}

type exchangeRateRefreshJob struct {
	rates snapshotRefresher
	logg  *logger.Logger
}

// NewExchangeRateRefreshJob fetches one snapshot per run. A failed run keeps the
// previous snapshot in service; the next tick is the next attempt.
func NewExchangeRateRefreshJob(rates snapshotRefresher, logg *logger.Logger) (Job, error) {
	if rates == nil {
		return nil, fmt.Errorf("exchange rate service required")
	}
	return &exchangeRateRefreshJob{rates: rates, logg: logg}, nil
}

func (j *exchangeRateRefreshJob) Name() string { return ExchangeRateRefreshJobName }

func (j *exchangeRateRefreshJob) Run(ctx context.Context) error {
	snap, err := j.rates.Refresh(ctx)
	if err != nil {
		return err
	}
	if j.logg != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"reference":  snap.Reference(),
			"fetched_at": snap.FetchedAt(),
		}), "exchange rate snapshot refreshed")
	}
	return nil
}
