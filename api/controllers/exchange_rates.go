package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/internal/rates"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

// ExchangeRateService is implemented by rates.Service.
type ExchangeRateService interface {
	Status(ctx context.Context) (rates.Status, error)
	Refresh(ctx context.Context) (*currency.Snapshot, error)
}

// ExchangeRatesCurrent reports the snapshot in use. With no snapshot yet the
// response carries a null snapshot instead of an error.
func ExchangeRatesCurrent(svc ExchangeRateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status, err := svc.Status(ctx)
		if err != nil && !errors.Is(err, rates.ErrNoSnapshot) {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// ExchangeRatesRefresh fetches once. A failed fetch is reported and the previous
// snapshot stays in use.
func ExchangeRatesRefresh(svc ExchangeRateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := svc.Refresh(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := svc.Status(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
