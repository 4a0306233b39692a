package controllers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/pkg/config"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LandedCost-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency concurrently and reports each
// one. Any failure turns the response into DEPENDENCY_ERROR. Nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dependencies map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LandedCost-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			checks = make(map[string]string, len(dependencies))
			failed error
		)
		group, groupCtx := errgroup.WithContext(ctx)
		for name, p := range dependencies {
			if p == nil {
				continue
			}
			name, p := name, p
			group.Go(func() error {
				err := p.Ping(groupCtx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					checks[name] = "unavailable"
					failed = multierr.Append(failed, fmt.Errorf("%s: %w", name, err))
					return nil
				}
				checks[name] = "ok"
				return nil
			})
		}
		_ = group.Wait()

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
