package hc

import (
	"context"
	"net/http"
	"time"

	"mrgnwatch/core"
	"mrgnwatch/handler/render"
	"mrgnwatch/internal/oracle"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// ClockReader the clock sysvar source, usually the rpc account fetcher
type ClockReader interface {
	GetClock(ctx context.Context) (oracle.Clock, error)
}

// Handle handle hc request. With a clock reader the response also carries the
// node's slot and how far its clock lags behind ours.
func Handle(ver string, clock ClockReader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Handle("/", handle(ver, clock))
	return r
}

func handle(version string, clock ClockReader) http.HandlerFunc {
	b := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(b).Truncate(time.Millisecond)
		resp := render.H{
			"uptime":  uptime.String(),
			"version": version,
		}

		if clock != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			c, err := clock.GetClock(ctx)
			if err != nil {
				render.Error(w, r, http.StatusServiceUnavailable, core.ErrUnknown, err)
				return
			}

			resp["slot"] = c.Slot
			resp["clock_lag"] = time.Since(c.Time()).Truncate(time.Second).String()
		}

		render.JSON(w, r, resp)
	}
}
