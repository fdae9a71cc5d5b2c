package handler

import (
	"net/http"

	"mrgnwatch/core"
	"mrgnwatch/handler/hc"
	"mrgnwatch/handler/rest"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server server
type Server struct {
	healthz core.IHealthService
	clock   hc.ClockReader
	version string
}

// New new server function
func New(
	healthz core.IHealthService,
	clock hc.ClockReader,
	version string,
) Server {
	return Server{
		healthz: healthz,
		clock:   clock,
		version: version,
	}
}

// Handler api mux: /hc, /metrics and the rest api under /api
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)
	mux.Use(middleware.NewCompressor(5).Handler)

	mux.Mount("/hc", hc.Handle(s.version, s.clock))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Mount("/api", rest.Handle(s.healthz))

	return mux
}
