package rest

import (
	"errors"
	"net/http"

	"mrgnwatch/core"
	"mrgnwatch/handler/render"
	"mrgnwatch/internal/health"
	"mrgnwatch/internal/oracle"
	"mrgnwatch/pkg/fixed"
	"mrgnwatch/pkg/layout"

	"github.com/fox-one/pkg/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(healthz core.IHealthService) http.Handler {
	router := chi.NewRouter()

	router.NotFound(render.NotFound)

	router.Route("/accounts/{key}", func(r chi.Router) {
		r.Get("/", accountHandler(healthz))
		r.Get("/health", accountHealthHandler(healthz))
	})
	router.Get("/banks/{key}", bankHandler(healthz))

	return router
}

func keyParam(r *http.Request) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, "key"))
	if err != nil {
		return key, core.ErrInvalidAccountKey
	}
	return key, nil
}

// renderError maps service errors onto status codes
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var code core.ErrorCode
	if !errors.As(err, &code) {
		code = core.ErrUnknown
	}

	var (
		positionErr *health.PositionError
		lookupErr   *health.LookupError
		oracleErr   *oracle.Error
		decodeErr   *layout.DecodeError
	)

	switch {
	case code == core.ErrInvalidAccountKey:
		render.Error(w, r, http.StatusBadRequest, code, err)
	case code == core.ErrAccountNotFound, code == core.ErrBankNotFound:
		render.Error(w, r, http.StatusNotFound, code, err)
	case code == core.ErrNotMarginfiAccount:
		render.Error(w, r, http.StatusUnprocessableEntity, code, err)
	case errors.As(err, &positionErr), errors.As(err, &lookupErr), errors.As(err, &oracleErr),
		errors.As(err, &decodeErr), errors.Is(err, fixed.ErrArithmetic):
		render.Error(w, r, http.StatusUnprocessableEntity, core.ErrEvaluationFailed, err)
	default:
		logger.FromContext(r.Context()).WithError(err).Errorln("rest api")
		render.Error(w, r, http.StatusInternalServerError, core.ErrUnknown, err)
	}
}
