package rest

import (
	"net/http"

	"mrgnwatch/core"
	"mrgnwatch/handler/render"
	"mrgnwatch/internal/marginfi"
)

type bankView struct {
	Bank    *marginfi.Bank        `json:"bank"`
	Summary *marginfi.BankSummary `json:"summary"`
}

func accountHealthHandler(healthz core.IHealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := keyParam(r)
		if err != nil {
			renderError(w, r, err)
			return
		}

		report, err := healthz.Evaluate(r.Context(), key)
		if err != nil {
			renderError(w, r, err)
			return
		}

		render.JSON(w, r, report)
	}
}

func accountHandler(healthz core.IHealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := keyParam(r)
		if err != nil {
			renderError(w, r, err)
			return
		}

		account, err := healthz.Account(r.Context(), key)
		if err != nil {
			renderError(w, r, err)
			return
		}

		render.JSON(w, r, account)
	}
}

func bankHandler(healthz core.IHealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := keyParam(r)
		if err != nil {
			renderError(w, r, err)
			return
		}

		bank, err := healthz.Bank(r.Context(), key)
		if err != nil {
			renderError(w, r, err)
			return
		}

		summary, err := bank.Summary()
		if err != nil {
			renderError(w, r, err)
			return
		}

		render.JSON(w, r, bankView{Bank: bank, Summary: summary})
	}
}
