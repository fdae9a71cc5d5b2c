// Package render writes json responses and error bodies for the http api.
package render

import (
	"encoding/json"
	"net/http"

	"mrgnwatch/core"

	"github.com/fox-one/pkg/logger"
)

type H map[string]interface{}

// ErrorBody body of every non 2xx response
type ErrorBody struct {
	Code core.ErrorCode `json:"code"`
	Msg  string         `json:"msg"`
}

// JSON writes v with status 200
func JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	write(w, r, http.StatusOK, v)
}

// Error writes the error code and message with the given status
func Error(w http.ResponseWriter, r *http.Request, status int, code core.ErrorCode, err error) {
	write(w, r, status, ErrorBody{Code: code, Msg: err.Error()})
}

// NotFound unknown route
func NotFound(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusNotFound, ErrorBody{Code: core.ErrUnknown, Msg: "route " + r.URL.Path + " not found"})
}

func write(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("render json")
	}
}
