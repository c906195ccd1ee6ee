// internal/handler/errors.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/SyedDaiam9101/algosvc/internal/pipeline"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// httpStatus maps pipeline failures to HTTP status codes
func httpStatus(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindBadRequest:
		return http.StatusBadRequest
	case pipeline.KindKernelFailure, pipeline.KindEncodeFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: status})
}
