package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/atlekbai/expansion_explorer/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// writeRunError reports a failed query with the status its connect code implies.
func writeRunError(w http.ResponseWriter, err error) {
	code := service.Code(err)
	writeError(w, httpStatus(code), strings.ToUpper(code.String()), "Query failed", err.Error())
}

func httpStatus(code connect.Code) int {
	switch code {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	case connect.CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case connect.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
