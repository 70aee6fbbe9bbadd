package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/atlekbai/expansion_explorer/internal/render"
	"github.com/atlekbai/expansion_explorer/internal/service"
)

// Runner executes a filter query for a session.
type Runner interface {
	Run(ctx context.Context, req *service.QueryRequest) (*service.Result, error)
}

type Handler struct {
	runner Runner
}

func New(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// Routes registers the plot endpoint on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/v1/plot", h.Plot).Methods(http.MethodPost)
}

// Plot handles POST /v1/plot. The body is a query request; the token may also
// be given as a bearer Authorization header. The response is a PNG line
// chart, or 204 when no readings match.
func (h *Handler) Plot(w http.ResponseWriter, r *http.Request) {
	var req service.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not a valid query", err.Error())
		return
	}
	if req.Token == "" {
		req.Token = bearerToken(r)
	}

	res, err := h.runner.Run(r.Context(), &req)
	if err != nil {
		writeRunError(w, err)
		return
	}
	if res.Series.Points() == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := render.LineChart(&buf, res.DataType, res.Series); err != nil {
		log.Printf("plot render failed: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render chart", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
