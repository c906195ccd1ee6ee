// internal/handler/handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/SyedDaiam9101/algosvc/internal/codec"
	"github.com/SyedDaiam9101/algosvc/internal/middleware"
	"github.com/SyedDaiam9101/algosvc/internal/pipeline"
)

const (
	// ServiceName is reported by GET /version.
	ServiceName = "algosvc"
	// ElapsedHeader carries the kernel time of a POST /infer call.
	ElapsedHeader = "x-elapsed-ns"

	defaultMaxBodyBytes int64 = 1 << 20
)

// VersionInfo is the body of GET /version.
type VersionInfo struct {
	Service     string `json:"service"`
	AlgoVersion string `json:"algoVersion"`
	LibPath     string `json:"libPath"`
}

// Options tunes the HTTP front end.
type Options struct {
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// Handler maps HTTP requests onto the pipeline. It keeps no per-request state.
type Handler struct {
	pipeline    *pipeline.Pipeline
	versionBody []byte
	maxBody     int64
}

// New builds the router for the service front end.
func New(info VersionInfo, p *pipeline.Pipeline, opts Options) http.Handler {
	if info.Service == "" {
		info.Service = ServiceName
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	versionBody, _ := json.Marshal(info)

	h := &Handler{
		pipeline:    p,
		versionBody: versionBody,
		maxBody:     opts.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/health/live", h.health)
	r.Get("/health/ready", h.health)
	r.Get("/version", h.version)
	r.Post("/infer", h.infer)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.versionBody)
}

func (h *Handler) infer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res, err := h.pipeline.Process(r.Context(), body, codec.ServiceEnvelope)
	if err != nil {
		status := httpStatus(err)
		ev := hlog.FromRequest(r).Warn()
		if status >= http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Error()
		}
		ev.Str("kind", pipeline.KindOf(err).String()).Err(err).Msg("infer failed")
		writeJSONError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ElapsedHeader, strconv.FormatInt(res.Response.ElapsedNanos, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}

func accessLog(r *http.Request, status, size int, dur time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("route", middleware.RoutePattern(r)).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("dur", dur).
		Msg("request")
}
