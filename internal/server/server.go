package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/metrics"
	"github.com/iwvelando/park-planner/internal/optimizer"
	"github.com/iwvelando/park-planner/internal/store"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/optimization"
	"github.com/iwvelando/park-planner/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options wires the handler to the planner.
type Options struct {
	Runner          *optimizer.Runner
	Store           store.Store
	DefaultStrategy string
	MaxRequestSize  int64
	Version         string
}

type handler struct {
	logger          *zap.Logger
	runner          *optimizer.Runner
	store           store.Store
	defaultStrategy string
	maxRequestSize  int64
	version         string
	validate        *validator.Validate
}

// NewHandler constructs the HTTP handler that serves the planner API and
// Prometheus metrics. opts.Runner and opts.Store are required.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:          logger,
		runner:          opts.Runner,
		store:           opts.Store,
		defaultStrategy: strings.ToLower(strings.TrimSpace(opts.DefaultStrategy)),
		maxRequestSize:  opts.MaxRequestSize,
		version:         trimmedVersion,
		validate:        validator.New(),
	}

	mux := http.NewServeMux()

	// Optimize an inline trip
	mux.HandleFunc("POST /api/optimize", h.handleOptimize)

	// Stored trips
	mux.HandleFunc("GET /api/trips/{id}", h.handleGetTrip)
	mux.HandleFunc("PUT /api/trips/{id}", h.handlePutTrip)
	mux.HandleFunc("GET /api/trips/{id}/export", h.handleExportTrip)
	mux.HandleFunc("POST /api/trips/{id}/optimize", h.handleOptimizeStored)
	mux.HandleFunc("POST /api/trips/{id}/apply", h.handleApply)

	// Version endpoint for client metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return instrument(mux)
}

// optimizeRequest is the body of POST /api/optimize.
type optimizeRequest struct {
	Trip        config.TripConfig     `json:"trip"`
	Ratings     []config.RatingConfig `json:"ratings,omitempty" validate:"dive"`
	Strategy    string                `json:"strategy,omitempty"`
	Constraints []lockOverride        `json:"constraints,omitempty" validate:"dive"`
}

// storedOptimizeRequest is the optional body of POST /api/trips/{id}/optimize.
type storedOptimizeRequest struct {
	Strategy    string         `json:"strategy,omitempty"`
	Constraints []lockOverride `json:"constraints,omitempty" validate:"dive"`
}

type lockOverride struct {
	DayID  string `json:"dayId" validate:"required"`
	Locked bool   `json:"locked"`
}

// tripRequest is the body of PUT /api/trips/{id}.
type tripRequest struct {
	Trip    config.TripConfig     `json:"trip"`
	Ratings []config.RatingConfig `json:"ratings,omitempty" validate:"dive"`
}

// applyRequest carries the chosen assignments, usually an alternative's.
type applyRequest struct {
	Assignments []applyAssignment `json:"assignments" validate:"required,min=1,dive"`
}

type applyAssignment struct {
	DayID         string `json:"dayId" validate:"required"`
	DestinationID string `json:"destinationId"`
}

type tripResponse struct {
	Trip    config.TripConfig     `json:"trip"`
	Ratings []config.RatingConfig `json:"ratings,omitempty"`
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"

	var req optimizeRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	t, err := req.Trip.ToTrip()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	ratings, err := config.ToRatings(req.Ratings)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.runOptimization(w, r, optimizer.Request{
		Trip:        t,
		Ratings:     ratings,
		Strategy:    req.Strategy,
		Constraints: toOverrides(req.Constraints),
	}, op)
}

func (h *handler) handleOptimizeStored(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimizeStored"

	// The body is optional; an empty one, chunked or not, runs with defaults.
	var req storedOptimizeRequest
	if r.Body != nil && r.Body != http.NoBody {
		if !h.decodeOptional(w, r, &req, op) {
			return
		}
	}

	t, ratings, ok := h.loadTrip(w, r, op)
	if !ok {
		return
	}

	h.runOptimization(w, r, optimizer.Request{
		Trip:        t,
		Ratings:     ratings,
		Strategy:    req.Strategy,
		Constraints: toOverrides(req.Constraints),
	}, op)
}

func (h *handler) runOptimization(w http.ResponseWriter, r *http.Request, req optimizer.Request, op string) {
	req.Strategy = strings.ToLower(strings.TrimSpace(req.Strategy))
	if req.Strategy == "" {
		req.Strategy = h.defaultStrategy
	}
	if err := validation.ValidateStrategy(req.Strategy); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		var invalid *trip.ValidationError
		if errors.As(err, &invalid) {
			h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("optimization failed: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetTrip"

	t, ratings, ok := h.loadTrip(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, tripResponse{Trip: config.TripFromDomain(t), Ratings: ratingsFromDomain(ratings)})
}

func (h *handler) handlePutTrip(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutTrip"

	var req tripRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	id := r.PathValue("id")
	if req.Trip.ID == "" {
		req.Trip.ID = id
	}
	if req.Trip.ID != id {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("trip id %q does not match path id %q", req.Trip.ID, id), op)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	t, err := req.Trip.ToTrip()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	ratings, err := config.ToRatings(req.Ratings)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if err := h.store.SaveTrip(r.Context(), t); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save trip: %v", err), op)
		return
	}
	if err := h.store.SaveRatings(r.Context(), t.ID, ratings); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save ratings: %v", err), op)
		return
	}

	h.logger.Info("trip saved",
		zap.String("op", op),
		zap.String("trip", t.ID),
		zap.Int("days", len(t.Days)),
		zap.Int("ratings", len(ratings)),
	)
	h.writeJSON(w, http.StatusOK, tripResponse{Trip: config.TripFromDomain(t), Ratings: ratingsFromDomain(ratings)})
}

// handleExportTrip renders a stored trip as a planner configuration fragment
// that can be pasted into config.yaml.
func (h *handler) handleExportTrip(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportTrip"

	t, ratings, ok := h.loadTrip(w, r, op)
	if !ok {
		return
	}

	tc := config.TripFromDomain(t)
	fragment := config.Configuration{Trip: &tc, Ratings: ratingsFromDomain(ratings)}
	out, err := yaml.Marshal(fragment)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode trip: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleApply(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleApply"

	var req applyRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	t, _, ok := h.loadTrip(w, r, op)
	if !ok {
		return
	}

	alt := optimization.Alternative{Assignments: make([]optimization.Assignment, 0, len(req.Assignments))}
	for _, a := range req.Assignments {
		alt.Assignments = append(alt.Assignments, optimization.Assignment{DayID: a.DayID, DestinationID: a.DestinationID})
	}
	t.Days = optimizer.Apply(t.Days, alt)

	if err := h.store.UpdateDestinations(r.Context(), t.ID, t.Days); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to apply assignments: %v", err), op)
		return
	}

	h.logger.Info("assignments applied",
		zap.String("op", op),
		zap.String("trip", t.ID),
		zap.Int("assignments", len(req.Assignments)),
	)
	h.writeJSON(w, http.StatusOK, tripResponse{Trip: config.TripFromDomain(t)})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadTrip fetches the trip named by the path and its ratings, writing the
// error response itself when it fails.
func (h *handler) loadTrip(w http.ResponseWriter, r *http.Request, op string) (trip.Trip, []trip.RatingSummary, bool) {
	id := r.PathValue("id")
	t, err := h.store.GetTrip(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("trip %s not found", id), op)
			return trip.Trip{}, nil, false
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load trip: %v", err), op)
		return trip.Trip{}, nil, false
	}
	ratings, err := h.store.ListRatings(r.Context(), id)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load ratings: %v", err), op)
		return trip.Trip{}, nil, false
	}
	return t, ratings, true
}

// decode reads a size-limited JSON body into dst and validates it.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if !h.decodeJSON(w, r, dst, op) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return false
	}
	return true
}

// decodeOptional is decode for bodies that may be empty.
func (h *handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if !h.decodeBody(w, r, dst, op, true) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return false
	}
	return true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	return h.decodeBody(w, r, dst, op, false)
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("planner request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func toOverrides(in []lockOverride) []optimizer.LockOverride {
	if len(in) == 0 {
		return nil
	}
	out := make([]optimizer.LockOverride, 0, len(in))
	for _, o := range in {
		out = append(out, optimizer.LockOverride{DayID: o.DayID, Locked: o.Locked})
	}
	return out
}

func ratingsFromDomain(ratings []trip.RatingSummary) []config.RatingConfig {
	if len(ratings) == 0 {
		return nil
	}
	out := make([]config.RatingConfig, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, config.RatingConfig{
			Destination:   r.DestinationID,
			Activity:      r.ActivityID,
			AverageRating: r.AverageRating,
			MustDoCount:   r.MustDoCount,
			Consensus:     string(r.Consensus),
		})
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latencies by route pattern.
func instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		} else if _, after, ok := strings.Cut(path, " "); ok {
			path = after
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
