// Package server is the HTTP front door for the prediction pipeline: price
// predictions, synchronous retraining, health, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"scrap-pricer/internal/dataset"
	"scrap-pricer/internal/ml"
)

// Metrics receives request-level signals from the handlers.
type Metrics interface {
	PredictionsInc()
	RejectsInc()
	ModelFailuresInc()
	LatencyObserve(float64)
}

// Server serves the prediction API.
type Server struct {
	manager *ml.Manager
	metrics Metrics
	http    *http.Server
}

type predictRequest struct {
	ScrapType      string  `json:"scrap_type"`
	SubCategory    string  `json:"sub_category"`
	SubSubCategory string  `json:"sub_sub_category"`
	Weight         float64 `json:"weight"`
}

type predictResponse struct {
	BasePrice      float64 `json:"base_price"`
	PredictedPrice float64 `json:"predicted_price"`
	Weight         float64 `json:"weight"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the server. Write timeout is generous because /retrain blocks
// for a full training cycle.
func New(addr string, manager *ml.Manager, metrics Metrics) *Server {
	s := &Server{manager: manager, metrics: metrics}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/predict", s.handlePredict)
	r.Post("/retrain", s.handleRetrain)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("starting prediction server")
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, "invalid request body: "+err.Error())
		return
	}

	scrapType := dataset.NormalizeScrapType(req.ScrapType)
	sub := strings.TrimSpace(req.SubCategory)
	leaf := strings.TrimSpace(req.SubSubCategory)

	// Validation happens before the model is touched.
	if scrapType == "" || sub == "" || req.Weight <= 0 || math.IsNaN(req.Weight) || math.IsInf(req.Weight, 0) {
		s.reject(w, "scrap_type, sub_category and positive weight are required")
		return
	}

	b := s.manager.Bundle()
	if b == nil {
		s.modelError(w, "no model loaded")
		return
	}

	price, err := b.PredictRow(shapeRow(b.SchemaVersion, scrapType, sub, leaf))
	if err != nil {
		log.Error().Err(err).Str("scrap_type", scrapType).Str("sub_category", sub).Msg("prediction failed")
		s.modelError(w, err.Error())
		return
	}

	base := decimal.NewFromFloat(price).Round(2)
	predicted := base.Mul(decimal.NewFromFloat(req.Weight)).Round(2)

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		s.metrics.LatencyObserve(time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, predictResponse{
		BasePrice:      base.InexactFloat64(),
		PredictedPrice: predicted.InexactFloat64(),
		Weight:         req.Weight,
	})
}

// shapeRow adapts the request to the loaded bundle's schema. Two-column
// bundles predate the sub_category feature and take the most specific
// category in the second slot; three-column bundles take all three fields,
// with the leaf category defaulting to the sub-category when absent.
func shapeRow(schema int, scrapType, sub, leaf string) []string {
	leafOrSub := leaf
	if leafOrSub == "" {
		leafOrSub = sub
	}
	if schema == ml.SchemaTwoColumn {
		return []string{scrapType, leafOrSub}
	}
	subOrNA := sub
	if subOrNA == "" {
		subOrNA = "N/A"
	}
	return []string{scrapType, subOrNA, leafOrSub}
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Retrain(r.Context()); err != nil {
		log.Error().Err(err).Msg("retrain failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retrained"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if b := s.manager.Bundle(); b != nil {
		resp["model_id"] = b.ID
		resp["schema_version"] = b.SchemaVersion
		resp["model_age_seconds"] = b.Age().Seconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	if s.metrics != nil {
		s.metrics.RejectsInc()
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) modelError(w http.ResponseWriter, msg string) {
	if s.metrics != nil {
		s.metrics.ModelFailuresInc()
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
