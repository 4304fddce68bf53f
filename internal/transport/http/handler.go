// Package http exposes the KPI and chart surface over chi. Handlers are a
// thin shell: parameter validation, error mapping, JSON rendering.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "practicepulse/internal/errors"
	"practicepulse/internal/orchestrator"
	"practicepulse/pkg/contracts/domain"
)

// KPIService is the orchestrator surface the handler consumes.
type KPIService interface {
	GetKPIs(ctx context.Context, location string) (*domain.KPIResponse, error)
	GetCombinedKPIs(ctx context.Context, locations []string) (*domain.KPIResponse, error)
	GetChartData(ctx context.Context, location string, metric domain.Metric, timeframe domain.AggregationLevel) (*domain.TimeSeriesData, error)
	GetAllChartData(ctx context.Context, location string, timeframe domain.AggregationLevel) (*domain.ChartCollection, error)
	SourceAvailability(ctx context.Context) map[string]bool
}

// Handler serves the dashboard API.
type Handler struct {
	service KPIService
	logger  *slog.Logger
}

// NewHandler builds a handler over the service.
func NewHandler(service KPIService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With(slog.String("component", "http_handler")),
	}
}

// Routes returns the API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/kpis", func(r chi.Router) {
		r.Get("/combined", h.GetCombinedKPIs)
		r.Get("/{location}", h.GetKPIs)
	})
	r.Route("/charts/{location}", func(r chi.Router) {
		r.Get("/", h.GetAllChartData)
		r.Get("/{metric}", h.GetChartData)
	})
	r.Get("/health", h.GetHealth)

	return r
}

// GetKPIs serves GET /kpis/{location}.
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")

	resp, err := h.service.GetKPIs(r.Context(), location)
	if err != nil {
		h.renderError(w, r, location, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetCombinedKPIs serves GET /kpis/combined?locations=a,b. Without the
// parameter every configured location is included.
func (h *Handler) GetCombinedKPIs(w http.ResponseWriter, r *http.Request) {
	var locations []string
	if raw := r.URL.Query().Get("locations"); raw != "" {
		for _, loc := range strings.Split(raw, ",") {
			if loc = strings.TrimSpace(loc); loc != "" {
				locations = append(locations, loc)
			}
		}
	}

	resp, err := h.service.GetCombinedKPIs(r.Context(), locations)
	if err != nil {
		h.renderError(w, r, strings.Join(locations, ","), err)
		return
	}
	render.JSON(w, r, resp)
}

// GetChartData serves GET /charts/{location}/{metric}?timeframe=weekly.
func (h *Handler) GetChartData(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")

	metric := domain.Metric(chi.URLParam(r, "metric"))
	if !metric.Valid() {
		render.Render(w, r, apierrors.UnknownMetricError(string(metric)))
		return
	}

	timeframe, ok := parseTimeframe(r)
	if !ok {
		render.Render(w, r, apierrors.InvalidTimeframeError(r.URL.Query().Get("timeframe")))
		return
	}

	series, err := h.service.GetChartData(r.Context(), location, metric, timeframe)
	if err != nil {
		h.renderError(w, r, location, err)
		return
	}
	render.JSON(w, r, series)
}

// GetAllChartData serves GET /charts/{location}?timeframe=daily.
func (h *Handler) GetAllChartData(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")

	timeframe, ok := parseTimeframe(r)
	if !ok {
		render.Render(w, r, apierrors.InvalidTimeframeError(r.URL.Query().Get("timeframe")))
		return
	}

	collection, err := h.service.GetAllChartData(r.Context(), location, timeframe)
	if err != nil {
		h.renderError(w, r, location, err)
		return
	}
	render.JSON(w, r, collection)
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Sources   map[string]bool `json:"sources"`
}

// GetHealth serves GET /health with per-source availability.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	sources := h.service.SourceAvailability(r.Context())

	status := "ok"
	for _, available := range sources {
		if !available {
			status = "degraded"
			break
		}
	}

	render.JSON(w, r, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Sources:   sources,
	})
}

func parseTimeframe(r *http.Request) (domain.AggregationLevel, bool) {
	raw := r.URL.Query().Get("timeframe")
	if raw == "" {
		return domain.AggregationDaily, true
	}
	level := domain.AggregationLevel(strings.ToLower(raw))
	return level, level.Valid()
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, location string, err error) {
	if errors.Is(err, orchestrator.ErrUnknownLocation) {
		render.Render(w, r, apierrors.UnknownLocationError(location))
		return
	}

	h.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	render.Render(w, r, apierrors.ErrInternalServer)
}
