package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// WeatherGateway fetches the current weather bundle, served from cache when
// the snapshot is still fresh.
type WeatherGateway interface {
	FetchBundle(ctx context.Context) (*types.WeatherBundle, error)
}

// WeatherHandler exposes the current weather bundle for the admin UI.
type WeatherHandler struct {
	weather WeatherGateway
	logger  *slog.Logger
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(weather WeatherGateway, l *slog.Logger) *WeatherHandler {
	if l == nil {
		l = slog.Default()
	}
	return &WeatherHandler{weather: weather, logger: l}
}

// RegisterRoutes mounts weather routes on the provided chi.Router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.Get)
}

// Get handles GET /v1/weather. Returns current conditions, the day's
// forecast, and astronomy data as one bundle.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.weather.FetchBundle(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: bundle})
}
