package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// UniformStore is the uniform catalog contract used by this handler.
type UniformStore interface {
	List(ctx context.Context) ([]types.Uniform, error)
	GetUniform(ctx context.Context, id string) (*types.Uniform, error)
}

// UniformHandler exposes the read-only uniform catalog.
type UniformHandler struct {
	uniforms UniformStore
	logger   *slog.Logger
}

// NewUniformHandler creates a new UniformHandler.
func NewUniformHandler(uniforms UniformStore, l *slog.Logger) *UniformHandler {
	if l == nil {
		l = slog.Default()
	}
	return &UniformHandler{uniforms: uniforms, logger: l}
}

// RegisterRoutes mounts uniform catalog routes on the provided chi.Router.
func (h *UniformHandler) RegisterRoutes(r chi.Router) {
	r.Route("/uniforms", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

// List handles GET /v1/uniforms.
func (h *UniformHandler) List(w http.ResponseWriter, r *http.Request) {
	uniforms, err := h.uniforms.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: uniforms})
}

// Get handles GET /v1/uniforms/{id}.
func (h *UniformHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	uniform, err := h.uniforms.GetUniform(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if uniform == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundUniform,
			"uniform not found: "+id,
			nil,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: uniform})
}
