package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// SlotStore is the schedule slot persistence contract used by this handler.
// Mirrors the concrete db.SlotRepository methods used here.
type SlotStore interface {
	List(ctx context.Context) ([]types.ScheduleSlot, error)
	Get(ctx context.Context, slot string) (*types.ScheduleSlot, error)
	Upsert(ctx context.Context, slot types.ScheduleSlot) error
}

// UniformChecker verifies uniform references before they are stored on a slot.
type UniformChecker interface {
	GetUniform(ctx context.Context, id string) (*types.Uniform, error)
}

// UpsertSlotRequest is the request body for PUT /v1/slots/{slot}.
type UpsertSlotRequest struct {
	Enabled   bool   `json:"enabled"`
	UniformID string `json:"uniform_id,omitempty" validate:"omitempty,max=64"`
	PostTime  string `json:"post_time" validate:"required,slot_time"`
}

// SlotHandler manages schedule slot configuration.
type SlotHandler struct {
	slots     SlotStore
	uniforms  UniformChecker
	validator *core.Validator
	logger    *slog.Logger
}

// NewSlotHandler creates a new SlotHandler.
func NewSlotHandler(slots SlotStore, uniforms UniformChecker, v *core.Validator, l *slog.Logger) *SlotHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SlotHandler{
		slots:     slots,
		uniforms:  uniforms,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts slot routes on the provided chi.Router.
func (h *SlotHandler) RegisterRoutes(r chi.Router) {
	r.Route("/slots", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{slot}", h.Get)
		r.Put("/{slot}", h.Upsert)
	})
}

// List handles GET /v1/slots. Returns all configured slots, enabled or not.
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: slots})
}

// Get handles GET /v1/slots/{slot}.
func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "slot")

	slot, err := h.slots.Get(r.Context(), name)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if slot == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundSlot,
			"slot not found: "+name,
			nil,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: slot})
}

// Upsert handles PUT /v1/slots/{slot}.
//
// Creates or reconfigures a slot. The slot's daily firing marker is never
// touched here; reconfiguring a slot cannot make it fire twice in one day.
func (h *SlotHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "slot")

	var req UpsertSlotRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if req.UniformID != "" {
		uniform, err := h.uniforms.GetUniform(r.Context(), req.UniformID)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		if uniform == nil {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeNotFoundUniform,
				"uniform not found: "+req.UniformID,
				nil,
			))
			return
		}
	}

	slot := types.ScheduleSlot{
		Slot:      name,
		Enabled:   req.Enabled,
		UniformID: req.UniformID,
		PostTime:  req.PostTime,
	}
	if err := h.slots.Upsert(r.Context(), slot); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "schedule slot configured",
		"slot", name,
		"enabled", req.Enabled,
		"post_time", req.PostTime,
	)

	saved, err := h.slots.Get(r.Context(), name)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: saved})
}
