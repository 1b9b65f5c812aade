// Package handlers contains the HTTP handler implementations for the
// uniform recommendation API.
//
// This file implements the recommendation workflow endpoints:
//   - Trigger (run the evaluation pipeline and persist a pending recommendation)
//   - Preview (run the pipeline without persisting)
//   - Get, List
//   - Approve and Reject with actor attribution
//   - Route registration
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/recommendation"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// defaultListLimit caps unfiltered listings.
const defaultListLimit = 50

// RecommendationService is the workflow contract this handler drives.
// Mirrors the concrete recommendation.Service methods used here.
type RecommendationService interface {
	Evaluate(ctx context.Context) (*recommendation.Evaluation, error)
	Create(ctx context.Context, params recommendation.CreateParams) (*recommendation.CreateResult, error)
	Get(ctx context.Context, id string) (*types.Recommendation, error)
	List(ctx context.Context, filter recommendation.ListFilter) ([]*types.Recommendation, error)
	Approve(ctx context.Context, id string, params recommendation.ApproveParams) (*types.Recommendation, error)
	Reject(ctx context.Context, id string, params recommendation.RejectParams) (*types.Recommendation, error)
}

// SlotChecker verifies that a slot name refers to a configured schedule slot.
type SlotChecker interface {
	Get(ctx context.Context, slot string) (*types.ScheduleSlot, error)
}

// --- Request Models ---

// TriggerRecommendationRequest is the request body for POST /v1/recommendations/trigger.
type TriggerRecommendationRequest struct {
	Slot  string `json:"slot" validate:"required,max=50"`
	Force bool   `json:"force"`
}

// ApproveRecommendationRequest carries optional overrides for the generated
// announcement.
type ApproveRecommendationRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=4000"`
}

// RejectRecommendationRequest carries the optional rejection reason.
type RejectRecommendationRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// --- Handler ---

// RecommendationHandler exposes the recommendation workflow over HTTP.
type RecommendationHandler struct {
	service   RecommendationService
	slots     SlotChecker
	validator *core.Validator
	logger    *slog.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(
	service RecommendationService,
	slots SlotChecker,
	v *core.Validator,
	l *slog.Logger,
) *RecommendationHandler {
	if l == nil {
		l = slog.Default()
	}
	return &RecommendationHandler{
		service:   service,
		slots:     slots,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts recommendation routes on the provided chi.Router.
func (h *RecommendationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/recommendations", func(r chi.Router) {
		r.Post("/trigger", h.Trigger)
		r.Get("/preview", h.Preview)
		r.Get("/", h.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/approve", h.Approve)
			r.Post("/reject", h.Reject)
		})
	})
}

// Trigger handles POST /v1/recommendations/trigger.
//
// Runs the full evaluation pipeline and persists a pending recommendation
// for (slot, today). Returns 201 when a recommendation was created, 200 when
// the run concluded without one (duplicate pair, nothing to recommend).
func (h *RecommendationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRecommendationRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	// The slot must refer to a configured schedule slot; forced runs are not
	// exempt.
	slot, err := h.slots.Get(r.Context(), req.Slot)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if slot == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidSlot,
			"slot is not configured: "+req.Slot,
			nil,
		))
		return
	}

	result, err := h.service.Create(r.Context(), recommendation.CreateParams{
		Slot:  req.Slot,
		Force: req.Force,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Status == recommendation.CreateStatusCreated {
		status = http.StatusCreated
	}
	core.JSON(w, r, status, core.APIResponse{Data: result})
}

// Preview handles GET /v1/recommendations/preview.
//
// Runs the evaluation pipeline without persisting anything, so operators can
// inspect what a trigger would produce.
func (h *RecommendationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	eval, err := h.service.Evaluate(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: eval})
}

// Get handles GET /v1/recommendations/{id}.
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: rec})
}

// List handles GET /v1/recommendations.
//
// Query parameters: status (pending|approved|rejected), from and to
// (inclusive YYYY-MM-DD bounds on target date), limit.
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	recs, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: recs})
}

// Approve handles POST /v1/recommendations/{id}/approve.
//
// The acting user comes from the request context; the response carries the
// approved recommendation with its announcement link.
func (h *RecommendationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := decodeOptionalBody[ApproveRecommendationRequest](w, r, h.validator)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := h.service.Approve(r.Context(), id, recommendation.ApproveParams{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: rec})
}

// Reject handles POST /v1/recommendations/{id}/reject.
func (h *RecommendationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := decodeOptionalBody[RejectRecommendationRequest](w, r, h.validator)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := h.service.Reject(r.Context(), id, recommendation.RejectParams{
		Reason: req.Reason,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: rec})
}

// parseListFilter builds a ListFilter from query parameters, rejecting
// malformed values before they reach the repository.
func parseListFilter(r *http.Request) (recommendation.ListFilter, error) {
	filter := recommendation.ListFilter{Limit: defaultListLimit}
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		switch types.RecommendationStatus(status) {
		case types.RecommendationPending, types.RecommendationApproved, types.RecommendationRejected:
			filter.Status = types.RecommendationStatus(status)
		default:
			return filter, types.NewAppError(
				types.ErrCodeValidationInvalidPayload,
				"status must be one of: pending, approved, rejected",
				nil,
			)
		}
	}

	for _, bound := range []struct {
		param string
		dst   *string
	}{
		{"from", &filter.FromDate},
		{"to", &filter.ToDate},
	} {
		if v := q.Get(bound.param); v != "" {
			if !validDate(v) {
				return filter, types.NewAppError(
					types.ErrCodeValidationInvalidDate,
					bound.param+" must be a date in YYYY-MM-DD form",
					nil,
				)
			}
			*bound.dst = v
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, types.NewAppError(
				types.ErrCodeValidationInvalidPayload,
				"limit must be a positive integer",
				nil,
			)
		}
		filter.Limit = limit
	}

	return filter, nil
}

// validDate reports whether the value parses as a calendar date in the
// recommendation target-date format.
func validDate(v string) bool {
	_, err := time.Parse(types.DateFormat, v)
	return err == nil
}

// decodeOptionalBody decodes and validates a JSON body, treating an empty
// body as the zero request. Approve and reject bodies are entirely optional.
func decodeOptionalBody[T any](w http.ResponseWriter, r *http.Request, v *core.Validator) (T, error) {
	var req T
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	if err := core.DecodeJSON(w, r, &req); err != nil {
		return req, err
	}
	if err := v.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}
