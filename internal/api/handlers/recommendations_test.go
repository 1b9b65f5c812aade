package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/recommendation"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// =============================================================================
// Shared test helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testValidator(t *testing.T) *core.Validator {
	t.Helper()
	return core.NewValidator(testLogger())
}

// newRouter mounts the handler's routes on a bare chi router so URL params
// resolve the same way they do in production.
func newRouter(register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp.Error.Code
}

// =============================================================================
// Mock implementations
// =============================================================================

type mockRecService struct {
	evaluateFn func(ctx context.Context) (*recommendation.Evaluation, error)
	createFn   func(ctx context.Context, params recommendation.CreateParams) (*recommendation.CreateResult, error)
	getFn      func(ctx context.Context, id string) (*types.Recommendation, error)
	listFn     func(ctx context.Context, filter recommendation.ListFilter) ([]*types.Recommendation, error)
	approveFn  func(ctx context.Context, id string, params recommendation.ApproveParams) (*types.Recommendation, error)
	rejectFn   func(ctx context.Context, id string, params recommendation.RejectParams) (*types.Recommendation, error)

	// Track calls for assertions.
	lastCreateParams  *recommendation.CreateParams
	lastApproveParams *recommendation.ApproveParams
	lastRejectParams  *recommendation.RejectParams
	lastListFilter    *recommendation.ListFilter
}

func (m *mockRecService) Evaluate(ctx context.Context) (*recommendation.Evaluation, error) {
	if m.evaluateFn != nil {
		return m.evaluateFn(ctx)
	}
	return &recommendation.Evaluation{UniformID: "u1"}, nil
}

func (m *mockRecService) Create(ctx context.Context, params recommendation.CreateParams) (*recommendation.CreateResult, error) {
	m.lastCreateParams = &params
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return &recommendation.CreateResult{
		Status:         recommendation.CreateStatusCreated,
		Recommendation: testRecommendation("rec_1"),
	}, nil
}

func (m *mockRecService) Get(ctx context.Context, id string) (*types.Recommendation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return testRecommendation(id), nil
}

func (m *mockRecService) List(ctx context.Context, filter recommendation.ListFilter) ([]*types.Recommendation, error) {
	m.lastListFilter = &filter
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*types.Recommendation{testRecommendation("rec_1")}, nil
}

func (m *mockRecService) Approve(ctx context.Context, id string, params recommendation.ApproveParams) (*types.Recommendation, error) {
	m.lastApproveParams = &params
	if m.approveFn != nil {
		return m.approveFn(ctx, id, params)
	}
	rec := testRecommendation(id)
	rec.Status = types.RecommendationApproved
	return rec, nil
}

func (m *mockRecService) Reject(ctx context.Context, id string, params recommendation.RejectParams) (*types.Recommendation, error) {
	m.lastRejectParams = &params
	if m.rejectFn != nil {
		return m.rejectFn(ctx, id, params)
	}
	rec := testRecommendation(id)
	rec.Status = types.RecommendationRejected
	return rec, nil
}

type mockSlotChecker struct {
	getFn func(ctx context.Context, slot string) (*types.ScheduleSlot, error)
}

func (m *mockSlotChecker) Get(ctx context.Context, slot string) (*types.ScheduleSlot, error) {
	if m.getFn != nil {
		return m.getFn(ctx, slot)
	}
	return &types.ScheduleSlot{Slot: slot, Enabled: true, PostTime: "06:30"}, nil
}

func testRecommendation(id string) *types.Recommendation {
	now := time.Date(2026, 3, 15, 5, 30, 0, 0, time.UTC)
	return &types.Recommendation{
		ID:         id,
		Status:     types.RecommendationPending,
		Slot:       "breakfast",
		TargetDate: "2026-03-15",
		UniformID:  "u1",
		ExpiresAt:  now.Add(6 * time.Hour),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func newRecRouter(t *testing.T, svc *mockRecService, slots *mockSlotChecker) *chi.Mux {
	t.Helper()
	if slots == nil {
		slots = &mockSlotChecker{}
	}
	h := NewRecommendationHandler(svc, slots, testValidator(t), testLogger())
	return newRouter(h.RegisterRoutes)
}

// =============================================================================
// Trigger
// =============================================================================

func TestTrigger_Created(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/trigger",
		TriggerRecommendationRequest{Slot: "breakfast"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.lastCreateParams)
	assert.Equal(t, "breakfast", svc.lastCreateParams.Slot)
	assert.False(t, svc.lastCreateParams.Force)
}

func TestTrigger_ForcePassedThrough(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	doJSON(t, router, http.MethodPost, "/recommendations/trigger",
		TriggerRecommendationRequest{Slot: "dinner", Force: true})

	require.NotNil(t, svc.lastCreateParams)
	assert.True(t, svc.lastCreateParams.Force)
}

func TestTrigger_SkippedReturns200(t *testing.T) {
	svc := &mockRecService{
		createFn: func(ctx context.Context, params recommendation.CreateParams) (*recommendation.CreateResult, error) {
			return &recommendation.CreateResult{
				Status: recommendation.CreateStatusSkipped,
				Reason: "a non-terminal recommendation already exists for breakfast on 2026-03-15",
			}, nil
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/trigger",
		TriggerRecommendationRequest{Slot: "breakfast"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skipped")
}

func TestTrigger_MissingSlotIs400(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/trigger", map[string]any{"force": true})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), errorCode(t, rec))
	assert.Nil(t, svc.lastCreateParams, "service must not be called on invalid input")
}

func TestTrigger_UnknownSlotIs400(t *testing.T) {
	svc := &mockRecService{}
	slots := &mockSlotChecker{
		getFn: func(ctx context.Context, slot string) (*types.ScheduleSlot, error) {
			return nil, nil
		},
	}
	router := newRecRouter(t, svc, slots)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/trigger",
		TriggerRecommendationRequest{Slot: "brunch"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidSlot), errorCode(t, rec))
}

func TestTrigger_ServiceErrorMapped(t *testing.T) {
	svc := &mockRecService{
		createFn: func(ctx context.Context, params recommendation.CreateParams) (*recommendation.CreateResult, error) {
			return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weather provider unavailable", nil)
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/trigger",
		TriggerRecommendationRequest{Slot: "breakfast"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// =============================================================================
// Preview
// =============================================================================

func TestPreview_ReturnsEvaluation(t *testing.T) {
	svc := &mockRecService{
		evaluateFn: func(ctx context.Context) (*recommendation.Evaluation, error) {
			return &recommendation.Evaluation{
				UniformID:   "u2",
				Accessories: []types.AccessoryItem{{Name: "Gore-Tex Jacket", Required: true}},
			}, nil
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/recommendations/preview", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gore-Tex Jacket")
}

func TestPreview_NoRecommendationIsNotAnError(t *testing.T) {
	svc := &mockRecService{
		evaluateFn: func(ctx context.Context) (*recommendation.Evaluation, error) {
			return &recommendation.Evaluation{
				NoRecommendation: true,
				Reason:           "no uniform rule matched and no default uniform is configured",
			}, nil
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/recommendations/preview", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_recommendation")
}

// =============================================================================
// Get / List
// =============================================================================

func TestGet_Success(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/recommendations/rec_42", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rec_42")
}

func TestGet_NotFound(t *testing.T) {
	svc := &mockRecService{
		getFn: func(ctx context.Context, id string) (*types.Recommendation, error) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRecommendation, "recommendation not found", nil)
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/recommendations/rec_missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_DefaultFilter(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet, "/recommendations/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastListFilter)
	assert.Equal(t, defaultListLimit, svc.lastListFilter.Limit)
	assert.Empty(t, svc.lastListFilter.Status)
}

func TestList_FilterParams(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodGet,
		"/recommendations/?status=approved&from=2026-03-01&to=2026-03-31&limit=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastListFilter)
	assert.Equal(t, types.RecommendationApproved, svc.lastListFilter.Status)
	assert.Equal(t, "2026-03-01", svc.lastListFilter.FromDate)
	assert.Equal(t, "2026-03-31", svc.lastListFilter.ToDate)
	assert.Equal(t, 10, svc.lastListFilter.Limit)
}

func TestList_InvalidParams(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		wantCode types.ErrorCode
	}{
		{"bad status", "/recommendations/?status=archived", types.ErrCodeValidationInvalidPayload},
		{"bad from date", "/recommendations/?from=03-01-2026", types.ErrCodeValidationInvalidDate},
		{"bad to date", "/recommendations/?to=tomorrow", types.ErrCodeValidationInvalidDate},
		{"bad limit", "/recommendations/?limit=-5", types.ErrCodeValidationInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockRecService{}
			router := newRecRouter(t, svc, nil)

			rec := doJSON(t, router, http.MethodGet, tc.target, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tc.wantCode), errorCode(t, rec))
			assert.Nil(t, svc.lastListFilter)
		})
	}
}

// =============================================================================
// Approve / Reject
// =============================================================================

func TestApprove_EmptyBody(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/rec_1/approve", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastApproveParams)
	assert.Nil(t, svc.lastApproveParams.Title)
	assert.Nil(t, svc.lastApproveParams.Content)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
}

func TestApprove_CustomTitleAndContent(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	title := "Winter PT Gear"
	content := "Wear the winter PT uniform with reflective belt."
	rec := doJSON(t, router, http.MethodPost, "/recommendations/rec_1/approve",
		ApproveRecommendationRequest{Title: &title, Content: &content})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastApproveParams)
	require.NotNil(t, svc.lastApproveParams.Title)
	assert.Equal(t, title, *svc.lastApproveParams.Title)
}

func TestApprove_StateConflict(t *testing.T) {
	svc := &mockRecService{
		approveFn: func(ctx context.Context, id string, params recommendation.ApproveParams) (*types.Recommendation, error) {
			return nil, types.NewAppError(
				types.ErrCodeConflictRecommendationState,
				`cannot approve recommendation in status "rejected"`,
				nil,
			)
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/rec_1/approve", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(types.ErrCodeConflictRecommendationState), errorCode(t, rec))
}

func TestReject_WithReason(t *testing.T) {
	svc := &mockRecService{}
	router := newRecRouter(t, svc, nil)

	reason := "ceremony scheduled, dress uniform required"
	rec := doJSON(t, router, http.MethodPost, "/recommendations/rec_1/reject",
		RejectRecommendationRequest{Reason: &reason})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastRejectParams)
	require.NotNil(t, svc.lastRejectParams.Reason)
	assert.Equal(t, reason, *svc.lastRejectParams.Reason)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)
}

func TestReject_GenericErrorIs500(t *testing.T) {
	svc := &mockRecService{
		rejectFn: func(ctx context.Context, id string, params recommendation.RejectParams) (*types.Recommendation, error) {
			return nil, errors.New("connection reset")
		},
	}
	router := newRecRouter(t, svc, nil)

	rec := doJSON(t, router, http.MethodPost, "/recommendations/rec_1/reject", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
