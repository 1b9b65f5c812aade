package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

type mockUniformStore struct {
	listFn func(ctx context.Context) ([]types.Uniform, error)
	getFn  func(ctx context.Context, id string) (*types.Uniform, error)
}

func (m *mockUniformStore) List(ctx context.Context) ([]types.Uniform, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []types.Uniform{
		{ID: "u1", Number: 1, Name: "Service Dress"},
		{ID: "u3", Number: 3, Name: "Working Uniform"},
	}, nil
}

func (m *mockUniformStore) GetUniform(ctx context.Context, id string) (*types.Uniform, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &types.Uniform{ID: id, Number: 3, Name: "Working Uniform"}, nil
}

func TestUniformList_Success(t *testing.T) {
	h := NewUniformHandler(&mockUniformStore{}, testLogger())
	router := newRouter(h.RegisterRoutes)

	rec := doJSON(t, router, http.MethodGet, "/uniforms/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Service Dress")
	assert.Contains(t, rec.Body.String(), "Working Uniform")
}

func TestUniformGet_Success(t *testing.T) {
	h := NewUniformHandler(&mockUniformStore{}, testLogger())
	router := newRouter(h.RegisterRoutes)

	rec := doJSON(t, router, http.MethodGet, "/uniforms/u3", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"u3"`)
}

func TestUniformGet_NotFound(t *testing.T) {
	store := &mockUniformStore{
		getFn: func(ctx context.Context, id string) (*types.Uniform, error) {
			return nil, nil
		},
	}
	h := NewUniformHandler(store, testLogger())
	router := newRouter(h.RegisterRoutes)

	rec := doJSON(t, router, http.MethodGet, "/uniforms/u_missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(types.ErrCodeNotFoundUniform), errorCode(t, rec))
}
