package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// UniformRepository provides read access to the uniform catalog.
type UniformRepository struct {
	db DBTX
}

func NewUniformRepository(db DBTX) *UniformRepository {
	return &UniformRepository{db: db}
}

const uniformColumns = `id, number, name, description`

// GetUniform returns a uniform by id, or nil when it does not exist.
func (r *UniformRepository) GetUniform(ctx context.Context, id string) (*types.Uniform, error) {
	var uniform types.Uniform
	err := r.db.QueryRow(ctx,
		`SELECT `+uniformColumns+` FROM uniforms WHERE id = $1`, id,
	).Scan(&uniform.ID, &uniform.Number, &uniform.Name, &uniform.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get uniform", err)
	}
	return &uniform, nil
}

// List returns the full uniform catalog ordered by number.
func (r *UniformRepository) List(ctx context.Context) ([]types.Uniform, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+uniformColumns+` FROM uniforms ORDER BY number`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list uniforms", err)
	}
	defer rows.Close()

	var uniforms []types.Uniform
	for rows.Next() {
		var uniform types.Uniform
		if err := rows.Scan(&uniform.ID, &uniform.Number, &uniform.Name, &uniform.Description); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan uniform", err)
		}
		uniforms = append(uniforms, uniform)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate uniforms", err)
	}
	return uniforms, nil
}
