package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// RuleRepository provides read access to the two condition rule sets and
// the uniform-selection default. Rule sets are read as snapshots at
// evaluation time and passed into the evaluator; nothing here is cached.
type RuleRepository struct {
	db DBTX
}

// NewRuleRepository creates a RuleRepository backed by the given database
// connection (pool or transaction).
func NewRuleRepository(db DBTX) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, name, enabled, priority, effect, conditions, accessories, uniform_id`

// scanRule scans a single rule row. The columns must match ruleColumns.
func scanRule(row pgx.Row) (types.Rule, error) {
	var rule types.Rule
	var uniformID *string
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Enabled,
		&rule.Priority,
		&rule.Effect,
		&rule.Conditions,
		&rule.Accessories,
		&uniformID,
	)
	if err != nil {
		return types.Rule{}, err
	}
	if uniformID != nil {
		rule.UniformID = *uniformID
	}
	return rule, nil
}

func (r *RuleRepository) listRules(ctx context.Context, table string) ([]types.Rule, error) {
	// Ordering is cosmetic here: the evaluator re-sorts by effective
	// priority and must not depend on storage order.
	rows, err := r.db.Query(ctx,
		`SELECT `+ruleColumns+` FROM `+table+` WHERE enabled ORDER BY priority NULLS LAST, created_at`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load rule set", err)
	}
	defer rows.Close()

	var ruleSet []types.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan rule", err)
		}
		ruleSet = append(ruleSet, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate rules", err)
	}
	return ruleSet, nil
}

// AccessoryRules returns the enabled accessory/override rule set.
func (r *RuleRepository) AccessoryRules(ctx context.Context) ([]types.Rule, error) {
	return r.listRules(ctx, "accessory_rules")
}

// UniformSelectionRules returns the enabled uniform-of-the-day rule set.
func (r *RuleRepository) UniformSelectionRules(ctx context.Context) ([]types.Rule, error) {
	return r.listRules(ctx, "uniform_rules")
}

// DefaultUniformID returns the configured fallback uniform id, or "" when
// none is configured. Absence is an ordinary outcome, not an error.
func (r *RuleRepository) DefaultUniformID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT default_uniform_id FROM uniform_rule_config LIMIT 1`,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to load default uniform", err)
	}
	return id, nil
}

// CountWeatherRules reports how many enabled weather rules exist across
// both rule sets. The scheduler guard stands down when this is non-zero.
func (r *RuleRepository) CountWeatherRules(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM accessory_rules WHERE enabled)
		      + (SELECT COUNT(*) FROM uniform_rules WHERE enabled)`,
	).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count weather rules", err)
	}
	return count, nil
}
