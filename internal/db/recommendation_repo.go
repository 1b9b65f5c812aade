package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BadgerOps/WOTSapp-sub001/internal/recommendation"
	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// RecommendationRepository provides data access for the recommendations
// table.
//
// Idempotent creation relies on a partial unique index instead of a
// read-then-write check, so concurrent triggers cannot both insert:
//
//	CREATE UNIQUE INDEX uq_recommendations_slot_date
//	  ON recommendations (slot, target_date)
//	  WHERE status IN ('pending', 'approved') AND NOT forced
//
// Forced rows are excluded from the index, so a force-create always inserts
// and leaves the prior recommendation untouched.
type RecommendationRepository struct {
	db DBTX
}

// NewRecommendationRepository creates a RecommendationRepository backed by
// the given database connection (pool or transaction).
func NewRecommendationRepository(db DBTX) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// recColumns is the standard column set for recommendation queries.
const recColumns = `r.id, r.status, r.slot, r.target_date, r.weather,
	r.matched_rule_id, r.matched_rule_name, r.uniform_id, r.accessories,
	r.forced, r.expires_at, r.custom_title, r.custom_content,
	r.approved_by, r.approved_at, r.rejected_by, r.rejected_at,
	r.rejection_reason, r.announcement_id, r.created_at, r.updated_at`

// scanRecommendation scans a single row into a types.Recommendation.
// The columns must match the order defined in recColumns.
func scanRecommendation(row pgx.Row) (*types.Recommendation, error) {
	var rec types.Recommendation
	var (
		matchedRuleID   *string
		matchedRuleName *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Status,
		&rec.Slot,
		&rec.TargetDate,
		&rec.Weather,
		&matchedRuleID,
		&matchedRuleName,
		&rec.UniformID,
		&rec.Accessories,
		&rec.Forced,
		&rec.ExpiresAt,
		&rec.CustomTitle,
		&rec.CustomContent,
		&rec.ApprovedBy,
		&rec.ApprovedAt,
		&rec.RejectedBy,
		&rec.RejectedAt,
		&rec.RejectionReason,
		&rec.AnnouncementID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if matchedRuleID != nil {
		rec.MatchedRuleID = *matchedRuleID
	}
	if matchedRuleName != nil {
		rec.MatchedRuleName = *matchedRuleName
	}
	return &rec, nil
}

// Insert writes a new recommendation. It returns false without error when a
// non-terminal recommendation already occupies the (slot, target_date) pair:
// ON CONFLICT against the partial unique index makes the dedup check and the
// insert a single atomic statement.
func (r *RecommendationRepository) Insert(ctx context.Context, rec *types.Recommendation) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO recommendations (
			id, status, slot, target_date, weather,
			matched_rule_id, matched_rule_name, uniform_id, accessories,
			forced, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (slot, target_date)
			WHERE status IN ('pending', 'approved') AND NOT forced
			DO NOTHING`,
		rec.ID,
		rec.Status,
		rec.Slot,
		rec.TargetDate,
		rec.Weather,
		nullable(rec.MatchedRuleID),
		nullable(rec.MatchedRuleName),
		rec.UniformID,
		rec.Accessories,
		rec.Forced,
		rec.ExpiresAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to insert recommendation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID returns the recommendation with the given ID, or nil when no such
// row exists.
func (r *RecommendationRepository) GetByID(ctx context.Context, id string) (*types.Recommendation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+recColumns+` FROM recommendations r WHERE r.id = $1`,
		id,
	)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load recommendation", err)
	}
	return rec, nil
}

// defaultListLimit bounds unfiltered listings; maxListLimit caps explicit
// requests.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// List returns recommendations matching the filter, newest first.
func (r *RecommendationRepository) List(ctx context.Context, filter recommendation.ListFilter) ([]*types.Recommendation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT ` + recColumns + ` FROM recommendations r WHERE 1=1`
	args := []any{}

	// Build the WHERE clause positionally; filter fields are all optional.
	conds := ""
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds += ` AND r.status = $` + strconv.Itoa(len(args))
	}
	if filter.FromDate != "" {
		args = append(args, filter.FromDate)
		conds += ` AND r.target_date >= $` + strconv.Itoa(len(args))
	}
	if filter.ToDate != "" {
		args = append(args, filter.ToDate)
		conds += ` AND r.target_date <= $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += conds + ` ORDER BY r.created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list recommendations", err)
	}
	defer rows.Close()

	var recs []*types.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan recommendation", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate recommendations", err)
	}
	return recs, nil
}

// MarkApproved flips a pending recommendation to approved. The status guard
// in the WHERE clause makes this a compare-and-swap: zero rows affected
// means the row was missing or no longer pending, and exactly one caller
// can win a concurrent approval race.
func (r *RecommendationRepository) MarkApproved(ctx context.Context, id, approvedBy string, at time.Time, title, content *string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE recommendations
		 SET status = 'approved',
		     approved_by = $2,
		     approved_at = $3,
		     custom_title = COALESCE($4, custom_title),
		     custom_content = COALESCE($5, custom_content),
		     updated_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, approvedBy, at, title, content,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to approve recommendation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRejected flips a pending recommendation to rejected, with the same
// compare-and-swap guard as MarkApproved.
func (r *RecommendationRepository) MarkRejected(ctx context.Context, id, rejectedBy string, at time.Time, reason *string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE recommendations
		 SET status = 'rejected',
		     rejected_by = $2,
		     rejected_at = $3,
		     rejection_reason = $4,
		     updated_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, rejectedBy, at, reason,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to reject recommendation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetAnnouncementID links the created announcement back to the
// recommendation.
func (r *RecommendationRepository) SetAnnouncementID(ctx context.Context, id, announcementID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE recommendations SET announcement_id = $2, updated_at = NOW() WHERE id = $1`,
		id, announcementID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to link announcement", err)
	}
	return nil
}

// nullable maps an empty string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
