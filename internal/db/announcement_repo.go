package db

import (
	"context"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// AnnouncementRepository persists announcements produced by approvals and
// scheduled slot postings.
type AnnouncementRepository struct {
	db DBTX
}

func NewAnnouncementRepository(db DBTX) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// CreateAnnouncement inserts a new announcement row.
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, ann *types.Announcement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO announcements (id, title, content, source, recommendation_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ann.ID, ann.Title, ann.Content, ann.Source, ann.RecommendationID, ann.CreatedBy, ann.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create announcement", err)
	}
	return nil
}
