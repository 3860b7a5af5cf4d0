package repository

import (
	"context"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	FindByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error)
	AssignToAchievement(ctx context.Context, ids []uint, achievementID uuid.UUID, userID uuid.UUID) error
	UnassignOthers(ctx context.Context, achievementID uuid.UUID, keepIDs []uint) error
	FindOrphans(ctx context.Context, cutoff time.Time) ([]entity.Attachment, error)
	Delete(ctx context.Context, id uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) FindByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&attachments).Error
	return attachments, err
}

// AssignToAchievement links uploaded files to an achievement. Only files
// owned by the same user and not already linked elsewhere are touched.
func (r *attachmentRepository) AssignToAchievement(ctx context.Context, ids []uint, achievementID uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Where("achievement_id IS NULL OR achievement_id = ?", achievementID).
		Update("achievement_id", achievementID).Error
}

// UnassignOthers releases every attachment of the achievement except the kept
// ids, returning them to the orphan pool.
func (r *attachmentRepository) UnassignOthers(ctx context.Context, achievementID uuid.UUID, keepIDs []uint) error {
	query := r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("achievement_id = ?", achievementID)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}
	return query.Update("achievement_id", nil).Error
}

// FindOrphans returns files never linked to an achievement, plus files whose
// achievement was soft-deleted, both older than the cutoff.
func (r *attachmentRepository) FindOrphans(ctx context.Context, cutoff time.Time) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN achievements ON achievements.id = attachments.achievement_id").
		Where("attachments.uploaded_at < ?", cutoff).
		Where("attachments.achievement_id IS NULL OR achievements.status = ?", entity.StatusDeleted).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Attachment{}, id).Error
}
