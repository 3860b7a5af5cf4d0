package repository

import (
	"context"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetRepository interface {
	Create(ctx context.Context, target *entity.Target) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Target, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.Target, int64, error)
	FindActiveForRole(ctx context.Context, role string, at time.Time) ([]*entity.Target, error)
	Update(ctx context.Context, target *entity.Target) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateClaim(ctx context.Context, claim *entity.TargetClaim) error
	FindClaim(ctx context.Context, targetID, userID uuid.UUID) (*entity.TargetClaim, error)
	CountClaims(ctx context.Context, targetID uuid.UUID) (int64, error)
}

type targetRepository struct {
	db *gorm.DB
}

func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) Create(ctx context.Context, target *entity.Target) error {
	return r.db.WithContext(ctx).Create(target).Error
}

func (r *targetRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Target, error) {
	var target entity.Target
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *targetRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.Target, int64, error) {
	var targets []*entity.Target
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Target{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("start_date DESC").Offset(offset).Limit(limit).Find(&targets).Error; err != nil {
		return nil, 0, err
	}
	return targets, total, nil
}

func (r *targetRepository) FindActiveForRole(ctx context.Context, role string, at time.Time) ([]*entity.Target, error) {
	var targets []*entity.Target
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Where("start_date <= ? AND end_date >= ?", at, at).
		Order("end_date").
		Find(&targets).Error
	return targets, err
}

func (r *targetRepository) Update(ctx context.Context, target *entity.Target) error {
	return r.db.WithContext(ctx).Save(target).Error
}

func (r *targetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Target{}, id).Error
}

func (r *targetRepository) CreateClaim(ctx context.Context, claim *entity.TargetClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *targetRepository) FindClaim(ctx context.Context, targetID, userID uuid.UUID) (*entity.TargetClaim, error) {
	var claim entity.TargetClaim
	if err := r.db.WithContext(ctx).
		Where("target_id = ? AND user_id = ?", targetID, userID).
		First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *targetRepository) CountClaims(ctx context.Context, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.TargetClaim{}).
		Where("target_id = ?", targetID).
		Count(&count).Error
	return count, err
}
