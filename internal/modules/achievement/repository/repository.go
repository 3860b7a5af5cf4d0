package repository

import (
	"context"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows a paginated achievement query. StudentID scopes to one
// owner, AdvisorID to the advisees of one lecturer; both nil means all rows
// (admin view).
type ListFilter struct {
	StudentID *uuid.UUID
	AdvisorID *uuid.UUID
	Status    entity.AchievementStatus
	Type      entity.AchievementType
	Search    string
	Offset    int
	Limit     int
}

type AchievementRepository interface {
	Create(ctx context.Context, achievement *entity.Achievement) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Achievement, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*entity.Achievement, int64, error)
	Update(ctx context.Context, achievement *entity.Achievement) error

	SumVerifiedPoints(ctx context.Context, studentID uuid.UUID, from, to time.Time) (int, error)
	FindExpiringCertifications(ctx context.Context, from, before time.Time) ([]*entity.Achievement, error)

	CountByStatus(ctx context.Context) (map[entity.AchievementStatus]int64, error)
	CountByType(ctx context.Context) (map[entity.AchievementType]int64, error)
	TopStudents(ctx context.Context, limit int) ([]StudentPoints, error)
}

// StudentPoints is one leaderboard row.
type StudentPoints struct {
	StudentID   uuid.UUID `json:"student_id"`
	FullName    string    `json:"full_name"`
	Total       int64     `json:"total_achievements"`
	TotalPoints int64     `json:"total_points"`
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Create(ctx context.Context, achievement *entity.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *achievementRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Achievement, error) {
	var achievement entity.Achievement
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.StudentProfile").
		Preload("Verifier").
		Preload("Attachments").
		Where("id = ?", id).
		First(&achievement).Error; err != nil {
		return nil, err
	}
	return &achievement, nil
}

func (r *achievementRepository) FindAll(ctx context.Context, filter ListFilter) ([]*entity.Achievement, int64, error) {
	var achievements []*entity.Achievement
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.StudentProfile").
		Preload("Attachments").
		Where("achievements.status <> ?", entity.StatusDeleted)

	if filter.StudentID != nil {
		query = query.Where("achievements.student_id = ?", filter.StudentID)
	}

	if filter.AdvisorID != nil {
		query = query.
			Joins("JOIN student_profiles ON student_profiles.user_id = achievements.student_id").
			Where("student_profiles.advisor_id = ?", filter.AdvisorID)
	}

	if filter.Status != "" {
		query = query.Where("achievements.status = ?", filter.Status)
	}

	if filter.Type != "" {
		query = query.Where("achievements.achievement_type = ?", filter.Type)
	}

	if filter.Search != "" {
		query = query.Where("achievements.title ILIKE ? OR achievements.description ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := query.Model(&entity.Achievement{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("achievements.created_at DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&achievements).Error; err != nil {
		return nil, 0, err
	}

	return achievements, total, nil
}

func (r *achievementRepository) Update(ctx context.Context, achievement *entity.Achievement) error {
	return r.db.WithContext(ctx).Save(achievement).Error
}

func (r *achievementRepository) SumVerifiedPoints(ctx context.Context, studentID uuid.UUID, from, to time.Time) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&entity.Achievement{}).
		Where("student_id = ? AND status = ? AND verified_at BETWEEN ? AND ?",
			studentID, entity.StatusVerified, from, to).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return int(sum), err
}

// FindExpiringCertifications returns verified certification achievements
// whose validUntil falls inside [from, before). The validity date lives
// inside the jsonb details column.
func (r *achievementRepository) FindExpiringCertifications(ctx context.Context, from, before time.Time) ([]*entity.Achievement, error) {
	var achievements []*entity.Achievement
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("achievement_type = ? AND status = ?", entity.TypeCertification, entity.StatusVerified).
		Where("(details -> 'variant' ->> 'validUntil')::timestamptz >= ?", from).
		Where("(details -> 'variant' ->> 'validUntil')::timestamptz < ?", before).
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) CountByStatus(ctx context.Context) (map[entity.AchievementStatus]int64, error) {
	type row struct {
		Status entity.AchievementStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Achievement{}).
		Select("status, COUNT(*) as count").
		Where("status <> ?", entity.StatusDeleted).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[entity.AchievementStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (r *achievementRepository) CountByType(ctx context.Context) (map[entity.AchievementType]int64, error) {
	type row struct {
		AchievementType entity.AchievementType
		Count           int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Achievement{}).
		Select("achievement_type, COUNT(*) as count").
		Where("status <> ?", entity.StatusDeleted).
		Group("achievement_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[entity.AchievementType]int64, len(rows))
	for _, r := range rows {
		out[r.AchievementType] = r.Count
	}
	return out, nil
}

func (r *achievementRepository) TopStudents(ctx context.Context, limit int) ([]StudentPoints, error) {
	var rows []StudentPoints
	err := r.db.WithContext(ctx).
		Model(&entity.Achievement{}).
		Select("achievements.student_id, users.full_name, COUNT(*) as total, COALESCE(SUM(achievements.points), 0) as total_points").
		Joins("JOIN users ON users.id = achievements.student_id").
		Where("achievements.status = ?", entity.StatusVerified).
		Group("achievements.student_id, users.full_name").
		Order("total_points DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
