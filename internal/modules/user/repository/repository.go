package repository

import (
	"context"

	"anoa.com/skorprestasi/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByIdentity(ctx context.Context, identity string) (*entity.User, error)
	FindAll(ctx context.Context, search, role string, offset, limit int) ([]*entity.User, int64, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)

	SaveStudentProfile(ctx context.Context, profile *entity.StudentProfile) error
	SaveLecturerProfile(ctx context.Context, profile *entity.LecturerProfile) error
	FindStudentProfile(ctx context.Context, userID uuid.UUID) (*entity.StudentProfile, error)
	FindLecturerProfile(ctx context.Context, userID uuid.UUID) (*entity.LecturerProfile, error)
	FindAdvisees(ctx context.Context, advisorID uuid.UUID) ([]*entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("StudentProfile").
		Preload("LecturerProfile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("StudentProfile").
		Preload("LecturerProfile").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIdentity matches either username or email, for the login form.
func (r *userRepository) FindByIdentity(ctx context.Context, identity string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("username = ? OR email = ?", identity, identity).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context, search, role string, offset, limit int) ([]*entity.User, int64, error) {
	var users []*entity.User
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Role").
		Preload("StudentProfile").
		Preload("LecturerProfile")

	if search != "" {
		query = query.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").
			Where("roles.name = ?", role)
	}

	if err := query.Model(&entity.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.User{}, id).Error
}

func (r *userRepository) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) SaveStudentProfile(ctx context.Context, profile *entity.StudentProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) SaveLecturerProfile(ctx context.Context, profile *entity.LecturerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) FindStudentProfile(ctx context.Context, userID uuid.UUID) (*entity.StudentProfile, error) {
	var profile entity.StudentProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) FindLecturerProfile(ctx context.Context, userID uuid.UUID) (*entity.LecturerProfile, error) {
	var profile entity.LecturerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) FindAdvisees(ctx context.Context, advisorID uuid.UUID) ([]*entity.User, error) {
	var users []*entity.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("StudentProfile").
		Joins("JOIN student_profiles ON student_profiles.user_id = users.id").
		Where("student_profiles.advisor_id = ?", advisorID).
		Order("users.created_at").
		Find(&users).Error
	return users, err
}
