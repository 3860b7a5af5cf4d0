package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	achievementRepo "anoa.com/skorprestasi/internal/modules/achievement/repository"
	profileDto "anoa.com/skorprestasi/internal/modules/profile/dto"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	"anoa.com/skorprestasi/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error)
	GetAdvisees(ctx context.Context, advisorID string) ([]profileDto.AdviseeResponse, error)
}

type profileService struct {
	users        userRepo.UserRepository
	achievements achievementRepo.AchievementRepository
}

func NewProfileService(users userRepo.UserRepository, achievements achievementRepo.AchievementRepository) ProfileService {
	return &profileService{
		users:        users,
		achievements: achievements,
	}
}

// academicYearBounds returns the running academic year, September through
// August.
func academicYearBounds(now time.Time) (time.Time, time.Time) {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	start := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	res := &profileDto.ProfileResponse{User: user}
	if user.Role != nil {
		res.RoleName = user.Role.Name
	}
	if user.Role != nil && user.Role.Name == entity.RoleStudent {
		res.PointsSummary, _ = s.pointsSummary(ctx, user.ID)
	}

	return res, nil
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	res := &profileDto.PublicProfileResponse{
		Username:  user.Username,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
	if user.Role != nil {
		res.Role = user.Role.Name
	}
	if user.StudentProfile != nil {
		res.StudentNumber = &user.StudentProfile.StudentNumber
		res.ProgramStudy = &user.StudentProfile.ProgramStudy
		res.PointsSummary, _ = s.pointsSummary(ctx, user.ID)
	}

	return res, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.FullName != nil && *input.FullName != "" {
		user.FullName = *input.FullName
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 8 {
			return nil, apperror.New(400, "password minimal 8 karakter", apperror.ErrInvalidInput)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.StudentProfile != nil && (input.ProgramStudy != nil || input.AcademicYear != nil) {
		if input.ProgramStudy != nil {
			user.StudentProfile.ProgramStudy = *input.ProgramStudy
		}
		if input.AcademicYear != nil {
			user.StudentProfile.AcademicYear = *input.AcademicYear
		}
		if err := s.users.SaveStudentProfile(ctx, user.StudentProfile); err != nil {
			return nil, err
		}
	}

	if user.LecturerProfile != nil && input.Department != nil {
		user.LecturerProfile.Department = *input.Department
		if err := s.users.SaveLecturerProfile(ctx, user.LecturerProfile); err != nil {
			return nil, err
		}
	}

	return s.GetCurrentProfile(ctx, userID)
}

func (s *profileService) GetAdvisees(ctx context.Context, advisorID string) ([]profileDto.AdviseeResponse, error) {
	id, err := uuid.Parse(advisorID)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	advisees, err := s.users.FindAdvisees(ctx, id)
	if err != nil {
		return nil, err
	}

	from, to := academicYearBounds(time.Now())

	rows := make([]profileDto.AdviseeResponse, 0, len(advisees))
	for _, advisee := range advisees {
		row := profileDto.AdviseeResponse{
			UserID:   advisee.ID.String(),
			Username: advisee.Username,
			FullName: advisee.FullName,
		}
		if advisee.StudentProfile != nil {
			row.StudentNumber = advisee.StudentProfile.StudentNumber
			row.ProgramStudy = advisee.StudentProfile.ProgramStudy
			row.AcademicYear = advisee.StudentProfile.AcademicYear
		}
		if points, err := s.achievements.SumVerifiedPoints(ctx, advisee.ID, from, to); err == nil {
			row.VerifiedPoints = points
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *profileService) pointsSummary(ctx context.Context, studentID uuid.UUID) (*profileDto.PointsSummary, error) {
	from, to := academicYearBounds(time.Now())
	points, err := s.achievements.SumVerifiedPoints(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}
	return &profileDto.PointsSummary{
		PeriodStart:    from.Format("2006-01-02"),
		PeriodEnd:      to.Format("2006-01-02"),
		VerifiedPoints: points,
	}, nil
}
