package service

import (
	"context"
	"errors"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/modules/admin/dto"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	"anoa.com/skorprestasi/pkg/apperror"
	"anoa.com/skorprestasi/pkg/pagination"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminService interface {
	ListUsers(ctx context.Context, filter dto.UserFilter) (pagination.Envelope[dto.UserResponse], error)
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	AssignAdvisor(ctx context.Context, studentID, advisorID uuid.UUID) error
}

type adminService struct {
	users userRepo.UserRepository
}

func NewAdminService(users userRepo.UserRepository) AdminService {
	return &adminService{users: users}
}

func (s *adminService) ListUsers(ctx context.Context, filter dto.UserFilter) (pagination.Envelope[dto.UserResponse], error) {
	filter.Params.Normalize()

	users, total, err := s.users.FindAll(ctx, filter.Search, filter.Role, filter.Offset(), filter.Per)
	if err != nil {
		return pagination.Envelope[dto.UserResponse]{}, err
	}

	rows := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		rows = append(rows, toUserResponse(u))
	}

	return pagination.Wrap(rows, filter.Params, total), nil
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.UserResponse, error) {
	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperror.New(409, "username sudah digunakan", apperror.ErrBadRequest)
	}
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperror.New(409, "email sudah digunakan", apperror.ErrBadRequest)
	}

	role, err := s.users.FindRoleByName(ctx, input.Role)
	if err != nil {
		return nil, apperror.New(400, "role tidak dikenal", apperror.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		RoleID:       &role.ID,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	switch input.Role {
	case entity.RoleStudent:
		profile := &entity.StudentProfile{UserID: user.ID}
		if input.StudentNumber != nil {
			profile.StudentNumber = *input.StudentNumber
		}
		if input.ProgramStudy != nil {
			profile.ProgramStudy = *input.ProgramStudy
		}
		if input.AcademicYear != nil {
			profile.AcademicYear = *input.AcademicYear
		}
		if input.AdvisorID != nil {
			advisorID, err := s.resolveAdvisor(ctx, *input.AdvisorID)
			if err != nil {
				return nil, err
			}
			profile.AdvisorID = &advisorID
		}
		if err := s.users.SaveStudentProfile(ctx, profile); err != nil {
			return nil, err
		}
		user.StudentProfile = profile

	case entity.RoleAdvisor:
		profile := &entity.LecturerProfile{UserID: user.ID}
		if input.LecturerNumber != nil {
			profile.LecturerNumber = *input.LecturerNumber
		}
		if input.Department != nil {
			profile.Department = *input.Department
		}
		if err := s.users.SaveLecturerProfile(ctx, profile); err != nil {
			return nil, err
		}
		user.LecturerProfile = profile
	}

	user.Role = role
	res := toUserResponse(user)
	return &res, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if _, err := s.users.FindByUsername(ctx, *input.Username); err == nil {
			return nil, apperror.New(409, "username sudah digunakan", apperror.ErrBadRequest)
		}
		user.Username = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		if _, err := s.users.FindByEmail(ctx, *input.Email); err == nil {
			return nil, apperror.New(409, "email sudah digunakan", apperror.ErrBadRequest)
		}
		user.Email = *input.Email
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Role != nil {
		role, err := s.users.FindRoleByName(ctx, *input.Role)
		if err != nil {
			return nil, apperror.New(400, "role tidak dikenal", apperror.ErrInvalidInput)
		}
		user.RoleID = &role.ID
		user.Role = role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.updateProfiles(ctx, user, input); err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *adminService) updateProfiles(ctx context.Context, user *entity.User, input dto.UpdateUserInput) error {
	if input.StudentNumber != nil || input.ProgramStudy != nil || input.AcademicYear != nil || input.AdvisorID != nil {
		profile, err := s.users.FindStudentProfile(ctx, user.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			profile = &entity.StudentProfile{UserID: user.ID}
		}
		if input.StudentNumber != nil {
			profile.StudentNumber = *input.StudentNumber
		}
		if input.ProgramStudy != nil {
			profile.ProgramStudy = *input.ProgramStudy
		}
		if input.AcademicYear != nil {
			profile.AcademicYear = *input.AcademicYear
		}
		if input.AdvisorID != nil {
			advisorID, err := s.resolveAdvisor(ctx, *input.AdvisorID)
			if err != nil {
				return err
			}
			profile.AdvisorID = &advisorID
		}
		if err := s.users.SaveStudentProfile(ctx, profile); err != nil {
			return err
		}
		user.StudentProfile = profile
	}

	if input.LecturerNumber != nil || input.Department != nil {
		profile, err := s.users.FindLecturerProfile(ctx, user.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			profile = &entity.LecturerProfile{UserID: user.ID}
		}
		if input.LecturerNumber != nil {
			profile.LecturerNumber = *input.LecturerNumber
		}
		if input.Department != nil {
			profile.Department = *input.Department
		}
		if err := s.users.SaveLecturerProfile(ctx, profile); err != nil {
			return err
		}
		user.LecturerProfile = profile
	}

	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *adminService) AssignAdvisor(ctx context.Context, studentID, advisorID uuid.UUID) error {
	profile, err := s.users.FindStudentProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(404, "mahasiswa tidak ditemukan", apperror.ErrNotFound)
		}
		return err
	}

	resolved, err := s.resolveAdvisor(ctx, advisorID.String())
	if err != nil {
		return err
	}

	profile.AdvisorID = &resolved
	return s.users.SaveStudentProfile(ctx, profile)
}

// resolveAdvisor parses and checks that the id belongs to an active user with
// the dosen_wali role.
func (s *adminService) resolveAdvisor(ctx context.Context, id string) (uuid.UUID, error) {
	advisorID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.New(400, "advisor_id tidak valid", apperror.ErrInvalidInput)
	}

	advisor, err := s.users.FindByID(ctx, id)
	if err != nil {
		return uuid.Nil, apperror.New(404, "dosen wali tidak ditemukan", apperror.ErrNotFound)
	}
	if advisor.Role == nil || advisor.Role.Name != entity.RoleAdvisor {
		return uuid.Nil, apperror.New(400, "pengguna bukan dosen wali", apperror.ErrInvalidInput)
	}
	if !advisor.IsActive {
		return uuid.Nil, apperror.New(400, "dosen wali tidak aktif", apperror.ErrInvalidInput)
	}

	return advisorID, nil
}

func toUserResponse(user *entity.User) dto.UserResponse {
	res := dto.UserResponse{User: user}
	if user.Role != nil {
		res.RoleName = user.Role.Name
	}
	return res
}
