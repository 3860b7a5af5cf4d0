package dto

import (
	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/pkg/pagination"
)

type CreateUserInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin mahasiswa dosen_wali"`
	FullName string `json:"full_name" binding:"required"`

	// Student profile fields, required when role is mahasiswa.
	StudentNumber *string `json:"student_number"`
	ProgramStudy  *string `json:"program_study"`
	AcademicYear  *string `json:"academic_year"`
	AdvisorID     *string `json:"advisor_id"`

	// Lecturer profile fields, required when role is dosen_wali.
	LecturerNumber *string `json:"lecturer_number"`
	Department     *string `json:"department"`
}

type UpdateUserInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`

	StudentNumber *string `json:"student_number,omitempty"`
	ProgramStudy  *string `json:"program_study,omitempty"`
	AcademicYear  *string `json:"academic_year,omitempty"`
	AdvisorID     *string `json:"advisor_id,omitempty"`

	LecturerNumber *string `json:"lecturer_number,omitempty"`
	Department     *string `json:"department,omitempty"`
}

type AssignAdvisorInput struct {
	AdvisorID string `json:"advisor_id" binding:"required,uuid"`
}

type UserFilter struct {
	pagination.Params
	Role string `form:"role"`
}

type UserResponse struct {
	*entity.User
	RoleName string `json:"role_name"`
}
