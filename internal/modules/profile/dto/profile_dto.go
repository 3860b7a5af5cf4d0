package dto

import (
	"time"

	"anoa.com/skorprestasi/internal/entity"
)

type UpdateProfileInput struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`

	ProgramStudy *string `json:"program_study,omitempty"`
	AcademicYear *string `json:"academic_year,omitempty"`
	Department   *string `json:"department,omitempty"`
}

// PointsSummary aggregates verified points for the current academic year.
type PointsSummary struct {
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	VerifiedPoints int    `json:"verified_points"`
}

type ProfileResponse struct {
	User          *entity.User   `json:"user"`
	RoleName      string         `json:"role_name"`
	PointsSummary *PointsSummary `json:"points_summary,omitempty"`
}

// PublicProfileResponse hides email and account flags from other users.
type PublicProfileResponse struct {
	Username      string         `json:"username"`
	FullName      string         `json:"full_name"`
	Role          string         `json:"role"`
	CreatedAt     time.Time      `json:"created_at"`
	StudentNumber *string        `json:"student_number,omitempty"`
	ProgramStudy  *string        `json:"program_study,omitempty"`
	PointsSummary *PointsSummary `json:"points_summary,omitempty"`
}

// AdviseeResponse is one row in an advisor's student list.
type AdviseeResponse struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	StudentNumber  string `json:"student_number"`
	ProgramStudy   string `json:"program_study"`
	AcademicYear   string `json:"academic_year"`
	VerifiedPoints int    `json:"verified_points"`
}
