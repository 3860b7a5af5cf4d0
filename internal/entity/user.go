package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "mahasiswa"
	RoleAdvisor = "dosen_wali"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:100;not null" json:"full_name"`
	RoleID       *uint     `json:"role_id"`
	Role         *Role     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	StudentProfile  *StudentProfile  `gorm:"constraint:OnDelete:CASCADE" json:"student_profile,omitempty"`
	LecturerProfile *LecturerProfile `gorm:"constraint:OnDelete:CASCADE" json:"lecturer_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type StudentProfile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	StudentNumber string    `gorm:"size:20;uniqueIndex;not null" json:"student_number"`
	ProgramStudy  string    `gorm:"size:100" json:"program_study"`
	AcademicYear  string    `gorm:"size:10" json:"academic_year"`
	// AdvisorID is a weak reference to the advising lecturer's user ID.
	// Lookup-only: no FK constraint, resolved on read.
	AdvisorID *uuid.UUID `gorm:"type:uuid" json:"advisor_id,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type LecturerProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	LecturerNumber string    `gorm:"size:20;uniqueIndex;not null" json:"lecturer_number"` // NIP/NIDN
	Department     string    `gorm:"size:100" json:"department"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
