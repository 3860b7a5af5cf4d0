package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AchievementStatus string

const (
	StatusDraft     AchievementStatus = "draft"
	StatusSubmitted AchievementStatus = "submitted"
	StatusVerified  AchievementStatus = "verified"
	StatusRejected  AchievementStatus = "rejected"
	StatusDeleted   AchievementStatus = "deleted"
)

type AchievementType string

const (
	TypeAcademic      AchievementType = "academic"
	TypeCompetition   AchievementType = "competition"
	TypeOrganization  AchievementType = "organization"
	TypePublication   AchievementType = "publication"
	TypeCertification AchievementType = "certification"
	TypeOther         AchievementType = "other"
)

// AchievementTypes lists every valid achievement type.
var AchievementTypes = []AchievementType{
	TypeAcademic, TypeCompetition, TypeOrganization,
	TypePublication, TypeCertification, TypeOther,
}

type Achievement struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID       uuid.UUID                    `gorm:"type:uuid;not null;index" json:"student_id"`
	Student         User                         `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	AchievementType AchievementType              `gorm:"size:30;not null" json:"achievement_type"`
	Title           string                       `gorm:"size:255;not null" json:"title"`
	Description     string                       `gorm:"type:text;not null" json:"description"`
	Points          int                          `gorm:"default:0" json:"points"`
	Tags            datatypes.JSONSlice[string]  `json:"tags"`
	Details         Details                      `gorm:"type:jsonb" json:"details"`
	Attachments     []Attachment                 `gorm:"foreignKey:AchievementID" json:"attachments"`
	Status          AchievementStatus            `gorm:"size:20;not null;default:draft;index" json:"status"`
	RejectionNote   string                       `gorm:"type:text" json:"rejection_note,omitempty"`
	SubmittedAt     *time.Time                   `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time                   `json:"verified_at,omitempty"`
	VerifiedBy      *uuid.UUID                   `gorm:"type:uuid" json:"verified_by,omitempty"`
	Verifier        *User                        `gorm:"foreignKey:VerifiedBy" json:"verifier,omitempty"`
	CreatedAt       time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

type Attachment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AchievementID *uuid.UUID `gorm:"type:uuid;index" json:"achievement_id,omitempty"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	FileName      string     `gorm:"size:255;not null" json:"fileName"`
	FileURL       string     `gorm:"type:text;not null" json:"fileUrl"`
	FileType      string     `gorm:"size:100" json:"fileType"`
	UploadedAt    time.Time  `gorm:"autoCreateTime" json:"uploadedAt"`
}
