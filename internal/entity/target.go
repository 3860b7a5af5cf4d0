package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Target is an incentive record shown on the dashboard: users of the given
// role who collect at least MinimumPoints verified points inside the date
// range may claim the reward.
type Target struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role          string    `gorm:"size:50;not null" json:"role"`
	StartDate     time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null" json:"end_date"`
	MinimumPoints int       `gorm:"not null" json:"minimum_points"`
	Reward        string    `gorm:"type:text;not null" json:"reward"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Target) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

// TargetClaim marks that a user claimed a target's reward.
type TargetClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TargetID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_target_user" json:"target_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_target_user" json:"user_id"`
	ClaimedAt time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
