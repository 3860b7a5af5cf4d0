package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifAchievementSubmitted = "achievement_submitted"
	NotifAchievementVerified  = "achievement_verified"
	NotifAchievementRejected  = "achievement_rejected"
	NotifCertificationExpiry  = "certification_expiring"
	NotifTargetClaimable      = "target_claimable"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`      // user who triggered it
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"` // 'achievement' or 'target'
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Associations - pointers to avoid recursion
	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
