package jobs

import (
	"context"
	"fmt"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	achievementRepo "anoa.com/skorprestasi/internal/modules/achievement/repository"
	attachmentService "anoa.com/skorprestasi/internal/modules/attachment/service"
	notifService "anoa.com/skorprestasi/internal/modules/notification/service"
	targetService "anoa.com/skorprestasi/internal/modules/target/service"
	"github.com/redis/go-redis/v9"
)

const certificationReminderWindow = 30 * 24 * time.Hour

// OrphanAttachmentCleanup reaps uploaded files never linked to an
// achievement.
type OrphanAttachmentCleanup struct {
	Attachments attachmentService.AttachmentService
}

func (j *OrphanAttachmentCleanup) Name() string     { return "orphan-attachment-cleanup" }
func (j *OrphanAttachmentCleanup) Schedule() string { return "0 2 * * *" }

func (j *OrphanAttachmentCleanup) Run(ctx context.Context) error {
	return j.Attachments.CleanupOrphanAttachments(ctx)
}

// CertificationExpiryReminder notifies students whose verified certifications
// expire within the next 30 days. Each certification is flagged once; a redis
// marker with the window's TTL suppresses repeats.
type CertificationExpiryReminder struct {
	Achievements  achievementRepo.AchievementRepository
	Notifications notifService.NotificationService
	Redis         *redis.Client
}

func (j *CertificationExpiryReminder) Name() string     { return "certification-expiry-reminder" }
func (j *CertificationExpiryReminder) Schedule() string { return "0 8 * * *" }

func (j *CertificationExpiryReminder) Run(ctx context.Context) error {
	now := time.Now()
	expiring, err := j.Achievements.FindExpiringCertifications(ctx, now, now.Add(certificationReminderWindow))
	if err != nil {
		return err
	}

	for _, achievement := range expiring {
		if !j.markReminded(ctx, achievement.ID.String()) {
			continue
		}
		if err := j.Notifications.CreateNotification(ctx, &entity.Notification{
			UserID:     achievement.StudentID,
			ActorID:    achievement.StudentID,
			EntityID:   achievement.ID,
			EntityType: "achievement",
			Type:       entity.NotifCertificationExpiry,
			Message:    fmt.Sprintf("Sertifikasi %q akan kedaluwarsa dalam 30 hari", achievement.Title),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j *CertificationExpiryReminder) markReminded(ctx context.Context, achievementID string) bool {
	if j.Redis == nil {
		return true
	}
	key := "cert_reminder:" + achievementID
	ok, err := j.Redis.SetNX(ctx, key, "1", certificationReminderWindow).Result()
	if err != nil {
		return true
	}
	return ok
}

// TargetClaimableNotifier tells users when they cross an active target's
// point threshold.
type TargetClaimableNotifier struct {
	Targets targetService.TargetService
}

func (j *TargetClaimableNotifier) Name() string     { return "target-claimable-notifier" }
func (j *TargetClaimableNotifier) Schedule() string { return "0 9 * * *" }

func (j *TargetClaimableNotifier) Run(ctx context.Context) error {
	return j.Targets.NotifyClaimable(ctx)
}
