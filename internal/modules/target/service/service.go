package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	achievementRepo "anoa.com/skorprestasi/internal/modules/achievement/repository"
	notifService "anoa.com/skorprestasi/internal/modules/notification/service"
	"anoa.com/skorprestasi/internal/modules/target/dto"
	"anoa.com/skorprestasi/internal/modules/target/repository"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	"anoa.com/skorprestasi/pkg/apperror"
	"anoa.com/skorprestasi/pkg/pagination"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type TargetService interface {
	Create(ctx context.Context, input dto.CreateTargetInput) (*entity.Target, error)
	Update(ctx context.Context, id uuid.UUID, input dto.UpdateTargetInput) (*entity.Target, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context, params pagination.Params) (pagination.Envelope[*entity.Target], error)
	ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]dto.TargetProgress, error)
	Claim(ctx context.Context, userID uuid.UUID, role string, targetID uuid.UUID) error
	NotifyClaimable(ctx context.Context) error
}

type targetService struct {
	repo          repository.TargetRepository
	achievements  achievementRepo.AchievementRepository
	users         userRepo.UserRepository
	notifications notifService.NotificationService
	redisClient   *redis.Client
}

func NewTargetService(
	repo repository.TargetRepository,
	achievements achievementRepo.AchievementRepository,
	users userRepo.UserRepository,
	notifications notifService.NotificationService,
	redisClient *redis.Client,
) TargetService {
	return &targetService{
		repo:          repo,
		achievements:  achievements,
		users:         users,
		notifications: notifications,
		redisClient:   redisClient,
	}
}

func (s *targetService) Create(ctx context.Context, input dto.CreateTargetInput) (*entity.Target, error) {
	start, err := time.Parse(dateLayout, input.StartDate)
	if err != nil {
		return nil, apperror.New(400, "start_date harus berformat YYYY-MM-DD", apperror.ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, input.EndDate)
	if err != nil {
		return nil, apperror.New(400, "end_date harus berformat YYYY-MM-DD", apperror.ErrInvalidInput)
	}
	if !end.After(start) {
		return nil, apperror.New(400, "end_date harus setelah start_date", apperror.ErrInvalidInput)
	}

	target := &entity.Target{
		Role:          input.Role,
		StartDate:     start,
		EndDate:       end,
		MinimumPoints: input.MinimumPoints,
		Reward:        input.Reward,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *targetService) Update(ctx context.Context, id uuid.UUID, input dto.UpdateTargetInput) (*entity.Target, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.StartDate != nil {
		start, err := time.Parse(dateLayout, *input.StartDate)
		if err != nil {
			return nil, apperror.New(400, "start_date harus berformat YYYY-MM-DD", apperror.ErrInvalidInput)
		}
		target.StartDate = start
	}
	if input.EndDate != nil {
		end, err := time.Parse(dateLayout, *input.EndDate)
		if err != nil {
			return nil, apperror.New(400, "end_date harus berformat YYYY-MM-DD", apperror.ErrInvalidInput)
		}
		target.EndDate = end
	}
	if !target.EndDate.After(target.StartDate) {
		return nil, apperror.New(400, "end_date harus setelah start_date", apperror.ErrInvalidInput)
	}
	if input.MinimumPoints != nil {
		if *input.MinimumPoints <= 0 {
			return nil, apperror.New(400, "minimum_points harus lebih dari 0", apperror.ErrInvalidInput)
		}
		target.MinimumPoints = *input.MinimumPoints
	}
	if input.Reward != nil {
		target.Reward = *input.Reward
	}
	if input.IsActive != nil {
		target.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *targetService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *targetService) ListAll(ctx context.Context, params pagination.Params) (pagination.Envelope[*entity.Target], error) {
	params.Normalize()
	targets, total, err := s.repo.FindAll(ctx, params.Offset(), params.Per)
	if err != nil {
		return pagination.Envelope[*entity.Target]{}, err
	}
	return pagination.Wrap(targets, params, total), nil
}

func (s *targetService) ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]dto.TargetProgress, error) {
	targets, err := s.repo.FindActiveForRole(ctx, role, time.Now())
	if err != nil {
		return nil, err
	}

	rows := make([]dto.TargetProgress, 0, len(targets))
	for _, target := range targets {
		row, err := s.progressFor(ctx, userID, target)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *targetService) progressFor(ctx context.Context, userID uuid.UUID, target *entity.Target) (dto.TargetProgress, error) {
	points, err := s.achievements.SumVerifiedPoints(ctx, userID, target.StartDate, target.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return dto.TargetProgress{}, err
	}

	row := dto.TargetProgress{
		Target:        target,
		CurrentPoints: points,
		Claimable:     points >= target.MinimumPoints,
	}

	if claim, err := s.repo.FindClaim(ctx, target.ID, userID); err == nil {
		row.Claimed = true
		row.Claimable = false
		row.ClaimedAt = &claim.ClaimedAt
	}

	return row, nil
}

func (s *targetService) Claim(ctx context.Context, userID uuid.UUID, role string, targetID uuid.UUID) error {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	now := time.Now()
	if !target.IsActive || target.Role != role ||
		now.Before(target.StartDate) || now.After(target.EndDate.AddDate(0, 0, 1)) {
		return apperror.New(409, "target tidak dapat diklaim", apperror.ErrInvalidStatus)
	}

	if _, err := s.repo.FindClaim(ctx, targetID, userID); err == nil {
		return apperror.New(409, "target sudah diklaim", apperror.ErrInvalidStatus)
	}

	points, err := s.achievements.SumVerifiedPoints(ctx, userID, target.StartDate, target.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if points < target.MinimumPoints {
		return apperror.New(409,
			fmt.Sprintf("poin belum cukup (%d dari %d)", points, target.MinimumPoints),
			apperror.ErrInvalidStatus)
	}

	return s.repo.CreateClaim(ctx, &entity.TargetClaim{
		TargetID: targetID,
		UserID:   userID,
	})
}

// NotifyClaimable scans active targets and tells users who crossed the
// threshold but have not claimed yet. A redis marker keeps each user from
// being notified twice for the same target.
func (s *targetService) NotifyClaimable(ctx context.Context) error {
	now := time.Now()
	for _, role := range []string{entity.RoleStudent, entity.RoleAdvisor} {
		targets, err := s.repo.FindActiveForRole(ctx, role, now)
		if err != nil {
			return err
		}
		for _, target := range targets {
			if err := s.notifyClaimableForTarget(ctx, target, role); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *targetService) notifyClaimableForTarget(ctx context.Context, target *entity.Target, role string) error {
	users, _, err := s.users.FindAll(ctx, "", role, 0, 1000)
	if err != nil {
		return err
	}

	for _, user := range users {
		if !user.IsActive {
			continue
		}
		if _, err := s.repo.FindClaim(ctx, target.ID, user.ID); err == nil {
			continue
		}

		points, err := s.achievements.SumVerifiedPoints(ctx, user.ID, target.StartDate, target.EndDate.AddDate(0, 0, 1))
		if err != nil || points < target.MinimumPoints {
			continue
		}

		if !s.markNotified(ctx, target, user.ID) {
			continue
		}

		if err := s.notifications.CreateNotification(ctx, &entity.Notification{
			UserID:     user.ID,
			ActorID:    user.ID,
			EntityID:   target.ID,
			EntityType: "target",
			Type:       entity.NotifTargetClaimable,
			Message:    fmt.Sprintf("Target %q tercapai, hadiah dapat diklaim", target.Reward),
		}); err != nil {
			log.Printf("failed to create target notification for %s: %v", user.ID, err)
		}
	}
	return nil
}

// markNotified returns true exactly once per (target, user) until the target
// window closes.
func (s *targetService) markNotified(ctx context.Context, target *entity.Target, userID uuid.UUID) bool {
	if s.redisClient == nil {
		return true
	}
	key := fmt.Sprintf("target_notified:%s:%s", target.ID, userID)
	ttl := time.Until(target.EndDate.AddDate(0, 0, 1))
	if ttl <= 0 {
		ttl = time.Hour
	}
	ok, err := s.redisClient.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
