package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/modules/achievement/dto"
	"anoa.com/skorprestasi/internal/modules/achievement/repository"
	attachmentRepo "anoa.com/skorprestasi/internal/modules/attachment/repository"
	notifService "anoa.com/skorprestasi/internal/modules/notification/service"
	searchService "anoa.com/skorprestasi/internal/modules/search/service"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	"anoa.com/skorprestasi/pkg/apperror"
	"anoa.com/skorprestasi/pkg/pagination"
	"anoa.com/skorprestasi/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	detailCacheTTL = 5 * time.Minute
	submitAction   = "submit_achievement"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID, role string, filter dto.Filter) (pagination.Envelope[dto.AchievementResponse], error)
	Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*dto.AchievementResponse, error)
	Create(ctx context.Context, userID uuid.UUID, input dto.CreateAchievementInput) (*dto.AchievementResponse, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, input dto.UpdateAchievementInput) error
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Submit(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Verify(ctx context.Context, advisorID uuid.UUID, id uuid.UUID, input dto.VerifyInput) error
	Reject(ctx context.Context, advisorID uuid.UUID, id uuid.UUID, input dto.RejectInput) error
}

type service struct {
	repo            repository.AchievementRepository
	attachments     attachmentRepo.AttachmentRepository
	userRepo        userRepo.UserRepository
	notifications   notifService.NotificationService
	search          searchService.SearchService
	redisClient     *redis.Client
	submitRateLimit time.Duration
}

func NewService(
	repo repository.AchievementRepository,
	attachments attachmentRepo.AttachmentRepository,
	users userRepo.UserRepository,
	notifications notifService.NotificationService,
	search searchService.SearchService,
	redisClient *redis.Client,
	submitRateLimit time.Duration,
) Service {
	return &service{
		repo:            repo,
		attachments:     attachments,
		userRepo:        users,
		notifications:   notifications,
		search:          search,
		redisClient:     redisClient,
		submitRateLimit: submitRateLimit,
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, role string, filter dto.Filter) (pagination.Envelope[dto.AchievementResponse], error) {
	filter.Params.Normalize()

	listFilter := repository.ListFilter{
		Status: entity.AchievementStatus(filter.Status),
		Type:   entity.AchievementType(filter.Type),
		Search: filter.Search,
		Offset: filter.Offset(),
		Limit:  filter.Per,
	}

	// Role scoping: students see their own rows, advisors their advisees',
	// admins everything.
	switch role {
	case entity.RoleStudent:
		listFilter.StudentID = &userID
	case entity.RoleAdvisor:
		listFilter.AdvisorID = &userID
	case entity.RoleAdmin:
	default:
		return pagination.Envelope[dto.AchievementResponse]{}, apperror.ErrForbidden
	}

	achievements, total, err := s.repo.FindAll(ctx, listFilter)
	if err != nil {
		return pagination.Envelope[dto.AchievementResponse]{}, err
	}

	rows := make([]dto.AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		rows = append(rows, s.toResponse(a, role))
	}

	return pagination.Wrap(rows, filter.Params, total), nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*dto.AchievementResponse, error) {
	achievement, err := s.cachedFind(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if achievement.Status == entity.StatusDeleted {
		return nil, apperror.ErrNotFound
	}

	if err := s.ensureVisible(ctx, userID, role, achievement); err != nil {
		return nil, err
	}

	res := s.toResponse(achievement, role)
	return &res, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input dto.CreateAchievementInput) (*dto.AchievementResponse, error) {
	if _, err := s.userRepo.FindStudentProfile(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(404, "student profile not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	details, err := input.ToDetails()
	if err != nil {
		return nil, err
	}

	achievement := &entity.Achievement{
		StudentID:       userID,
		AchievementType: entity.AchievementType(input.AchievementType),
		Title:           input.Title,
		Description:     input.Description,
		Points:          int(input.Points),
		Tags:            dto.DedupStrings(input.Tags),
		Details:         details,
		Status:          entity.StatusDraft,
	}

	if err := s.repo.Create(ctx, achievement); err != nil {
		return nil, err
	}

	if len(input.AttachmentIDs) > 0 {
		if err := s.linkAttachments(ctx, userID, achievement, input.AttachmentIDs); err != nil {
			return nil, err
		}
	}

	res := s.toResponse(achievement, entity.RoleStudent)
	return &res, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, input dto.UpdateAchievementInput) error {
	achievement, err := s.findForOwner(ctx, userID, id)
	if err != nil {
		return err
	}

	if achievement.Status != entity.StatusDraft {
		return apperror.ErrInvalidStatus
	}

	if input.Title != nil {
		if *input.Title == "" {
			return apperror.New(400, "title must not be empty", apperror.ErrInvalidInput)
		}
		achievement.Title = *input.Title
	}
	if input.Description != nil {
		if *input.Description == "" {
			return apperror.New(400, "description must not be empty", apperror.ErrInvalidInput)
		}
		achievement.Description = *input.Description
	}
	if input.Points != nil {
		achievement.Points = int(*input.Points)
	}
	if input.Tags != nil {
		achievement.Tags = dto.DedupStrings(*input.Tags)
	}

	if details, ok, err := input.DetailsFor(achievement.AchievementType); err != nil {
		return err
	} else if ok {
		achievement.Details = details
	}

	if err := s.repo.Update(ctx, achievement); err != nil {
		return err
	}

	if input.AttachmentIDs != nil {
		if err := s.linkAttachments(ctx, userID, achievement, *input.AttachmentIDs); err != nil {
			return err
		}
	}

	s.invalidate(ctx, achievement.ID)
	return nil
}

// linkAttachments makes ids the achievement's attachment set: each id must be
// an upload owned by the student, previously linked rows not listed are
// released back to the orphan pool. Rows are re-pointed, never copied, so the
// orphan reaper cannot destroy a file the achievement still references.
func (s *service) linkAttachments(ctx context.Context, userID uuid.UUID, achievement *entity.Achievement, ids []uint) error {
	if err := s.attachments.UnassignOthers(ctx, achievement.ID, ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		achievement.Attachments = []entity.Attachment{}
		return nil
	}

	owned, err := s.attachments.FindByIDs(ctx, ids, userID)
	if err != nil {
		return err
	}
	if len(owned) != len(ids) {
		return apperror.New(400, "lampiran tidak ditemukan", apperror.ErrInvalidInput)
	}

	if err := s.attachments.AssignToAchievement(ctx, ids, achievement.ID, userID); err != nil {
		return err
	}

	for i := range owned {
		owned[i].AchievementID = &achievement.ID
	}
	achievement.Attachments = owned
	return nil
}

// Delete soft-deletes a draft. The row keeps its attachments for the orphan
// cleanup job to reap.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	achievement, err := s.findForOwner(ctx, userID, id)
	if err != nil {
		return err
	}

	if !CanTransition(achievement.Status, entity.StatusDeleted) {
		return apperror.ErrInvalidStatus
	}

	achievement.Status = entity.StatusDeleted
	if err := s.repo.Update(ctx, achievement); err != nil {
		return err
	}

	s.invalidate(ctx, achievement.ID)
	if err := s.search.DeleteAchievement(achievement.ID.String()); err != nil {
		log.Printf("failed to remove achievement %s from search index: %v", achievement.ID, err)
	}
	return nil
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, id uuid.UUID) (err error) {
	if err := ratelimiter.CheckAndSet(ctx, s.redisClient, userID, submitAction, s.submitRateLimit); err != nil {
		return err
	}

	// A rejected submit gives the window back so the user can retry at once.
	defer func() {
		if err != nil {
			if clearErr := ratelimiter.Clear(ctx, s.redisClient, userID, submitAction); clearErr != nil {
				log.Printf("failed to clear submit rate limit for %s: %v", userID, clearErr)
			}
		}
	}()

	achievement, err := s.findForOwner(ctx, userID, id)
	if err != nil {
		return err
	}

	if !CanTransition(achievement.Status, entity.StatusSubmitted) {
		return apperror.ErrInvalidStatus
	}

	now := time.Now()
	achievement.Status = entity.StatusSubmitted
	achievement.SubmittedAt = &now
	achievement.RejectionNote = ""

	if err := s.repo.Update(ctx, achievement); err != nil {
		return err
	}

	s.invalidate(ctx, achievement.ID)
	s.indexAsync(achievement)

	// Tell the advisor there is something to review.
	if profile, err := s.userRepo.FindStudentProfile(ctx, userID); err == nil && profile.AdvisorID != nil {
		s.notify(ctx, &entity.Notification{
			UserID:     *profile.AdvisorID,
			ActorID:    userID,
			EntityID:   achievement.ID,
			EntityType: "achievement",
			Type:       entity.NotifAchievementSubmitted,
			Message:    fmt.Sprintf("%q menunggu verifikasi", achievement.Title),
		})
	}

	return nil
}

func (s *service) Verify(ctx context.Context, advisorID uuid.UUID, id uuid.UUID, input dto.VerifyInput) error {
	achievement, err := s.findForAdvisor(ctx, advisorID, id)
	if err != nil {
		return err
	}

	if !CanTransition(achievement.Status, entity.StatusVerified) {
		return apperror.ErrInvalidStatus
	}

	now := time.Now()
	achievement.Status = entity.StatusVerified
	achievement.VerifiedAt = &now
	achievement.VerifiedBy = &advisorID
	if input.Points != nil {
		achievement.Points = int(*input.Points)
	}

	if err := s.repo.Update(ctx, achievement); err != nil {
		return err
	}

	s.invalidate(ctx, achievement.ID)
	s.indexAsync(achievement)

	s.notify(ctx, &entity.Notification{
		UserID:     achievement.StudentID,
		ActorID:    advisorID,
		EntityID:   achievement.ID,
		EntityType: "achievement",
		Type:       entity.NotifAchievementVerified,
		Message:    fmt.Sprintf("%q telah diverifikasi (%d poin)", achievement.Title, achievement.Points),
	})

	return nil
}

func (s *service) Reject(ctx context.Context, advisorID uuid.UUID, id uuid.UUID, input dto.RejectInput) error {
	if input.RejectionNote == "" {
		return apperror.New(400, "rejection note is required", apperror.ErrInvalidInput)
	}

	achievement, err := s.findForAdvisor(ctx, advisorID, id)
	if err != nil {
		return err
	}

	if !CanTransition(achievement.Status, entity.StatusRejected) {
		return apperror.ErrInvalidStatus
	}

	achievement.Status = entity.StatusRejected
	achievement.RejectionNote = input.RejectionNote

	if err := s.repo.Update(ctx, achievement); err != nil {
		return err
	}

	s.invalidate(ctx, achievement.ID)
	s.indexAsync(achievement)

	s.notify(ctx, &entity.Notification{
		UserID:     achievement.StudentID,
		ActorID:    advisorID,
		EntityID:   achievement.ID,
		EntityType: "achievement",
		Type:       entity.NotifAchievementRejected,
		Message:    fmt.Sprintf("%q ditolak: %s", achievement.Title, input.RejectionNote),
	})

	return nil
}

func (s *service) toResponse(a *entity.Achievement, viewerRole string) dto.AchievementResponse {
	return dto.AchievementResponse{
		Achievement: a,
		StudentName: a.Student.FullName,
		Actions:     AllowedActions(viewerRole, a.Status),
	}
}

func (s *service) findForOwner(ctx context.Context, userID, id uuid.UUID) (*entity.Achievement, error) {
	achievement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if achievement.StudentID != userID {
		return nil, apperror.ErrForbidden
	}
	return achievement, nil
}

// findForAdvisor loads the achievement and checks that the caller advises its
// owner.
func (s *service) findForAdvisor(ctx context.Context, advisorID, id uuid.UUID) (*entity.Achievement, error) {
	achievement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile, err := s.userRepo.FindStudentProfile(ctx, achievement.StudentID)
	if err != nil {
		return nil, apperror.ErrForbidden
	}
	if profile.AdvisorID == nil || *profile.AdvisorID != advisorID {
		return nil, apperror.ErrForbidden
	}

	return achievement, nil
}

func (s *service) ensureVisible(ctx context.Context, userID uuid.UUID, role string, achievement *entity.Achievement) error {
	switch role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleStudent:
		if achievement.StudentID == userID {
			return nil
		}
	case entity.RoleAdvisor:
		profile, err := s.userRepo.FindStudentProfile(ctx, achievement.StudentID)
		if err == nil && profile.AdvisorID != nil && *profile.AdvisorID == userID {
			return nil
		}
	}
	return apperror.ErrForbidden
}

// cachedFind serves reads through a short-lived redis cache keyed by entity
// id, invalidated explicitly by every mutation.
func (s *service) cachedFind(ctx context.Context, id uuid.UUID) (*entity.Achievement, error) {
	if s.redisClient != nil {
		if data, err := s.redisClient.Get(ctx, cacheKey(id)).Bytes(); err == nil {
			var achievement entity.Achievement
			if json.Unmarshal(data, &achievement) == nil {
				return &achievement, nil
			}
		}
	}

	achievement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(achievement); err == nil {
			s.redisClient.Set(ctx, cacheKey(id), data, detailCacheTTL)
		}
	}

	return achievement, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(ctx, cacheKey(id))
}

func cacheKey(id uuid.UUID) string {
	return "achievement:" + id.String()
}

func (s *service) indexAsync(achievement *entity.Achievement) {
	go func() {
		if err := s.search.IndexAchievement(achievement); err != nil {
			log.Printf("failed to index achievement %s: %v", achievement.ID, err)
		}
	}()
}

func (s *service) notify(ctx context.Context, notification *entity.Notification) {
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		log.Printf("failed to create notification: %v", err)
	}
}
