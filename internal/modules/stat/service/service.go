package service

import (
	"context"
	"encoding/json"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	achievementRepo "anoa.com/skorprestasi/internal/modules/achievement/repository"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	"github.com/redis/go-redis/v9"
)

const (
	statsCacheKey = "stats:dashboard"
	statsCacheTTL = 5 * time.Minute
)

type DashboardStats struct {
	TotalUsers        int64                              `json:"total_users"`
	TotalAchievements int64                              `json:"total_achievements"`
	ByStatus          map[entity.AchievementStatus]int64 `json:"by_status"`
	ByType            map[entity.AchievementType]int64   `json:"by_type"`
	TopStudents       []achievementRepo.StudentPoints    `json:"top_students"`
}

type StatService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type statService struct {
	users        userRepo.UserRepository
	achievements achievementRepo.AchievementRepository
	redisClient  *redis.Client
}

func NewStatService(users userRepo.UserRepository, achievements achievementRepo.AchievementRepository, redisClient *redis.Client) StatService {
	return &statService{
		users:        users,
		achievements: achievements,
		redisClient:  redisClient,
	}
}

// GetDashboardStats aggregates counters for the admin dashboard, cached for a
// few minutes since the queries touch every row.
func (s *statService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	if s.redisClient != nil {
		if data, err := s.redisClient.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var stats DashboardStats
			if json.Unmarshal(data, &stats) == nil {
				return &stats, nil
			}
		}
	}

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.achievements.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byType, err := s.achievements.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	topStudents, err := s.achievements.TopStudents(ctx, 10)
	if err != nil {
		return nil, err
	}

	var totalAchievements int64
	for status, count := range byStatus {
		if status != entity.StatusDeleted {
			totalAchievements += count
		}
	}

	stats := &DashboardStats{
		TotalUsers:        totalUsers,
		TotalAchievements: totalAchievements,
		ByStatus:          byStatus,
		ByType:            byType,
		TopStudents:       topStudents,
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.redisClient.Set(ctx, statsCacheKey, data, statsCacheTTL)
		}
	}

	return stats, nil
}
