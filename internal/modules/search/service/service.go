package service

import (
	"fmt"
	"html"
	"log"
	"os"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const achievementIndex = "achievements"

// filterableAttributes lists the document fields tenant-token filters and
// dashboard facets may reference. Meilisearch expects []interface{} here.
func filterableAttributes() []interface{} {
	return []interface{}{"student_id", "status", "achievement_type", "tags"}
}

// SearchService mirrors achievements into Meilisearch so the dashboard can
// run typo-tolerant free-text search. All methods are best-effort: a missing
// or unreachable Meilisearch never breaks the write path.
type SearchService interface {
	IndexAchievement(achievement *entity.Achievement) error
	DeleteAchievement(id string) error
	GenerateSearchToken(userID, userRole string) (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initIndexes() {
	if s.client == nil {
		return
	}

	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        achievementIndex,
		PrimaryKey: "id",
	})
	if err != nil {
		log.Printf("Failed to create achievements index (may already exist): %v", err)
	}

	attrs := filterableAttributes()
	_, err = s.client.Index(achievementIndex).UpdateFilterableAttributes(&attrs)
	if err != nil {
		log.Printf("Failed to update filterable attributes: %v", err)
	}
}

func (s *searchService) initSigningKey() {
	if s.client == nil {
		return
	}

	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)
	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{achievementIndex},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
}

type achievementDocument struct {
	ID              string   `json:"id"`
	StudentID       string   `json:"student_id"`
	StudentName     string   `json:"student_name"`
	AchievementType string   `json:"achievement_type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Status          string   `json:"status"`
	Points          int      `json:"points"`
	CreatedAt       int64    `json:"created_at"`
}

func (s *searchService) IndexAchievement(achievement *entity.Achievement) error {
	if s.client == nil {
		return nil
	}

	doc := achievementDocument{
		ID:              achievement.ID.String(),
		StudentID:       achievement.StudentID.String(),
		StudentName:     achievement.Student.FullName,
		AchievementType: string(achievement.AchievementType),
		Title:           s.sanitize(achievement.Title),
		Description:     s.sanitize(achievement.Description),
		Tags:            achievement.Tags,
		Status:          string(achievement.Status),
		Points:          achievement.Points,
		CreatedAt:       achievement.CreatedAt.Unix(),
	}

	_, err := s.client.Index(achievementIndex).AddDocuments([]achievementDocument{doc}, nil)
	if err != nil {
		log.Printf("Failed to index achievement %s: %v", doc.ID, err)
	}
	return err
}

func (s *searchService) DeleteAchievement(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(achievementIndex).DeleteDocument(id)
	if err != nil {
		log.Printf("Failed to delete achievement %s from index: %v", id, err)
	}
	return err
}

// GenerateSearchToken issues a tenant token scoped to what the caller may
// see: students search their own rows, advisors and admins search everything.
func (s *searchService) GenerateSearchToken(userID, userRole string) (string, error) {
	if s.client == nil || s.signingKey == "" {
		return "", fmt.Errorf("search is not configured")
	}

	rules := map[string]interface{}{
		achievementIndex: map[string]interface{}{},
	}
	if userRole == entity.RoleStudent {
		rules[achievementIndex] = map[string]interface{}{
			"filter": fmt.Sprintf("student_id = %q", userID),
		}
	}

	expiry := time.Now().Add(24 * time.Hour)
	token, err := s.client.GenerateTenantToken(s.signingKeyUID, rules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: expiry,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate tenant token: %w", err)
	}

	return token, nil
}

func (s *searchService) sanitize(input string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(input))
}
