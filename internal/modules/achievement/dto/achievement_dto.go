package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/pkg/apperror"
	"anoa.com/skorprestasi/pkg/pagination"
)

// Points accepts both a JSON number and a numeric string (dashboards send
// "007" when users type leading zeros). Negative values are rejected.
type Points int

func (p *Points) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}

	// Strip leading zeros so strconv does not see octal-looking input and
	// "007" coerces to 7.
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("points must be a number: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("points must not be negative")
	}

	*p = Points(n)
	return nil
}

type CompetitionInput struct {
	CompetitionName  string  `json:"competition_name" binding:"required"`
	CompetitionLevel string  `json:"competition_level" binding:"required"`
	Rank             *int    `json:"rank"`
	MedalType        *string `json:"medal_type"`
	EventDate        *string `json:"event_date"`
	Location         *string `json:"location"`
	Organizer        *string `json:"organizer"`
}

type PublicationInput struct {
	PublicationType  string   `json:"publication_type" binding:"required"`
	PublicationTitle string   `json:"publication_title" binding:"required"`
	Authors          []string `json:"authors"`
	Publisher        *string  `json:"publisher"`
	ISSN             *string  `json:"issn"`
	EventDate        *string  `json:"event_date"`
}

type OrganizationInput struct {
	OrganizationName string  `json:"organization_name" binding:"required"`
	Position         string  `json:"position" binding:"required"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
}

type CertificationInput struct {
	CertificationName   string  `json:"certification_name" binding:"required"`
	IssuedBy            string  `json:"issued_by" binding:"required"`
	CertificationNumber *string `json:"certification_number"`
	ValidUntil          *string `json:"valid_until"`
}

type AcademicInput struct {
	Score     *float64 `json:"score"`
	EventDate *string  `json:"event_date"`
}

type CreateAchievementInput struct {
	AchievementType string   `json:"achievement_type" binding:"required,oneof=academic competition organization publication certification other"`
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description" binding:"required"`
	Points          Points   `json:"points"`
	Tags            []string `json:"tags"`

	CompetitionDetails   *CompetitionInput   `json:"competition_details,omitempty"`
	PublicationDetails   *PublicationInput   `json:"publication_details,omitempty"`
	OrganizationDetails  *OrganizationInput  `json:"organization_details,omitempty"`
	CertificationDetails *CertificationInput `json:"certification_details,omitempty"`
	AcademicDetails      *AcademicInput      `json:"academic_details,omitempty"`

	// AttachmentIDs references files previously stored through the upload
	// endpoint; the rows are linked, never duplicated.
	AttachmentIDs []uint `json:"attachment_ids"`
}

type UpdateAchievementInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Points      *Points   `json:"points,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`

	CompetitionDetails   *CompetitionInput   `json:"competition_details,omitempty"`
	PublicationDetails   *PublicationInput   `json:"publication_details,omitempty"`
	OrganizationDetails  *OrganizationInput  `json:"organization_details,omitempty"`
	CertificationDetails *CertificationInput `json:"certification_details,omitempty"`
	AcademicDetails      *AcademicInput      `json:"academic_details,omitempty"`

	// AttachmentIDs, when present, becomes the full attachment set: listed
	// files are linked, previously linked files not listed are released.
	AttachmentIDs *[]uint `json:"attachment_ids,omitempty"`
}

type VerifyInput struct {
	// Points optionally overrides the student-declared points.
	Points *Points `json:"points,omitempty"`
}

type RejectInput struct {
	RejectionNote string `json:"rejection_note" binding:"required"`
}

type Filter struct {
	pagination.Params
	Status string `form:"status"`
	Type   string `form:"type"`
}

type AchievementResponse struct {
	*entity.Achievement
	StudentName string   `json:"student_name,omitempty"`
	Actions     []string `json:"actions"`
}

// ToDetails builds the typed variant record for the declared achievement
// type. Exactly the matching detail group must be present; the rest must be
// absent, and "other" carries none.
func (in CreateAchievementInput) ToDetails() (entity.Details, error) {
	return buildDetails(
		entity.AchievementType(in.AchievementType),
		in.CompetitionDetails, in.PublicationDetails, in.OrganizationDetails,
		in.CertificationDetails, in.AcademicDetails,
	)
}

func buildDetails(
	achievementType entity.AchievementType,
	competition *CompetitionInput,
	publication *PublicationInput,
	organization *OrganizationInput,
	certification *CertificationInput,
	academic *AcademicInput,
) (entity.Details, error) {
	groups := 0
	for _, present := range []bool{
		competition != nil, publication != nil, organization != nil,
		certification != nil, academic != nil,
	} {
		if present {
			groups++
		}
	}
	if groups > 1 {
		return entity.Details{}, apperror.New(400, "only one detail group may be set", apperror.ErrInvalidInput)
	}

	switch achievementType {
	case entity.TypeCompetition:
		if competition == nil {
			return entity.Details{}, apperror.New(400, "competition_details is required", apperror.ErrInvalidInput)
		}
		return entity.NewCompetitionDetails(entity.CompetitionDetails{
			CompetitionName:  competition.CompetitionName,
			CompetitionLevel: competition.CompetitionLevel,
			Rank:             competition.Rank,
			MedalType:        competition.MedalType,
			EventDate:        normalizeDatePtr(competition.EventDate),
			Location:         competition.Location,
			Organizer:        competition.Organizer,
		}), nil

	case entity.TypePublication:
		if publication == nil {
			return entity.Details{}, apperror.New(400, "publication_details is required", apperror.ErrInvalidInput)
		}
		return entity.NewPublicationDetails(entity.PublicationDetails{
			PublicationType:  publication.PublicationType,
			PublicationTitle: publication.PublicationTitle,
			Authors:          DedupStrings(publication.Authors),
			Publisher:        publication.Publisher,
			ISSN:             publication.ISSN,
			EventDate:        normalizeDatePtr(publication.EventDate),
		}), nil

	case entity.TypeOrganization:
		if organization == nil {
			return entity.Details{}, apperror.New(400, "organization_details is required", apperror.ErrInvalidInput)
		}
		return entity.NewOrganizationDetails(entity.OrganizationDetails{
			OrganizationName: organization.OrganizationName,
			Position:         organization.Position,
			PeriodStart:      normalizeDatePtr(organization.StartDate),
			PeriodEnd:        normalizeDatePtr(organization.EndDate),
		}), nil

	case entity.TypeCertification:
		if certification == nil {
			return entity.Details{}, apperror.New(400, "certification_details is required", apperror.ErrInvalidInput)
		}
		return entity.NewCertificationDetails(entity.CertificationDetails{
			CertificationName:   certification.CertificationName,
			IssuedBy:            certification.IssuedBy,
			CertificationNumber: certification.CertificationNumber,
			ValidUntil:          normalizeTimestampPtr(certification.ValidUntil),
		}), nil

	case entity.TypeAcademic:
		if academic == nil {
			return entity.Details{}, apperror.New(400, "academic_details is required", apperror.ErrInvalidInput)
		}
		return entity.NewAcademicDetails(entity.AcademicDetails{
			Score:     academic.Score,
			EventDate: normalizeDatePtr(academic.EventDate),
		}), nil

	case entity.TypeOther:
		if groups > 0 {
			return entity.Details{}, apperror.New(400, "type 'other' carries no details", apperror.ErrInvalidInput)
		}
		return entity.Details{}, nil

	default:
		return entity.Details{}, apperror.New(400, "unknown achievement type", apperror.ErrInvalidInput)
	}
}

// DetailsFor is the update-path equivalent of ToDetails.
func (in UpdateAchievementInput) DetailsFor(achievementType entity.AchievementType) (entity.Details, bool, error) {
	if in.CompetitionDetails == nil && in.PublicationDetails == nil &&
		in.OrganizationDetails == nil && in.CertificationDetails == nil &&
		in.AcademicDetails == nil {
		return entity.Details{}, false, nil
	}
	details, err := buildDetails(
		achievementType,
		in.CompetitionDetails, in.PublicationDetails, in.OrganizationDetails,
		in.CertificationDetails, in.AcademicDetails,
	)
	return details, true, err
}

// DedupStrings removes duplicates while preserving first-seen order, so
// adding an existing tag twice is a no-op.
func DedupStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// NormalizeDate coerces any accepted date input into the canonical
// YYYY-MM-DD form. Time-of-day and zone offsets are dropped, not converted,
// so the calendar day survives regardless of the client's time zone.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// NormalizeTimestamp coerces input into RFC 3339, for fields that keep the
// time component (certification validity).
func NormalizeTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("unrecognized timestamp %q", s)
}

func normalizeDatePtr(s *string) *string {
	if s == nil {
		return nil
	}
	normalized, err := NormalizeDate(*s)
	if err != nil || normalized == "" {
		return nil
	}
	return &normalized
}

func normalizeTimestampPtr(s *string) *string {
	if s == nil {
		return nil
	}
	normalized, err := NormalizeTimestamp(*s)
	if err != nil || normalized == "" {
		return nil
	}
	return &normalized
}
