package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CompetitionDetails are the extra fields of a competition achievement.
// Optional fields are pointers so unset values serialize as null instead of
// disappearing or defaulting.
type CompetitionDetails struct {
	CompetitionName  string  `json:"competitionName"`
	CompetitionLevel string  `json:"competitionLevel"`
	Rank             *int    `json:"rank"`
	MedalType        *string `json:"medalType"`
	EventDate        *string `json:"eventDate"` // YYYY-MM-DD
	Location         *string `json:"location"`
	Organizer        *string `json:"organizer"`
}

type PublicationDetails struct {
	PublicationType  string   `json:"publicationType"`
	PublicationTitle string   `json:"publicationTitle"`
	Authors          []string `json:"authors"`
	Publisher        *string  `json:"publisher"`
	ISSN             *string  `json:"issn"`
	EventDate        *string  `json:"eventDate"` // YYYY-MM-DD
}

type OrganizationDetails struct {
	OrganizationName string  `json:"organizationName"`
	Position         string  `json:"position"`
	PeriodStart      *string `json:"periodStart"` // YYYY-MM-DD
	PeriodEnd        *string `json:"periodEnd"`   // YYYY-MM-DD
}

type CertificationDetails struct {
	CertificationName   string  `json:"certificationName"`
	IssuedBy            string  `json:"issuedBy"`
	CertificationNumber *string `json:"certificationNumber"`
	ValidUntil          *string `json:"validUntil"` // RFC 3339
}

type AcademicDetails struct {
	Score     *float64 `json:"score"`
	EventDate *string  `json:"eventDate"` // YYYY-MM-DD
}

// Details is the discriminated variant record attached to an achievement. At
// most one variant is set, selected by the achievement type; "other" carries
// no variant at all. JSON output contains exactly the active variant's keys.
type Details struct {
	Competition   *CompetitionDetails
	Publication   *PublicationDetails
	Organization  *OrganizationDetails
	Certification *CertificationDetails
	Academic      *AcademicDetails
}

func NewCompetitionDetails(d CompetitionDetails) Details {
	return Details{Competition: &d}
}

func NewPublicationDetails(d PublicationDetails) Details {
	return Details{Publication: &d}
}

func NewOrganizationDetails(d OrganizationDetails) Details {
	return Details{Organization: &d}
}

func NewCertificationDetails(d CertificationDetails) Details {
	return Details{Certification: &d}
}

func NewAcademicDetails(d AcademicDetails) Details {
	return Details{Academic: &d}
}

// Type reports which variant is set, or TypeOther when none is.
func (d Details) Type() AchievementType {
	switch {
	case d.Competition != nil:
		return TypeCompetition
	case d.Publication != nil:
		return TypePublication
	case d.Organization != nil:
		return TypeOrganization
	case d.Certification != nil:
		return TypeCertification
	case d.Academic != nil:
		return TypeAcademic
	default:
		return TypeOther
	}
}

// variant returns the active variant value, nil for "other".
func (d Details) variant() any {
	switch {
	case d.Competition != nil:
		return d.Competition
	case d.Publication != nil:
		return d.Publication
	case d.Organization != nil:
		return d.Organization
	case d.Certification != nil:
		return d.Certification
	case d.Academic != nil:
		return d.Academic
	default:
		return nil
	}
}

// MarshalJSON emits the active variant's fields only; the discriminant lives
// in the achievement's achievement_type field alongside.
func (d Details) MarshalJSON() ([]byte, error) {
	v := d.variant()
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// persisted is the jsonb column shape; the discriminant is embedded so the
// column is self-describing on scan.
type persistedDetails struct {
	Type    AchievementType `json:"type"`
	Variant json.RawMessage `json:"variant,omitempty"`
}

// Value implements driver.Valuer for the jsonb column.
func (d Details) Value() (driver.Value, error) {
	p := persistedDetails{Type: d.Type()}
	if v := d.variant(); v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		p.Variant = raw
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for the jsonb column.
func (d *Details) Scan(value any) error {
	if value == nil {
		*d = Details{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported details column type %T", value)
	}

	var p persistedDetails
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*d = Details{}
	if len(p.Variant) == 0 {
		return nil
	}

	switch p.Type {
	case TypeCompetition:
		d.Competition = &CompetitionDetails{}
		return json.Unmarshal(p.Variant, d.Competition)
	case TypePublication:
		d.Publication = &PublicationDetails{}
		return json.Unmarshal(p.Variant, d.Publication)
	case TypeOrganization:
		d.Organization = &OrganizationDetails{}
		return json.Unmarshal(p.Variant, d.Organization)
	case TypeCertification:
		d.Certification = &CertificationDetails{}
		return json.Unmarshal(p.Variant, d.Certification)
	case TypeAcademic:
		d.Academic = &AcademicDetails{}
		return json.Unmarshal(p.Variant, d.Academic)
	case TypeOther, "":
		return nil
	default:
		return fmt.Errorf("unknown achievement type %q in details column", p.Type)
	}
}

// Matches reports whether the variant set in d agrees with the given type.
func (d Details) Matches(t AchievementType) bool {
	return d.Type() == t || (d.variant() == nil && t == TypeOther)
}
