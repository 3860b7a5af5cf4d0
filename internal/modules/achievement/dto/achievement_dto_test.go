package dto

import (
	"encoding/json"
	"reflect"
	"testing"

	"anoa.com/skorprestasi/internal/entity"
)

func TestPointsUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Points
		wantErr bool
	}{
		{"plain number", `7`, 7, false},
		{"numeric string", `"7"`, 7, false},
		{"leading zeros", `"007"`, 7, false},
		{"all zeros", `"000"`, 0, false},
		{"zero", `0`, 0, false},
		{"null", `null`, 0, false},
		{"empty string", `""`, 0, false},
		{"negative", `-3`, 0, true},
		{"negative string", `"-3"`, 0, true},
		{"garbage", `"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Points
			err := json.Unmarshal([]byte(tt.payload), &p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p != tt.want {
				t.Errorf("points = %d, want %d", p, tt.want)
			}
		})
	}
}

func TestDedupStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"preserves first-seen order", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"trims whitespace", []string{" x ", "x"}, []string{"x"}},
		{"drops empties", []string{"", "  ", "y"}, []string{"y"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupStrings(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DedupStrings(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// Adding an already-present value is a no-op.
func TestDedupStringsIdempotent(t *testing.T) {
	once := DedupStrings([]string{"a", "b", "c"})
	twice := DedupStrings(append(once, "b"))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedup not idempotent: %v vs %v", once, twice)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"canonical", "2025-06-10", "2025-06-10", false},
		{"already normalized survives re-run", "2024-12-31", "2024-12-31", false},
		{"rfc3339 utc", "2025-06-10T15:30:00Z", "2025-06-10", false},
		// The calendar day is kept as written, not converted to UTC.
		{"rfc3339 east of utc late evening", "2024-05-01T23:30:00+07:00", "2024-05-01", false},
		{"rfc3339 west of utc", "2024-05-01T01:00:00-08:00", "2024-05-01", false},
		{"naive timestamp", "2025-06-10T08:00:00", "2025-06-10", false},
		{"dd/mm/yyyy", "10/06/2025", "2025-06-10", false},
		{"empty", "", "", false},
		{"garbage", "next tuesday", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Normalization is a projection: running it on its own output changes nothing.
func TestNormalizeDateStable(t *testing.T) {
	first, err := NormalizeDate("2024-05-01T23:30:00+07:00")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NormalizeDate(first)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("not stable: %q then %q", first, second)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	got, err := NormalizeTimestamp("2027-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2027-01-01T00:00:00Z" {
		t.Errorf("NormalizeTimestamp = %q", got)
	}

	if _, err := NormalizeTimestamp("soon"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestToDetailsRequiresMatchingGroup(t *testing.T) {
	in := CreateAchievementInput{
		AchievementType: string(entity.TypeCompetition),
		Title:           "Juara 1",
		Description:     "Lomba nasional",
	}
	if _, err := in.ToDetails(); err == nil {
		t.Fatal("expected error when competition_details is missing")
	}

	in.CompetitionDetails = &CompetitionInput{
		CompetitionName:  "Gemastik",
		CompetitionLevel: "nasional",
	}
	details, err := in.ToDetails()
	if err != nil {
		t.Fatal(err)
	}
	if details.Type() != entity.TypeCompetition {
		t.Errorf("type = %q, want competition", details.Type())
	}
}

func TestToDetailsRejectsMultipleGroups(t *testing.T) {
	in := CreateAchievementInput{
		AchievementType:    string(entity.TypeCompetition),
		CompetitionDetails: &CompetitionInput{CompetitionName: "A", CompetitionLevel: "B"},
		AcademicDetails:    &AcademicInput{},
	}
	if _, err := in.ToDetails(); err == nil {
		t.Fatal("expected error when two detail groups are set")
	}
}

func TestToDetailsOtherCarriesNone(t *testing.T) {
	in := CreateAchievementInput{AchievementType: string(entity.TypeOther)}
	details, err := in.ToDetails()
	if err != nil {
		t.Fatal(err)
	}
	if details.Type() != entity.TypeOther {
		t.Errorf("type = %q, want other", details.Type())
	}

	in.AcademicDetails = &AcademicInput{}
	if _, err := in.ToDetails(); err == nil {
		t.Fatal("expected error: type other must not carry details")
	}
}

func TestToDetailsNormalizesDates(t *testing.T) {
	eventDate := "2024-05-01T23:30:00+07:00"
	in := CreateAchievementInput{
		AchievementType: string(entity.TypeCompetition),
		CompetitionDetails: &CompetitionInput{
			CompetitionName:  "Gemastik",
			CompetitionLevel: "nasional",
			EventDate:        &eventDate,
		},
	}
	details, err := in.ToDetails()
	if err != nil {
		t.Fatal(err)
	}
	if details.Competition.EventDate == nil || *details.Competition.EventDate != "2024-05-01" {
		t.Errorf("eventDate = %v, want 2024-05-01", details.Competition.EventDate)
	}
}

func TestUpdateDetailsFor(t *testing.T) {
	var in UpdateAchievementInput
	if _, ok, err := in.DetailsFor(entity.TypeCompetition); err != nil || ok {
		t.Fatalf("empty update should not touch details, ok=%v err=%v", ok, err)
	}

	in.CompetitionDetails = &CompetitionInput{CompetitionName: "X", CompetitionLevel: "regional"}
	details, ok, err := in.DetailsFor(entity.TypeCompetition)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if details.Competition.CompetitionName != "X" {
		t.Errorf("name = %q", details.Competition.CompetitionName)
	}

	// A detail group that disagrees with the achievement's type is rejected.
	if _, _, err := in.DetailsFor(entity.TypePublication); err == nil {
		t.Fatal("expected mismatch error")
	}
}
