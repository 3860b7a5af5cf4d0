package service

import (
	"reflect"
	"testing"

	"anoa.com/skorprestasi/internal/entity"
)

func TestAllowedActions(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		status entity.AchievementStatus
		want   []string
	}{
		{"student on draft", entity.RoleStudent, entity.StatusDraft, []string{ActionEdit, ActionSubmit, ActionDelete}},
		{"student on submitted", entity.RoleStudent, entity.StatusSubmitted, []string{}},
		{"student on verified", entity.RoleStudent, entity.StatusVerified, []string{}},
		{"student on rejected", entity.RoleStudent, entity.StatusRejected, []string{}},
		{"advisor on submitted", entity.RoleAdvisor, entity.StatusSubmitted, []string{ActionVerify, ActionReject}},
		{"advisor on draft", entity.RoleAdvisor, entity.StatusDraft, []string{}},
		{"advisor on verified", entity.RoleAdvisor, entity.StatusVerified, []string{}},
		{"admin on draft", entity.RoleAdmin, entity.StatusDraft, []string{}},
		{"admin on submitted", entity.RoleAdmin, entity.StatusSubmitted, []string{}},
		{"unknown role", "intruder", entity.StatusDraft, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedActions(tt.role, tt.status)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllowedActions(%q, %q) = %v, want %v", tt.role, tt.status, got, tt.want)
			}
		})
	}
}

// AllowedActions must never return nil: the dashboard serializes it into an
// "actions" array on every row.
func TestAllowedActionsNeverNil(t *testing.T) {
	statuses := []entity.AchievementStatus{
		entity.StatusDraft, entity.StatusSubmitted, entity.StatusVerified,
		entity.StatusRejected, entity.StatusDeleted,
	}
	roles := []string{entity.RoleAdmin, entity.RoleStudent, entity.RoleAdvisor, ""}

	for _, role := range roles {
		for _, status := range statuses {
			if AllowedActions(role, status) == nil {
				t.Errorf("AllowedActions(%q, %q) returned nil", role, status)
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]entity.AchievementStatus]bool{
		{entity.StatusDraft, entity.StatusSubmitted}:    true,
		{entity.StatusDraft, entity.StatusDeleted}:      true,
		{entity.StatusSubmitted, entity.StatusVerified}: true,
		{entity.StatusSubmitted, entity.StatusRejected}: true,
	}

	statuses := []entity.AchievementStatus{
		entity.StatusDraft, entity.StatusSubmitted, entity.StatusVerified,
		entity.StatusRejected, entity.StatusDeleted,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]entity.AchievementStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}
