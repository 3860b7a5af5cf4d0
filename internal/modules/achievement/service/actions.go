package service

import "anoa.com/skorprestasi/internal/entity"

// Row actions surfaced to the dashboard menu.
const (
	ActionEdit   = "edit"
	ActionSubmit = "submit"
	ActionDelete = "delete"
	ActionVerify = "verify"
	ActionReject = "reject"
)

// AllowedActions is the single source of truth for the row-action menu: a
// pure function of (role, status). Ownership and advisee checks are applied
// separately by the mutation guards; this only answers "what can this role do
// to a row in this status".
func AllowedActions(role string, status entity.AchievementStatus) []string {
	switch {
	case role == entity.RoleStudent && status == entity.StatusDraft:
		return []string{ActionEdit, ActionSubmit, ActionDelete}
	case role == entity.RoleAdvisor && status == entity.StatusSubmitted:
		return []string{ActionVerify, ActionReject}
	default:
		return []string{}
	}
}

// CanTransition reports whether an achievement may move from one status to
// another. The lifecycle only ever advances draft → submitted → verified or
// rejected; draft may also be discarded.
func CanTransition(from, to entity.AchievementStatus) bool {
	switch from {
	case entity.StatusDraft:
		return to == entity.StatusSubmitted || to == entity.StatusDeleted
	case entity.StatusSubmitted:
		return to == entity.StatusVerified || to == entity.StatusRejected
	default:
		return false
	}
}
