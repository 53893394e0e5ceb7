// Package permission holds the static role-permission registry.
//
// The registry is built once from a constant table and is immutable after
// construction. It performs no I/O and is safe for concurrent use without
// locking.
package permission

import (
	"fmt"
	"slices"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

type Permission string

const (
	ApproveRegistration Permission = "approve_registration"
	RejectRegistration  Permission = "reject_registration"

	SubmitDocument  Permission = "submit_document"
	ReviewDocument  Permission = "review_document"
	ViewOwnDocument Permission = "view_own_document"

	SubmitMedicalLeave  Permission = "submit_medical_leave"
	ReviewMedicalLeave  Permission = "review_medical_leave"
	DecideMedicalLeave  Permission = "decide_medical_leave"
	ViewMedicalLeave    Permission = "view_medical_leave"
	CreateConsultation  Permission = "create_consultation"
	ViewConsultation    Permission = "view_consultation"
	CreateTrainingPlan  Permission = "create_training_plan"
	UpdateTrainingPlan  Permission = "update_training_plan"
	AssignTrainingPlan  Permission = "assign_training_plan"
	ViewTrainingPlan    Permission = "view_training_plan"
	RequestProfileEdit  Permission = "request_profile_change"
	ReviewProfileEdit   Permission = "review_profile_change"
	RequestSportSignup  Permission = "request_sport_registration"
	DecideSportSignup   Permission = "decide_sport_registration"
	CancelSportSignup   Permission = "cancel_sport_registration"
	ViewAuditLogs       Permission = "view_audit_logs"
	ManageUsers         Permission = "manage_users"
	SendMessage         Permission = "send_message"
	ViewNotifications   Permission = "view_notifications"
	ManageCompetitions  Permission = "manage_competitions"
	RecordPerformance   Permission = "record_performance"
	ViewAthleteProgress Permission = "view_athlete_progress"
)

var everyone = domain.AllRoles()

// table is the single source of truth for who may hold what.
var table = map[Permission][]domain.Role{
	ApproveRegistration: {domain.RoleOfficial},
	RejectRegistration:  {domain.RoleOfficial},

	SubmitDocument:  {domain.RoleAthlete, domain.RoleCoach, domain.RoleSpecialist},
	ReviewDocument:  {domain.RoleOfficial},
	ViewOwnDocument: everyone,

	SubmitMedicalLeave: {domain.RoleAthlete},
	ReviewMedicalLeave: {domain.RoleSpecialist},
	DecideMedicalLeave: {domain.RoleCoach},
	ViewMedicalLeave:   {domain.RoleAthlete, domain.RoleCoach, domain.RoleSpecialist},

	CreateConsultation: {domain.RoleSpecialist},
	ViewConsultation:   {domain.RoleAthlete, domain.RoleSpecialist},

	CreateTrainingPlan: {domain.RoleCoach},
	UpdateTrainingPlan: {domain.RoleCoach},
	AssignTrainingPlan: {domain.RoleCoach},
	ViewTrainingPlan:   {domain.RoleAthlete, domain.RoleCoach},

	RequestProfileEdit: {domain.RoleAthlete, domain.RoleCoach, domain.RoleSpecialist},
	ReviewProfileEdit:  {domain.RoleOfficial},

	RequestSportSignup: {domain.RoleAthlete},
	DecideSportSignup:  {domain.RoleCoach},
	CancelSportSignup:  {domain.RoleAthlete},

	ViewAuditLogs:       {domain.RoleOfficial},
	ManageUsers:         {domain.RoleOfficial},
	SendMessage:         everyone,
	ViewNotifications:   everyone,
	ManageCompetitions:  {domain.RoleOfficial},
	RecordPerformance:   {domain.RoleCoach, domain.RoleOfficial},
	ViewAthleteProgress: {domain.RoleAthlete, domain.RoleCoach, domain.RoleSpecialist},
}

// All returns every declared permission in a stable order.
func All() []Permission {
	return []Permission{
		ApproveRegistration, RejectRegistration,
		SubmitDocument, ReviewDocument, ViewOwnDocument,
		SubmitMedicalLeave, ReviewMedicalLeave, DecideMedicalLeave, ViewMedicalLeave,
		CreateConsultation, ViewConsultation,
		CreateTrainingPlan, UpdateTrainingPlan, AssignTrainingPlan, ViewTrainingPlan,
		RequestProfileEdit, ReviewProfileEdit,
		RequestSportSignup, DecideSportSignup, CancelSportSignup,
		ViewAuditLogs, ManageUsers, SendMessage, ViewNotifications,
		ManageCompetitions, RecordPerformance, ViewAthleteProgress,
	}
}

// Registry answers permission questions in both directions.
type Registry struct {
	roles map[Permission]map[domain.Role]struct{}
	perms map[domain.Role][]Permission
}

// NewRegistry validates entries and builds the lookup sets. Every permission
// must name at least one known role.
func NewRegistry(entries map[Permission][]domain.Role) (*Registry, error) {
	r := &Registry{
		roles: make(map[Permission]map[domain.Role]struct{}, len(entries)),
		perms: make(map[domain.Role][]Permission),
	}

	for p, roles := range entries {
		if p == "" {
			return nil, fmt.Errorf("permission name cannot be empty")
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("permission %q has no roles", p)
		}
		set := make(map[domain.Role]struct{}, len(roles))
		for _, role := range roles {
			if !role.IsValid() {
				return nil, fmt.Errorf("permission %q references unknown role %q", p, role)
			}
			set[role] = struct{}{}
		}
		r.roles[p] = set
		for role := range set {
			r.perms[role] = append(r.perms[role], p)
		}
	}

	for role := range r.perms {
		slices.Sort(r.perms[role])
	}

	return r, nil
}

// MustNewRegistry panics on an invalid table; used at process start.
func MustNewRegistry(entries map[Permission][]domain.Role) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustNewRegistry(table)

// Default returns the registry built from the built-in table.
func Default() *Registry {
	return defaultRegistry
}

// Known reports whether p is registered. An unknown permission is a
// configuration bug, not a runtime denial.
func (r *Registry) Known(p Permission) bool {
	_, ok := r.roles[p]
	return ok
}

// RolesOf returns the roles allowed to hold p, sorted.
func (r *Registry) RolesOf(p Permission) []domain.Role {
	set, ok := r.roles[p]
	if !ok {
		return nil
	}
	out := make([]domain.Role, 0, len(set))
	for role := range set {
		out = append(out, role)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) HasPermission(role domain.Role, p Permission) bool {
	set, ok := r.roles[p]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// PermissionsOf is the reverse lookup, used for introspection.
func (r *Registry) PermissionsOf(role domain.Role) []Permission {
	return slices.Clone(r.perms[role])
}
